package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/digkill/PhotoStudio/internal/config"
	"github.com/digkill/PhotoStudio/internal/imagedata"
)

var ErrNoImage = errors.New("gemini response contained no image")

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	log     *slog.Logger
}

func NewClient(ctx context.Context, cfg config.Config, log *slog.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		models:  gc.Models,
		model:   cfg.GeminiModel,
		timeout: cfg.RequestTimeout,
		log:     log,
	}, nil
}

// Transform sends the source portrait and the prompt to the image model and returns
// the first image part of the answer as a data URL.
func (c *Client) Transform(ctx context.Context, sourceImage, prompt string) (string, error) {
	src, err := imagedata.Parse(sourceImage)
	if err != nil {
		return "", fmt.Errorf("parse source image: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{
			genai.NewPartFromBytes(src.Data, src.MIMEType),
			genai.NewPartFromText(prompt),
		},
	}

	started := time.Now()
	result, err := c.models.GenerateContent(ctx, c.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			c.log.Info("gemini image received", "model", c.model, "bytes", len(part.InlineData.Data), "elapsed", time.Since(started))
			return imagedata.Encode(part.InlineData.MIMEType, part.InlineData.Data), nil
		}
	}

	if len(result.Candidates) > 0 && result.Candidates[0] != nil {
		c.log.Warn("gemini returned no image", "model", c.model, "finish_reason", result.Candidates[0].FinishReason)
	}
	return "", ErrNoImage
}
