package kie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/digkill/PhotoStudio/internal/config"
	"github.com/digkill/PhotoStudio/internal/imagedata"
)

const (
	modelNanoBananaPro = "nano-banana-pro"
	defaultMaxAttempts = 60
	maxResultBytes     = 20 << 20
)

var (
	ErrTaskFailed  = errors.New("kie task failed")
	ErrTaskTimeout = errors.New("kie task did not finish in time")
)

// Uploader publishes the source image so the task can fetch it by URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	uploader     Uploader
	pollInterval time.Duration
	maxAttempts  int
	log          *slog.Logger
}

type taskState struct {
	State      string `json:"state"`
	ResultJSON string `json:"resultJson"`
	FailCode   string `json:"failCode"`
	FailMsg    string `json:"failMsg"`
}

func NewClient(cfg config.Config, uploader Uploader, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	interval := cfg.KIEPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Client{
		apiKey:       cfg.KIEAPIKey,
		baseURL:      strings.TrimRight(cfg.KIEBaseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		uploader:     uploader,
		pollInterval: interval,
		maxAttempts:  defaultMaxAttempts,
		log:          log,
	}
}

// Transform runs the prompt against nano-banana-pro with the source portrait as image input.
func (c *Client) Transform(ctx context.Context, sourceImage, prompt string) (string, error) {
	src, err := imagedata.Parse(sourceImage)
	if err != nil {
		return "", fmt.Errorf("parse source image: %w", err)
	}
	inputURL, err := c.uploader.Upload(ctx, src.Data, src.MIMEType)
	if err != nil {
		return "", fmt.Errorf("upload source image: %w", err)
	}

	taskID, err := c.createTask(ctx, map[string]any{
		"model": modelNanoBananaPro,
		"input": map[string]any{
			"prompt":        prompt,
			"image_input":   []string{inputURL},
			"aspect_ratio":  "3:4",
			"resolution":    "2K",
			"output_format": "png",
		},
	})
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	resultURL, err := c.waitForResult(ctx, taskID)
	if err != nil {
		return "", err
	}
	return c.download(ctx, resultURL)
}

func (c *Client) createTask(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var created struct {
		TaskID string `json:"taskId"`
	}
	if err := c.call(ctx, http.MethodPost, c.endpoint("/api/v1/jobs/createTask", nil), body, &created); err != nil {
		return "", err
	}
	if created.TaskID == "" {
		return "", fmt.Errorf("empty taskId in response")
	}
	c.log.Info("kie task created", "task_id", created.TaskID, "model", payload["model"])
	return created.TaskID, nil
}

func (c *Client) waitForResult(ctx context.Context, taskID string) (string, error) {
	statusURL := c.endpoint("/api/v1/jobs/recordInfo", url.Values{"taskId": {taskID}})

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		var st taskState
		if err := c.call(ctx, http.MethodGet, statusURL, nil, &st); err != nil {
			return "", fmt.Errorf("poll task %s: %w", taskID, err)
		}

		switch st.State {
		case "success":
			var result struct {
				ResultURLs []string `json:"resultUrls"`
			}
			if err := json.Unmarshal([]byte(st.ResultJSON), &result); err != nil {
				return "", fmt.Errorf("parse resultJson: %w", err)
			}
			if len(result.ResultURLs) == 0 {
				return "", fmt.Errorf("%w: no result urls", ErrTaskFailed)
			}
			c.log.Info("kie task completed", "task_id", taskID, "attempt", attempt)
			return result.ResultURLs[0], nil
		case "fail":
			msg := st.FailMsg
			if msg == "" {
				msg = "unknown error"
			}
			c.log.Warn("kie task failed", "task_id", taskID, "fail_code", st.FailCode, "fail_msg", msg)
			return "", fmt.Errorf("%w: %s (code %s)", ErrTaskFailed, msg, st.FailCode)
		case "waiting", "generating", "processing", "queued", "queueing":
			if attempt%10 == 0 {
				c.log.Info("kie task still running", "task_id", taskID, "attempt", attempt)
			}
		default:
			return "", fmt.Errorf("unknown task state %q", st.State)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return "", fmt.Errorf("%w: %d attempts", ErrTaskTimeout, c.maxAttempts)
}

// call performs an authenticated request and decodes the data field of the
// {code, msg, data} envelope into out.
func (c *Client) call(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("kie error: status=%d body=%s", resp.StatusCode, truncateBody(raw))
	}

	var envelope struct {
		Code int             `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w (body=%s)", err, truncateBody(raw))
	}
	if envelope.Code != http.StatusOK {
		return fmt.Errorf("kie error: code=%d msg=%s", envelope.Code, envelope.Msg)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, resultURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download result: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))
	if err != nil {
		return "", fmt.Errorf("read result: %w", err)
	}
	mime, err := imagedata.ContentType(resp.Header.Get("Content-Type"), data)
	if err != nil {
		return "", fmt.Errorf("result %s: %w", resultURL, err)
	}
	return imagedata.Encode(mime, data), nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
