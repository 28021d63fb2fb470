package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/digkill/PhotoStudio/internal/imagedata"
	"github.com/digkill/PhotoStudio/internal/metrics"
	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/repository"
)

type GenerationService struct {
	log         *slog.Logger
	ledger      Ledger
	photos      PhotoStore
	transformer Transformer
	now         func() time.Time
}

type GenerationRequest struct {
	// SessionID identifies one studio session. At most one charge is taken per session.
	SessionID   string
	SourceImage string
	Options     models.GenerationOptions
}

type GenerationResult struct {
	ResultImage string              `json:"result_image"`
	Charged     bool                `json:"charged"`
	Balance     decimal.Decimal     `json:"balance"`
	Record      *models.PhotoRecord `json:"record"`
}

func NewGenerationService(log *slog.Logger, ledger Ledger, photos PhotoStore, transformer Transformer) *GenerationService {
	return &GenerationService{
		log:         log,
		ledger:      ledger,
		photos:      photos,
		transformer: transformer,
		now:         time.Now,
	}
}

// NewSession returns a fresh session token for the studio page.
func (s *GenerationService) NewSession() string {
	return uuid.NewString()
}

// Generate runs one paid generation. The balance is checked before the transformer is
// called and debited only after it succeeds; retries within a session are free.
func (s *GenerationService) Generate(ctx context.Context, account *models.Account, req GenerationRequest, settings models.SystemSettings) (*GenerationResult, error) {
	if account.IsSuspended {
		return nil, ErrAccountSuspended
	}
	if _, err := uuid.Parse(req.SessionID); err != nil {
		return nil, invalidf("session id must be a uuid")
	}
	if _, err := imagedata.Parse(req.SourceImage); err != nil {
		return nil, invalidf("source image: %v", err)
	}
	if err := req.Options.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	cost := settings.GenerationCost
	log := s.log.With("account_id", account.ID, "session_id", req.SessionID)

	paid, err := s.ledger.IsSessionCharged(ctx, account.ID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !paid {
		balance, err := s.ledger.Balance(ctx, account.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if balance.LessThan(cost) {
			metrics.RecordGeneration("insufficient_balance")
			return nil, ErrInsufficientBalance
		}
	}

	directive := BuildDirective(req.Options)
	started := s.now()
	result, err := s.transformer.Transform(ctx, req.SourceImage, directive.Prompt())
	metrics.ObserveTransform(s.now().Sub(started))
	if err != nil {
		metrics.RecordGeneration("failed")
		log.Warn("transformer failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(result) == "" {
		metrics.RecordGeneration("failed")
		log.Warn("transformer returned no image")
		return nil, ErrGenerationFailed
	}

	charged := false
	if !paid {
		charged, err = s.ledger.ChargeSession(ctx, account.ID, req.SessionID, cost)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				metrics.RecordGeneration("insufficient_balance")
				log.Info("balance drained during generation")
				return nil, ErrInsufficientBalance
			}
			return nil, fmt.Errorf("charge session: %w", err)
		}
	}

	record := &models.PhotoRecord{
		ID:            uuid.NewString(),
		AccountID:     account.ID,
		AccountName:   account.Name,
		OriginalImage: req.SourceImage,
		ResultImage:   result,
		Options:       req.Options.Snapshot(),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.photos.Create(ctx, record); err != nil {
		// The charge stands; the session token lets the user retry for free.
		log.Error("photo record not saved after charge", "charged", charged, "err", err)
		metrics.RecordGeneration("record_failed")
		return nil, fmt.Errorf("save photo record: %w", err)
	}

	balance, err := s.ledger.Balance(ctx, account.ID)
	if err != nil {
		log.Warn("read balance after generation", "err", err)
	}
	metrics.RecordGeneration("success")
	log.Info("generation completed", "charged", charged, "cost", cost.String())

	return &GenerationResult{
		ResultImage: result,
		Charged:     charged,
		Balance:     balance,
		Record:      record,
	}, nil
}

func (s *GenerationService) History(ctx context.Context, accountID string, day time.Time) ([]models.PhotoRecord, error) {
	return s.photos.List(ctx, repository.PhotoFilter{AccountID: accountID, Day: day})
}

// Search lists photos for administrators. The query matches an account id or name.
func (s *GenerationService) Search(ctx context.Context, query string) ([]models.PhotoRecord, error) {
	return s.photos.List(ctx, repository.PhotoFilter{Search: query})
}
