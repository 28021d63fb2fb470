package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/repository"
)

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, search string) ([]models.Account, error)
	SetSuspended(ctx context.Context, id string, suspended bool) error
	SetNotice(ctx context.Context, id, notice string) error
	MarkNoticeRead(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type Ledger interface {
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	DebitClamped(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	ChargeSession(ctx context.Context, accountID, sessionID string, amount decimal.Decimal) (bool, error)
	IsSessionCharged(ctx context.Context, accountID, sessionID string) (bool, error)
}

type PhotoStore interface {
	Create(ctx context.Context, photo *models.PhotoRecord) error
	List(ctx context.Context, filter repository.PhotoFilter) ([]models.PhotoRecord, error)
	Count(ctx context.Context) (int, error)
}

type RechargeStore interface {
	Create(ctx context.Context, req *models.RechargeRequest) error
	List(ctx context.Context, accountID string, status models.RechargeStatus) ([]models.RechargeRequest, error)
	CountPending(ctx context.Context) (int, error)
	Approve(ctx context.Context, id string) (*models.RechargeRequest, error)
	Reject(ctx context.Context, id, reason string) (*models.RechargeRequest, error)
}

type SettingsStore interface {
	Get(ctx context.Context) (*models.SystemSettings, error)
	Save(ctx context.Context, s models.SystemSettings) error
	ReplacePaymentMethods(ctx context.Context, methods []models.PaymentMethod) error
	SetPaymentMethodLogo(ctx context.Context, position int, logoURL string) error
	EnsureDefaults(ctx context.Context, defaults models.SystemSettings) (bool, error)
}

// Transformer turns a source portrait into a styled one. Both images are base64 data URLs.
type Transformer interface {
	Transform(ctx context.Context, sourceImage, prompt string) (string, error)
}

// Notifier alerts administrators about events that need a manual decision.
type Notifier interface {
	NotifyRechargeSubmitted(ctx context.Context, req *models.RechargeRequest) error
}

type FileUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}
