package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/digkill/PhotoStudio/internal/imagedata"
	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/repository"
)

const settingsCacheKey = "photostudio:settings"

// SettingsCache is satisfied by *cache.ViewCache[models.SystemSettings].
type SettingsCache interface {
	Get(ctx context.Context, key string) (*models.SystemSettings, bool)
	Set(ctx context.Context, key string, value *models.SystemSettings)
	Delete(ctx context.Context, key string)
}

type SettingsService struct {
	log      *slog.Logger
	store    SettingsStore
	cache    SettingsCache
	uploader FileUploader
	defaults models.SystemSettings
}

type SettingsInput struct {
	Notice         string
	Helpline       string
	GenerationCost decimal.Decimal
	WelcomeBonus   decimal.Decimal
	AdminPIN       string
	// PaymentMethods replaces the list when non-nil.
	PaymentMethods []models.PaymentMethod
}

// NewSettingsService builds the service. cache and uploader may be nil.
func NewSettingsService(log *slog.Logger, store SettingsStore, cache SettingsCache, uploader FileUploader, defaults models.SystemSettings) *SettingsService {
	return &SettingsService{log: log, store: store, cache: cache, uploader: uploader, defaults: defaults}
}

// DefaultSettings are seeded on first start.
func DefaultSettings(cost, bonus decimal.Decimal, pin string) models.SystemSettings {
	return models.SystemSettings{
		Notice:   "Welcome to the AI photo studio.",
		Helpline: "",
		PaymentMethods: []models.PaymentMethod{
			{Name: "bKash", Number: "01XXXXXXXXX"},
			{Name: "Nagad", Number: "01XXXXXXXXX"},
		},
		GenerationCost: cost,
		WelcomeBonus:   bonus,
		AdminPIN:       pin,
	}
}

func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	created, err := s.store.EnsureDefaults(ctx, s.defaults)
	if err != nil {
		return err
	}
	if created {
		s.log.Info("default settings seeded")
	}
	return nil
}

// Get returns the current settings, including admin-only fields.
func (s *SettingsService) Get(ctx context.Context) (models.SystemSettings, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, settingsCacheKey); ok {
			return *cached, nil
		}
	}
	current, err := s.store.Get(ctx)
	if err != nil {
		return models.SystemSettings{}, err
	}
	if current == nil {
		return s.defaults, nil
	}
	if s.cache != nil {
		s.cache.Set(ctx, settingsCacheKey, current)
	}
	return *current, nil
}

func (s *SettingsService) Update(ctx context.Context, in SettingsInput) (models.SystemSettings, error) {
	if in.GenerationCost.IsNegative() || in.WelcomeBonus.IsNegative() {
		return models.SystemSettings{}, invalidf("cost and welcome bonus cannot be negative")
	}
	pin := strings.TrimSpace(in.AdminPIN)
	if pin == "" {
		return models.SystemSettings{}, invalidf("admin pin is required")
	}

	current, err := s.Get(ctx)
	if err != nil {
		return models.SystemSettings{}, err
	}
	next := models.SystemSettings{
		Notice:         strings.TrimSpace(in.Notice),
		Helpline:       strings.TrimSpace(in.Helpline),
		PaymentMethods: current.PaymentMethods,
		GenerationCost: in.GenerationCost.Round(2),
		WelcomeBonus:   in.WelcomeBonus.Round(2),
		AdminPIN:       pin,
	}
	if in.PaymentMethods != nil {
		if next.PaymentMethods, err = normalizeMethods(in.PaymentMethods); err != nil {
			return models.SystemSettings{}, err
		}
	}

	if err := s.store.Save(ctx, next); err != nil {
		return models.SystemSettings{}, err
	}
	s.invalidate(ctx)
	s.log.Info("settings updated", "generation_cost", next.GenerationCost.String(), "payment_methods", len(next.PaymentMethods))
	return next, nil
}

func (s *SettingsService) ReplacePaymentMethods(ctx context.Context, methods []models.PaymentMethod) (models.SystemSettings, error) {
	normalized, err := normalizeMethods(methods)
	if err != nil {
		return models.SystemSettings{}, err
	}
	if err := s.store.ReplacePaymentMethods(ctx, normalized); err != nil {
		return models.SystemSettings{}, err
	}
	s.invalidate(ctx)
	return s.Get(ctx)
}

// UploadLogo stores a payment method logo in object storage and records its URL.
func (s *SettingsService) UploadLogo(ctx context.Context, position int, data []byte, contentType string) (models.SystemSettings, error) {
	if s.uploader == nil {
		return models.SystemSettings{}, ErrStorageDisabled
	}
	ct, err := imagedata.ContentType(contentType, data)
	if err != nil {
		return models.SystemSettings{}, invalidf("logo: %v", err)
	}
	url, err := s.uploader.Upload(ctx, data, ct)
	if err != nil {
		return models.SystemSettings{}, fmt.Errorf("upload logo: %w", err)
	}
	if err := s.store.SetPaymentMethodLogo(ctx, position, url); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.SystemSettings{}, ErrNotFound
		}
		return models.SystemSettings{}, err
	}
	s.invalidate(ctx)
	return s.Get(ctx)
}

func (s *SettingsService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Delete(ctx, settingsCacheKey)
	}
}

func normalizeMethods(methods []models.PaymentMethod) ([]models.PaymentMethod, error) {
	seen := make(map[string]struct{}, len(methods))
	out := make([]models.PaymentMethod, 0, len(methods))
	for _, m := range methods {
		m.Name = strings.TrimSpace(m.Name)
		m.Number = strings.TrimSpace(m.Number)
		if m.Name == "" || m.Number == "" {
			return nil, invalidf("payment method name and number are required")
		}
		if _, dup := seen[m.Name]; dup {
			return nil, invalidf("payment method %q listed twice", m.Name)
		}
		seen[m.Name] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}
