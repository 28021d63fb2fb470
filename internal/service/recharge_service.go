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

	"github.com/digkill/PhotoStudio/internal/metrics"
	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/repository"
)

type RechargeService struct {
	log       *slog.Logger
	recharges RechargeStore
	notifier  Notifier
	now       func() time.Time
}

type RechargeInput struct {
	Amount       decimal.Decimal
	Method       string
	SenderNumber string
	TrxID        string
}

// NewRechargeService builds the service. notifier may be nil.
func NewRechargeService(log *slog.Logger, recharges RechargeStore, notifier Notifier) *RechargeService {
	return &RechargeService{log: log, recharges: recharges, notifier: notifier, now: time.Now}
}

// Submit queues a funding claim for review. Nothing is credited until an admin approves it.
func (s *RechargeService) Submit(ctx context.Context, account *models.Account, in RechargeInput, settings models.SystemSettings) (*models.RechargeRequest, error) {
	method := strings.TrimSpace(in.Method)
	sender := strings.TrimSpace(in.SenderNumber)
	trx := strings.ToUpper(strings.TrimSpace(in.TrxID))
	amount := in.Amount.Round(2)

	switch {
	case !amount.IsPositive():
		return nil, invalidf("amount must be positive")
	case sender == "":
		return nil, invalidf("sender number is required")
	case trx == "":
		return nil, invalidf("transaction id is required")
	case !settings.HasPaymentMethod(method):
		return nil, invalidf("unknown payment method %q", method)
	}

	req := &models.RechargeRequest{
		ID:           uuid.NewString(),
		AccountID:    account.ID,
		AccountName:  account.Name,
		Amount:       amount,
		Method:       method,
		SenderNumber: sender,
		TrxID:        trx,
		Status:       models.RechargePending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.recharges.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.RecordRecharge("duplicate")
			return nil, ErrDuplicateTransaction
		}
		return nil, err
	}
	metrics.RecordRecharge("submitted")
	s.log.Info("recharge submitted", "recharge_id", req.ID, "account_id", account.ID, "amount", req.Amount.String(), "method", method)

	if s.notifier != nil {
		if err := s.notifier.NotifyRechargeSubmitted(ctx, req); err != nil {
			s.log.Warn("notify recharge submitted", "recharge_id", req.ID, "err", err)
		}
	}
	return req, nil
}

func (s *RechargeService) ListForAccount(ctx context.Context, accountID string) ([]models.RechargeRequest, error) {
	return s.recharges.List(ctx, accountID, "")
}

// List returns all requests, optionally narrowed to one status.
func (s *RechargeService) List(ctx context.Context, status models.RechargeStatus) ([]models.RechargeRequest, error) {
	if status != "" && !status.Valid() {
		return nil, invalidf("unknown status %q", status)
	}
	return s.recharges.List(ctx, "", status)
}

// Approve credits the requested amount to the owner. Only pending requests can be approved.
func (s *RechargeService) Approve(ctx context.Context, id string) (*models.RechargeRequest, error) {
	req, err := s.recharges.Approve(ctx, id)
	if err != nil {
		return nil, mapRechargeErr(err)
	}
	metrics.RecordRecharge("approved")
	s.log.Info("recharge approved", "recharge_id", id, "account_id", req.AccountID, "amount", req.Amount.String())
	return req, nil
}

func (s *RechargeService) Reject(ctx context.Context, id, reason string) (*models.RechargeRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalidf("rejection reason is required")
	}
	req, err := s.recharges.Reject(ctx, id, reason)
	if err != nil {
		return nil, mapRechargeErr(err)
	}
	metrics.RecordRecharge("rejected")
	s.log.Info("recharge rejected", "recharge_id", id, "account_id", req.AccountID)
	return req, nil
}

func mapRechargeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotPending):
		return ErrRechargeNotPending
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("resolve recharge: %w", err)
	}
}
