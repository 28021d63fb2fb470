package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/digkill/PhotoStudio/internal/repository"
)

type Direction string

const (
	DirectionAdd      Direction = "ADD"
	DirectionSubtract Direction = "SUBTRACT"
)

type LedgerService struct {
	log    *slog.Logger
	ledger Ledger
}

func NewLedgerService(log *slog.Logger, ledger Ledger) *LedgerService {
	return &LedgerService{log: log, ledger: ledger}
}

// Adjust applies an administrator balance change and returns the resulting balance.
// A non-numeric or non-positive amount changes nothing. Subtraction stops at zero.
func (s *LedgerService) Adjust(ctx context.Context, accountID, amountText string, direction Direction) (decimal.Decimal, error) {
	dir := Direction(strings.ToUpper(strings.TrimSpace(string(direction))))
	if dir != DirectionAdd && dir != DirectionSubtract {
		return decimal.Zero, invalidf("direction must be ADD or SUBTRACT")
	}

	// Balances hold two decimals; anything that rounds to zero is a no-op.
	amount, err := decimal.NewFromString(strings.TrimSpace(amountText))
	amount = amount.Round(2)
	if err != nil || !amount.IsPositive() {
		return s.balance(ctx, accountID)
	}

	var balance decimal.Decimal
	if dir == DirectionAdd {
		balance, err = s.ledger.Credit(ctx, accountID, amount)
	} else {
		balance, err = s.ledger.DebitClamped(ctx, accountID, amount)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}

	s.log.Info("balance adjusted", "account_id", accountID, "direction", dir, "amount", amount.String(), "balance", balance.String())
	return balance, nil
}

func (s *LedgerService) balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	balance, err := s.ledger.Balance(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, ErrNotFound
	}
	return balance, err
}
