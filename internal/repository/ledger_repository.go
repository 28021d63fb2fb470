package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// LedgerRepository owns every mutation of accounts.balance. Each mutation is a single
// conditional UPDATE so concurrent writers never lose an update.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// Credit adds amount to the balance and returns the new balance.
func (r *LedgerRepository) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return r.apply(ctx, `UPDATE accounts SET balance = balance + ?, updated_at = NOW() WHERE id = ?`, accountID, amount)
}

// DebitClamped subtracts amount, never going below zero, and returns the new balance.
func (r *LedgerRepository) DebitClamped(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return r.apply(ctx, `UPDATE accounts SET balance = GREATEST(balance - ?, 0), updated_at = NOW() WHERE id = ?`, accountID, amount)
}

func (r *LedgerRepository) apply(ctx context.Context, query, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, amount, accountID); err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	var balance decimal.Decimal
	if err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit balance tx: %w", err)
	}
	return balance, nil
}

// ChargeSession debits amount once per (account, session). It reports false without
// debiting when the session was already charged, and ErrInsufficientFunds when the
// balance no longer covers the amount.
func (r *LedgerRepository) ChargeSession(ctx context.Context, accountID, sessionID string, amount decimal.Decimal) (bool, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertCharge = `INSERT INTO generation_charges (account_id, session_id, amount) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertCharge, accountID, sessionID, amount); err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert generation charge: %w", err)
	}

	// MySQL reports zero affected rows for a no-op update, so a free generation skips the debit.
	if amount.IsPositive() {
		const debit = `
UPDATE accounts SET balance = balance - ?, updated_at = NOW()
WHERE id = ? AND balance >= ?`
		res, err := tx.ExecContext(ctx, debit, amount, accountID, amount)
		if err != nil {
			return false, fmt.Errorf("debit balance: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("debit rows affected: %w", err)
		}
		if affected == 0 {
			return false, ErrInsufficientFunds
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit charge tx: %w", err)
	}
	return true, nil
}

func (r *LedgerRepository) IsSessionCharged(ctx context.Context, accountID, sessionID string) (bool, error) {
	const query = `SELECT 1 FROM generation_charges WHERE account_id = ? AND session_id = ?`
	var one int
	if err := r.db.QueryRowContext(ctx, query, accountID, sessionID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check generation charge: %w", err)
	}
	return true, nil
}
