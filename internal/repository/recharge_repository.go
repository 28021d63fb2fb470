package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/PhotoStudio/internal/models"
)

type RechargeRepository struct {
	db *sql.DB
}

func NewRechargeRepository(db *sql.DB) *RechargeRepository {
	return &RechargeRepository{db: db}
}

const rechargeColumns = `id, account_id, account_name, amount, method, sender_number, trx_id, status, COALESCE(rejection_reason, ''), created_at`

func scanRecharge(row rowScanner) (*models.RechargeRequest, error) {
	var r models.RechargeRequest
	if err := row.Scan(&r.ID, &r.AccountID, &r.AccountName, &r.Amount, &r.Method, &r.SenderNumber, &r.TrxID, &r.Status, &r.RejectionReason, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create queues a recharge request. A repeated (method, trx_id) pair returns ErrDuplicate.
func (r *RechargeRepository) Create(ctx context.Context, req *models.RechargeRequest) error {
	const query = `
INSERT INTO recharge_requests (id, account_id, account_name, amount, method, sender_number, trx_id, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, req.ID, req.AccountID, req.AccountName, req.Amount, req.Method, req.SenderNumber, req.TrxID, req.Status, req.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert recharge request: %w", err)
	}
	return nil
}

func (r *RechargeRepository) FindByID(ctx context.Context, id string) (*models.RechargeRequest, error) {
	query := `SELECT ` + rechargeColumns + ` FROM recharge_requests WHERE id = ?`
	req, err := scanRecharge(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan recharge request: %w", err)
	}
	return req, nil
}

// List returns requests newest first. Empty accountID or status means no filter on that column.
func (r *RechargeRepository) List(ctx context.Context, accountID string, status models.RechargeStatus) ([]models.RechargeRequest, error) {
	query := `SELECT ` + rechargeColumns + ` FROM recharge_requests
WHERE (? = '' OR account_id = ?) AND (? = '' OR status = ?)
ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, accountID, accountID, status, status)
	if err != nil {
		return nil, fmt.Errorf("list recharge requests: %w", err)
	}
	defer rows.Close()

	var out []models.RechargeRequest
	for rows.Next() {
		req, err := scanRecharge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recharge request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (r *RechargeRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recharge_requests WHERE status = ?`, models.RechargePending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending recharges: %w", err)
	}
	return count, nil
}

// Approve marks a pending request APPROVED and credits its amount to the owner
// in one transaction.
func (r *RechargeRepository) Approve(ctx context.Context, id string) (*models.RechargeRequest, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + rechargeColumns + ` FROM recharge_requests WHERE id = ? FOR UPDATE`
	req, err := scanRecharge(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock recharge request: %w", err)
	}
	if req.Status != models.RechargePending {
		return nil, ErrNotPending
	}

	if _, err := tx.ExecContext(ctx, `UPDATE recharge_requests SET status = ?, updated_at = NOW() WHERE id = ?`, models.RechargeApproved, id); err != nil {
		return nil, fmt.Errorf("approve recharge request: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = balance + ?, updated_at = NOW() WHERE id = ?`, req.Amount, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("credit recharge: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("credit rows affected: %w", err)
	} else if affected == 0 {
		return nil, fmt.Errorf("credit recharge %s: account %s: %w", id, req.AccountID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approve tx: %w", err)
	}
	req.Status = models.RechargeApproved
	return req, nil
}

// Reject marks a pending request REJECTED with the given reason. The balance is untouched.
func (r *RechargeRepository) Reject(ctx context.Context, id, reason string) (*models.RechargeRequest, error) {
	const query = `
UPDATE recharge_requests SET status = ?, rejection_reason = ?, updated_at = NOW()
WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, models.RechargeRejected, reason, id, models.RechargePending)
	if err != nil {
		return nil, fmt.Errorf("reject recharge request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reject rows affected: %w", err)
	}

	req, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if affected == 0 {
		return nil, ErrNotPending
	}
	return req, nil
}
