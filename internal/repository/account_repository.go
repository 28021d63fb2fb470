package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/digkill/PhotoStudio/internal/models"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `a.id, a.name, a.email, a.password_hash, a.role, a.balance, a.referral_code, a.is_suspended, COALESCE(a.personal_notice, ''), a.has_unread_notice, a.created_at`

func scanAccount(row rowScanner, extra ...any) (*models.Account, error) {
	var a models.Account
	dest := []any{&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Balance, &a.ReferralCode, &a.IsSuspended, &a.PersonalNotice, &a.HasUnreadNotice, &a.CreatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account. A clash on email or referral code returns ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	const query = `
INSERT INTO accounts (id, name, email, password_hash, role, balance, referral_code)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, account.ID, account.Name, account.Email, account.PasswordHash, account.Role, account.Balance, account.ReferralCode)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = ?`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.email = ?`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

// List returns accounts newest first with their photo counts. A non-empty search
// matches a name or email substring or an exact referral code.
func (r *AccountRepository) List(ctx context.Context, search string) ([]models.Account, error) {
	query := `
SELECT ` + accountColumns + `, COALESCE(p.cnt, 0)
FROM accounts a
LEFT JOIN (SELECT account_id, COUNT(*) AS cnt FROM photos GROUP BY account_id) p ON p.account_id = a.id`
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		like := containsPattern(search)
		query += `
WHERE a.name LIKE ? OR a.email LIKE ? OR a.referral_code = ?`
		args = append(args, like, like, strings.ToUpper(search))
	}
	query += `
ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var count int
		a, err := scanAccount(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.PhotoCount = count
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) SetSuspended(ctx context.Context, id string, suspended bool) error {
	const query = `UPDATE accounts SET is_suspended = ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, suspended, id); err != nil {
		return fmt.Errorf("set suspended: %w", err)
	}
	return nil
}

// SetNotice stores a personal notice and flags it unread.
func (r *AccountRepository) SetNotice(ctx context.Context, id, notice string) error {
	const query = `UPDATE accounts SET personal_notice = NULLIF(?, ''), has_unread_notice = ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, notice, notice != "", id); err != nil {
		return fmt.Errorf("set notice: %w", err)
	}
	return nil
}

func (r *AccountRepository) MarkNoticeRead(ctx context.Context, id string) error {
	const query = `UPDATE accounts SET has_unread_notice = 0, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark notice read: %w", err)
	}
	return nil
}

func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}
