package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/PhotoStudio/internal/models"
)

// SettingsRepository persists the singleton settings row and its ordered payment methods.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const settingsID = 1

// Get returns nil when the settings row has not been seeded yet.
func (r *SettingsRepository) Get(ctx context.Context) (*models.SystemSettings, error) {
	const query = `
SELECT notice, helpline, generation_cost, welcome_bonus, admin_pin
FROM system_settings WHERE id = ?`
	var s models.SystemSettings
	if err := r.db.QueryRowContext(ctx, query, settingsID).Scan(&s.Notice, &s.Helpline, &s.GenerationCost, &s.WelcomeBonus, &s.AdminPIN); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	methods, err := r.paymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	s.PaymentMethods = methods
	return &s, nil
}

func (r *SettingsRepository) paymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, number, logo_url FROM payment_methods ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	methods := []models.PaymentMethod{}
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(&m.Name, &m.Number, &m.LogoURL); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// Save overwrites the settings row and replaces the payment method list.
func (r *SettingsRepository) Save(ctx context.Context, s models.SystemSettings) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO system_settings (id, notice, helpline, generation_cost, welcome_bonus, admin_pin)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE notice = VALUES(notice), helpline = VALUES(helpline), generation_cost = VALUES(generation_cost),
    welcome_bonus = VALUES(welcome_bonus), admin_pin = VALUES(admin_pin)`
	if _, err := tx.ExecContext(ctx, upsert, settingsID, s.Notice, s.Helpline, s.GenerationCost, s.WelcomeBonus, s.AdminPIN); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	if err := replacePaymentMethods(ctx, tx, s.PaymentMethods); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings tx: %w", err)
	}
	return nil
}

func (r *SettingsRepository) ReplacePaymentMethods(ctx context.Context, methods []models.PaymentMethod) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := replacePaymentMethods(ctx, tx, methods); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment methods tx: %w", err)
	}
	return nil
}

func replacePaymentMethods(ctx context.Context, tx *sql.Tx, methods []models.PaymentMethod) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_methods`); err != nil {
		return fmt.Errorf("clear payment methods: %w", err)
	}
	for i, m := range methods {
		const insert = `INSERT INTO payment_methods (position, name, number, logo_url) VALUES (?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, insert, i, m.Name, m.Number, m.LogoURL); err != nil {
			return fmt.Errorf("insert payment method %q: %w", m.Name, err)
		}
	}
	return nil
}

// SetPaymentMethodLogo stores the logo URL for the method at position. Existence is
// checked with a SELECT because an UPDATE writing the same URL affects zero rows.
func (r *SettingsRepository) SetPaymentMethodLogo(ctx context.Context, position int, logoURL string) error {
	var found int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM payment_methods WHERE position = ?`, position).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find payment method: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE payment_methods SET logo_url = ? WHERE position = ?`, logoURL, position); err != nil {
		return fmt.Errorf("set payment method logo: %w", err)
	}
	return nil
}

// EnsureDefaults seeds the settings row when missing. It reports whether it wrote anything.
func (r *SettingsRepository) EnsureDefaults(ctx context.Context, defaults models.SystemSettings) (bool, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return false, err
	}
	if current != nil {
		return false, nil
	}
	if err := r.Save(ctx, defaults); err != nil {
		return false, fmt.Errorf("seed settings: %w", err)
	}
	return true, nil
}
