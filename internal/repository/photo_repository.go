package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/digkill/PhotoStudio/internal/models"
)

type PhotoRepository struct {
	db *sql.DB
}

func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

type PhotoFilter struct {
	AccountID string
	// Day limits results to one UTC calendar day when non-zero.
	Day time.Time
	// Search matches an exact account id or an account name substring.
	Search string
}

func (r *PhotoRepository) Create(ctx context.Context, photo *models.PhotoRecord) error {
	options, err := json.Marshal(photo.Options)
	if err != nil {
		return fmt.Errorf("marshal photo options: %w", err)
	}
	const query = `
INSERT INTO photos (id, account_id, account_name, original_image, result_image, options, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, photo.ID, photo.AccountID, photo.AccountName, photo.OriginalImage, photo.ResultImage, options, photo.CreatedAt); err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// List returns photo records newest first.
func (r *PhotoRepository) List(ctx context.Context, filter PhotoFilter) ([]models.PhotoRecord, error) {
	query := `
SELECT id, account_id, account_name, original_image, result_image, options, created_at
FROM photos`
	var (
		conds []string
		args  []any
	)
	if filter.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if !filter.Day.IsZero() {
		start := time.Date(filter.Day.Year(), filter.Day.Month(), filter.Day.Day(), 0, 0, 0, 0, time.UTC)
		conds = append(conds, "created_at >= ? AND created_at < ?")
		args = append(args, start, start.Add(24*time.Hour))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		conds = append(conds, "(account_id = ? OR account_name LIKE ?)")
		args = append(args, s, containsPattern(s))
	}
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []models.PhotoRecord
	for rows.Next() {
		var (
			p   models.PhotoRecord
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.AccountID, &p.AccountName, &p.OriginalImage, &p.ResultImage, &raw, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		if err := json.Unmarshal(raw, &p.Options); err != nil {
			return nil, fmt.Errorf("decode photo options %s: %w", p.ID, err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (r *PhotoRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return count, nil
}
