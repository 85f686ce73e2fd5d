package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/database"
	"github.com/aristath/lotto/internal/domain"
)

// RefreshRecord is one row of the refresh log
type RefreshRecord struct {
	RunAt    time.Time `json:"runAt"`
	Source   string    `json:"source"`
	Fetched  int       `json:"fetched"`
	Accepted int       `json:"accepted"`
	Added    int       `json:"added"`
	Error    string    `json:"error,omitempty"`
}

// Repository stores draws in the history database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a repository on a migrated history database
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// All returns every stored draw, oldest first
func (r *Repository) All(ctx context.Context) ([]domain.Draw, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT draw_date, n1, n2, n3, n4, n5, n6, bonus
		FROM draws
		ORDER BY draw_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query draws: %w", err)
	}
	defer rows.Close()

	var draws []domain.Draw
	for rows.Next() {
		var d domain.Draw
		if err := rows.Scan(&d.Date, &d.Numbers[0], &d.Numbers[1], &d.Numbers[2],
			&d.Numbers[3], &d.Numbers[4], &d.Numbers[5], &d.Bonus); err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draws: %w", err)
	}
	return draws, nil
}

// Insert stores draws whose date is not present yet and returns how many were written
func (r *Repository) Insert(ctx context.Context, draws []domain.Draw) (int, error) {
	if len(draws) == 0 {
		return 0, nil
	}

	inserted := 0
	now := time.Now().Unix()
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO draws (draw_date, n1, n2, n3, n4, n5, n6, bonus, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, d := range draws {
			res, err := stmt.ExecContext(ctx, d.Date, d.Numbers[0], d.Numbers[1], d.Numbers[2],
				d.Numbers[3], d.Numbers[4], d.Numbers[5], d.Bonus, now)
			if err != nil {
				return fmt.Errorf("insert draw %s: %w", d.Date, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store draws: %w", err)
	}

	r.log.Debug().Int("inserted", inserted).Int("offered", len(draws)).Msg("Stored draws")
	return inserted, nil
}

// Count returns the number of stored draws
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM draws").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count draws: %w", err)
	}
	return count, nil
}

// RecordRefresh appends a refresh outcome to the log
func (r *Repository) RecordRefresh(ctx context.Context, rec RefreshRecord) error {
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_log (run_at, source, fetched, accepted, added, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.RunAt.Unix(), rec.Source, rec.Fetched, rec.Accepted, rec.Added, errText)
	if err != nil {
		return fmt.Errorf("failed to record refresh: %w", err)
	}
	return nil
}

// LastRefresh returns the most recent refresh record, or nil if there is none
func (r *Repository) LastRefresh(ctx context.Context) (*RefreshRecord, error) {
	var (
		rec     RefreshRecord
		runAt   int64
		errText sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT run_at, source, fetched, accepted, added, error
		FROM refresh_log
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&runAt, &rec.Source, &rec.Fetched, &rec.Accepted, &rec.Added, &errText)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh log: %w", err)
	}

	rec.RunAt = time.Unix(runAt, 0).UTC()
	rec.Error = errText.String
	return &rec, nil
}
