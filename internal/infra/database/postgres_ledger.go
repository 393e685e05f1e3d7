package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"brightday_bot/internal/domain/announcement"
)

// PostgresLedger is an announcement.Ledger keyed by (calendar_day, subject_id).
// Concurrent schedulers may share it: the marker insert is atomic.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) AnnouncedOn(ctx context.Context, day time.Time) (map[string]struct{}, error) {
	query := `SELECT subject_id FROM announcement_markers WHERE calendar_day = $1`
	rows, err := l.db.QueryContext(ctx, query, announcement.DayKey(day))
	if err != nil {
		return nil, fmt.Errorf("%w: query markers: %w", announcement.ErrPersistence, err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan marker: %w", announcement.ErrPersistence, err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate markers: %w", announcement.ErrPersistence, err)
	}
	return out, nil
}

func (l *PostgresLedger) MarkAnnounced(ctx context.Context, day time.Time, subjectID string) error {
	query := `INSERT INTO announcement_markers (calendar_day, subject_id)
               VALUES ($1, $2)
               ON CONFLICT (calendar_day, subject_id) DO NOTHING`
	if _, err := l.db.ExecContext(ctx, query, announcement.DayKey(day), subjectID); err != nil {
		return fmt.Errorf("%w: insert marker: %w", announcement.ErrPersistence, err)
	}
	return nil
}

func (l *PostgresLedger) Rotate(ctx context.Context, day time.Time) error {
	query := `DELETE FROM announcement_markers WHERE calendar_day <> $1`
	if _, err := l.db.ExecContext(ctx, query, announcement.DayKey(day)); err != nil {
		return fmt.Errorf("%w: delete stale markers: %w", announcement.ErrPersistence, err)
	}
	return nil
}
