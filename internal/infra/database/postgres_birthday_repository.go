package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brightday_bot/internal/domain/birthday"

	"github.com/sirupsen/logrus"
)

type PostgresBirthdayRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresBirthdayRepository(db *sql.DB, logger *logrus.Entry) *PostgresBirthdayRepository {
	return &PostgresBirthdayRepository{db: db, logger: logger}
}

func (r *PostgresBirthdayRepository) List(ctx context.Context) ([]birthday.Record, error) {
	query := `SELECT subject_id, day, month, birth_year
               FROM birthdays ORDER BY month, day, subject_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing birthdays: %w", err)
	}
	defer rows.Close()

	var records []birthday.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if errors.Is(err, birthday.ErrInvalidMonthDay) {
			r.logger.WithError(err).Warn("Skipping invalid stored birthday.")
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating birthday rows: %w", err)
	}
	return records, nil
}

func (r *PostgresBirthdayRepository) Get(ctx context.Context, subjectID string) (birthday.Record, error) {
	query := `SELECT subject_id, day, month, birth_year
               FROM birthdays WHERE subject_id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, subjectID))
	if err == sql.ErrNoRows {
		return birthday.Record{}, birthday.ErrBirthdayNotFound
	}
	return rec, err
}

// Save upserts the record. xmax is non-zero for a row version produced by an
// update, which tells an update apart from an insert in one round trip.
func (r *PostgresBirthdayRepository) Save(ctx context.Context, rec birthday.Record) (bool, error) {
	query := `INSERT INTO birthdays (subject_id, day, month, birth_year)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (subject_id) DO UPDATE
               SET day = EXCLUDED.day, month = EXCLUDED.month, birth_year = EXCLUDED.birth_year, updated_at = NOW()
               RETURNING (xmax <> 0)`
	var year sql.NullInt64
	if rec.HasYear() {
		year = sql.NullInt64{Int64: int64(rec.Year), Valid: true}
	}
	var updated bool
	err := r.db.QueryRowContext(ctx, query, rec.SubjectID, rec.Date.Day, int(rec.Date.Month), year).Scan(&updated)
	if err != nil {
		return false, fmt.Errorf("error saving birthday: %w", err)
	}
	return updated, nil
}

func (r *PostgresBirthdayRepository) Remove(ctx context.Context, subjectID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM birthdays WHERE subject_id = $1`, subjectID)
	if err != nil {
		return fmt.Errorf("error removing birthday: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking removed rows: %w", err)
	}
	if affected == 0 {
		return birthday.ErrBirthdayNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (birthday.Record, error) {
	var (
		subjectID  string
		day, month int
		year       sql.NullInt64
	)
	if err := row.Scan(&subjectID, &day, &month, &year); err != nil {
		if err == sql.ErrNoRows {
			return birthday.Record{}, err
		}
		return birthday.Record{}, fmt.Errorf("error scanning birthday: %w", err)
	}
	md := birthday.MonthDay{Day: day, Month: time.Month(month)}
	if !md.Valid() {
		return birthday.Record{}, fmt.Errorf("stored birthday for %s: %w", subjectID, birthday.ErrInvalidMonthDay)
	}
	rec := birthday.Record{SubjectID: subjectID, Date: md}
	if year.Valid {
		rec.Year = int(year.Int64)
		if !md.ExistsIn(rec.Year) {
			return birthday.Record{}, fmt.Errorf("stored birthday for %s: %w: %s does not exist in %d", subjectID, birthday.ErrInvalidMonthDay, md, rec.Year)
		}
	}
	return rec, nil
}
