package birthday

import (
	"context"
	"errors"
)

// ErrBirthdayNotFound is returned when no record exists for a subject.
var ErrBirthdayNotFound = errors.New("birthday not found")

// Repository defines the operations for persisting and retrieving birthday records.
type Repository interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, subjectID string) (Record, error)
	// Save inserts or replaces the record and reports whether one already existed.
	Save(ctx context.Context, r Record) (updated bool, err error)
	Remove(ctx context.Context, subjectID string) error
}
