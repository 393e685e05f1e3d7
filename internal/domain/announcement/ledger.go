// internal/domain/announcement/ledger.go
package announcement

import (
	"context"
	"errors"
	"time"
)

// ErrPersistence wraps every ledger read or write failure.
var ErrPersistence = errors.New("announcement ledger persistence failure")

// Ledger tracks which subjects were announced on which calendar day.
// All day arguments are reduced to their UTC date with DayKey.
type Ledger interface {
	// AnnouncedOn returns the subjects marked for day; empty when nothing is stored yet.
	AnnouncedOn(ctx context.Context, day time.Time) (map[string]struct{}, error)
	// MarkAnnounced records subjectID for day. Marking twice is harmless.
	MarkAnnounced(ctx context.Context, day time.Time, subjectID string) error
	// Rotate drops every marker whose day differs from day.
	Rotate(ctx context.Context, day time.Time) error
}
