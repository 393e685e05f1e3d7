package app

import (
	"context"

	"brightday_bot/internal/domain/announcement"
	"brightday_bot/internal/domain/birthday"
)

// DateFacts is historical trivia about a calendar date, already written in the
// active personality's voice.
type DateFacts struct {
	Text    string
	Sources []string
}

// FactsProvider looks up notable people and events for a birthday date.
type FactsProvider interface {
	FactsFor(ctx context.Context, md birthday.MonthDay) (DateFacts, error)
}

// RunReporter publishes a finished run somewhere operators will see it.
type RunReporter interface {
	ReportRun(ctx context.Context, summary Summary) error
}

// Observer receives pipeline events for metrics.
type Observer interface {
	RunCompleted(summary Summary)
	Announced(provenance announcement.Provenance)
	DeliveryFailed()
	ComposeRetried()
	LedgerFailed(op string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RunCompleted(Summary) {}
func (NopObserver) Announced(announcement.Provenance) {}
func (NopObserver) DeliveryFailed() {}
func (NopObserver) ComposeRetried() {}
func (NopObserver) LedgerFailed(string) {}
