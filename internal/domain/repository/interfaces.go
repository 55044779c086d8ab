package repository

import (
	"context"

	"FinSignal/internal/domain/models"
)

// MarketData is the exchange collaborator.
type MarketData interface {
	// ListInstruments returns tradable symbols; it may be empty.
	ListInstruments(ctx context.Context) ([]string, error)
	// FetchBars returns up to count bars newest-first, as the exchange delivers them.
	FetchBars(ctx context.Context, symbol string, interval Interval, count int) ([]models.Bar, error)
}

// Notifier delivers one formatted message.
// A nil error is success; *models.RetryAfterError, models.ErrTransient and
// models.ErrPermanent classify failures. Anything else is treated as transient.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// UniverseCache keeps the listed instrument universe between runs.
type UniverseCache interface {
	GetUniverse(ctx context.Context) ([]string, bool)
	SetUniverse(ctx context.Context, symbols []string)
}

// RunLock prevents two runs for the same slot, possibly across processes.
type RunLock interface {
	TryLock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type Metrics interface {
	RecordSignal(direction string)
	RecordEnqueued()
	RecordDelivery(result string)
	RecordSendAttempt(result string)
	RecordFetchFailure(interval string)
	RecordCutoff()
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
