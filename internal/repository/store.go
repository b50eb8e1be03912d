package repository

import "context"

// QuoteStore keeps the latest broadcast payload per symbol so a fresh
// subscriber can be primed immediately instead of waiting for the next
// tick. It is a cache of generated output only; the registry remains
// the sole source of subscription truth.
type QuoteStore interface {
	SetQuote(ctx context.Context, symbol string, payload []byte) error
	GetQuote(ctx context.Context, symbol string) ([]byte, bool, error)
	Close() error
}
