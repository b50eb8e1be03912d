package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bryanmjl/Real-Time-Quote-Server/internal/protocol"
	"github.com/bryanmjl/Real-Time-Quote-Server/pkg/models"
)

const DefaultInterval = 1 * time.Second

// Snapshotter yields a consistent point-in-time view of who is
// subscribed to what.
type Snapshotter interface {
	SnapshotActive() map[string][]string
}

// QuoteSource produces one fresh quote per symbol per tick.
type QuoteSource interface {
	Generate(symbol string) models.Quote
}

// Deliverer pushes one payload to one session. A false return means
// the session is gone or unreachable; the pass continues regardless.
type Deliverer interface {
	Deliver(sessionID string, payload []byte) bool
}

// SnapshotWriter receives the latest payload per symbol so new
// subscribers can be primed between ticks. Optional.
type SnapshotWriter interface {
	SetQuote(ctx context.Context, symbol string, payload []byte) error
}

// FeedPublisher mirrors generated quotes to an external feed. Optional.
type FeedPublisher interface {
	Publish(ctx context.Context, symbol string, payload []byte) error
}

// Scheduler is the single recurring broadcast driver: one instance per
// process, started once at startup. Each tick it snapshots the
// registry, generates exactly one quote per active symbol, and
// delivers the identical payload to every subscriber in list order.
// Ticks are strictly sequential; a pass that overruns the interval is
// followed immediately by the next tick, never by a backlog.
type Scheduler struct {
	logger   *zap.Logger
	registry Snapshotter
	quotes   QuoteSource
	sink     Deliverer
	store    SnapshotWriter
	feed     FeedPublisher
	interval time.Duration
	seq      uint64
}

// New wires a scheduler. store and feed may be nil; interval <= 0
// falls back to DefaultInterval.
func New(
	logger *zap.Logger,
	reg Snapshotter,
	quotes QuoteSource,
	sink Deliverer,
	store SnapshotWriter,
	feed FeedPublisher,
	interval time.Duration,
) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		logger:   logger,
		registry: reg,
		quotes:   quotes,
		sink:     sink,
		store:    store,
		feed:     feed,
		interval: interval,
	}
}

// Run drives the tick loop until the context is cancelled. An
// in-flight tick always finishes; the ticker's one-slot buffer means a
// late tick fires immediately afterwards instead of being skipped or
// queued.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Broadcast scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Broadcast scheduler stopped", zap.Uint64("ticks", s.seq))
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one full broadcast pass. No failure inside a pass is ever
// fatal: a bad symbol is skipped for this tick only and a dead session
// never stops delivery to the rest.
func (s *Scheduler) tick(ctx context.Context) {
	s.seq++
	snapshot := s.registry.SnapshotActive()

	for symbol, subscribers := range snapshot {
		if len(subscribers) == 0 {
			continue
		}

		payload, err := s.quotePayload(symbol)
		if err != nil {
			s.logger.Error("Quote generation failed, skipping symbol this tick",
				zap.String("symbol", symbol), zap.Uint64("tick", s.seq), zap.Error(err))
			continue
		}

		if s.store != nil {
			if err := s.store.SetQuote(ctx, symbol, payload); err != nil {
				s.logger.Warn("Snapshot write failed", zap.String("symbol", symbol), zap.Error(err))
			}
		}
		if s.feed != nil {
			if err := s.feed.Publish(ctx, symbol, payload); err != nil {
				s.logger.Warn("Feed publish failed", zap.String("symbol", symbol), zap.Error(err))
			}
		}

		for _, sessionID := range subscribers {
			if !s.sink.Deliver(sessionID, payload) {
				s.logger.Debug("Delivery failed, session gone or unreachable",
					zap.String("symbol", symbol), zap.String("session_id", sessionID))
			}
		}
	}
}

// quotePayload generates and marshals one quote, containing any panic
// from the source so a single bad symbol cannot kill the loop.
func (s *Scheduler) quotePayload(symbol string) (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
	}()

	q := s.quotes.Generate(symbol)
	return json.Marshal(protocol.QuoteChange{Type: protocol.TypeQuoteChange, Quote: q})
}
