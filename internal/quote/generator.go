package quote

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bryanmjl/Real-Time-Quote-Server/pkg/models"
)

// Simulation price range. Every field of every quote is drawn from
// [priceFloor, priceFloor+priceSpan].
const (
	priceFloor = 100.0
	priceSpan  = 100.0
)

// Rand is the source of randomness, split out for deterministic tests.
type Rand interface {
	Float64() float64
}

// Generator produces synthetic quotes. Safe for concurrent use: the
// underlying source is guarded by a mutex.
type Generator struct {
	mu  sync.Mutex
	rng Rand
}

// NewGenerator returns a generator backed by rng, or by a time-seeded
// source when rng is nil.
func NewGenerator(rng Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate draws a fresh quote for the symbol. Any string is an
// acceptable symbol; values carry no memory of prior calls.
func (g *Generator) Generate(symbol string) models.Quote {
	return models.Quote{
		Symbol: symbol,
		Open:   g.price(),
		High:   g.price(),
		Low:    g.price(),
		Bid:    g.price(),
		Ask:    g.price(),
	}
}

func (g *Generator) price() float64 {
	g.mu.Lock()
	raw := priceFloor + g.rng.Float64()*priceSpan
	g.mu.Unlock()

	f, _ := decimal.NewFromFloat(raw).Round(2).Float64()
	return f
}
