package domain

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"sync"

	"github.com/jonboulle/clockwork"
)

const (
	OrderNumberPrefix      = "OS"
	maxOrderNumberAttempts = 10
	orderNumberSpace       = 1_000_000
)

var orderNumberRegex = regexp.MustCompile(`^OS-\d{8}-\d{6}$`)

// IsOrderNumber reports whether s has the OS-YYYYMMDD-NNNNNN shape.
func IsOrderNumber(s string) bool {
	return orderNumberRegex.MatchString(s)
}

// ExistsFunc reports whether an order number is already taken.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// OrderNumberGenerator produces order numbers of the form OS-YYYYMMDD-NNNNNN.
// With an ExistsFunc it retries random suffixes up to ten times and then
// falls back to a millisecond timestamp suffix that is strictly increasing
// per generator. Safe for concurrent use.
type OrderNumberGenerator struct {
	clock  clockwork.Clock
	exists ExistsFunc

	mu           sync.Mutex
	lastFallback int64
}

func NewOrderNumberGenerator(clock clockwork.Clock, exists ExistsFunc) *OrderNumberGenerator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OrderNumberGenerator{clock: clock, exists: exists}
}

// Next returns a new order number. A failing existence check stops the
// random attempts and uses the timestamp fallback.
func (g *OrderNumberGenerator) Next(ctx context.Context) string {
	date := g.clock.Now().Format("20060102")

	if g.exists == nil {
		return formatOrderNumber(date, rand.Int64N(orderNumberSpace))
	}

	for range maxOrderNumberAttempts {
		number := formatOrderNumber(date, rand.Int64N(orderNumberSpace))
		taken, err := g.exists(ctx, number)
		if err != nil {
			break
		}
		if !taken {
			return number
		}
	}

	return g.fallback(date)
}

func (g *OrderNumberGenerator) fallback(date string) string {
	g.mu.Lock()
	ms := g.clock.Now().UnixMilli()
	if ms <= g.lastFallback {
		ms = g.lastFallback + 1
	}
	g.lastFallback = ms
	g.mu.Unlock()

	return formatOrderNumber(date, ms%orderNumberSpace)
}

func formatOrderNumber(date string, suffix int64) string {
	return fmt.Sprintf("%s-%s-%06d", OrderNumberPrefix, date, suffix)
}
