package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gps-navigator/internal/common/log"
	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/navigation/domain"
)

const pollTimeout = 10 * time.Second

// Source reconciles the one-shot device poll and the push-channel stream
// into a single last-known position. Offer is the only ingestion point;
// the staleness rule (strictly increasing timestamps) is enforced there,
// so the merged value is always last-accepted-wins, never an average.
type Source struct {
	locator domain.DeviceLocator
	logger  *slog.Logger

	mu     sync.Mutex
	last   *geo.Position
	subs   map[int]func(geo.Position)
	nextID int
}

// NewSource creates a position source. locator may be nil when no device
// sensor is available; PollOnce then always fails with ErrLocationUnavailable.
func NewSource(locator domain.DeviceLocator, logger *slog.Logger) *Source {
	return &Source{
		locator: locator,
		logger:  logger,
		subs:    make(map[int]func(geo.Position)),
	}
}

// PollOnce performs a one-shot high-accuracy fetch with a 10s budget.
// An accepted result also updates the merged last-known position.
func (s *Source) PollOnce(ctx context.Context) (geo.Position, error) {
	if s.locator == nil {
		return geo.Position{}, nav.ErrLocationUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	position, err := s.locator.Locate(ctx)
	if err != nil {
		return geo.Position{}, fmt.Errorf("%w: %v", nav.ErrLocationUnavailable, err)
	}
	if err := position.Validate(); err != nil {
		return geo.Position{}, fmt.Errorf("%w: %v", nav.ErrLocationUnavailable, err)
	}

	s.Offer(position)
	return position, nil
}

// Offer ingests one position sample. It returns false when the sample is
// invalid or not strictly newer than the last accepted one; such samples
// are dropped silently (logged at DEBUG, never surfaced).
//
// Subscribers run synchronously on the offering goroutine while the source
// lock is held, so delivery order always matches acceptance order even
// when the poll and the push channel race on the same sink.
func (s *Source) Offer(position geo.Position) bool {
	if err := position.Validate(); err != nil {
		log.Warn(context.Background(), s.logger, "position_rejected", "Dropping invalid position sample", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil && !position.NewerThan(*s.last) {
		log.Debug(context.Background(), s.logger, "stale_position_dropped",
			fmt.Sprintf("Dropping out-of-order sample ts=%d last=%d", position.TimestampMillis, s.last.TimestampMillis))
		return false
	}

	p := position
	s.last = &p
	for _, fn := range s.subs {
		fn(position)
	}
	return true
}

// Subscribe registers for accepted position samples. The returned handle
// stops delivery; the caller owns the subscription lifetime.
func (s *Source) Subscribe(fn func(geo.Position)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Last returns the merged last-known position, if any sample was accepted.
func (s *Source) Last() (geo.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return geo.Position{}, false
	}
	return *s.last, true
}
