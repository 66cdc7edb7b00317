// Package simulator generates synthetic user activity and feeds it through
// the tracker, for demos and load checks.
package simulator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"activitynotifier/internal/models"
)

// MockUsers are the identities events are generated for.
var MockUsers = []models.User{
	{Identity: "0x1234567890123456789012345678901234567890", Email: "user1@example.com", Phone: "+1234567890"},
	{Identity: "0x0987654321098765432109876543210987654321", Email: "user2@example.com", Phone: "+0987654321"},
	{Identity: "0x5678901234567890123456789012345678901234", Email: "user3@example.com", Phone: "+5678901234"},
}

var (
	contentIDs    = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	searchQueries = []string{
		"blockchain", "ethereum", "solidity", "smart contract", "decentralized",
		"web3", "cryptocurrency", "NFT", "token", "DeFi",
	}
	selectors = []models.ChannelSelector{
		models.SelectNone, models.SelectEmail, models.SelectSMS, models.SelectChat, models.SelectAll,
	}
)

// Tracker is the part of the notification service the simulator drives.
type Tracker interface {
	Track(ctx context.Context, user models.User, kind models.ActivityKind, selector models.ChannelSelector, payload models.ActivityPayload) models.ActivityResult
}

// Simulator picks a random user, activity kind and channel selector for
// every event.
type Simulator struct {
	tracker Tracker
	delay   time.Duration
	logger  *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Simulator)

// WithDelay pauses between consecutive events.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) { s.delay = d }
}

// WithSeed makes the event sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func New(tracker Tracker, logger *slog.Logger, opts ...Option) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulator{
		tracker: tracker,
		logger:  logger.With("component", "simulator"),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Event returns one random event without tracking it.
func (s *Simulator) Event() (models.User, models.ActivityKind, models.ChannelSelector, models.ActivityPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := MockUsers[s.rng.IntN(len(MockUsers))]
	kind := models.ActivityKinds[s.rng.IntN(len(models.ActivityKinds))]
	selector := selectors[s.rng.IntN(len(selectors))]

	var payload models.ActivityPayload
	switch {
	case kind == models.ActivitySearch:
		payload.Query = searchQueries[s.rng.IntN(len(searchQueries))]
	case kind.NeedsContentID():
		payload.ContentID = contentIDs[s.rng.IntN(len(contentIDs))]
	}
	return user, kind, selector, payload
}

// Run tracks count random events in sequence. It stops early, returning the
// events tracked so far, when ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, count int) ([]models.SimulatedEvent, error) {
	events := make([]models.SimulatedEvent, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return events, ctx.Err()
			case <-time.After(s.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return events, err
		}

		user, kind, selector, payload := s.Event()
		s.logger.DebugContext(ctx, "Simulating activity",
			"identity", user.Identity,
			"kind", kind.String(),
			"selector", selector.String(),
		)

		result := s.tracker.Track(ctx, user, kind, selector, payload)
		events = append(events, models.SimulatedEvent{
			Identity: user.Identity,
			Kind:     kind,
			Channel:  selector,
			Payload:  payload,
			Result:   result,
		})
	}
	return events, nil
}
