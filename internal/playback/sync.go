package playback

import (
	"context"
	"strconv"
	"sync"

	"github.com/vidfriends/feedclient/internal/feed"
	"github.com/vidfriends/feedclient/internal/metrics"
)

// Feed is the part of the feed controller Sync listens to.
type Feed interface {
	Subscribe(fn func(feed.Snapshot)) func()
}

// Sync keeps one card per video and applies every feed snapshot to them:
// the active card follows the play flag, every other card is paused.
type Sync struct {
	ctx     context.Context
	factory MediaFactory
	metrics *metrics.Metrics

	// applyMu orders snapshot application end to end.
	applyMu sync.Mutex

	mu      sync.Mutex
	seq     uint64
	started bool
	order   []string
	cards   map[string]*Card
	cancel  func()
}

// NewSync subscribes to f and starts driving cards. Media resources are
// created through factory as videos appear. m may be nil.
func NewSync(ctx context.Context, f Feed, factory MediaFactory, m *metrics.Metrics) *Sync {
	s := &Sync{
		ctx:     ctx,
		factory: factory,
		metrics: m,
		cards:   make(map[string]*Card),
	}
	cancel := f.Subscribe(s.apply)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	return s
}

// Cards returns the cards in feed order.
func (s *Sync) Cards() []*Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Card, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.cards[key])
	}
	return out
}

// Close unsubscribes and pauses every card.
func (s *Sync) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	cards := make([]*Card, 0, len(s.cards))
	for _, c := range s.cards {
		cards = append(cards, c)
	}
	s.cards = make(map[string]*Card)
	s.order = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, c := range cards {
		c.Stop()
	}
}

func (s *Sync) apply(snap feed.Snapshot) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if s.started && snap.Seq <= s.seq {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.seq = snap.Seq

	next := make(map[string]*Card, len(snap.Videos))
	order := make([]string, 0, len(snap.Videos))
	var fresh, removed []*Card
	for i, v := range snap.Videos {
		key := v.ID
		if key == "" {
			key = "#" + strconv.Itoa(i)
		}
		if _, dup := next[key]; dup {
			key = key + "#" + strconv.Itoa(i)
		}
		card, ok := s.cards[key]
		if !ok {
			card = NewCard(v, s.factory(v.VideoURL), s.metrics)
			fresh = append(fresh, card)
		}
		next[key] = card
		order = append(order, key)
	}
	for key, card := range s.cards {
		if _, ok := next[key]; !ok {
			removed = append(removed, card)
		}
	}
	s.cards = next
	s.order = order

	active, playing := -1, false
	if b, ok := snap.State.(feed.Browsing); ok {
		active, playing = b.Index, b.Playing
	}
	cards := make([]*Card, len(order))
	for i, key := range order {
		cards[i] = next[key]
	}
	s.mu.Unlock()

	for _, c := range removed {
		c.Stop()
	}
	for _, c := range fresh {
		c.Load(s.ctx)
	}
	for i, c := range cards {
		c.Apply(s.ctx, i == active, playing)
	}
}
