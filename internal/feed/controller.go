package feed

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vidfriends/feedclient/internal/metrics"
	"github.com/vidfriends/feedclient/internal/models"
)

// ErrOutOfRange is returned by Jump for an index outside the list.
var ErrOutOfRange = errors.New("feed index out of range")

// Controller owns the ordered video list, the active index and the play flag.
type Controller struct {
	metrics *metrics.Metrics

	mu      sync.Mutex
	videos  []models.Video
	index   int
	playing bool
	seq     uint64
	subs    map[string]func(Snapshot)
	unbind  func()
}

// NewController returns an empty feed with autoplay enabled. m may be nil.
func NewController(m *metrics.Metrics) *Controller {
	return &Controller{
		metrics: m,
		playing: true,
		subs:    make(map[string]func(Snapshot)),
	}
}

// State returns the current tagged state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Snapshot returns the list and state together.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Len returns the number of videos.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.videos)
}

// Replace swaps in a new list. The index and play flag carry over by
// position; an index beyond the new list is pulled back to its last entry.
func (c *Controller) Replace(videos []models.Video) {
	c.mu.Lock()
	c.videos = slices.Clone(videos)
	switch {
	case len(c.videos) == 0:
		c.index = 0
	case c.index >= len(c.videos):
		c.index = len(c.videos) - 1
	}
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// Reset moves back to the first video.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.index == 0 {
		c.mu.Unlock()
		return
	}
	c.index = 0
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// Up moves to the previous video. It reports false at the top.
func (c *Controller) Up() bool {
	return c.move(-1, "up")
}

// Down moves to the next video. It reports false at the bottom.
func (c *Controller) Down() bool {
	return c.move(1, "down")
}

func (c *Controller) move(delta int, kind string) bool {
	c.mu.Lock()
	next := c.index + delta
	if len(c.videos) == 0 || next < 0 || next >= len(c.videos) {
		c.mu.Unlock()
		return false
	}
	c.index = next
	snap := c.changedLocked()
	c.mu.Unlock()
	c.metrics.Navigation(kind)
	c.publish(snap)
	return true
}

// TogglePlay flips the play flag. The index is untouched.
func (c *Controller) TogglePlay() bool {
	c.mu.Lock()
	c.playing = !c.playing
	playing := c.playing
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
	return playing
}

// Jump makes video k active.
func (c *Controller) Jump(k int) error {
	c.mu.Lock()
	if k < 0 || k >= len(c.videos) {
		n := len(c.videos)
		c.mu.Unlock()
		return fmt.Errorf("jump to %d of %d: %w", k, n, ErrOutOfRange)
	}
	c.index = k
	snap := c.changedLocked()
	c.mu.Unlock()
	c.metrics.Navigation("jump")
	c.publish(snap)
	return nil
}

// Subscribe registers fn for every subsequent snapshot and delivers the
// current one immediately. The returned function unsubscribes.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	id := uuid.NewString()

	c.mu.Lock()
	c.subs[id] = fn
	snap := c.snapshotLocked()
	c.mu.Unlock()

	fn(snap)
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Controller) stateLocked() State {
	if len(c.videos) == 0 {
		return Empty{}
	}
	return Browsing{Index: c.index, Playing: c.playing}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{Seq: c.seq, Videos: slices.Clone(c.videos), State: c.stateLocked()}
}

func (c *Controller) changedLocked() Snapshot {
	c.seq++
	return c.snapshotLocked()
}

func (c *Controller) publish(snap Snapshot) {
	c.mu.Lock()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
