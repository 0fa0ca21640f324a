package playback

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/metrics"
	"github.com/vidfriends/feedclient/internal/models"
)

// FallbackMessage is shown in place of a video that failed to load.
const FallbackMessage = "Video unavailable"

// CardState is the load state of one card.
type CardState int

const (
	NotLoaded CardState = iota
	Loaded
	Errored
)

func (s CardState) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return "not_loaded"
	}
}

// Card drives one media resource from the feed's active index and play flag.
// A failure stays inside the card.
type Card struct {
	video   models.Video
	media   Media
	metrics *metrics.Metrics
	logger  *slog.Logger

	// driveMu orders Play and Pause calls so the last one reflects the
	// latest Apply.
	driveMu sync.Mutex

	mu      sync.Mutex
	state   CardState
	active  bool
	playing bool
	ctx     context.Context
}

// NewCard wraps media for video. m may be nil.
func NewCard(video models.Video, media Media, m *metrics.Metrics) *Card {
	return &Card{
		video:   video,
		media:   media,
		metrics: m,
		logger:  slog.Default(),
		ctx:     context.Background(),
	}
}

// Video returns the card's video.
func (c *Card) Video() models.Video {
	return c.video
}

// State returns the card's load state.
func (c *Card) State() CardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load starts loading the media.
func (c *Card) Load(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.logger = logging.FromContext(ctx).With(slog.String("videoId", c.video.ID))
	c.mu.Unlock()
	c.media.Load(ctx, c.handle)
}

func (c *Card) handle(ev Event) {
	c.mu.Lock()
	switch {
	case c.state == Errored:
		c.mu.Unlock()
		return
	case ev == EventFailed:
		c.state = Errored
		c.mu.Unlock()
		c.log().Warn("video failed to load", slog.String("url", c.video.VideoURL))
		c.metrics.PlaybackFailed()
		c.driveMu.Lock()
		c.media.Pause()
		c.driveMu.Unlock()
		return
	case ev == EventReady && c.state == NotLoaded:
		c.state = Loaded
		ctx := c.ctx
		c.mu.Unlock()
		c.drive(ctx)
		return
	}
	c.mu.Unlock()
}

// Apply sets whether this card is active and whether the feed is playing.
// Only the active card is ever asked to play.
func (c *Card) Apply(ctx context.Context, active, playing bool) {
	c.mu.Lock()
	c.active = active
	c.playing = playing
	c.mu.Unlock()
	c.drive(ctx)
}

// drive plays or pauses from the flags as they stand under driveMu.
func (c *Card) drive(ctx context.Context) {
	c.driveMu.Lock()
	defer c.driveMu.Unlock()

	c.mu.Lock()
	errored := c.state == Errored
	play := c.active && c.playing
	c.mu.Unlock()
	if errored {
		return
	}
	if play {
		if err := c.media.Play(ctx); err != nil {
			c.log().Debug("play rejected", slog.String("error", err.Error()))
		}
		return
	}
	c.media.Pause()
}

func (c *Card) log() *slog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// Stop pauses the media for good.
func (c *Card) Stop() {
	c.driveMu.Lock()
	defer c.driveMu.Unlock()
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
	c.media.Pause()
}

// CardView is what a card renders.
type CardView struct {
	Title       string
	Description string
	Creator     string
	Likes       int
	Active      bool
	Spinner     bool
	PlayOverlay bool
	Controls    bool
	Fallback    string
}

// View describes the card in its current state. An errored card shows the
// fallback message and the title, without controls.
func (c *Card) View() CardView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := CardView{
		Title:       c.video.Title,
		Description: c.video.Description,
		Creator:     c.video.Creator(),
		Likes:       c.video.Likes,
		Active:      c.active,
	}
	switch c.state {
	case NotLoaded:
		v.Spinner = true
	case Loaded:
		v.Controls = true
		v.PlayOverlay = c.active && !c.playing
	case Errored:
		v.Fallback = FallbackMessage
		v.Description = ""
	}
	return v
}
