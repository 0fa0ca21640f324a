package feed

import "github.com/vidfriends/feedclient/internal/models"

// State is the feed's tagged state: Empty or Browsing.
type State interface {
	isState()
}

// Empty means there is nothing to show.
type Empty struct{}

// Browsing means Index addresses a video in the list. Playing is the single
// play flag applied to the active video.
type Browsing struct {
	Index   int
	Playing bool
}

func (Empty) isState()    {}
func (Browsing) isState() {}

// Snapshot is what subscribers receive after every change. Seq increases
// with each change so that late deliveries can be discarded.
type Snapshot struct {
	Seq    uint64
	Videos []models.Video
	State  State
}

// Active returns the active video, if any.
func (s Snapshot) Active() (models.Video, bool) {
	b, ok := s.State.(Browsing)
	if !ok || b.Index < 0 || b.Index >= len(s.Videos) {
		return models.Video{}, false
	}
	return s.Videos[b.Index], true
}
