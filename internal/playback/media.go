package playback

import "context"

// Event is a notification from a media resource.
type Event int

const (
	// EventReady fires when the first frame is available or playback can
	// start, whichever comes first. It may fire more than once.
	EventReady Event = iota + 1
	// EventFailed fires when the resource cannot be decoded or fetched.
	EventFailed
)

func (e Event) String() string {
	switch e {
	case EventReady:
		return "ready"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Media is a playable resource. Load starts loading without blocking and
// reports progress through emit. Play may be rejected; callers treat a
// rejection as harmless. Play and Pause must not call emit.
type Media interface {
	Load(ctx context.Context, emit func(Event))
	Play(ctx context.Context) error
	Pause()
}

// MediaFactory builds the media resource for a video URL.
type MediaFactory func(videoURL string) Media
