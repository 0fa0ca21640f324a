package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/vidfriends/feedclient/internal/feed"
	"github.com/vidfriends/feedclient/internal/playback"
)

// EmptyFeedText is shown when there is nothing in the feed.
const EmptyFeedText = "No videos available"

// RenderFeed writes the active card and a column of navigation dots, one per
// video, with the active one filled.
func RenderFeed(w io.Writer, snap feed.Snapshot, cards []playback.CardView) error {
	b, ok := snap.State.(feed.Browsing)
	if !ok || len(cards) == 0 {
		_, err := fmt.Fprintln(w, EmptyFeedText)
		return err
	}
	if b.Index >= len(cards) {
		b.Index = len(cards) - 1
	}
	card := cards[b.Index]

	var out strings.Builder
	fmt.Fprintf(&out, "[%d/%d] %s\n", b.Index+1, len(cards), dots(len(cards), b.Index))
	switch {
	case card.Fallback != "":
		fmt.Fprintf(&out, "%s\n%s\n", card.Fallback, card.Title)
	default:
		status := "▶ playing"
		switch {
		case card.Spinner:
			status = "… loading"
		case card.PlayOverlay:
			status = "❚❚ paused"
		}
		fmt.Fprintf(&out, "%s\n", card.Title)
		if card.Creator != "" {
			fmt.Fprintf(&out, "@%s\n", card.Creator)
		}
		if card.Description != "" {
			fmt.Fprintf(&out, "%s\n", card.Description)
		}
		fmt.Fprintf(&out, "♥ %d  %s\n", card.Likes, status)
	}
	_, err := io.WriteString(w, out.String())
	return err
}

func dots(n, active int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i == active {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	return b.String()
}
