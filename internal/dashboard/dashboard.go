package dashboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vidfriends/feedclient/internal/models"
)

// Mode is the layout of the video list.
type Mode int

const (
	ModeGrid Mode = iota
	ModeList
)

// Toggle returns the other layout.
func (m Mode) Toggle() Mode {
	if m == ModeGrid {
		return ModeList
	}
	return ModeGrid
}

func (m Mode) String() string {
	if m == ModeList {
		return "list"
	}
	return "grid"
}

// ParseMode maps "list" to ModeList and anything else to ModeGrid.
func ParseMode(raw string) Mode {
	if strings.EqualFold(strings.TrimSpace(raw), "list") {
		return ModeList
	}
	return ModeGrid
}

const dateLayout = "Jan 2, 2006"

// Card is one entry of the user's video list.
type Card struct {
	ID          string
	Title       string
	Description string
	Likes       int
	Date        string
}

// View is the "my videos" page.
type View struct {
	Title      string
	Username   string
	CountLabel string
	CanUpload  bool
	Empty      bool
	EmptyText  string
	Mode       Mode
	Cards      []Card
}

// Build prepares the page for user's videos.
func Build(videos []models.Video, user models.UserProfile, mode Mode) View {
	v := View{
		Title:      "My Videos",
		Username:   user.Username,
		CountLabel: countLabel(len(videos)),
		CanUpload:  user.CanUpload(),
		Empty:      len(videos) == 0,
		Mode:       mode,
		Cards:      make([]Card, 0, len(videos)),
	}
	if v.Empty {
		v.EmptyText = "You haven't uploaded any videos yet"
		if !v.CanUpload {
			v.EmptyText = "No videos yet"
		}
	}
	for _, video := range videos {
		c := Card{
			ID:          video.ID,
			Title:       video.Title,
			Description: video.Description,
			Likes:       video.Likes,
		}
		if !video.CreatedAt.IsZero() {
			c.Date = video.CreatedAt.Format(dateLayout)
		}
		v.Cards = append(v.Cards, c)
	}
	return v
}

func countLabel(n int) string {
	if n == 1 {
		return "1 video"
	}
	return fmt.Sprintf("%d videos", n)
}

// Render writes the page as text.
func (v View) Render(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (@%s) · %s\n", v.Title, v.Username, v.CountLabel)
	if v.CanUpload {
		b.WriteString("[upload available]\n")
	}
	if v.Empty {
		fmt.Fprintf(&b, "\n%s\n", v.EmptyText)
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if v.Mode == ModeList {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TITLE\tLIKES\tDATE")
		for _, c := range v.Cards {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Title, c.Likes, c.Date)
		}
		return tw.Flush()
	}

	for _, c := range v.Cards {
		var card strings.Builder
		fmt.Fprintf(&card, "┌ %s\n", c.Title)
		if c.Description != "" {
			fmt.Fprintf(&card, "│ %s\n", c.Description)
		}
		fmt.Fprintf(&card, "└ ♥ %d", c.Likes)
		if c.Date != "" {
			fmt.Fprintf(&card, " · %s", c.Date)
		}
		card.WriteString("\n")
		if _, err := io.WriteString(w, card.String()); err != nil {
			return err
		}
	}
	return nil
}
