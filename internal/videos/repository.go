package videos

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vidfriends/feedclient/internal/api"
	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/models"
)

// Source is the subset of the backend client the repository reads from.
type Source interface {
	ListVideos(ctx context.Context) (api.Envelope, error)
	ListMyVideos(ctx context.Context, token string) (api.Envelope, error)
}

// Repository turns the two list endpoints into typed fetches. It never
// returns an error: a failed fetch degrades to an empty list and a log line.
type Repository struct {
	source Source
}

// NewRepository constructs a Repository reading from source.
func NewRepository(source Source) *Repository {
	return &Repository{source: source}
}

// ListPublicFeed fetches the public feed. ok is false when the backend did
// not confirm success.
func (r *Repository) ListPublicFeed(ctx context.Context) (list []models.Video, ok bool) {
	logger := logging.FromContext(ctx)
	if r == nil || r.source == nil {
		logger.Error("video source unavailable")
		return nil, false
	}

	env, err := r.source.ListVideos(ctx)
	if err != nil {
		logger.Error("error fetching videos", slog.String("error", err.Error()))
		return nil, false
	}
	if !env.Success {
		logger.Warn("feed fetch rejected", slog.String("message", env.Message))
		return nil, false
	}
	return nonNil(env.Videos), true
}

// ListMine fetches the session user's videos and keeps only those the user
// created. ok reports whether the backend accepted the token, which is what
// session restore relies on.
func (r *Repository) ListMine(ctx context.Context, sess models.Session) (list []models.Video, ok bool) {
	logger := logging.FromContext(ctx)
	if r == nil || r.source == nil {
		logger.Error("video source unavailable")
		return nil, false
	}
	if !sess.Valid() {
		return nil, false
	}

	env, err := r.source.ListMyVideos(ctx, sess.Token)
	if err != nil {
		logger.Error("error fetching user videos", slog.String("error", err.Error()))
		return nil, false
	}
	if !env.Success {
		logger.Warn("user videos fetch rejected", slog.String("message", env.Message))
		return nil, false
	}
	return FilterByCreator(env.Videos, sess.User.Username), true
}

// FilterByCreator keeps videos whose creator matches username, checking the
// current creatorUsername field and the legacy username field.
func FilterByCreator(list []models.Video, username string) []models.Video {
	out := make([]models.Video, 0, len(list))
	username = strings.TrimSpace(username)
	if username == "" {
		return out
	}
	for _, v := range list {
		if v.CreatorUsername == username || v.Username == username {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(list []models.Video) []models.Video {
	if list == nil {
		return []models.Video{}
	}
	return list
}
