package videos

import (
	"context"
	"errors"
	"testing"

	"github.com/vidfriends/feedclient/internal/api"
	"github.com/vidfriends/feedclient/internal/models"
)

type sourceStub struct {
	feed      api.Envelope
	feedErr   error
	mine      api.Envelope
	mineErr   error
	mineToken string
	mineCalls int
}

func (s *sourceStub) ListVideos(context.Context) (api.Envelope, error) {
	return s.feed, s.feedErr
}

func (s *sourceStub) ListMyVideos(_ context.Context, token string) (api.Envelope, error) {
	s.mineCalls++
	s.mineToken = token
	return s.mine, s.mineErr
}

var sunny = models.Session{Token: "tok", User: models.UserProfile{Username: "sunny", Role: models.RoleCreator}}

func TestListPublicFeed(t *testing.T) {
	stub := &sourceStub{feed: api.Envelope{Success: true, Videos: []models.Video{{ID: "a"}, {ID: "b"}}}}
	list, ok := NewRepository(stub).ListPublicFeed(context.Background())
	if !ok || len(list) != 2 || list[0].ID != "a" {
		t.Fatalf("unexpected result %+v ok=%v", list, ok)
	}
}

func TestListPublicFeedDegradesToEmpty(t *testing.T) {
	cases := []struct {
		name string
		stub *sourceStub
	}{
		{"transport", &sourceStub{feedErr: api.ErrTransport}},
		{"serverFailure", &sourceStub{feed: api.Envelope{Success: false, Message: "down"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, ok := NewRepository(tc.stub).ListPublicFeed(context.Background())
			if ok || len(list) != 0 {
				t.Fatalf("expected empty failure, got %+v ok=%v", list, ok)
			}
		})
	}
}

func TestListPublicFeedNilVideos(t *testing.T) {
	list, ok := NewRepository(&sourceStub{feed: api.Envelope{Success: true}}).ListPublicFeed(context.Background())
	if !ok || list == nil {
		t.Fatalf("expected empty non-nil list, got %#v ok=%v", list, ok)
	}
}

func TestListMineFiltersByEitherField(t *testing.T) {
	stub := &sourceStub{mine: api.Envelope{Success: true, Videos: []models.Video{
		{ID: "new", CreatorUsername: "sunny"},
		{ID: "legacy", Username: "sunny"},
		{ID: "other", CreatorUsername: "rain"},
		{ID: "mixed", CreatorUsername: "rain", Username: "sunny"},
	}}}

	list, ok := NewRepository(stub).ListMine(context.Background(), sunny)
	if !ok {
		t.Fatal("expected ok")
	}
	if stub.mineToken != "tok" {
		t.Fatalf("expected token forwarded, got %q", stub.mineToken)
	}
	ids := make([]string, 0, len(list))
	for _, v := range list {
		ids = append(ids, v.ID)
	}
	want := []string{"new", "legacy", "mixed"}
	if len(ids) != len(want) {
		t.Fatalf("unexpected ids %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected ids %v", ids)
		}
	}
}

func TestListMineFailures(t *testing.T) {
	stub := &sourceStub{mineErr: errors.New("dial tcp: refused")}
	if list, ok := NewRepository(stub).ListMine(context.Background(), sunny); ok || len(list) != 0 {
		t.Fatalf("expected failure, got %+v ok=%v", list, ok)
	}

	stub = &sourceStub{mine: api.Envelope{Success: false, Message: "Invalid token"}}
	if _, ok := NewRepository(stub).ListMine(context.Background(), sunny); ok {
		t.Fatal("expected rejected token to report !ok")
	}

	stub = &sourceStub{}
	if _, ok := NewRepository(stub).ListMine(context.Background(), models.Session{}); ok || stub.mineCalls != 0 {
		t.Fatalf("expected no call without a session, calls=%d", stub.mineCalls)
	}
}

func TestNilRepository(t *testing.T) {
	var repo *Repository
	if _, ok := repo.ListPublicFeed(context.Background()); ok {
		t.Fatal("expected nil repository to fail softly")
	}
}

func TestFilterByCreatorEmptyUsername(t *testing.T) {
	if got := FilterByCreator([]models.Video{{ID: "x"}}, " "); len(got) != 0 {
		t.Fatalf("expected nothing for blank username, got %+v", got)
	}
}
