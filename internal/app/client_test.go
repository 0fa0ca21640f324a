package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vidfriends/feedclient/internal/api"
	"github.com/vidfriends/feedclient/internal/auth"
	"github.com/vidfriends/feedclient/internal/feed"
	"github.com/vidfriends/feedclient/internal/models"
	"github.com/vidfriends/feedclient/internal/session"
	"github.com/vidfriends/feedclient/internal/upload"
	"github.com/vidfriends/feedclient/internal/videos"
)

type immediateClock struct{}

func (immediateClock) Every(time.Duration, func()) func() { return func() {} }

func (immediateClock) After(_ time.Duration, fn func()) func() {
	fn()
	return func() {}
}

type clientFixture struct {
	client   *Client
	backend  *fakeBackend
	mem      *session.MemoryBackend
	store    *session.Store
	keyboard *feed.Dispatcher
	closed   int
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	fb, srv := newFakeBackend(t)
	apiClient, err := api.NewClient(srv.URL, api.Options{})
	require.NoError(t, err)

	fx := &clientFixture{backend: fb, mem: session.NewMemoryBackend(), keyboard: feed.NewDispatcher()}
	fx.store = session.NewStore(fx.mem)
	fx.client = NewClient(ClientDeps{
		Auth:     auth.NewController(apiClient, fx.store, nil),
		Videos:   videos.NewRepository(apiClient),
		Feed:     feed.NewController(nil),
		Keyboard: fx.keyboard,
		NewUpload: func(onSuccess func(context.Context)) *upload.Controller {
			return upload.NewController(apiClient, upload.Config{}, upload.Options{
				Clock:     immediateClock{},
				OnSuccess: onSuccess,
				OnClose:   func() { fx.closed++ },
			})
		},
	})
	return fx
}

func TestLoginScenario(t *testing.T) {
	fx := newClientFixture(t)
	ctx := context.Background()
	fx.client.Mount(ctx)
	require.NoError(t, fx.client.Feed().Jump(2))
	_, mineBefore, _ := fx.backend.counts()
	require.Zero(t, mineBefore)
	require.Zero(t, fx.keyboard.Listeners())

	res := fx.client.Login(ctx, "a@b.c", "secret")
	require.True(t, res.Success)
	require.True(t, fx.client.Session().Valid())

	_, mine, _ := fx.backend.counts()
	require.Equal(t, 1, mine)
	require.Equal(t, feed.Browsing{Index: 0, Playing: true}, fx.client.Feed().State())
	require.Equal(t, "Two,Three", titles(fx.client.Mine()))
	require.Equal(t, 1, fx.keyboard.Listeners())
}

func TestLoginFailureLeavesLoggedOut(t *testing.T) {
	fx := newClientFixture(t)
	res := fx.client.Login(context.Background(), "a@b.c", "wrong")
	require.Equal(t, models.Fail("Invalid credentials"), res)
	require.False(t, fx.client.Session().Valid())
	require.Zero(t, fx.keyboard.Listeners())
}

func TestMountRestoresVerifiedSession(t *testing.T) {
	fx := newClientFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.Save(ctx, models.Session{Token: "tok-123", User: fx.backend.user}))

	fx.client.Mount(ctx)
	require.True(t, fx.client.Session().Valid())
	require.Equal(t, "Two,Three", titles(fx.client.Mine()))
	require.Equal(t, 3, fx.client.Feed().Len())
	require.False(t, fx.client.Loading())
	require.Equal(t, 1, fx.keyboard.Listeners())
}

func TestMountRejectedSessionIsFullyLoggedOut(t *testing.T) {
	fx := newClientFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.Save(ctx, models.Session{Token: "revoked", User: fx.backend.user}))

	fx.client.Mount(ctx)
	require.False(t, fx.client.Session().Valid())
	require.False(t, fx.mem.Has(session.KeyToken))
	require.False(t, fx.mem.Has(session.KeyUser))
	require.Empty(t, fx.client.Mine())
	require.Zero(t, fx.keyboard.Listeners())
	require.Equal(t, 3, fx.client.Feed().Len())
}

func TestLogoutClearsEverything(t *testing.T) {
	fx := newClientFixture(t)
	ctx := context.Background()
	fx.client.Mount(ctx)
	require.True(t, fx.client.Login(ctx, "a@b.c", "secret").Success)
	require.NoError(t, fx.client.Feed().Jump(2))
	fx.client.SetView(ViewMine)

	require.NoError(t, fx.client.Logout(ctx))
	require.False(t, fx.mem.Has(session.KeyToken))
	require.False(t, fx.mem.Has(session.KeyUser))
	require.Equal(t, 0, fx.client.Feed().State().(feed.Browsing).Index)
	require.Zero(t, fx.keyboard.Listeners())
	require.Equal(t, ViewFeed, fx.client.View())
	require.Empty(t, fx.client.Mine())

	fx.keyboard.Press(feed.KeyArrowDown)
	require.Equal(t, 0, fx.client.Feed().State().(feed.Browsing).Index)
}

func TestSetViewRequiresSession(t *testing.T) {
	fx := newClientFixture(t)
	fx.client.SetView(ViewMine)
	require.Equal(t, ViewFeed, fx.client.View())
}

func TestUploadScenario(t *testing.T) {
	fx := newClientFixture(t)
	ctx := context.Background()
	fx.client.Mount(ctx)
	require.True(t, fx.client.Login(ctx, "a@b.c", "secret").Success)
	feedBefore, mineBefore, _ := fx.backend.counts()

	require.NoError(t, fx.client.OpenUpload())
	up := fx.client.Upload()
	content := make([]byte, 10<<20)
	require.NoError(t, up.Select(ctx, upload.NewFile("sunset.mp4", "video/mp4", content)))
	up.SetTitle("Sunset")

	res := fx.client.SubmitUpload(ctx)
	require.True(t, res.Success)

	feedAfter, mineAfter, uploads := fx.backend.counts()
	require.Equal(t, 1, uploads)
	require.Equal(t, feedBefore+1, feedAfter)
	require.Equal(t, mineBefore+1, mineAfter)
	require.Equal(t, "Sunset", fx.backend.uploadTitle)
	require.Equal(t, 4, fx.client.Feed().Len())
	require.Contains(t, titles(fx.client.Mine()), "Sunset")
	require.False(t, up.IsOpen())
	require.Equal(t, 1, fx.closed)
}

func TestUploadFailureKeepsDialog(t *testing.T) {
	fx := newClientFixture(t)
	ctx := context.Background()
	require.True(t, fx.client.Login(ctx, "a@b.c", "secret").Success)
	fx.backend.mu.Lock()
	fx.backend.failUpload = "Storage full"
	fx.backend.mu.Unlock()

	require.NoError(t, fx.client.OpenUpload())
	up := fx.client.Upload()
	require.NoError(t, up.Select(ctx, upload.NewFile("clip.mp4", "video/mp4", []byte("x"))))

	res := fx.client.SubmitUpload(ctx)
	require.Equal(t, models.Fail("Storage full"), res)
	require.True(t, up.IsOpen())
	require.Equal(t, "clip.mp4", up.Draft().FileName)
	require.Zero(t, up.Progress())
}

func TestOpenUploadRequiresCreator(t *testing.T) {
	fx := newClientFixture(t)
	require.ErrorIs(t, fx.client.OpenUpload(), ErrNotCreator)

	fx.backend.user.Role = models.RoleConsumer
	require.True(t, fx.client.Login(context.Background(), "a@b.c", "secret").Success)
	require.ErrorIs(t, fx.client.OpenUpload(), ErrNotCreator)
}
