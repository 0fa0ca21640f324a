package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vidfriends/feedclient/internal/auth"
	"github.com/vidfriends/feedclient/internal/feed"
	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/models"
	"github.com/vidfriends/feedclient/internal/upload"
	"github.com/vidfriends/feedclient/internal/videos"
)

// ErrNotCreator is returned when a non-creator opens the upload dialog.
var ErrNotCreator = errors.New("only creators can upload videos")

// View is the page the client shows.
type View int

const (
	ViewFeed View = iota
	ViewMine
)

func (v View) String() string {
	if v == ViewMine {
		return "my-videos"
	}
	return "feed"
}

// Client ties the controllers together. It owns the session value and
// decides which asynchronous results still apply.
type Client struct {
	auth     *auth.Controller
	videos   *videos.Repository
	feed     *feed.Controller
	upload   *upload.Controller
	keyboard feed.Keyboard

	mu      sync.Mutex
	view    View
	loading bool
	mine    []models.Video
}

// ClientDeps are the collaborators of a Client.
type ClientDeps struct {
	Auth     *auth.Controller
	Videos   *videos.Repository
	Feed     *feed.Controller
	Keyboard feed.Keyboard
	// NewUpload builds the upload controller. onSuccess must be wired to the
	// controller's success callback.
	NewUpload func(onSuccess func(ctx context.Context)) *upload.Controller
}

// NewClient wires a Client.
func NewClient(deps ClientDeps) *Client {
	c := &Client{
		auth:     deps.Auth,
		videos:   deps.Videos,
		feed:     deps.Feed,
		keyboard: deps.Keyboard,
	}
	if deps.NewUpload != nil {
		c.upload = deps.NewUpload(c.afterUpload)
	}
	return c
}

// Auth returns the authentication controller.
func (c *Client) Auth() *auth.Controller { return c.auth }

// Feed returns the feed controller.
func (c *Client) Feed() *feed.Controller { return c.feed }

// Upload returns the upload controller.
func (c *Client) Upload() *upload.Controller { return c.upload }

// Session returns the current session value.
func (c *Client) Session() models.Session { return c.auth.Session() }

// View returns the current page.
func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView switches pages. Only a signed-in user has a "my videos" page.
func (c *Client) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v == ViewMine && !c.auth.Session().Valid() {
		return
	}
	c.view = v
}

// Loading reports whether the public feed is being fetched.
func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Mine returns the signed-in user's videos.
func (c *Client) Mine() []models.Video {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Video(nil), c.mine...)
}

// Mount restores and verifies a cached session, then loads the public feed.
func (c *Client) Mount(ctx context.Context) {
	logger := logging.FromContext(ctx)

	outcome, sess, epoch := c.auth.Restore(ctx)
	if outcome == auth.RestoreUnverified {
		list, ok := c.videos.ListMine(ctx, sess)
		if c.auth.Confirm(ctx, epoch, ok) {
			c.storeMine(epoch, list)
			c.bindKeys()
			logger.Info("session restored", slog.String("username", sess.User.Username))
		} else {
			c.signedOut()
		}
	}

	c.RefreshFeed(ctx)
}

// Login signs in and loads the user's videos.
func (c *Client) Login(ctx context.Context, email, password string) models.Result {
	res := c.auth.Login(ctx, email, password)
	if res.Success {
		c.signedIn(ctx)
	}
	return res
}

// Signup registers, signs in and loads the user's videos.
func (c *Client) Signup(ctx context.Context, in auth.SignupInput) models.Result {
	res := c.auth.Signup(ctx, in)
	if res.Success {
		c.signedIn(ctx)
	}
	return res
}

func (c *Client) signedIn(ctx context.Context) {
	c.feed.Reset()
	c.bindKeys()
	c.RefreshMine(ctx)
}

// Logout clears the session, detaches the keyboard and returns the feed to
// its first video.
func (c *Client) Logout(ctx context.Context) error {
	err := c.auth.Logout(ctx)
	c.signedOut()
	if c.upload != nil {
		c.upload.Close()
	}
	return err
}

func (c *Client) signedOut() {
	c.feed.Unbind()
	c.feed.Reset()
	c.mu.Lock()
	c.mine = nil
	c.view = ViewFeed
	c.mu.Unlock()
}

func (c *Client) bindKeys() {
	if c.keyboard != nil {
		c.feed.Bind(c.keyboard)
	}
}

// RefreshMine refetches the user's videos. A result that arrives after the
// session changed is dropped.
func (c *Client) RefreshMine(ctx context.Context) {
	sess := c.auth.Session()
	if !sess.Valid() {
		return
	}
	epoch := c.auth.Epoch()
	list, _ := c.videos.ListMine(ctx, sess)
	c.storeMine(epoch, list)
}

func (c *Client) storeMine(epoch uint64, list []models.Video) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.auth.Epoch() != epoch || !c.auth.Session().Valid() {
		return
	}
	c.mine = list
}

// RefreshFeed refetches the public feed. A failed fetch shows an empty feed.
func (c *Client) RefreshFeed(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	list, _ := c.videos.ListPublicFeed(ctx)
	c.feed.Replace(list)

	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
}

// OpenUpload shows the upload dialog to a creator.
func (c *Client) OpenUpload() error {
	if c.upload == nil || !c.auth.Session().User.CanUpload() {
		return ErrNotCreator
	}
	c.upload.Open()
	return nil
}

// SubmitUpload submits the upload dialog for the current session.
func (c *Client) SubmitUpload(ctx context.Context) models.Result {
	if c.upload == nil {
		return models.Fail(upload.MsgNotCreator)
	}
	return c.upload.Submit(ctx, c.auth.Session())
}

func (c *Client) afterUpload(ctx context.Context) {
	c.RefreshFeed(ctx)
	c.RefreshMine(ctx)
}
