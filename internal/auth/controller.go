package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vidfriends/feedclient/internal/api"
	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/metrics"
	"github.com/vidfriends/feedclient/internal/models"
)

// Messages shown when the backend could not be reached or answered with
// something other than the response envelope.
const (
	MsgLoginFailed  = "Login failed"
	MsgSignupFailed = "Signup failed"
)

// Local validation messages.
const (
	MsgMissingCredentials = "Please enter your email and password"
	MsgMissingSignup      = "Please fill in email, username and password"
	MsgInvalidRole        = "Please choose consumer or creator"
)

// Backend is the subset of the REST client used for authentication.
type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) (api.Envelope, error)
	Signup(ctx context.Context, req api.SignupRequest) (api.Envelope, error)
}

// SessionStore persists the session. *session.Store satisfies it.
type SessionStore interface {
	Restore(ctx context.Context) (models.Session, bool)
	Save(ctx context.Context, sess models.Session) error
	Clear(ctx context.Context) error
}

// RestoreOutcome describes what Restore found.
type RestoreOutcome int

const (
	// RestoreLoggedOut means there is no usable persisted session.
	RestoreLoggedOut RestoreOutcome = iota
	// RestoreUnverified means a cached session was found; it must be
	// confirmed with an authenticated call before it is trusted.
	RestoreUnverified
)

func (o RestoreOutcome) String() string {
	if o == RestoreUnverified {
		return "unverified"
	}
	return "logged_out"
}

// Controller performs login, signup and logout and is the only writer of the
// session. Every session change bumps an epoch so that late verification
// results can tell whether they still apply.
type Controller struct {
	backend Backend
	store   SessionStore
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	epoch   uint64
	session models.Session
	dialog  Dialog
}

// NewController wires a Controller. m may be nil.
func NewController(backend Backend, store SessionStore, m *metrics.Metrics) *Controller {
	if backend == nil {
		panic("auth: backend must not be nil")
	}
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Controller{
		backend: backend,
		store:   store,
		metrics: m,
		now:     time.Now,
	}
}

// Session returns the current session value; the zero value means logged out.
func (c *Controller) Session() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Epoch returns the current session generation.
func (c *Controller) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Login authenticates with email and password.
func (c *Controller) Login(ctx context.Context, email, password string) models.Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Fail(MsgMissingCredentials)
	}

	env, err := c.backend.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		logging.FromContext(ctx).Error("login error", slog.String("error", err.Error()))
		return models.Fail(MsgLoginFailed)
	}
	return c.accept(ctx, env, MsgLoginFailed)
}

// SignupInput carries the signup form.
type SignupInput struct {
	Email    string
	Username string
	Password string
	Role     string
}

// Signup registers a new account. Incomplete input fails locally without a
// request.
func (c *Controller) Signup(ctx context.Context, in SignupInput) models.Result {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return models.Fail(MsgMissingSignup)
	}
	role := models.ParseRole(in.Role)
	if role == "" {
		return models.Fail(MsgInvalidRole)
	}

	env, err := c.backend.Signup(ctx, api.SignupRequest{
		Email:    email,
		Username: username,
		Password: in.Password,
		Role:     role,
	})
	if err != nil {
		logging.FromContext(ctx).Error("signup error", slog.String("error", err.Error()))
		return models.Fail(MsgSignupFailed)
	}
	return c.accept(ctx, env, MsgSignupFailed)
}

func (c *Controller) accept(ctx context.Context, env api.Envelope, generic string) models.Result {
	logger := logging.FromContext(ctx)
	if !env.Success {
		return env.Result(generic)
	}
	if env.User == nil {
		logger.Error("auth response missing user")
		return models.Fail(generic)
	}
	sess := models.Session{Token: env.Token, User: *env.User}
	if !sess.Valid() {
		logger.Error("auth response missing token or username")
		return models.Fail(generic)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(ctx, sess); err != nil {
		logger.Error("persist session", slog.String("error", err.Error()))
		return models.Fail(generic)
	}
	c.epoch++
	c.session = sess
	c.dialog = DialogNone
	logger.Info("signed in", slog.String("username", sess.User.Username), slog.String("role", string(sess.User.Role)))
	return models.OK()
}

// Logout clears the persisted session and starts a new epoch. The in-memory
// session is dropped even when the store fails.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.session = models.Session{}
	c.dialog = DialogNone
	return c.store.Clear(ctx)
}

// Restore loads the cached session. A JWT that has visibly expired is
// discarded without a network call. The returned epoch must be handed back
// to Confirm once the caller has verified the token.
func (c *Controller) Restore(ctx context.Context) (RestoreOutcome, models.Session, uint64) {
	logger := logging.FromContext(ctx)

	sess, ok := c.store.Restore(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.metrics.SessionRestore("none")
		return RestoreLoggedOut, models.Session{}, c.epoch
	}
	if tokenExpired(sess.Token, c.now()) {
		logger.Info("cached token expired", slog.String("username", sess.User.Username))
		if err := c.store.Clear(ctx); err != nil {
			logger.Error("clear session", slog.String("error", err.Error()))
		}
		c.metrics.SessionRestore("expired")
		return RestoreLoggedOut, models.Session{}, c.epoch
	}
	c.session = sess
	c.metrics.SessionRestore("unverified")
	return RestoreUnverified, sess, c.epoch
}

// Confirm settles a restored session. When verification failed and no login
// or logout happened since Restore, the session is cleared. It reports
// whether a session is still in place.
func (c *Controller) Confirm(ctx context.Context, epoch uint64, verified bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return c.session.Valid()
	}
	if verified {
		c.metrics.SessionRestore("verified")
		return c.session.Valid()
	}

	logger := logging.FromContext(ctx)
	logger.Info("cached session rejected", slog.String("username", c.session.User.Username))
	c.epoch++
	c.session = models.Session{}
	if err := c.store.Clear(ctx); err != nil {
		logger.Error("clear session", slog.String("error", err.Error()))
	}
	c.metrics.SessionRestore("rejected")
	return false
}
