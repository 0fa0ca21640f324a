package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidfriends/feedclient/internal/api"
	"github.com/vidfriends/feedclient/internal/models"
	"github.com/vidfriends/feedclient/internal/session"
)

type backendStub struct {
	loginEnv  api.Envelope
	loginErr  error
	signupEnv api.Envelope
	signupErr error

	loginCalls  int
	signupCalls int
	lastSignup  api.SignupRequest
}

func (b *backendStub) Login(_ context.Context, req api.LoginRequest) (api.Envelope, error) {
	b.loginCalls++
	return b.loginEnv, b.loginErr
}

func (b *backendStub) Signup(_ context.Context, req api.SignupRequest) (api.Envelope, error) {
	b.signupCalls++
	b.lastSignup = req
	return b.signupEnv, b.signupErr
}

func creatorEnvelope(token string) api.Envelope {
	return api.Envelope{
		Success: true,
		Token:   token,
		User:    &models.UserProfile{Username: "sunny", Role: models.RoleCreator},
	}
}

func newController(t *testing.T, backend Backend) (*Controller, *session.Store, *session.MemoryBackend) {
	t.Helper()
	mem := session.NewMemoryBackend()
	store := session.NewStore(mem)
	return NewController(backend, store, nil), store, mem
}

func TestLoginSuccessPersistsAndClosesDialog(t *testing.T) {
	ctrl, store, _ := newController(t, &backendStub{loginEnv: creatorEnvelope("tok-1")})
	ctrl.ShowLogin()

	res := ctrl.Login(context.Background(), "a@b.c", "pw")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if ctrl.Dialog() != DialogNone {
		t.Fatalf("expected dialog closed, got %s", ctrl.Dialog())
	}
	if ctrl.Epoch() != 1 {
		t.Fatalf("expected epoch 1, got %d", ctrl.Epoch())
	}
	persisted, ok := store.Restore(context.Background())
	if !ok || persisted.Token != "tok-1" || persisted.User.Username != "sunny" {
		t.Fatalf("unexpected persisted session %+v ok=%v", persisted, ok)
	}
}

func TestLoginServerFailureShowsMessage(t *testing.T) {
	ctrl, _, mem := newController(t, &backendStub{loginEnv: api.Envelope{Message: "Invalid credentials"}})
	ctrl.ShowLogin()

	res := ctrl.Login(context.Background(), "a@b.c", "wrong")
	if res.Success || res.Message != "Invalid credentials" {
		t.Fatalf("unexpected result %+v", res)
	}
	if ctrl.Dialog() != DialogLogin {
		t.Fatal("dialog should stay open on failure")
	}
	if mem.Has(session.KeyToken) {
		t.Fatal("token must not be written on failure")
	}
}

func TestLoginTransportFailureIsGeneric(t *testing.T) {
	stub := &backendStub{loginErr: errors.New("dial tcp: refused")}
	ctrl, _, _ := newController(t, stub)

	res := ctrl.Login(context.Background(), "a@b.c", "pw")
	if res.Success || res.Message != MsgLoginFailed {
		t.Fatalf("unexpected result %+v", res)
	}
	if stub.loginCalls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", stub.loginCalls)
	}
}

func TestLoginSuccessWithoutUserIsFailure(t *testing.T) {
	ctrl, _, _ := newController(t, &backendStub{loginEnv: api.Envelope{Success: true, Token: "tok"}})
	if res := ctrl.Login(context.Background(), "a@b.c", "pw"); res.Success || res.Message != MsgLoginFailed {
		t.Fatalf("unexpected result %+v", res)
	}
	if ctrl.Session().Valid() {
		t.Fatal("no session expected")
	}
}

func TestLoginMissingFields(t *testing.T) {
	stub := &backendStub{}
	ctrl, _, _ := newController(t, stub)
	if res := ctrl.Login(context.Background(), " ", "pw"); res.Success || res.Message != MsgMissingCredentials {
		t.Fatalf("unexpected result %+v", res)
	}
	if stub.loginCalls != 0 {
		t.Fatal("no request expected")
	}
}

func TestSignupValidation(t *testing.T) {
	cases := []struct {
		name string
		in   SignupInput
		want string
	}{
		{"missingEmail", SignupInput{Username: "u", Password: "p", Role: "consumer"}, MsgMissingSignup},
		{"missingUsername", SignupInput{Email: "e", Password: "p", Role: "consumer"}, MsgMissingSignup},
		{"missingPassword", SignupInput{Email: "e", Username: "u", Role: "consumer"}, MsgMissingSignup},
		{"badRole", SignupInput{Email: "e", Username: "u", Password: "p", Role: "admin"}, MsgInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &backendStub{}
			ctrl, _, _ := newController(t, stub)
			res := ctrl.Signup(context.Background(), tc.in)
			if res.Success || res.Message != tc.want {
				t.Fatalf("unexpected result %+v", res)
			}
			if stub.signupCalls != 0 {
				t.Fatal("no request expected")
			}
		})
	}
}

func TestSignupSuccess(t *testing.T) {
	stub := &backendStub{signupEnv: creatorEnvelope("tok-2")}
	ctrl, _, _ := newController(t, stub)
	ctrl.ShowSignup()

	res := ctrl.Signup(context.Background(), SignupInput{Email: " e@x ", Username: " sunny ", Password: "p", Role: "Creator"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if stub.lastSignup.Email != "e@x" || stub.lastSignup.Username != "sunny" || stub.lastSignup.Role != models.RoleCreator {
		t.Fatalf("unexpected request %+v", stub.lastSignup)
	}
	if ctrl.Dialog() != DialogNone || !ctrl.Session().User.CanUpload() {
		t.Fatalf("unexpected state dialog=%s session=%+v", ctrl.Dialog(), ctrl.Session())
	}
}

func TestSignupTransportFailure(t *testing.T) {
	ctrl, _, _ := newController(t, &backendStub{signupErr: api.ErrTransport})
	res := ctrl.Signup(context.Background(), SignupInput{Email: "e", Username: "u", Password: "p", Role: "consumer"})
	if res.Success || res.Message != MsgSignupFailed {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLogoutClearsBothFields(t *testing.T) {
	ctrl, _, mem := newController(t, &backendStub{loginEnv: creatorEnvelope("tok")})
	ctrl.Login(context.Background(), "a@b.c", "pw")

	if err := ctrl.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if mem.Has(session.KeyToken) || mem.Has(session.KeyUser) {
		t.Fatal("expected both fields cleared")
	}
	if ctrl.Session().Valid() {
		t.Fatal("expected logged out")
	}
	if ctrl.Epoch() != 2 {
		t.Fatalf("expected epoch 2, got %d", ctrl.Epoch())
	}
}

func TestRestoreAndConfirmFailureClears(t *testing.T) {
	ctrl, store, mem := newController(t, &backendStub{})
	sess := models.Session{Token: "opaque", User: models.UserProfile{Username: "sunny", Role: models.RoleConsumer}}
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	outcome, restored, epoch := ctrl.Restore(context.Background())
	if outcome != RestoreUnverified || restored != sess {
		t.Fatalf("unexpected restore %s %+v", outcome, restored)
	}
	if ctrl.Confirm(context.Background(), epoch, false) {
		t.Fatal("expected session rejected")
	}
	if mem.Has(session.KeyToken) || mem.Has(session.KeyUser) {
		t.Fatal("expected fail-closed clear")
	}
}

func TestRestoreConfirmSuccessKeeps(t *testing.T) {
	ctrl, store, mem := newController(t, &backendStub{})
	sess := models.Session{Token: "opaque", User: models.UserProfile{Username: "sunny", Role: models.RoleConsumer}}
	_ = store.Save(context.Background(), sess)

	_, _, epoch := ctrl.Restore(context.Background())
	if !ctrl.Confirm(context.Background(), epoch, true) {
		t.Fatal("expected session kept")
	}
	if !mem.Has(session.KeyToken) {
		t.Fatal("token should remain")
	}
}

func TestStaleConfirmDoesNotClearNewLogin(t *testing.T) {
	ctrl, store, _ := newController(t, &backendStub{loginEnv: creatorEnvelope("fresh")})
	old := models.Session{Token: "stale", User: models.UserProfile{Username: "sunny", Role: models.RoleCreator}}
	_ = store.Save(context.Background(), old)

	_, _, epoch := ctrl.Restore(context.Background())
	if res := ctrl.Login(context.Background(), "a@b.c", "pw"); !res.Success {
		t.Fatalf("login: %+v", res)
	}

	if !ctrl.Confirm(context.Background(), epoch, false) {
		t.Fatal("late rejection must not log out the new session")
	}
	persisted, ok := store.Restore(context.Background())
	if !ok || persisted.Token != "fresh" {
		t.Fatalf("expected fresh session persisted, got %+v ok=%v", persisted, ok)
	}
}

func TestStaleConfirmAfterLogoutDoesNotRestore(t *testing.T) {
	ctrl, store, _ := newController(t, &backendStub{})
	_ = store.Save(context.Background(), models.Session{Token: "t", User: models.UserProfile{Username: "u", Role: models.RoleConsumer}})

	_, _, epoch := ctrl.Restore(context.Background())
	_ = ctrl.Logout(context.Background())

	if ctrl.Confirm(context.Background(), epoch, true) {
		t.Fatal("late success must not bring back a cleared session")
	}
	if _, ok := store.Restore(context.Background()); ok {
		t.Fatal("store should stay empty")
	}
}

func TestRestoreExpiredJWT(t *testing.T) {
	ctrl, store, mem := newController(t, &backendStub{})
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ctrl.now = func() time.Time { return now }

	expired := signedToken(t, now.Add(-time.Minute))
	_ = store.Save(context.Background(), models.Session{Token: expired, User: models.UserProfile{Username: "u", Role: models.RoleConsumer}})

	outcome, _, _ := ctrl.Restore(context.Background())
	if outcome != RestoreLoggedOut {
		t.Fatalf("expected logged out, got %s", outcome)
	}
	if mem.Has(session.KeyToken) {
		t.Fatal("expired token should be cleared")
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	if tokenExpired("opaque-token", now) {
		t.Fatal("opaque tokens are never expired locally")
	}
	if tokenExpired("a.b.c", now) {
		t.Fatal("malformed JWT should be left to the backend")
	}
	if !tokenExpired(signedToken(t, now.Add(-time.Second)), now) {
		t.Fatal("expected expired")
	}
	if tokenExpired(signedToken(t, now.Add(time.Hour)), now) {
		t.Fatal("expected valid")
	}
}

func TestDialogTransitions(t *testing.T) {
	ctrl, _, _ := newController(t, &backendStub{})
	ctrl.SwitchMode()
	if ctrl.Dialog() != DialogNone {
		t.Fatal("switch without a dialog should do nothing")
	}
	ctrl.ShowLogin()
	ctrl.SwitchMode()
	if ctrl.Dialog() != DialogSignup {
		t.Fatalf("expected signup, got %s", ctrl.Dialog())
	}
	ctrl.SwitchMode()
	if ctrl.Dialog() != DialogLogin {
		t.Fatalf("expected login, got %s", ctrl.Dialog())
	}
	ctrl.Close()
	if ctrl.Dialog() != DialogNone {
		t.Fatal("expected closed")
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}
