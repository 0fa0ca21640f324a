package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupCLI(t *testing.T) *fakeBackend {
	t.Helper()
	fb, srv := newFakeBackend(t)
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("VIDFRIENDS_CONFIG", "")
	t.Setenv("VIDFRIENDS_API_URL", srv.URL)
	t.Setenv("VIDFRIENDS_SESSION_BACKEND", "file")
	t.Setenv("VIDFRIENDS_SESSION_FILE", filepath.Join(dir, "session.json"))
	t.Setenv("VIDFRIENDS_SESSION_PASSPHRASE", "")
	t.Setenv("VIDFRIENDS_PREVIEW_DIR", filepath.Join(dir, "previews"))
	t.Setenv("VIDFRIENDS_LOG_LEVEL", "error")
	t.Setenv("VIDFRIENDS_METRICS_ADDR", "")
	t.Setenv("VIDFRIENDS_PLAYER", "")
	return fb
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	setupCLI(t)
	_, err := runCLI(t, "", "dance")
	require.ErrorContains(t, err, `unknown command "dance"`)
}

func TestCLISessionLifecycle(t *testing.T) {
	setupCLI(t)

	out, err := runCLI(t, "", "whoami")
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)

	_, err = runCLI(t, "", "login", "--email", "a@b.c", "--password", "nope")
	require.EqualError(t, err, "Invalid credentials")

	out, err = runCLI(t, "", "login", "--email", "a@b.c", "--password", "secret")
	require.NoError(t, err)
	require.Equal(t, "signed in as sunny (creator)\n", out)

	out, err = runCLI(t, "", "whoami")
	require.NoError(t, err)
	require.Equal(t, "sunny (creator)\n", out)

	out, err = runCLI(t, "", "mine", "--layout", "list")
	require.NoError(t, err)
	require.Contains(t, out, "2 videos")
	require.Contains(t, out, "Three")
	require.NotContains(t, out, "One")

	out, err = runCLI(t, "", "logout")
	require.NoError(t, err)
	require.Equal(t, "signed out\n", out)

	_, err = runCLI(t, "", "mine")
	require.ErrorIs(t, err, ErrNotSignedIn)
}

func TestCLIFeedListing(t *testing.T) {
	setupCLI(t)
	out, err := runCLI(t, "", "feed")
	require.NoError(t, err)
	require.Contains(t, out, "One")
	require.Contains(t, out, "@rain")
	require.Contains(t, out, "@sunny")
}

func TestCLIUpload(t *testing.T) {
	fb := setupCLI(t)
	_, err := runCLI(t, "", "login", "--email", "a@b.c", "--password", "secret")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "beach_walk.mp4")
	require.NoError(t, writeFile(path, "fake video bytes"))

	out, err := runCLI(t, "", "upload", "--description", "waves", path)
	require.NoError(t, err)
	require.Contains(t, out, `uploaded "beach walk"`)
	require.Equal(t, "beach walk", fb.uploadTitle)

	_, err = runCLI(t, "", "upload")
	require.Error(t, err)
}

func TestCLIWatch(t *testing.T) {
	setupCLI(t)
	_, err := runCLI(t, "", "watch")
	require.ErrorIs(t, err, ErrNotSignedIn)

	_, err = runCLI(t, "", "login", "--email", "a@b.c", "--password", "secret")
	require.NoError(t, err)

	out, err := runCLI(t, "down\n3\nup\nbogus\nq\nignored\n", "watch")
	require.NoError(t, err)
	require.Contains(t, out, "[1/3] ●○○")
	require.Contains(t, out, "[2/3] ○●○")
	require.Contains(t, out, "[3/3] ○○●")
	require.Contains(t, out, `unknown input "bogus"`)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
