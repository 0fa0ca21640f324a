package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewStore(NewFileBackend(path))

	if err := store.Save(ctx, creator); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions got %o", perm)
	}

	reopened := NewStore(NewFileBackend(path))
	restored, ok := reopened.Restore(ctx)
	if !ok || restored != creator {
		t.Fatalf("unexpected restore: %+v ok=%v", restored, ok)
	}

	if err := reopened.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected session file removed, stat err = %v", err)
	}
	if err := reopened.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileBackendCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := NewFileBackend(path).Get(ctx, KeyToken); err == nil {
		t.Fatal("expected decode error")
	}
}
