package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/mediatype"
)

// ErrNotReady is returned by Play before the resource has loaded.
var ErrNotReady = errors.New("media not ready")

// Launcher starts an external process and returns a function that stops it.
type Launcher func(ctx context.Context, binary string, args ...string) (stop func() error, err error)

// ProbeMedia checks that a video URL answers with a video content type and,
// when a player binary is configured, plays it in that player.
type ProbeMedia struct {
	URL     string
	Client  *http.Client
	Player  string
	Args    []string
	Launch  Launcher
	Timeout time.Duration

	mu      sync.Mutex
	ready   bool
	playing bool
	stop    func() error
}

// NewProbeMedia constructs a ProbeMedia for url. An empty player means the
// resource is only probed.
func NewProbeMedia(url string, client *http.Client, player string) *ProbeMedia {
	if client == nil {
		client = http.DefaultClient
	}
	return &ProbeMedia{
		URL:     url,
		Client:  client,
		Player:  strings.TrimSpace(player),
		Launch:  defaultLauncher,
		Timeout: 10 * time.Second,
	}
}

// ProbeFactory returns a MediaFactory producing ProbeMedia.
func ProbeFactory(client *http.Client, player string) MediaFactory {
	return func(videoURL string) Media {
		return NewProbeMedia(videoURL, client, player)
	}
}

// Load probes the URL in the background.
func (m *ProbeMedia) Load(ctx context.Context, emit func(Event)) {
	go func() {
		if err := m.probe(ctx); err != nil {
			logging.FromContext(ctx).Debug("media probe failed", slog.String("url", m.URL), slog.String("error", err.Error()))
			emit(EventFailed)
			return
		}
		m.mu.Lock()
		m.ready = true
		m.mu.Unlock()
		emit(EventReady)
	}()
}

func (m *ProbeMedia) probe(ctx context.Context) error {
	if strings.TrimSpace(m.URL) == "" {
		return errors.New("empty video url")
	}
	probeCtx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, m.URL, nil)
	if err != nil {
		return fmt.Errorf("build probe: %w", err)
	}
	req.Header.Set("Range", "bytes=0-1023")

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("probe status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !mediatype.IsVideoMIME(ct) {
		return fmt.Errorf("unexpected content type %q", ct)
	}
	return nil
}

// Play starts the external player if one is configured.
func (m *ProbeMedia) Play(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotReady
	}
	if m.playing {
		return nil
	}
	if m.Player != "" {
		args := append(append([]string{}, m.Args...), m.URL)
		stop, err := m.Launch(ctx, m.Player, args...)
		if err != nil {
			return fmt.Errorf("launch %s: %w", m.Player, err)
		}
		m.stop = stop
	}
	m.playing = true
	return nil
}

// Pause stops the external player.
func (m *ProbeMedia) Pause() {
	m.mu.Lock()
	stop := m.stop
	m.stop = nil
	m.playing = false
	m.mu.Unlock()
	if stop != nil {
		_ = stop()
	}
}

// Playing reports whether Play succeeded more recently than Pause.
func (m *ProbeMedia) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func defaultLauncher(ctx context.Context, binary string, args ...string) (func() error, error) {
	cmd := exec.CommandContext(context.WithoutCancel(ctx), binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return func() error {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
		return nil
	}, nil
}
