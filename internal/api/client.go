package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/metrics"
)

// Endpoint paths.
const (
	PathVideos   = "/api/videos"
	PathMyVideos = "/api/users/me/videos"
	PathLogin    = "/api/auth/login"
	PathSignup   = "/api/auth/signup"
	PathUpload   = "/api/videos/upload"
)

const maxSnippet = 256

// Client talks to the video backend's REST surface.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration
	metrics       *metrics.Metrics
}

// Options tunes a Client.
type Options struct {
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Timeout bounds JSON calls. Zero means 15s.
	Timeout time.Duration
	// UploadTimeout bounds uploads. Zero means 10 minutes.
	UploadTimeout time.Duration
	Metrics       *metrics.Metrics
}

// NewClient constructs a Client for baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 10 * time.Minute
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		baseURL:       u,
		http:          &http.Client{Transport: transport},
		timeout:       opts.Timeout,
		uploadTimeout: opts.UploadTimeout,
		metrics:       opts.Metrics,
	}, nil
}

// ListVideos fetches the public feed.
func (c *Client) ListVideos(ctx context.Context) (Envelope, error) {
	return c.doJSON(ctx, "list_videos", http.MethodGet, PathVideos, "", nil)
}

// ListMyVideos fetches the authenticated user's videos. It doubles as the
// token verification call on session restore.
func (c *Client) ListMyVideos(ctx context.Context, token string) (Envelope, error) {
	return c.doJSON(ctx, "list_my_videos", http.MethodGet, PathMyVideos, token, nil)
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, req LoginRequest) (Envelope, error) {
	return c.doJSON(ctx, "login", http.MethodPost, PathLogin, "", req)
}

// Signup creates an account and returns a token and profile.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (Envelope, error) {
	return c.doJSON(ctx, "signup", http.MethodPost, PathSignup, "", req)
}

// Upload streams a multipart upload. The body is produced on the fly so
// large files are never buffered in memory.
func (c *Client) Upload(ctx context.Context, token string, req UploadRequest) (Envelope, error) {
	if req.File == nil {
		return Envelope{}, errors.New("upload: file reader is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadBody(mw, req))
	}()

	return c.send(ctx, "upload", http.MethodPost, PathUpload, token, mw.FormDataContentType(), pr)
}

func writeUploadBody(mw *multipart.Writer, req UploadRequest) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename="%s"`, quoteEscaper.Replace(req.FileName)))
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create video part: %w", err)
	}
	var dst io.Writer = part
	if req.OnWrite != nil {
		dst = &countingWriter{w: part, onWrite: req.OnWrite}
	}
	if _, err := io.Copy(dst, req.File); err != nil {
		return fmt.Errorf("copy video part: %w", err)
	}

	fields := [][2]string{
		{"title", req.Title},
		{"description", req.Description},
		{"genre", req.Genre},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write %s field: %w", f[0], err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type countingWriter struct {
	w       io.Writer
	n       int64
	onWrite func(int64)
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.onWrite(cw.n)
	return n, err
}

func (c *Client) doJSON(ctx context.Context, op, method, path, token string, body any) (Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, op, method, path, token, contentType, reader)
}

func (c *Client) send(ctx context.Context, op, method, path, token, contentType string, body io.Reader) (env Envelope, err error) {
	ctx, span := logging.StartSpan(ctx, "api."+op)
	start := time.Now()
	defer func() {
		span.End(err)
		c.metrics.ObserveRequest(op, outcome(env, err), time.Since(start))
	}()

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return Envelope{}, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, fmt.Errorf("%s: read body: %w: %v", op, ErrTransport, err)
	}

	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%s: %w", op, &StatusError{StatusCode: resp.StatusCode, Snippet: snippet(raw)})
	}
	if resp.StatusCode >= http.StatusBadRequest && env.Success {
		// A success flag on an error status is not trustworthy.
		env.Success = false
		if env.Message == "" {
			env.Message = http.StatusText(resp.StatusCode)
		}
	}
	return env, nil
}

func outcome(env Envelope, err error) string {
	switch {
	case err != nil:
		return "transport_error"
	case env.Success:
		return "success"
	default:
		return "server_failure"
	}
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxSnippet {
		s = s[:maxSnippet]
	}
	return s
}
