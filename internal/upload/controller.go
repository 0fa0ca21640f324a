package upload

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vidfriends/feedclient/internal/api"
	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/mediatype"
	"github.com/vidfriends/feedclient/internal/metrics"
	"github.com/vidfriends/feedclient/internal/models"
	"github.com/vidfriends/feedclient/internal/preview"
)

// User-facing messages.
const (
	MsgInvalidFile   = "Please select a valid video file"
	MsgNoFile        = "Please select a video file"
	MsgNoTitle       = "Please enter a title"
	MsgTooLarge      = "Please select a smaller video file"
	MsgNotCreator    = "Only creators can upload videos"
	MsgInProgress    = "An upload is already in progress"
	MsgUploadFailed  = "Upload failed"
	MaxTitleLength   = 100
	MaxDescLength    = 500
	maxTickIncrement = 20.0
)

// ValidationError is a local failure detected before any request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Uploader sends the multipart request. *api.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, token string, req api.UploadRequest) (api.Envelope, error)
}

// Config holds the dialog's timings and limits.
type Config struct {
	Tick       time.Duration
	CloseDelay time.Duration
	MaxBytes   int64
	Genre      string
}

// Options are the optional collaborators of a Controller.
type Options struct {
	Clock    Clock
	Rand     func() float64
	Previews preview.Store
	Metrics  *metrics.Metrics
	// OnSuccess runs after the server accepts an upload, before the
	// delayed close is scheduled.
	OnSuccess func(ctx context.Context)
	// OnClose runs when the dialog closes after a successful upload.
	OnClose func()
}

// Draft is a read-only snapshot of the upload dialog.
type Draft struct {
	ID          string
	Open        bool
	FileName    string
	FileSize    int64
	PreviewURL  string
	Title       string
	Description string
	Progress    float64
	Submitting  bool
	Error       string
}

// Controller drives the upload dialog: file selection, validation, the
// simulated progress bar, the request and the delayed close.
type Controller struct {
	uploader Uploader
	cfg      Config
	opts     Options

	mu          sync.Mutex
	id          string
	open        bool
	file        *File
	preview     *preview.Preview
	title       string
	description string
	progress    progress
	submitting  bool
	err         string
	stopTick    func()
	stopClose   func()
}

// NewController wires a Controller. Zero config values fall back to a 200ms
// tick, a one second close delay and the "entertainment" genre.
func NewController(uploader Uploader, cfg Config, opts Options) *Controller {
	if uploader == nil {
		panic("upload: uploader must not be nil")
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 200 * time.Millisecond
	}
	if cfg.CloseDelay <= 0 {
		cfg.CloseDelay = time.Second
	}
	if strings.TrimSpace(cfg.Genre) == "" {
		cfg.Genre = "entertainment"
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	return &Controller{uploader: uploader, cfg: cfg, opts: opts}
}

// Open shows a fresh dialog.
func (c *Controller) Open() {
	c.mu.Lock()
	stale := c.resetLocked()
	c.id = uuid.NewString()
	c.open = true
	c.mu.Unlock()
	releaseQuietly(stale)
}

// IsOpen reports whether the dialog is showing.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Select sets the file to upload. A file without a video type is rejected
// and the previous selection is kept.
func (c *Controller) Select(ctx context.Context, f File) error {
	if !mediatype.IsVideoMIME(f.ContentType) {
		return c.fail(MsgInvalidFile)
	}
	if c.cfg.MaxBytes > 0 && f.Size > c.cfg.MaxBytes {
		return c.fail(MsgTooLarge)
	}

	var pv *preview.Preview
	if c.opts.Previews != nil {
		var err error
		pv, err = c.createPreview(ctx, f)
		if err != nil {
			logging.FromContext(ctx).Warn("create preview", slog.String("file", f.Name), slog.String("error", err.Error()))
		}
	}

	c.mu.Lock()
	old := c.preview
	c.file = &f
	c.preview = pv
	c.err = ""
	if c.title == "" {
		c.title = truncate(f.Stem(), MaxTitleLength)
	}
	c.mu.Unlock()

	releaseQuietly(old)
	return nil
}

func (c *Controller) createPreview(ctx context.Context, f File) (*preview.Preview, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return c.opts.Previews.Create(ctx, f.Name, f.ContentType, rc)
}

// RemoveFile clears the selection and frees its preview.
func (c *Controller) RemoveFile() {
	c.mu.Lock()
	pv := c.preview
	c.preview = nil
	c.file = nil
	c.mu.Unlock()
	releaseQuietly(pv)
}

// SetTitle sets the title, keeping at most MaxTitleLength characters.
func (c *Controller) SetTitle(title string) {
	c.mu.Lock()
	c.title = truncate(title, MaxTitleLength)
	c.mu.Unlock()
}

// SetDescription sets the description, keeping at most MaxDescLength
// characters.
func (c *Controller) SetDescription(description string) {
	c.mu.Lock()
	c.description = truncate(description, MaxDescLength)
	c.mu.Unlock()
}

// Progress returns the displayed percentage.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress.value()
}

// Err returns the message shown under the form, if any.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Draft returns a snapshot of the dialog.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := Draft{
		ID:          c.id,
		Open:        c.open,
		Title:       c.title,
		Description: c.description,
		Progress:    c.progress.value(),
		Submitting:  c.submitting,
		Error:       c.err,
	}
	if c.file != nil {
		d.FileName = c.file.Name
		d.FileSize = c.file.Size
	}
	if c.preview != nil {
		d.PreviewURL = c.preview.URL
	}
	return d
}

// Submit validates the form and uploads it for sess. Validation failures
// return without a request. At most one submission is outstanding.
func (c *Controller) Submit(ctx context.Context, sess models.Session) models.Result {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return models.Fail(MsgInProgress)
	}
	if msg := c.validateLocked(sess); msg != "" {
		c.err = msg
		c.mu.Unlock()
		return models.Fail(msg)
	}
	file := *c.file
	req := api.UploadRequest{
		FileName:    file.Name,
		ContentType: file.ContentType,
		Title:       strings.TrimSpace(c.title),
		Description: strings.TrimSpace(c.description),
		Genre:       c.cfg.Genre,
	}
	draftID := c.id
	c.submitting = true
	c.err = ""
	c.progress = reduce(c.progress, actionStart, 0)
	c.stopTick = c.opts.Clock.Every(c.cfg.Tick, func() { c.tick(draftID) })
	c.mu.Unlock()

	ctx, span := logging.StartSpan(ctx, "upload.submit")
	logger := span.Logger().With(slog.String("draftId", draftID), slog.String("file", file.Name))

	env, err := c.send(ctx, sess.Token, file, req, logger)
	span.End(err)

	if err != nil {
		logger.Error("upload error", slog.String("error", err.Error()))
		return c.settleFailure(draftID, models.Fail(MsgUploadFailed))
	}
	if !env.Success {
		return c.settleFailure(draftID, env.Result(MsgUploadFailed))
	}

	c.mu.Lock()
	c.stopTickLocked()
	c.submitting = false
	current := c.currentLocked(draftID)
	if current {
		c.progress = reduce(c.progress, actionSucceeded, 0)
	}
	c.mu.Unlock()
	c.opts.Metrics.Upload("success")
	logger.Info("video uploaded", slog.String("title", req.Title))

	if c.opts.OnSuccess != nil {
		c.opts.OnSuccess(ctx)
	}
	if !current {
		// The dialog was closed mid-flight; a newer draft must not be touched.
		return models.OK()
	}

	c.mu.Lock()
	prev := c.stopClose
	c.stopClose = nil
	c.mu.Unlock()
	if prev != nil {
		prev()
	}

	stop := c.opts.Clock.After(c.cfg.CloseDelay, func() { c.finish(draftID) })
	c.mu.Lock()
	if c.currentLocked(draftID) {
		c.stopClose = stop
		stop = nil
	}
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	return models.OK()
}

// currentLocked reports whether draftID is still the open dialog's draft.
func (c *Controller) currentLocked(draftID string) bool {
	return c.open && c.id == draftID
}

func (c *Controller) validateLocked(sess models.Session) string {
	if c.file == nil {
		return MsgNoFile
	}
	if !mediatype.IsVideoMIME(c.file.ContentType) {
		return MsgInvalidFile
	}
	if strings.TrimSpace(c.title) == "" {
		return MsgNoTitle
	}
	if !sess.Valid() || !sess.User.CanUpload() {
		return MsgNotCreator
	}
	return ""
}

func (c *Controller) send(ctx context.Context, token string, file File, req api.UploadRequest, logger *slog.Logger) (api.Envelope, error) {
	rc, err := file.Open()
	if err != nil {
		return api.Envelope{}, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer rc.Close()

	req.File = rc
	req.OnWrite = func(written int64) {
		logger.Debug("upload bytes written", slog.Int64("written", written), slog.Int64("size", file.Size))
	}
	return c.uploader.Upload(ctx, token, req)
}

func (c *Controller) settleFailure(draftID string, res models.Result) models.Result {
	c.mu.Lock()
	c.stopTickLocked()
	c.submitting = false
	if c.currentLocked(draftID) {
		c.progress = reduce(c.progress, actionFailed, 0)
		c.err = res.Message
	}
	c.mu.Unlock()
	c.opts.Metrics.Upload("failure")
	return res
}

func (c *Controller) tick(draftID string) {
	inc := c.opts.Rand() * maxTickIncrement
	c.mu.Lock()
	if c.currentLocked(draftID) {
		c.progress = reduce(c.progress, actionTick, inc)
	}
	c.mu.Unlock()
}

func (c *Controller) finish(draftID string) {
	c.mu.Lock()
	if !c.currentLocked(draftID) {
		c.mu.Unlock()
		return
	}
	c.stopClose = nil
	stale := c.resetLocked()
	c.mu.Unlock()
	releaseQuietly(stale)
	if c.opts.OnClose != nil {
		c.opts.OnClose()
	}
}

// Close dismisses the dialog, stops its timers and frees the preview. A
// request already sent is not cancelled.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.stopClose != nil {
		c.stopClose()
		c.stopClose = nil
	}
	stale := c.resetLocked()
	c.mu.Unlock()
	releaseQuietly(stale)
}

// resetLocked clears the form and returns the preview to release.
func (c *Controller) resetLocked() *preview.Preview {
	c.stopTickLocked()
	pv := c.preview
	c.open = false
	c.file = nil
	c.preview = nil
	c.title = ""
	c.description = ""
	c.err = ""
	c.progress = progress{}
	return pv
}

func (c *Controller) stopTickLocked() {
	if c.stopTick != nil {
		c.stopTick()
		c.stopTick = nil
	}
}

func (c *Controller) fail(msg string) error {
	c.mu.Lock()
	c.err = msg
	c.mu.Unlock()
	return &ValidationError{Message: msg}
}

func releaseQuietly(pv *preview.Preview) {
	if pv == nil {
		return
	}
	if err := pv.Release(); err != nil {
		slog.Default().Warn("release preview", slog.String("error", err.Error()))
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
