package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/vidfriends/feedclient/internal/auth"
	"github.com/vidfriends/feedclient/internal/config"
	"github.com/vidfriends/feedclient/internal/dashboard"
	"github.com/vidfriends/feedclient/internal/feed"
	"github.com/vidfriends/feedclient/internal/httpserver"
	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/playback"
	"github.com/vidfriends/feedclient/internal/upload"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in; run the login command first")

const usage = "expected command: login, signup, logout, whoami, feed, mine, upload, or watch"

// Run bootstraps the VidFriends feed client.
func Run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdin, os.Stdout)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	cmd := &command{cfg: cfg, deps: deps, client: deps.client, stdin: stdin, stdout: stdout}
	switch args[0] {
	case "login":
		return cmd.login(ctx, args[1:])
	case "signup":
		return cmd.signup(ctx, args[1:])
	case "logout":
		return cmd.logout(ctx)
	case "whoami":
		return cmd.whoami(ctx)
	case "feed":
		return cmd.feed(ctx)
	case "mine":
		return cmd.mine(ctx, args[1:])
	case "upload":
		return cmd.upload(ctx, args[1:])
	case "watch":
		return cmd.watch(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type command struct {
	cfg    config.Config
	deps   dependencies
	client *Client
	stdin  io.Reader
	stdout io.Writer
}

func (c *command) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("VIDFRIENDS_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.client.Auth().ShowLogin()
	res := c.client.Login(ctx, *email, *password)
	if !res.Success {
		return errors.New(res.Message)
	}
	sess := c.client.Session()
	fmt.Fprintf(c.stdout, "signed in as %s (%s)\n", sess.User.Username, sess.User.Role)
	return nil
}

func (c *command) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	var in auth.SignupInput
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Username, "username", "", "public username")
	fs.StringVar(&in.Password, "password", os.Getenv("VIDFRIENDS_PASSWORD"), "account password")
	fs.StringVar(&in.Role, "role", "consumer", "consumer or creator")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.client.Auth().ShowSignup()
	res := c.client.Signup(ctx, in)
	if !res.Success {
		return errors.New(res.Message)
	}
	sess := c.client.Session()
	fmt.Fprintf(c.stdout, "welcome, %s (%s)\n", sess.User.Username, sess.User.Role)
	return nil
}

func (c *command) logout(ctx context.Context) error {
	if err := c.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "signed out")
	return nil
}

func (c *command) whoami(ctx context.Context) error {
	c.client.Mount(ctx)
	sess := c.client.Session()
	if !sess.Valid() {
		fmt.Fprintln(c.stdout, "not signed in")
		return nil
	}
	fmt.Fprintf(c.stdout, "%s (%s)\n", sess.User.Username, sess.User.Role)
	return nil
}

func (c *command) feed(ctx context.Context) error {
	c.client.Mount(ctx)
	snap := c.client.Feed().Snapshot()
	if len(snap.Videos) == 0 {
		fmt.Fprintln(c.stdout, dashboard.EmptyFeedText)
		return nil
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tCREATOR\tLIKES")
	for i, v := range snap.Videos {
		fmt.Fprintf(tw, "%d\t%s\t@%s\t%d\n", i+1, v.Title, v.Creator(), v.Likes)
	}
	return tw.Flush()
}

func (c *command) mine(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mine", flag.ContinueOnError)
	layout := fs.String("layout", "grid", "grid or list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.client.Mount(ctx)
	sess := c.client.Session()
	if !sess.Valid() {
		return ErrNotSignedIn
	}
	c.client.SetView(ViewMine)
	view := dashboard.Build(c.client.Mine(), sess.User, dashboard.ParseMode(*layout))
	return view.Render(c.stdout)
}

func (c *command) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	title := fs.String("title", "", "video title; defaults to the file name")
	description := fs.String("description", "", "video description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: upload [--title T] [--description D] <file>")
	}

	c.client.Mount(ctx)
	if !c.client.Session().Valid() {
		return ErrNotSignedIn
	}
	if err := c.client.OpenUpload(); err != nil {
		return err
	}
	up := c.client.Upload()
	defer up.Close()

	file, err := upload.OpenFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if *title != "" {
		up.SetTitle(*title)
	}
	up.SetDescription(*description)
	if err := up.Select(ctx, file); err != nil {
		return err
	}

	res := c.client.SubmitUpload(ctx)
	if !res.Success {
		return errors.New(res.Message)
	}
	fmt.Fprintf(c.stdout, "uploaded %q (%.0f%%)\n", up.Draft().Title, up.Progress())
	return nil
}

func (c *command) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	metricsAddr := fs.String("metrics-addr", c.cfg.MetricsAddr, "serve Prometheus metrics on this address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *metricsAddr != "" {
		srv := httpserver.New(*metricsAddr, c.deps.metrics.Handler())
		if err := srv.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		logging.FromContext(ctx).Info("serving metrics", slog.String("addr", srv.Addr()))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpserver.ShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	c.client.Mount(ctx)
	if !c.client.Session().Valid() {
		return ErrNotSignedIn
	}
	cards := playback.NewSync(ctx, c.client.Feed(), playback.ProbeFactory(c.deps.http, c.cfg.Player), c.deps.metrics)
	defer cards.Close()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	c.render(cards)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.handleLine(ctx, line); quit {
				return nil
			}
			c.render(cards)
		}
	}
}

// handleLine maps one input line to a feed action. Arrow keys and space go
// through the keyboard so they only act while the feed is bound.
func (c *command) handleLine(ctx context.Context, line string) (quit bool) {
	input := strings.ToLower(strings.TrimSpace(line))
	switch input {
	case "q", "quit", "exit":
		return true
	case "up", "k":
		c.deps.keyboard.Press(feed.KeyArrowUp)
	case "down", "j":
		c.deps.keyboard.Press(feed.KeyArrowDown)
	case "", "space", " ":
		c.deps.keyboard.Press(feed.KeySpace)
	case "r", "refresh":
		c.client.RefreshFeed(ctx)
	default:
		n, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintf(c.stdout, "unknown input %q\n", line)
			return false
		}
		if err := c.client.Feed().Jump(n - 1); err != nil {
			fmt.Fprintln(c.stdout, err)
		}
	}
	return false
}

func (c *command) render(cards *playback.Sync) {
	views := make([]playback.CardView, 0)
	for _, card := range cards.Cards() {
		views = append(views, card.View())
	}
	if err := dashboard.RenderFeed(c.stdout, c.client.Feed().Snapshot(), views); err != nil {
		slog.Warn("render feed", slog.String("error", err.Error()))
	}
}
