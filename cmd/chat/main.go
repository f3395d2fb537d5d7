package main

import (
	"Chatwave/internal/api/config"
	"Chatwave/internal/appctx"
	"Chatwave/internal/chatsync"
	"Chatwave/internal/client"
	"Chatwave/internal/pkg/cron"
	"Chatwave/internal/pkg/logger"
	"Chatwave/internal/pkg/notify"
	"Chatwave/internal/pkg/security"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

type shell struct {
	app  *appctx.Context
	auth *security.TokenAuth
}

func (s *shell) SetTheme(name string) error        { return s.app.SetTheme(name) }
func (s *shell) SetActive(active bool)             { s.app.SetActive(active) }
func (s *shell) SignOut(ctx context.Context) error { return s.auth.SignOut(ctx) }

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config.yaml")
	chatID := pflag.String("chat", "", "chat id to open")
	token := pflag.String("token", "", "bearer token")
	as := pflag.Uint64("as", 0, "mint a development token for this user id with the shared secret")
	pflag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	cfg := config.Cfg.Client

	logOut, closeLog := openLog(cfg.LogFile)
	defer closeLog()
	logger.InitLogger(config.Cfg.Logstash, logOut, log.LevelInfo)
	security.Configure(config.Cfg.Security)

	if *chatID == "" {
		*chatID = cfg.ChatID
	}
	if *token == "" {
		*token = cfg.Token
	}
	if *as > 0 {
		minted, err := security.GenerateToken(*as)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to mint token:", err)
			os.Exit(1)
		}
		*token = minted
	}
	if *chatID == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "usage: chat --chat <id> (--token <jwt> | --as <user id>)")
		os.Exit(2)
	}

	var auth *security.TokenAuth
	currentToken := func() string {
		if s := auth.Session(); s != nil {
			return s.Token
		}
		return ""
	}
	backend := client.NewRestBackend(cfg.BaseURL, currentToken)

	auth, err := security.NewTokenAuth(*token, backend.Logout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid token:", err)
		os.Exit(1)
	}

	app := appctx.New(auth)
	app.Init()
	defer app.Close()

	scheduler := cron.NewIntervalManager()
	scheduler.Start()
	defer scheduler.Stop()

	out := os.Stdout
	renderer := client.NewRenderer(out, app, 20)
	alerter := client.NewTerminalAlerter(out, app)
	audio := &client.FileAudioCapture{}

	session := chatsync.NewSession(chatsync.SessionConfig{
		ChatID:       *chatID,
		PollInterval: cfg.PollInterval,
	}, chatsync.SessionDeps{
		Source:      backend,
		Uploader:    backend,
		Opener:      client.FileOpener{},
		Feed:        client.NewWSFeed(cfg.WSURL, currentToken),
		Notifier:    newNotifier(cfg.WebPush, out),
		App:         app,
		Alerter:     alerter,
		Permissions: client.NewStaticPermissions(cfg.Permissions),
		Audio:       audio,
		Scheduler:   scheduler,
		Clock:       chatsync.SystemClock(),
		View:        renderer,
	})
	unbind := renderer.Bind(session)
	defer unbind()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err = session.Mount(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "failed to open chat:", err)
		os.Exit(1)
	}
	defer session.Close()

	// 登出后关闭会话
	stopAuth := app.OnAuthChange(func(s *security.AuthSession) {
		if s == nil {
			cancel()
		}
	})
	defer stopAuth()

	commands := client.NewCommands(client.CommandDeps{
		Session: session,
		Extras:  backend,
		Picker:  client.NewMediaPicker(config.Cfg.LibPath.FFprobe, ""),
		Audio:   audio,
		Screen:  renderer,
		Shell:   &shell{app: app, auth: auth},
	})

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	renderer.Render()
	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			err := commands.Execute(ctx, line)
			switch {
			case err == nil:
			case errors.Is(err, client.ErrQuit):
				return
			case errors.Is(err, client.ErrShowHelp):
				_, _ = fmt.Fprintln(out, client.Help)
			default:
				alerter.Alert("Error", err.Error())
			}
		}
	}
}

func newNotifier(cfg config.WebPushConfig, out io.Writer) chatsync.Notifier {
	if notify.Enabled(cfg) {
		wp, err := notify.NewWebPush(cfg, nil)
		if err == nil {
			return wp
		}
		log.Warn("web push disabled", "err", err)
	}
	return notify.NewTerminal(out)
}

// openLog 日志写文件，未配置时写 stderr，避免打乱终端界面
func openLog(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stderr, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log file:", err)
		return os.Stderr, func() {}
	}
	return f, func() { _ = f.Close() }
}
