package client

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/chatsync"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrQuit 用户要求退出
	ErrQuit = errors.New("quit")
	// ErrShowHelp 调用方打印 Help
	ErrShowHelp = errors.New("help")
)

// Extras 引擎之外的后端操作
type Extras interface {
	AddReaction(ctx context.Context, messageID, emoji string) error
	DispatchAgent(ctx context.Context, agentID, chatID, message string) (*dto.DispatchResultDTO, error)
}

// Picker 本地媒体选择
type Picker interface {
	PickImage(path string) (chatsync.MediaAsset, error)
	PickVideo(ctx context.Context, path string) (chatsync.MediaAsset, error)
}

// Screen 滚动与重绘
type Screen interface {
	Render()
	ScrollUp()
	ScrollEnd()
}

// Shell 应用级操作：主题、前后台、登出
type Shell interface {
	SetTheme(name string) error
	SetActive(active bool)
	SignOut(ctx context.Context) error
}

type CommandDeps struct {
	Session *chatsync.Session
	Extras  Extras
	Picker  Picker
	Audio   *FileAudioCapture
	Screen  Screen
	Shell   Shell
}

// Commands 解析并执行输入行
type Commands struct {
	CommandDeps
}

func NewCommands(deps CommandDeps) *Commands {
	return &Commands{CommandDeps: deps}
}

// Help 命令说明
const Help = `commands:
  <text>                 send a message
  /image <path>          send an image
  /video <path>          send a video
  /record <path>         start recording (uses the file as the captured audio)
  /stop | /cancel        finish or discard the recording
  /select /toggle <n> /all /done
  /delete me|all         delete the selection
  /del <n> me|all        delete one message
  /react <n> <emoji>     add a reaction
  /agent <id> <text>     ask an agent
  /theme <name>          switch theme
  /away | /back          background / foreground
  /reload                reload the conversation
  /scroll up|end
  /logout | /quit`

// Execute 执行一行输入；返回 ErrQuit 时调用方应退出
func (s *Commands) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return s.Session.Sender.SendText(ctx, line)
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "/help":
		return ErrShowHelp
	case "/image":
		if rest == "" {
			return errors.New("usage: /image <path>")
		}
		asset, err := s.Picker.PickImage(rest)
		if err != nil {
			return err
		}
		return s.Session.Sender.SendImage(ctx, asset)
	case "/video":
		if rest == "" {
			return errors.New("usage: /video <path>")
		}
		asset, err := s.Picker.PickVideo(ctx, rest)
		if err != nil {
			return err
		}
		return s.Session.Sender.SendVideo(ctx, asset)
	case "/record":
		if rest == "" {
			return errors.New("usage: /record <path>")
		}
		s.Audio.SetSource(rest)
		return s.Session.Recorder.Start(ctx)
	case "/stop":
		return s.Session.Recorder.Stop(ctx)
	case "/cancel":
		s.Session.Recorder.Cancel(ctx)
		return nil
	case "/select":
		s.Session.Selection.Enter()
	case "/toggle":
		id, err := s.messageAt(args, 0)
		if err != nil {
			return err
		}
		s.Session.Selection.Toggle(id)
	case "/all":
		s.Session.Selection.SelectAll(s.Session.Store.IDs())
	case "/done":
		s.Session.Selection.Exit()
	case "/delete":
		mode, err := parseMode(args, 0)
		if err != nil {
			return err
		}
		res := s.Session.Deleter.DeleteSelected(ctx, mode)
		if len(res.Failed) > 0 {
			return fmt.Errorf("%d deleted, %d failed", len(res.Succeeded), len(res.Failed))
		}
	case "/del":
		id, err := s.messageAt(args, 0)
		if err != nil {
			return err
		}
		mode, err := parseMode(args, 1)
		if err != nil {
			return err
		}
		return s.Session.Deleter.DeleteOne(ctx, mode, id)
	case "/react":
		id, err := s.messageAt(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errors.New("usage: /react <n> <emoji>")
		}
		if id.IsPending() {
			return chatsync.ErrPendingMessage
		}
		if err = s.Extras.AddReaction(ctx, id.String(), args[1]); err != nil {
			return err
		}
		s.Session.Focus(ctx)
	case "/agent":
		agentID, text, _ := strings.Cut(rest, " ")
		if agentID == "" || strings.TrimSpace(text) == "" {
			return errors.New("usage: /agent <id> <text>")
		}
		_, err := s.Extras.DispatchAgent(ctx, agentID, s.Session.ChatID(), strings.TrimSpace(text))
		return err
	case "/theme":
		if rest == "" {
			return errors.New("usage: /theme <name>")
		}
		if err := s.Shell.SetTheme(rest); err != nil {
			return err
		}
	case "/away":
		s.Shell.SetActive(false)
		return nil
	case "/back":
		s.Shell.SetActive(true)
		s.Session.Focus(ctx)
	case "/reload":
		s.Session.Focus(ctx)
	case "/scroll":
		switch rest {
		case "up":
			s.Screen.ScrollUp()
		case "end":
			s.Screen.ScrollEnd()
		default:
			return errors.New("usage: /scroll up|end")
		}
		return nil
	case "/logout":
		if err := s.Shell.SignOut(ctx); err != nil {
			return errors.Wrap(err, "logout")
		}
		return ErrQuit
	case "/quit", "/exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %s, try /help", cmd)
	}

	s.Screen.Render()
	return nil
}

// messageAt 把列表序号（从 1 开始）解析为消息 ID
func (s *Commands) messageAt(args []string, i int) (chatsync.ID, error) {
	if len(args) <= i {
		return chatsync.ID{}, errors.New("missing message number")
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return chatsync.ID{}, fmt.Errorf("invalid message number %q", args[i])
	}
	ids := s.Session.Store.IDs()
	if n < 1 || n > len(ids) {
		return chatsync.ID{}, fmt.Errorf("no message #%d", n)
	}
	return ids[n-1], nil
}

func parseMode(args []string, i int) (chatsync.DeleteMode, error) {
	if len(args) <= i {
		return 0, errors.New("specify me or all")
	}
	switch args[i] {
	case "me":
		return chatsync.DeleteForMe, nil
	case "all":
		return chatsync.DeleteForEveryone, nil
	default:
		return 0, fmt.Errorf("unknown delete mode %q", args[i])
	}
}
