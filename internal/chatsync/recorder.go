package chatsync

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type RecorderState int

const (
	RecorderIdle RecorderState = iota
	RecorderStarting
	RecorderRecording
)

const recordTick = time.Second

// Recorder 语音录制子状态机 idle -> starting -> recording -> idle
type Recorder struct {
	capture   AudioCapture
	perms     Permissions
	scheduler Scheduler
	alerter   Alerter
	sender    *Sender

	mu       sync.Mutex
	state    RecorderState
	attempt  int
	duration int
	stopTick func()
}

func NewRecorder(capture AudioCapture, perms Permissions, scheduler Scheduler, alerter Alerter, sender *Sender) *Recorder {
	return &Recorder{
		capture:   capture,
		perms:     perms,
		scheduler: scheduler,
		alerter:   alerter,
		sender:    sender,
	}
}

// Start 申请麦克风权限并开始录音
func (s *Recorder) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != RecorderIdle {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	s.state = RecorderStarting
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	if s.perms != nil {
		granted, err := s.perms.Request(ctx, PermissionMicrophone)
		if err != nil || !granted {
			s.reset(attempt)
			s.alert("Permission needed", "Please grant microphone permissions to record voice messages.")
			return ErrPermissionDenied
		}
	}

	if err := s.capture.Start(ctx); err != nil {
		s.reset(attempt)
		err = errors.Wrap(err, "failed to start recording")
		s.alert("Error", err.Error())
		return err
	}

	stop, err := s.scheduler.Every(recordTick, s.tick)
	if err != nil {
		s.reset(attempt)
		_, _ = s.capture.Stop(ctx)
		return errors.Wrap(err, "failed to start duration timer")
	}

	s.mu.Lock()
	if s.state != RecorderStarting || s.attempt != attempt {
		// 启动期间被 Cancel
		s.mu.Unlock()
		stop()
		_, _ = s.capture.Stop(ctx)
		return ErrNotRecording
	}
	s.state = RecorderRecording
	s.duration = 0
	s.stopTick = stop
	s.mu.Unlock()
	return nil
}

func (s *Recorder) reset(attempt int) {
	s.mu.Lock()
	if s.state == RecorderStarting && s.attempt == attempt {
		s.state = RecorderIdle
	}
	s.mu.Unlock()
}

// Stop 结束录音；时长为 0 的录音直接丢弃
func (s *Recorder) Stop(ctx context.Context) error {
	rec, err := s.finish(ctx)
	if err != nil {
		return err
	}
	if rec.Duration == 0 {
		return ErrEmptyRecording
	}
	return s.sender.SendVoice(ctx, rec)
}

// Cancel 放弃当前录音
func (s *Recorder) Cancel(ctx context.Context) {
	_, _ = s.finish(ctx)
}

func (s *Recorder) State() RecorderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Recorder) Duration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Recorder) finish(ctx context.Context) (Recording, error) {
	s.mu.Lock()
	if s.state == RecorderStarting {
		s.state = RecorderIdle
	}
	if s.state != RecorderRecording {
		s.mu.Unlock()
		return Recording{}, ErrNotRecording
	}
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
	duration := s.duration
	s.state = RecorderIdle
	s.duration = 0
	s.mu.Unlock()

	uri, err := s.capture.Stop(ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to stop recording")
		s.alert("Error", err.Error())
		return Recording{}, err
	}
	return Recording{URI: uri, Duration: duration}, nil
}

func (s *Recorder) tick() {
	s.mu.Lock()
	if s.state == RecorderRecording {
		s.duration++
	}
	s.mu.Unlock()
}

func (s *Recorder) alert(title, msg string) {
	if s.alerter != nil {
		s.alerter.Alert(title, msg)
	}
}
