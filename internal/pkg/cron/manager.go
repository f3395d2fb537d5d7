package cron

import (
	"Chatwave/internal/job"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine          *cron.Cron
	mediaCleanupJob *job.MediaCleanupJob
	cleanupSpec     string
}

// NewCronManager 服务端定时任务
func NewCronManager(mediaCleanupJob *job.MediaCleanupJob, cleanupSpec string) *Manager {
	if cleanupSpec == "" {
		cleanupSpec = "@every 10m"
	}
	return &Manager{
		engine:          newEngine(),
		mediaCleanupJob: mediaCleanupJob,
		cleanupSpec:     cleanupSpec,
	}
}

// NewIntervalManager 只提供周期句柄，不注册任务
func NewIntervalManager() *Manager {
	return &Manager{engine: newEngine()}
}

func newEngine() *cron.Cron {
	l := slogLogger{}
	return cron.New(
		cron.WithSeconds(),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if s.mediaCleanupJob == nil {
		return nil
	}
	if _, err := s.engine.AddJob(s.cleanupSpec, s.mediaCleanupJob); err != nil {
		return err
	}
	return nil
}

// Every 按固定间隔执行 fn，返回的 stop 移除该任务；间隔不足一秒按一秒计
func (s *Manager) Every(interval time.Duration, fn func()) (func(), error) {
	if interval <= 0 {
		return nil, errors.New("cron: interval must be positive")
	}
	id := s.engine.Schedule(cron.Every(interval), cron.FuncJob(fn))
	return func() { s.engine.Remove(id) }, nil
}

// InitCron 注册服务端任务并启动引擎
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}
	mgr.Start()
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}

type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
