package logger

import (
	"Chatwave/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"
	"time"
)

var LogWriter io.Writer = os.Stdout

// remote 最近一次 InitLogger 使用的 Logstash 配置
var remote config.LogstashConfig

const dialTimeout = 2 * time.Second

// InitLogger 初始化全局 slog；out 为空时写 stdout，Logstash 可达时额外上报带 trace_id 的记录
func InitLogger(cfg config.LogstashConfig, out io.Writer, level log.Level) {
	if out == nil {
		out = os.Stdout
	}
	hLocal := log.NewJSONHandler(out, &log.HandlerOptions{Level: level})

	var finalHandler log.Handler = hLocal
	LogWriter = out
	remote = cfg

	if cfg.Address != "" {
		conn, err := net.DialTimeout("tcp", cfg.Address, dialTimeout)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: level}).
				WithAttrs([]log.Attr{
					log.String("target_index", cfg.Index),
					log.String("log_token", cfg.Token),
				})

			finalHandler = &TeeHandler{
				handlers: []log.Handler{hLocal, &RemoteFilterHandler{next: hRemote}},
			}
			LogWriter = io.MultiWriter(out, conn)
		} else {
			log.Warn("Failed to connect to Logstash, logging locally only", "err", err)
		}
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}
