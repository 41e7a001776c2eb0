package logger

import (
	"CommandCenter/internal/api/config"
	"errors"
	"io"
	log "log/slog"
	"net"
	"os"
	"time"
)

var LogWriter io.Writer = os.Stdout

func InitLogger() {
	cfg := config.Cfg

	level := parseLevel(cfg.Log.Level)
	hStdout := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: level})

	var finalHandler log.Handler = hStdout

	conn, err := dialLogstash(cfg.Logstash.Address)
	if err == nil {
		hRemote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: log.LevelInfo}).
			WithAttrs([]log.Attr{
				log.String("target_index", cfg.Logstash.Index),
				log.String("log_token", cfg.Logstash.Token),
			})

		finalHandler = &TeeHandler{
			handlers: []log.Handler{hStdout, &RemoteFilterHandler{next: hRemote}},
		}
		LogWriter = conn
	} else {
		LogWriter = os.Stdout
		log.Warn("Failed to connect to Logstash, logging to stdout only", "err", err)
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}

func dialLogstash(addr string) (net.Conn, error) {
	if addr == "" {
		return nil, errors.New("logstash address not configured")
	}
	return net.DialTimeout("tcp", addr, 3*time.Second)
}

// parseLevel 无法识别时回落到 info
func parseLevel(s string) log.Level {
	var level log.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return log.LevelInfo
	}
	return level
}
