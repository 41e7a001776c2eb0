package logger

import (
	"CommandCenter/internal/api/config"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// accessLog 与 slog JSON 输出字段保持一致，便于 Logstash 统一索引
type accessLog struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id"`
	LogToken    string `json:"log_token"`
	TargetIndex string `json:"target_index"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	Latency     string `json:"latency"`
	UserID      uint64 `json:"user_id,omitempty"`
}

func SetupGin(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: []string{"/metrics", "/api/ping"},
		Formatter: formatAccessLog,
	}))

	r.Use(gin.Recovery())
}

func formatAccessLog(p gin.LogFormatterParams) string {
	entry := accessLog{
		Time:    p.TimeStamp.Format(time.RFC3339),
		Level:   "INFO",
		Msg:     "GIN_ACCESS",
		Method:  p.Method,
		Path:    p.Path,
		Status:  p.StatusCode,
		Latency: p.Latency.String(),
	}
	if config.Cfg != nil {
		entry.LogToken = config.Cfg.Logstash.Token
		entry.TargetIndex = config.Cfg.Logstash.Index
	}
	if p.Keys != nil {
		entry.TraceID, _ = p.Keys[TraceIDKey].(string)
		entry.UserID, _ = p.Keys["user_id"].(uint64)
	}
	if entry.TraceID == "" && p.Request != nil {
		entry.TraceID = TraceID(p.Request.Context())
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	return string(raw) + "\n"
}
