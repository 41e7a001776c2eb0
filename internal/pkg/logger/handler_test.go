package logger

import (
	"CommandCenter/internal/pkg/consts"
	"bytes"
	"context"
	log "log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandlerAddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&ContextHandler{log.NewJSONHandler(&buf, nil)})

	ctx := WithTraceID(context.Background(), "trigger")
	l.InfoContext(ctx, "content published", "content_id", 42)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	traceID, _ := record[TraceIDKey].(string)
	assert.True(t, strings.HasPrefix(traceID, "trigger-"))
	assert.Equal(t, TraceID(ctx), traceID)
}

func TestRemoteFilterHandlerDropsRecordsWithoutTrace(t *testing.T) {
	var local, remote bytes.Buffer
	tee := &TeeHandler{handlers: []log.Handler{
		log.NewJSONHandler(&local, nil),
		&RemoteFilterHandler{next: log.NewJSONHandler(&remote, nil)},
	}}
	l := log.New(&ContextHandler{tee})

	l.Info("startup")
	assert.NotEmpty(t, local.String())
	assert.Empty(t, remote.String())

	l.InfoContext(WithTraceID(context.Background(), "job"), "sweep finished")
	assert.Contains(t, remote.String(), "sweep finished")
}

func TestTraceIDEmptyContext(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))
}

func TestFormatAccessLog(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(TraceIDKey, "abc")
	c.Set("user_id", uint64(9))

	line := formatAccessLog(gin.LogFormatterParams{
		TimeStamp:  time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC),
		Method:     "POST",
		Path:       "/api/scheduler/7/schedule",
		StatusCode: 200,
		Latency:    15 * time.Millisecond,
		Keys:       c.Keys,
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "GIN_ACCESS", entry["msg"])
	assert.Equal(t, "abc", entry["trace_id"])
	assert.EqualValues(t, 9, entry["user_id"])
	assert.Equal(t, "/api/scheduler/7/schedule", entry["path"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.LevelDebug, parseLevel("debug"))
	assert.Equal(t, log.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, log.LevelInfo, parseLevel("verbose"))
}

func TestSQLOperation(t *testing.T) {
	assert.Equal(t, "UPDATE", sqlOperation("  update `content_items` SET status=?"))
	assert.Equal(t, "Query", sqlOperation(""))
}

func TestRedactArgsHidesBlacklistedSignature(t *testing.T) {
	cmd := redis.NewStringCmd(context.Background(), "get", consts.TokenBlacklistKey+"sig-123")
	out := redactArgs(cmd)

	assert.NotContains(t, out, "sig-123")
	assert.Contains(t, out, "get")

	auth := redis.NewStatusCmd(context.Background(), "auth", "secret")
	assert.Equal(t, "[PROTECTED]", redactArgs(auth))
}

func TestTeeHandlerRespectsPerHandlerLevel(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	tee := &TeeHandler{handlers: []log.Handler{
		log.NewJSONHandler(&debugBuf, &log.HandlerOptions{Level: log.LevelDebug}),
		log.NewJSONHandler(&infoBuf, &log.HandlerOptions{Level: log.LevelInfo}),
	}}
	l := log.New(tee)

	l.Debug("registry armed")
	assert.Contains(t, debugBuf.String(), "registry armed")
	assert.Empty(t, infoBuf.String())
}
