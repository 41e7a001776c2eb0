package platform

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// newRestClient 平台 HTTP 客户端，整体超时由调用方 context 控制
func newRestClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60*time.Second).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeader("Accept", "application/json")
}

// transportError 请求未拿到响应时，优先保留 context 的超时语义
func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
