package platform

import (
	"CommandCenter/internal/model"
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// Reason 发布失败原因分类
type Reason string

const (
	ReasonRateLimit           Reason = "rate-limit"
	ReasonInvalidCredential   Reason = "invalid-credential"
	ReasonContentPolicy       Reason = "content-policy"
	ReasonNetworkTimeout      Reason = "network-timeout"
	ReasonPlatformUnavailable Reason = "platform-unavailable"
	ReasonUnknown             Reason = "unknown"
)

// Retryable 平台侧暂时性故障，计入熔断统计
func (r Reason) Retryable() bool {
	switch r {
	case ReasonRateLimit, ReasonNetworkTimeout, ReasonPlatformUnavailable:
		return true
	}
	return false
}

// Result 平台成功受理后的结果
type Result struct {
	PlatformPostID string
}

// Publisher 平台发布能力，本身不保证幂等
type Publisher interface {
	Publish(ctx context.Context, item *model.ContentItem) (*Result, error)
}

// PublishError 平台返回的可归类失败
type PublishError struct {
	Platform model.Platform
	Reason   Reason
	Message  string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s publish failed (%s): %s", e.Platform, e.Reason, e.Message)
}

var ErrUnsupportedPlatform = errors.New("no publisher configured for platform")

// Classify 将任意发布错误映射为失败原因和描述
func Classify(err error) (Reason, string) {
	if err == nil {
		return "", ""
	}

	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Reason, pe.Message
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return ReasonPlatformUnavailable, "circuit breaker open"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonNetworkTimeout, "publish timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonNetworkTimeout, netErr.Error()
		}
		return ReasonPlatformUnavailable, netErr.Error()
	}
	if errors.Is(err, ErrUnsupportedPlatform) {
		return ReasonPlatformUnavailable, err.Error()
	}
	return ReasonUnknown, err.Error()
}

// reasonFromStatus 按 HTTP 状态码归类，适用于没有细分错误码的响应
func reasonFromStatus(code int) Reason {
	switch {
	case code == 429:
		return ReasonRateLimit
	case code == 401 || code == 403:
		return ReasonInvalidCredential
	case code == 408 || code == 504:
		return ReasonNetworkTimeout
	case code >= 500:
		return ReasonPlatformUnavailable
	}
	return ReasonUnknown
}
