package platform

import (
	"CommandCenter/internal/api/config"
	"CommandCenter/internal/model"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// Router 按平台分发发布请求，每个平台独立熔断
type Router struct {
	publishers map[model.Platform]Publisher
	breakers   map[model.Platform]circuitbreaker.CircuitBreaker[*Result]
}

type BreakerOptions struct {
	FailureThreshold uint
	FailureWindow    uint
	Delay            time.Duration
}

func breakerOptionsFrom(cfg config.CircuitBreakerConfig) BreakerOptions {
	opts := BreakerOptions{
		FailureThreshold: cfg.FailureThreshold,
		FailureWindow:    cfg.FailureWindow,
		Delay:            time.Duration(cfg.Delay) * time.Second,
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.FailureWindow < opts.FailureThreshold {
		opts.FailureWindow = opts.FailureThreshold
	}
	if opts.Delay <= 0 {
		opts.Delay = 30 * time.Second
	}
	return opts
}

func NewRouter(publishers map[model.Platform]Publisher, opts BreakerOptions) *Router {
	r := &Router{
		publishers: publishers,
		breakers:   make(map[model.Platform]circuitbreaker.CircuitBreaker[*Result], len(publishers)),
	}
	for p := range publishers {
		r.breakers[p] = newBreaker(p, opts)
	}
	return r
}

// NewRouterFromConfig live 模式使用真实平台客户端，simulate 模式使用模拟发布
func NewRouterFromConfig(cfg config.PlatformConfig) *Router {
	opts := breakerOptionsFrom(cfg.CircuitBreaker)
	if cfg.Mode == config.PlatformModeSimulate {
		sim := NewSimulator()
		return NewRouter(map[model.Platform]Publisher{
			model.PlatformTikTok:    sim,
			model.PlatformInstagram: sim,
			model.PlatformFacebook:  sim,
			model.PlatformYouTube:   sim,
		}, opts)
	}

	return NewRouter(map[model.Platform]Publisher{
		model.PlatformFacebook:  NewFacebookPublisher(cfg.Facebook),
		model.PlatformInstagram: NewInstagramPublisher(cfg.Instagram),
		model.PlatformTikTok:    NewTikTokPublisher(cfg.TikTok),
	}, opts)
}

func newBreaker(p model.Platform, opts BreakerOptions) circuitbreaker.CircuitBreaker[*Result] {
	return circuitbreaker.NewBuilder[*Result]().
		HandleIf(func(_ *Result, err error) bool {
			if err == nil {
				return false
			}
			reason, _ := Classify(err)
			return reason.Retryable()
		}).
		WithFailureThresholdRatio(opts.FailureThreshold, opts.FailureWindow).
		WithDelay(opts.Delay).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("platform circuit breaker state changed",
				"platform", p,
				"from", e.OldState,
				"to", e.NewState,
			)
		}).
		Build()
}

func (r *Router) Publish(ctx context.Context, item *model.ContentItem) (*Result, error) {
	pub, ok := r.publishers[item.Platform]
	if !ok {
		return nil, &PublishError{
			Platform: item.Platform,
			Reason:   ReasonPlatformUnavailable,
			Message:  fmt.Sprintf("%v: %s", ErrUnsupportedPlatform, item.Platform),
		}
	}

	res, err := failsafe.With(r.breakers[item.Platform]).
		WithContext(ctx).
		Get(func() (*Result, error) {
			return pub.Publish(ctx, item)
		})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, &PublishError{Platform: item.Platform, Reason: ReasonPlatformUnavailable, Message: "circuit breaker open"}
		}
		return nil, err
	}
	return res, nil
}

// BreakerOpen 当前平台是否处于熔断
func (r *Router) BreakerOpen(p model.Platform) bool {
	cb, ok := r.breakers[p]
	return ok && cb.IsOpen()
}
