package platform

import (
	"CommandCenter/internal/model"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

var simulatedSuccessRates = map[model.Platform]float64{
	model.PlatformTikTok:    0.95,
	model.PlatformInstagram: 0.92,
	model.PlatformFacebook:  0.96,
	model.PlatformYouTube:   0.88,
}

const defaultSimulatedSuccessRate = 0.90

var simulatedFailures = []struct {
	reason  Reason
	message string
}{
	{ReasonRateLimit, "Rate limit exceeded"},
	{ReasonInvalidCredential, "Invalid access token"},
	{ReasonContentPolicy, "Content violates community guidelines"},
	{ReasonNetworkTimeout, "Network timeout"},
	{ReasonPlatformUnavailable, "Platform API temporarily unavailable"},
}

// Simulator 演示环境用的发布器，按平台成功率随机成功或失败
type Simulator struct {
	mu         sync.Mutex
	rng        *rand.Rand
	minLatency time.Duration
	maxLatency time.Duration
	now        func() time.Time
}

func NewSimulator() *Simulator {
	return &Simulator{
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		minLatency: 500 * time.Millisecond,
		maxLatency: 1500 * time.Millisecond,
		now:        time.Now,
	}
}

// NewSeededSimulator 固定随机种子且无延迟
func NewSeededSimulator(seed uint64) *Simulator {
	return &Simulator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

func (s *Simulator) Publish(ctx context.Context, item *model.ContentItem) (*Result, error) {
	s.mu.Lock()
	latency := s.minLatency
	if s.maxLatency > s.minLatency {
		latency += time.Duration(s.rng.Int64N(int64(s.maxLatency - s.minLatency)))
	}
	roll := s.rng.Float64()
	pick := s.rng.IntN(len(simulatedFailures))
	suffix := s.rng.Uint32()
	s.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	rate, ok := simulatedSuccessRates[item.Platform]
	if !ok {
		rate = defaultSimulatedSuccessRate
	}
	if roll < rate {
		id := fmt.Sprintf("%s_%d_%x", strings.ToLower(string(item.Platform)), s.now().UnixMilli(), suffix)
		return &Result{PlatformPostID: id}, nil
	}

	f := simulatedFailures[pick]
	return nil, &PublishError{Platform: item.Platform, Reason: f.reason, Message: f.message}
}
