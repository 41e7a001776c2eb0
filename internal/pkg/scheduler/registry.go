package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// FireFunc 触发回调，fireAt 为登记时的发布时间
type FireFunc func(id uint64, fireAt time.Time)

type entry struct {
	version uint64
	fireAt  time.Time
	timer   Timer
}

// Registry 进程内的触发器表，每个内容最多一个已登记触发器
// 只是存储的派生缓存，可以随时由 SCHEDULED 记录重建
type Registry struct {
	mu      sync.Mutex
	log     *slog.Logger
	clock   Clock
	fire    FireFunc
	entries map[uint64]*entry
	version uint64
	stopped bool

	inflight sync.WaitGroup
	onChange func(armed int)
}

func NewRegistry(clock Clock, log *slog.Logger, fire FireFunc) *Registry {
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:     log,
		clock:   clock,
		fire:    fire,
		entries: map[uint64]*entry{},
	}
}

// OnChange 登记数量变化时回调，用于指标上报
func (r *Registry) OnChange(fn func(armed int)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Arm 登记触发器，已存在的同 id 触发器会被替换
func (r *Registry) Arm(id uint64, fireAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}

	if old, ok := r.entries[id]; ok {
		old.timer.Stop()
		delete(r.entries, id)
	}

	r.version++
	ver := r.version
	delay := fireAt.Sub(r.clock.Now())
	if delay < 0 {
		delay = 0
	}

	e := &entry{version: ver, fireAt: fireAt}
	e.timer = r.clock.AfterFunc(delay, func() {
		r.onFire(id, ver)
	})
	r.entries[id] = e
	r.notifyLocked()

	r.log.Debug("trigger armed", slog.Uint64("content_id", id), slog.Time("fire_at", fireAt), slog.Duration("delay", delay))
	return true
}

// Disarm 撤销触发器，返回是否存在
func (r *Registry) Disarm(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(r.entries, id)
	r.notifyLocked()
	return true
}

func (r *Registry) Armed(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Len 当前已登记的触发器数量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stop 撤销全部触发器并等待正在执行的回调结束
func (r *Registry) Stop() {
	r.mu.Lock()
	r.stopped = true
	for id, e := range r.entries {
		e.timer.Stop()
		delete(r.entries, id)
	}
	r.notifyLocked()
	r.mu.Unlock()

	r.inflight.Wait()
}

func (r *Registry) onFire(id uint64, ver uint64) {
	r.mu.Lock()
	e, ok := r.entries[id]
	// 已被撤销或替换的触发器直接忽略
	if !ok || e.version != ver || r.stopped {
		r.mu.Unlock()
		return
	}
	delete(r.entries, id)
	fireAt := e.fireAt
	r.inflight.Add(1)
	r.notifyLocked()
	r.mu.Unlock()

	defer r.inflight.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("trigger callback panicked", slog.Uint64("content_id", id), slog.Any("panic", rec))
		}
	}()
	r.fire(id, fireAt)
}

func (r *Registry) notifyLocked() {
	if r.onChange != nil {
		r.onChange(len(r.entries))
	}
}
