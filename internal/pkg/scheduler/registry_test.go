package scheduler_test

import (
	"sync"
	"testing"
	"time"

	"CommandCenter/internal/pkg/scheduler"
	"CommandCenter/internal/pkg/scheduler/schedulertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firing struct {
	ID     uint64
	FireAt time.Time
}

type fired struct {
	mu    sync.Mutex
	calls []firing
}

func (f *fired) record(id uint64, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, firing{ID: id, FireAt: at})
}

func (f *fired) list() []firing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]firing(nil), f.calls...)
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestRegistryFiresAtScheduledTime(t *testing.T) {
	clock := schedulertest.NewFakeClock(t0)
	rec := &fired{}
	reg := scheduler.NewRegistry(clock, nil, rec.record)

	require.True(t, reg.Arm(1, t0.Add(time.Minute)))
	assert.True(t, reg.Armed(1))

	clock.Advance(59 * time.Second)
	assert.Empty(t, rec.list())

	clock.Advance(time.Second)
	require.Len(t, rec.list(), 1)
	assert.Equal(t, uint64(1), rec.list()[0].ID)
	assert.True(t, rec.list()[0].FireAt.Equal(t0.Add(time.Minute)))
	assert.False(t, reg.Armed(1))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryArmReplacesExistingTrigger(t *testing.T) {
	clock := schedulertest.NewFakeClock(t0)
	rec := &fired{}
	reg := scheduler.NewRegistry(clock, nil, rec.record)

	reg.Arm(7, t0.Add(time.Minute))
	reg.Arm(7, t0.Add(time.Hour))
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(time.Minute)
	assert.Empty(t, rec.list())

	clock.Advance(time.Hour)
	calls := rec.list()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].FireAt.Equal(t0.Add(time.Hour)))
}

func TestRegistryDisarm(t *testing.T) {
	clock := schedulertest.NewFakeClock(t0)
	rec := &fired{}
	reg := scheduler.NewRegistry(clock, nil, rec.record)

	reg.Arm(3, t0.Add(time.Minute))
	assert.True(t, reg.Disarm(3))
	assert.False(t, reg.Disarm(3))

	clock.Advance(time.Hour)
	assert.Empty(t, rec.list())
}

func TestRegistryPastTimeFiresImmediately(t *testing.T) {
	clock := schedulertest.NewFakeClock(t0)
	rec := &fired{}
	reg := scheduler.NewRegistry(clock, nil, rec.record)

	reg.Arm(4, t0.Add(-time.Minute))
	clock.Advance(0)
	require.Len(t, rec.list(), 1)
}

func TestRegistryOnChangeReportsCount(t *testing.T) {
	clock := schedulertest.NewFakeClock(t0)
	reg := scheduler.NewRegistry(clock, nil, func(uint64, time.Time) {})

	var last int
	reg.OnChange(func(n int) { last = n })

	reg.Arm(1, t0.Add(time.Minute))
	reg.Arm(2, t0.Add(time.Minute))
	assert.Equal(t, 2, last)

	reg.Disarm(1)
	assert.Equal(t, 1, last)

	clock.Advance(time.Minute)
	assert.Equal(t, 0, last)
}

func TestRegistryStopRejectsNewTriggers(t *testing.T) {
	clock := schedulertest.NewFakeClock(t0)
	rec := &fired{}
	reg := scheduler.NewRegistry(clock, nil, rec.record)

	reg.Arm(1, t0.Add(time.Minute))
	reg.Stop()

	assert.False(t, reg.Arm(2, t0.Add(time.Minute)))
	clock.Advance(time.Hour)
	assert.Empty(t, rec.list())
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryRecoversCallbackPanic(t *testing.T) {
	clock := schedulertest.NewFakeClock(t0)
	reg := scheduler.NewRegistry(clock, nil, func(uint64, time.Time) { panic("boom") })

	reg.Arm(1, t0)
	assert.NotPanics(t, func() { clock.Advance(0) })
	reg.Stop()
}

func TestRegistryWithRealClock(t *testing.T) {
	done := make(chan uint64, 1)
	reg := scheduler.NewRegistry(scheduler.RealClock(), nil, func(id uint64, _ time.Time) {
		done <- id
	})
	defer reg.Stop()

	reg.Arm(42, time.Now().Add(10*time.Millisecond))
	select {
	case id := <-done:
		assert.Equal(t, uint64(42), id)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire")
	}
}
