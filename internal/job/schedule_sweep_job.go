package job

import (
	"CommandCenter/internal/pkg/logger"
	"CommandCenter/internal/service"
	"context"
	log "log/slog"
	"time"
)

// ScheduleSweepJob 兜底扫描已到期但未触发的定时条目
type ScheduleSweepJob struct {
	scheduleSvc service.ScheduleService
	timeout     time.Duration
}

func NewScheduleSweepJob(scheduleSvc service.ScheduleService, timeout time.Duration) *ScheduleSweepJob {
	return &ScheduleSweepJob{
		scheduleSvc: scheduleSvc,
		timeout:     timeout,
	}
}

func (s *ScheduleSweepJob) Run() {
	ctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), "job-sweep"), s.timeout)
	defer cancel()

	n, err := s.scheduleSvc.SweepDue(ctx)
	if err != nil {
		log.ErrorContext(ctx, "ScheduleSweepJob failed", "err", err)
		return
	}
	if n > 0 {
		log.InfoContext(ctx, "ScheduleSweepJob finished", "executed", n)
	}
}
