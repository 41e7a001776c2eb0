package api

import (
	"CommandCenter/internal/api/handler"
	"CommandCenter/internal/pkg/monitoring"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	ContentHandler      *handler.ContentHandler
	ScheduleHandler     *handler.ScheduleHandler
	NotificationHandler *handler.NotificationHandler
	Metrics             *monitoring.Metrics
}
