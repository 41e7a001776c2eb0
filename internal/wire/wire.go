package wire

import (
	"CommandCenter/internal/api"
	"CommandCenter/internal/api/config"
	"CommandCenter/internal/api/handler"
	"CommandCenter/internal/job"
	"CommandCenter/internal/pkg/cron"
	"CommandCenter/internal/pkg/kafka"
	"CommandCenter/internal/pkg/monitoring"
	"CommandCenter/internal/pkg/mongo"
	"CommandCenter/internal/pkg/platform"
	"CommandCenter/internal/pkg/scheduler"
	"CommandCenter/internal/repository"
	"CommandCenter/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router          *gin.Engine
	DB              *gorm.DB
	CronMgr         *cron.Manager
	ScheduleService service.ScheduleService
	OutcomeProducer kafka.OutcomeProducer
	Metrics         *monitoring.Metrics
}

func BuildApplication(db *gorm.DB, mongoConn *mongoDB.Database, cfg *config.Config) (*ApplicationContainer, error) {
	contentRepo := repository.NewContentItemRepo(db)
	metricRepo := repository.NewPostMetricRepository(db)
	sysBoxRepo := mongo.NewSysBoxRepo(mongoConn)

	idxCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sysBoxRepo.EnsureIndexes(idxCtx); err != nil {
		log.Warn("ensure notification indexes failed", "err", err)
	}

	producer, err := kafka.NewOutcomeProducer(cfg)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.NewMetrics()
	clock := scheduler.RealClock()
	publisher := platform.NewRouterFromConfig(cfg.Platform)

	notificationService := service.NewNotificationService(sysBoxRepo, producer)
	executor := service.NewPublishExecutor(
		contentRepo,
		publisher,
		notificationService,
		clock,
		metrics,
		time.Duration(cfg.Scheduler.PublishTimeout)*time.Second,
	)
	scheduleService := service.NewScheduleService(contentRepo, executor, notificationService, clock, metrics, service.ScheduleOptions{
		SweepGrace:   time.Duration(cfg.Scheduler.SweepGrace) * time.Second,
		SweepBatch:   cfg.Scheduler.SweepBatch,
		ListCacheTTL: time.Duration(cfg.Scheduler.ListCacheTTL) * time.Second,
	})
	contentService := service.NewContentService(contentRepo, metricRepo)

	handlers := &api.HandlersGroup{
		ContentHandler:      handler.NewContentHandler(contentService),
		ScheduleHandler:     handler.NewScheduleHandler(scheduleService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		Metrics:             metrics,
	}

	router := api.SetupRouter(handlers)

	// 扫描本身可能触发同步发布，超时需覆盖一批发布
	sweepTimeout := time.Duration(cfg.Scheduler.PublishTimeout*cfg.Scheduler.SweepBatch) * time.Second
	cronMgr := cron.NewCronManager(cfg.Scheduler.SweepSpec, job.NewScheduleSweepJob(scheduleService, sweepTimeout))

	return &ApplicationContainer{
		Router:          router,
		DB:              db,
		CronMgr:         cronMgr,
		ScheduleService: scheduleService,
		OutcomeProducer: producer,
		Metrics:         metrics,
	}, nil
}
