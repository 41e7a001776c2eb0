package database

import (
	"CommandCenter/internal/api/config"
	"CommandCenter/internal/model"
	"CommandCenter/internal/pkg/logger"
	"fmt"
	log "log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置
// 时间统一按 UTC 毫秒写入，与 datetime(3) 列精度一致
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
		// users 表由账号服务维护，迁移时不建外键
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	if cfg.AutoMigrate {
		if err = db.AutoMigrate(&model.ContentItem{}, &model.PostMetric{}); err != nil {
			return nil, fmt.Errorf("auto migrate failed: %w", err)
		}
		log.Info("Database schema migrated", "tables", []string{model.ContentItem{}.TableName(), model.PostMetric{}.TableName()})
	}

	log.Info("Database connection established successfully.")
	return db, nil
}
