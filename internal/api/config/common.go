package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

const (
	PlatformModeLive     = "live"
	PlatformModeSimulate = "simulate"
)

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Normalize()

	Cfg = &cfg

	return nil
}

// Normalize 填充未配置项的默认值
func (c *Config) Normalize() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Scheduler.PublishTimeout <= 0 {
		c.Scheduler.PublishTimeout = 30
	}
	if c.Scheduler.SweepSpec == "" {
		c.Scheduler.SweepSpec = "*/30 * * * * *"
	}
	if c.Scheduler.SweepGrace <= 0 {
		c.Scheduler.SweepGrace = 5
	}
	if c.Scheduler.SweepBatch <= 0 {
		c.Scheduler.SweepBatch = 100
	}
	if c.Scheduler.ListCacheTTL <= 0 {
		c.Scheduler.ListCacheTTL = 300
	}
	if c.Platform.Mode == "" {
		c.Platform.Mode = PlatformModeLive
	}
	if c.Platform.Facebook.APIVersion == "" {
		c.Platform.Facebook.APIVersion = "v18.0"
	}
	if c.Platform.Instagram.APIVersion == "" {
		c.Platform.Instagram.APIVersion = "v18.0"
	}
	if c.Platform.TikTok.PrivacyLevel == "" {
		c.Platform.TikTok.PrivacyLevel = "PUBLIC_TO_EVERYONE"
	}
	if c.KafkaOutcomeProducer.Topic == "" {
		c.KafkaOutcomeProducer.Topic = "content.publish.outcome"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "CommandCenter"
	}
}
