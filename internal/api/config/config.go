package config

// Config 配置主体
type Config struct {
	Server               ServerConfig         `mapstructure:"server"`
	DB                   DBConfig             `mapstructure:"database"`
	Redis                RedisConfig          `mapstructure:"redis"`
	Mongo                MongoConfig          `mapstructure:"mongo"`
	Kafka                KafkaConfig          `mapstructure:"kafka"`
	KafkaOutcomeProducer KafkaOutcomeProducer `mapstructure:"kafka_outcome_producer"`
	Log                  LogConfig            `mapstructure:"log"`
	Logstash             LogstashConfig       `mapstructure:"logstash"`
	JWT                  JWTConfig            `mapstructure:"jwt"`
	Scheduler            SchedulerConfig      `mapstructure:"scheduler"`
	Platform             PlatformConfig       `mapstructure:"platform"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Producer ProducerConfig `mapstructure:"producer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ProducerConfig struct {
	RetryMax     int `mapstructure:"retry_max"`
	Timeout      int `mapstructure:"timeout"`
	RequiredAcks int `mapstructure:"required_acks"`
}

type KafkaOutcomeProducer struct {
	Topic string `mapstructure:"topic"`
}

// LogConfig 本地日志，Level 取 debug/info/warn/error
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LogstashConfig 远程日志
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// SchedulerConfig 定时发布配置，时间单位均为秒
type SchedulerConfig struct {
	PublishTimeout int    `mapstructure:"publish_timeout"`
	SweepSpec      string `mapstructure:"sweep_spec"`
	SweepGrace     int    `mapstructure:"sweep_grace"`
	SweepBatch     int    `mapstructure:"sweep_batch"`
	ListCacheTTL   int    `mapstructure:"list_cache_ttl"`
}

// PlatformConfig 平台发布配置，Mode 为 live 或 simulate
type PlatformConfig struct {
	Mode           string               `mapstructure:"mode"`
	Facebook       FacebookConfig       `mapstructure:"facebook"`
	Instagram      InstagramConfig      `mapstructure:"instagram"`
	TikTok         TikTokConfig         `mapstructure:"tiktok"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type FacebookConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIVersion  string `mapstructure:"api_version"`
	PageID      string `mapstructure:"page_id"`
	AccessToken string `mapstructure:"access_token"`
}

type InstagramConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIVersion  string `mapstructure:"api_version"`
	UserID      string `mapstructure:"user_id"`
	AccessToken string `mapstructure:"access_token"`
}

type TikTokConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	AccessToken  string `mapstructure:"access_token"`
	PrivacyLevel string `mapstructure:"privacy_level"`
}

type CircuitBreakerConfig struct {
	FailureThreshold uint `mapstructure:"failure_threshold"`
	FailureWindow    uint `mapstructure:"failure_window"`
	Delay            int  `mapstructure:"delay"`
}
