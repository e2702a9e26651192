package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Cache        CacheConfig        `yaml:"cache"`
	Auth         AuthConfig         `yaml:"auth"`
	Notification NotificationConfig `yaml:"notification"`
	Outbound     OutboundConfig     `yaml:"outbound"`
	Worker       WorkerConfig       `yaml:"worker"`
	Log          LogConfig          `yaml:"log"`
}

type HTTPConfig struct {
	Address         string `yaml:"address" env:"HTTP_ADDRESS"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn" env:"DATABASE_DSN"`
	Host     string `yaml:"host" env:"DATABASE_HOST"`
	Port     int    `yaml:"port" env:"DATABASE_PORT"`
	User     string `yaml:"user" env:"DATABASE_USER"`
	Password string `yaml:"password" env:"DATABASE_PASSWORD"`
	Name     string `yaml:"name" env:"DATABASE_NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"DATABASE_SSL_MODE"`
	Migrate  bool   `yaml:"migrate" env:"DATABASE_MIGRATE"`
}

func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	OutboundTopic      string   `yaml:"outbound_topic"`
	GroupID            string   `yaml:"group_id"`
}

type CacheConfig struct {
	Backend      string `yaml:"backend" env:"CACHE_BACKEND"`
	TTLSeconds   int    `yaml:"ttl_seconds" env:"CACHE_TTL_SECONDS"`
	SweepSeconds int    `yaml:"sweep_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer"`
}

type NotificationConfig struct {
	DefaultTimezone string `yaml:"default_timezone" env:"NOTIFICATION_DEFAULT_TIMEZONE"`
}

type OutboundConfig struct {
	Mode      string        `yaml:"mode" env:"OUTBOUND_MODE"`
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	SMTP      SMTPConfig    `yaml:"smtp"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

type SMTPConfig struct {
	Addr     string `yaml:"addr" env:"SMTP_ADDR"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

type BreakerConfig struct {
	MaxRequests    uint32  `yaml:"max_requests"`
	IntervalSecond int     `yaml:"interval_seconds"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	FailureRatio   float64 `yaml:"failure_ratio"`
	MinRequests    uint32  `yaml:"min_requests"`
}

type WorkerConfig struct {
	MetricsAddress string `yaml:"metrics_address" env:"WORKER_METRICS_ADDRESS"`
}

type LogConfig struct {
	Development bool `yaml:"development" env:"LOG_DEVELOPMENT"`
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	OutboundModeDirect = "direct"
	OutboundModeKafka  = "kafka"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownSeconds == 0 {
		c.HTTP.ShutdownSeconds = 5
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.BookingEventsTopic == "" {
		c.Kafka.BookingEventsTopic = "booking-events"
	}
	if c.Kafka.OutboundTopic == "" {
		c.Kafka.OutboundTopic = "outbound-notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "servicebooking-worker"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendMemory
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Cache.SweepSeconds == 0 {
		c.Cache.SweepSeconds = 60
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "servicebooking"
	}
	if c.Notification.DefaultTimezone == "" {
		c.Notification.DefaultTimezone = "UTC"
	}
	if c.Outbound.Mode == "" {
		c.Outbound.Mode = OutboundModeDirect
	}
	if c.Outbound.Workers == 0 {
		c.Outbound.Workers = 4
	}
	if c.Outbound.QueueSize == 0 {
		c.Outbound.QueueSize = 256
	}
	if c.Worker.MetricsAddress == "" {
		c.Worker.MetricsAddress = ":9091"
	}
	b := &c.Outbound.Breaker
	if b.MaxRequests == 0 {
		b.MaxRequests = 1
	}
	if b.IntervalSecond == 0 {
		b.IntervalSecond = 60
	}
	if b.TimeoutSeconds == 0 {
		b.TimeoutSeconds = 30
	}
	if b.FailureRatio == 0 {
		b.FailureRatio = 0.5
	}
	if b.MinRequests == 0 {
		b.MinRequests = 5
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, errors.New("cache.ttl_seconds must be positive"))
	}
	if c.Cache.SweepSeconds <= 0 {
		errs = append(errs, errors.New("cache.sweep_seconds must be positive"))
	}
	if c.Outbound.Workers <= 0 {
		errs = append(errs, errors.New("outbound.workers must be positive"))
	}
	if c.Outbound.QueueSize <= 0 {
		errs = append(errs, errors.New("outbound.queue_size must be positive"))
	}
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.backend redis requires redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}
	switch c.Outbound.Mode {
	case OutboundModeDirect:
	case OutboundModeKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("outbound.mode kafka requires kafka.brokers"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown outbound.mode %q", c.Outbound.Mode))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if _, err := time.LoadLocation(c.Notification.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("notification.default_timezone: %w", err))
	}
	return errors.Join(errs...)
}
