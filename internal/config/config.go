package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Presence   PresenceConfig   `mapstructure:"presence"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	WorkerPool WorkerPoolConfig `mapstructure:"worker_pool"`
	Avatar     AvatarConfig     `mapstructure:"avatar"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// PresenceConfig controls the online window. Clients poll roughly
// every 5 seconds; the window defaults to three poll intervals.
type PresenceConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
}

func (p PresenceConfig) Window() time.Duration {
	if p.WindowSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(p.WindowSeconds) * time.Second
}

type RateLimitConfig struct {
	MessagesPer10s int `mapstructure:"messages_per_10s"`
	DMsPer10s      int `mapstructure:"dms_per_10s"`
	RoomsPerHour   int `mapstructure:"rooms_per_hour"`
	AuthPerMinute  int `mapstructure:"auth_per_minute"`
}

type WorkerPoolConfig struct {
	Size      int `mapstructure:"size"`
	QueueSize int `mapstructure:"queue_size"`
}

type AvatarConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("presence.window_seconds", 15)
	v.SetDefault("ratelimit.messages_per_10s", 5)
	v.SetDefault("ratelimit.dms_per_10s", 10)
	v.SetDefault("ratelimit.rooms_per_hour", 3)
	v.SetDefault("ratelimit.auth_per_minute", 10)
	v.SetDefault("worker_pool.size", 64)
	v.SetDefault("worker_pool.queue_size", 1024)
	v.SetDefault("avatar.dir", "./data/avatars")
	v.SetDefault("avatar.base_url", "/static/avatars")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
