package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath 是未显式指定配置文件时使用的路径。
var DefaultPath = filepath.Join("configs", "taskmanager.json")

// Config 描述了服务在启动阶段需要加载的核心配置。
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Events  EventsConfig  `json:"events" yaml:"events"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// ServerConfig 控制 HTTP 服务的监听地址等参数。
type ServerConfig struct {
	Address        string `json:"address" yaml:"address"`
	SiteAddress    string `json:"site_address" yaml:"site_address"`
	SiteVariant    string `json:"site_variant" yaml:"site_variant"`
	// MetricsAddress 非空时在独立端口暴露 /metrics。
	MetricsAddress string `json:"metrics_address" yaml:"metrics_address"`
}

// StorageConfig 描述任务表所在数据库的连接信息。
type StorageConfig struct {
	Driver                 string `json:"driver" yaml:"driver"`
	DSN                    string `json:"dsn" yaml:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds" yaml:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int    `json:"conn_max_idle_time_seconds" yaml:"conn_max_idle_time_seconds"`
}

// ConnMaxLifetime 以 time.Duration 形式返回连接最长存活时间。
func (s StorageConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(s.ConnMaxLifetimeSeconds) * time.Second
}

// ConnMaxIdleTime 以 time.Duration 形式返回连接最长空闲时间。
func (s StorageConfig) ConnMaxIdleTime() time.Duration {
	return time.Duration(s.ConnMaxIdleTimeSeconds) * time.Second
}

// EventsConfig 配置任务变更事件的投递方式。
type EventsConfig struct {
	Driver   string         `json:"driver" yaml:"driver"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq" yaml:"rabbitmq"`
}

// RedisConfig 描述 Redis 事件列表。
type RedisConfig struct {
	Address  string `json:"address" yaml:"address"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Key      string `json:"key" yaml:"key"`
	MaxLen   int64  `json:"max_len" yaml:"max_len"`
}

// RabbitMQConfig 描述 RabbitMQ 事件队列。
type RabbitMQConfig struct {
	URL     string `json:"url" yaml:"url"`
	Queue   string `json:"queue" yaml:"queue"`
	Durable bool   `json:"durable" yaml:"durable"`
}

// LoggingConfig 对应 pkg/logger 的配置项。
type LoggingConfig struct {
	Level   string      `json:"level" yaml:"level"`
	Format  string      `json:"format" yaml:"format"`
	Outputs []string    `json:"outputs" yaml:"outputs"`
	Audit   AuditConfig `json:"audit" yaml:"audit"`
}

// AuditConfig 控制审计日志的输出与轮转。
type AuditConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// RuntimeConfig 用于放置运行时的通用参数。
type RuntimeConfig struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Load 解析指定路径的配置文件，按扩展名选择 JSON 或 YAML。
// 当 path 为默认路径且文件不存在时直接使用默认值。
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("配置文件路径为空")
	}

	var cfg Config
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, content, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults(filepath.Dir(path))
	return &cfg, nil
}

func decode(path string, content []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("解析 YAML 配置失败: %w", err)
		}
	default:
		if err := json.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("解析配置失败: %w", err)
		}
	}
	return nil
}

// applyEnv 使用环境变量覆盖文件中的配置。
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("TASKMANAGER_ADDR")); v != "" {
		c.Server.Address = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKMANAGER_DB_DRIVER")); v != "" {
		c.Storage.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKMANAGER_DB_DSN")); v != "" {
		c.Storage.DSN = v
	}
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":9393"
	}
	if c.Server.SiteAddress == "" {
		c.Server.SiteAddress = ":9292"
	}
	if c.Server.SiteVariant == "" {
		c.Server.SiteVariant = "personal_site"
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else if !filepath.IsAbs(c.Runtime.DataDir) {
		c.Runtime.DataDir = filepath.Join(baseDir, c.Runtime.DataDir)
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite3"
	}
	if c.Storage.DSN == "" && c.Storage.Driver == "sqlite3" {
		c.Storage.DSN = filepath.Join(c.Runtime.DataDir, "task_manager_development.db")
	}

	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Audit.Enabled && c.Logging.Audit.Path == "" {
		c.Logging.Audit.Path = filepath.Join(c.Runtime.DataDir, "audit.log")
	}
}
