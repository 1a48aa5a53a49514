// Package config 提供配置管理
package config

import (
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	App     AppConfig     `yaml:"app"`
	API     APIConfig     `yaml:"api"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Report  ReportConfig  `yaml:"report"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// IngestConfig 数据接入配置
type IngestConfig struct {
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	RosterURL      string `yaml:"roster_url"`      // 远端花名册地址，为空则只接受上传
	ReferencePath  string `yaml:"reference_path"`  // 合同/城市参照数据文件
	WatchReference bool   `yaml:"watch_reference"` // 参照文件变更时热加载
}

// ReportConfig 报表配置
type ReportConfig struct {
	ValidateContractCity bool `yaml:"validate_contract_city"` // 按参照表过滤无效的合同×城市组合
	GrandTotal           bool `yaml:"grand_total"`            // 默认附加汇总行
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "riderops"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7030),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: []string{"*"},
			},
		},
		Ingest: IngestConfig{
			MaxUploadBytes: getEnvInt64("INGEST_MAX_UPLOAD_BYTES", 32<<20),
			RosterURL:      getEnv("INGEST_ROSTER_URL", ""),
			ReferencePath:  getEnv("INGEST_REFERENCE_PATH", "reference.yaml"),
			WatchReference: getEnvBool("INGEST_WATCH_REFERENCE", true),
		},
		Report: ReportConfig{
			ValidateContractCity: getEnvBool("REPORT_VALIDATE_CONTRACT_CITY", false),
			GrandTotal:           getEnvBool("REPORT_GRAND_TOTAL", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
