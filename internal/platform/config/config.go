package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Domains   DomainsConfig   `mapstructure:"domains"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Global GlobalDBConfig `mapstructure:"global"`
	Tenant TenantDBConfig `mapstructure:"tenant"`
}

type GlobalDBConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type TenantDBConfig struct {
	BasePath                   string `mapstructure:"base_path"`
	MaxConnectionsPerWorkspace int    `mapstructure:"max_connections_per_workspace"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type RateLimitConfig struct {
	PublicPerMinute   int `mapstructure:"public_per_minute"`
	APIReadPerMinute  int `mapstructure:"api_read_per_minute"`
	APIWritePerMinute int `mapstructure:"api_write_per_minute"`
}

type WebhooksConfig struct {
	DeliveryTimeout  time.Duration `mapstructure:"delivery_timeout"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	RetryInterval    time.Duration `mapstructure:"retry_interval"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type DomainsConfig struct {
	AppDomain     string `mapstructure:"app_domain"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("webhooks.delivery_timeout", 10*time.Second)
	viper.SetDefault("webhooks.max_attempts", 3)
	viper.SetDefault("webhooks.failure_threshold", 10)
	viper.SetDefault("webhooks.retry_interval", 5*time.Minute)
}
