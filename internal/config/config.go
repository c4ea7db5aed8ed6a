package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	DynamoDB DynamoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	OTP      OTPConfig
	Cookie   CookieConfig
	Upload   UploadConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`
}

func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
}

type DynamoDBConfig struct {
	Endpoint  string `env:"DYNAMODB_ENDPOINT"`
	Region    string `env:"DYNAMODB_REGION" envDefault:"ap-southeast-1"`
	TableName string `env:"DYNAMODB_TABLE_NAME" envDefault:"ShweMart"`
}

type RedisConfig struct {
	Endpoint string `env:"REDIS_ENDPOINT" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"720h"`
}

type OTPConfig struct {
	RequestLimit  int           `env:"OTP_REQUEST_LIMIT" envDefault:"5"`
	ErrorLimit    int           `env:"OTP_ERROR_LIMIT" envDefault:"5"`
	VerifyWindow  time.Duration `env:"OTP_VERIFY_WINDOW" envDefault:"2m"`
	ConfirmWindow time.Duration `env:"OTP_CONFIRM_WINDOW" envDefault:"10m"`
	ResetWindow   time.Duration `env:"OTP_RESET_WINDOW" envDefault:"5m"`
}

type CookieConfig struct {
	Domain string `env:"COOKIE_DOMAIN"`
	Path   string `env:"COOKIE_PATH" envDefault:"/"`
}

type UploadConfig struct {
	Dir         string `env:"UPLOAD_DIR" envDefault:"uploads/images"`
	OptimizeDir string `env:"UPLOAD_OPTIMIZE_DIR" envDefault:"uploads/optimize"`
	MaxSize     int64  `env:"UPLOAD_MAX_SIZE" envDefault:"10485760"`
}

type WorkerConfig struct {
	Concurrency  int           `env:"WORKER_CONCURRENCY" envDefault:"10"`
	MaxRetry     int           `env:"WORKER_MAX_RETRY" envDefault:"3"`
	BackoffBase  time.Duration `env:"WORKER_BACKOFF_BASE" envDefault:"5s"`
	ImageWidth   int           `env:"WORKER_IMAGE_WIDTH" envDefault:"835"`
	ImageHeight  int           `env:"WORKER_IMAGE_HEIGHT" envDefault:"577"`
	ImageQuality int           `env:"WORKER_IMAGE_QUALITY" envDefault:"75"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET environment variables are required")
	}

	if len(cfg.JWT.AccessSecret) < 32 || len(cfg.JWT.RefreshSecret) < 32 {
		return nil, fmt.Errorf("token secrets must be at least 32 bytes (256 bits)")
	}

	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}

	return cfg, nil
}
