package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Storage   Storage   `yaml:"storage"`
	FFmpeg    FFmpeg    `yaml:"ffmpeg"`
	Database  Database  `yaml:"database"`
	CORS      CORS      `yaml:"cors"`
	RateLimit RateLimit `yaml:"rateLimit"`
	Auth      Auth      `yaml:"auth"`
	Events    Events    `yaml:"events"`
	Tracing   Tracing   `yaml:"tracing"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Port         int           `yaml:"port" env:"SHELFSNAP_PORT"`
	ReadTimeout  time.Duration `yaml:"readTimeout" env:"SHELFSNAP_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"SHELFSNAP_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idleTimeout" env:"SHELFSNAP_IDLE_TIMEOUT"`
}

type Storage struct {
	Backend   string `yaml:"backend" env:"STORAGE_BACKEND"` // local | minio
	UploadDir string `yaml:"uploadDir" env:"STORAGE_UPLOAD_DIR"`
	TmpDir    string `yaml:"tmpDir" env:"STORAGE_TMP_DIR"`
	Minio     Minio  `yaml:"minio"`
}

type Minio struct {
	Endpoint   string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey  string `yaml:"accessKey" env:"MINIO_ACCESS_KEY"`
	SecretKey  string `yaml:"secretKey" env:"MINIO_SECRET_KEY"`
	BucketName string `yaml:"bucketName" env:"MINIO_BUCKET"`
	Region     string `yaml:"region" env:"MINIO_REGION"`
	UseSSL     bool   `yaml:"useSSL" env:"MINIO_USE_SSL"`
}

type FFmpeg struct {
	Binary  string        `yaml:"binary" env:"FFMPEG_BINARY"`
	FPS     int           `yaml:"fps" env:"FFMPEG_FPS"`
	Timeout time.Duration `yaml:"timeout" env:"FFMPEG_TIMEOUT"` // 0 = tanpa batas
}

type Database struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"` // memory | mysql | postgres
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"sslMode" env:"DB_SSLMODE"`
	Migrate  bool   `yaml:"migrate" env:"DB_MIGRATE"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins" env:"CORS_ORIGINS" envSeparator:","`
}

type RateLimit struct {
	Enabled    bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Capacity   int  `yaml:"capacity" env:"RATE_LIMIT_CAPACITY"`
	RefillRate int  `yaml:"refillRate" env:"RATE_LIMIT_REFILL"`
}

type Auth struct {
	APIKeys []string `yaml:"apiKeys" env:"API_KEYS" envSeparator:","`
}

type Events struct {
	AMQPURL  string `yaml:"amqpURL" env:"AMQP_URL"`
	Exchange string `yaml:"exchange" env:"AMQP_EXCHANGE"`
}

type Tracing struct {
	Endpoint    string `yaml:"endpoint" env:"OTLP_ENDPOINT"`
	ServiceName string `yaml:"serviceName" env:"OTEL_SERVICE_NAME"`
}

type Log struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// Default config, dipakai kalau config.yaml tidak ada
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8000
	cfg.Server.ReadTimeout = 60 * time.Second
	cfg.Server.WriteTimeout = 15 * time.Minute
	cfg.Server.IdleTimeout = 60 * time.Second

	cfg.Storage.Backend = "local"
	cfg.Storage.UploadDir = "uploads"
	cfg.Storage.TmpDir = "tmp"
	cfg.Storage.Minio.BucketName = "shelfsnap"

	cfg.FFmpeg.Binary = "ffmpeg"
	cfg.FFmpeg.FPS = 4
	cfg.FFmpeg.Timeout = 10 * time.Minute

	cfg.Database.Driver = "memory"
	cfg.Database.SSLMode = "disable"

	cfg.CORS.AllowedOrigins = []string{"*"}

	cfg.RateLimit.Capacity = 60
	cfg.RateLimit.RefillRate = 1

	cfg.Events.Exchange = "shelfsnap.scans"
	cfg.Tracing.ServiceName = "shelfsnap-api"
	cfg.Log.Level = "info"
	return cfg
}

// Load baca file config.yaml (opsional), .env (opsional), lalu override dari env
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// pakai default
	default:
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at wiring time.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local", "minio":
	default:
		return fmt.Errorf("storage.backend: unsupported value %q", c.Storage.Backend)
	}
	switch c.Database.Driver {
	case "memory", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver: unsupported value %q", c.Database.Driver)
	}
	if c.FFmpeg.FPS <= 0 {
		return fmt.Errorf("ffmpeg.fps must be positive, got %d", c.FFmpeg.FPS)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Storage.Backend == "minio" && c.Storage.Minio.Endpoint == "" {
		return errors.New("storage.minio.endpoint is required for the minio backend")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
