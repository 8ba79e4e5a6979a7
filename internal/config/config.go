// Package config загружает настройки сервиса из YAML-файла (CONFIG_PATH)
// и переменных окружения через cleanenv.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Storage         `yaml:"storage"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	Uploads         `yaml:"uploads"`
	Payments        `yaml:"payments"`
	RateLimit       `yaml:"rate_limit"`
	CORS            `yaml:"cors"`
	Admin           `yaml:"admin"`
}

// Storage настройки шлюза хранения
type Storage struct {
	Driver                  string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	StorageConnectionString string `yaml:"connection_string" env:"DATABASE_URL"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":3000"`
	TimeoutHTTP time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// JWTToken настройки сессионных токенов. Секрет обязателен.
type JWTToken struct {
	JWTSecretKey string        `yaml:"secret_key" env:"JWT_SECRET" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"168h"`
}

// RedisConnection структура для настройки подключения к redis. Пустой адрес отключает кэш.
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"5m"`
}

// RabbitMQ настройки брокера событий. Пустой URL включает прямую запись уведомлений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// Uploads настройки файлового хранилища
type Uploads struct {
	UploadsDir    string `yaml:"dir" env:"UPLOADS_DIR" env-default:"./uploads"`
	PublicBaseURL string `yaml:"public_base_url" env:"UPLOADS_PUBLIC_URL" env-default:"/uploads"`
	MaxMemory     int64  `yaml:"max_memory" env:"UPLOADS_MAX_MEMORY" env-default:"33554432"`
	MaxBody       int64  `yaml:"max_body" env:"UPLOADS_MAX_BODY" env-default:"104857600"`
}

// Payments настройки Stripe Checkout. Пустой ключ отключает оплату.
type Payments struct {
	StripeSecretKey string `yaml:"stripe_secret_key" env:"STRIPE_SECRET_KEY"`
	SuccessURL      string `yaml:"success_url" env:"PAYMENT_SUCCESS_URL" env-default:"http://localhost:3000/pay/result?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL       string `yaml:"cancel_url" env:"PAYMENT_CANCEL_URL" env-default:"http://localhost:3000/plans"`
	Currency        string `yaml:"currency" env:"PAYMENT_CURRENCY" env-default:"clp"`
}

// RateLimit ограничение частоты запросов к публичным эндпоинтам входа
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// CORS разрешённые источники
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Admin учётная запись администратора, создаваемая при старте, если её нет.
type Admin struct {
	AdminEmail    string `yaml:"email" env:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// Load читает конфиг из файла CONFIG_PATH (если задан) и окружения.
func Load() (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: config file %s: %w", op, path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return errors.New("jwt secret key is required")
	}
	switch c.Driver {
	case DriverPostgres:
		if c.StorageConnectionString == "" {
			return errors.New("storage connection string is required for postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("admin email and password must be set together")
	}
	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  ConnectionString: %s\n"+
			"  MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"Uploads:\n"+
			"  Dir: %s\n"+
			"  PublicBaseURL: %s\n"+
			"Payments:\n"+
			"  StripeSecretKey: %s\n"+
			"  Currency: %s\n",
		c.Env,
		c.Driver,
		mask(c.StorageConnectionString),
		c.MigrationsPath,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		c.AddressRedis,
		mask(c.Password),
		c.DB,
		mask(c.RabbitMQURL),
		c.UploadsDir,
		c.PublicBaseURL,
		mask(c.StripeSecretKey),
		c.Currency,
	)
}
