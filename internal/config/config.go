// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	GRPCAuthAddress         string `yaml:"grpc_auth_address" env:"GRPC_AUTH_ADDRESS" env-default:":50051"`
	AuthServiceAddress      string `yaml:"auth_service_address" env:"AUTH_SERVICE_ADDRESS"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	PasswordHashing         `yaml:"password"`
	RateLimit               `yaml:"rate_limit"`
	SMTP                    `yaml:"smtp"`
	RabbitMQ                `yaml:"rabbitmq"`
	Scheduler               `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis. Пустой адрес отключает кэш.
type RedisConnection struct {
	RedisAddress     string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	RedisPassword    string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser        string        `yaml:"user"`
	RedisDB          int           `yaml:"db"`
	RedisMaxRetries  int           `yaml:"max_retries"`
	RedisDialTimeout time.Duration `yaml:"dial_timeout"`
	RedisTimeout     time.Duration `yaml:"timeoutredis"`
	RedisKeyPrefix   string        `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"farm:"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	JWTIssuer    string `yaml:"issuer" env:"JWT_ISSUER" env-default:"farm-backend"`
}

// PasswordHashing настройки bcrypt
type PasswordHashing struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// RateLimit ограничение запросов к auth-ручкам на одного клиента
type RateLimit struct {
	RateLimitRPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	RateLimitBurst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// SMTP настройки почтового сервера. Пустой хост отключает отправку через SMTP.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
	SMTPFrom string `yaml:"from" env:"SMTP_FROM"`
}

// RabbitMQ настройки брокера. Пустой URL отключает очередь писем.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Scheduler настройки фоновой очистки просроченных кодов сброса
type Scheduler struct {
	ResetCodeSweepInterval time.Duration `yaml:"reset_code_sweep_interval" env:"RESET_CODE_SWEEP_INTERVAL" env-default:"1h"`
}

// Load читает конфиг из YAML-файла path. Переменные окружения, в том числе из .env,
// перекрывают значения из файла.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// UsePostgres сообщает, настроено ли постоянное хранилище.
func (c *Config) UsePostgres() bool {
	return c.StorageConnectionString != ""
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
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"GRPCAuthAddress: %s\n"+
			"AuthServiceAddress: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  Issuer: %s\n"+
			"BcryptCost: %d\n"+
			"RateLimit: %.2f rps, burst %d\n"+
			"SMTP: %s:%s\n"+
			"RabbitMQ: %s\n"+
			"ResetCodeSweepInterval: %s\n",
		c.Env,
		mask(c.StorageConnectionString),
		c.MigrationsPath,
		c.GRPCAuthAddress,
		c.AuthServiceAddress,
		c.RedisAddress,
		mask(c.RedisPassword),
		c.RedisDB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.JWTIssuer,
		c.BcryptCost,
		c.RateLimitRPS,
		c.RateLimitBurst,
		c.SMTPHost,
		c.SMTPPort,
		mask(c.RabbitMQURL),
		c.ResetCodeSweepInterval,
	)
}
