package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	App   AppConfig
	HTTP  HTTPConfig
	DB    DBConfig
	Redis RedisConfig
	Log   LogConfig
}

type AppConfig struct {
	Env     string `env:"APP_ENV" env-default:"development"`
	Version string `env:"VERSION" env-default:"1.0.0"`
	// Placeholder owner until real authentication exists.
	DefaultOwnerID string `env:"DEFAULT_OWNER_ID" env-default:"000000000000000000000000"`
}

type HTTPConfig struct {
	Port            string        `env:"PORT" env-default:"5000"`
	FrontendURL     string        `env:"FRONTEND_URL" env-default:"http://localhost:5173"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type DBConfig struct {
	URL  string `env:"DATABASE_URL,MONGODB_URI" env-default:"mongodb://localhost:27017/taskflow"`
	Name string `env:"DATABASE_NAME" env-default:"taskflow"`
}

type RedisConfig struct {
	// Empty URL disables the read cache.
	URL string        `env:"REDIS_URL" env-default:""`
	TTL time.Duration `env:"CACHE_TTL" env-default:"60s"`
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL" env-default:"info"`
	File       string `env:"LOG_FILE" env-default:""`
	MaxSize    int    `env:"LOG_MAX_SIZE" env-default:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" env-default:"5"`
	MaxAge     int    `env:"LOG_MAX_AGE" env-default:"30"`
}

type Driver string

const (
	DriverMongo    Driver = "mongo"
	DriverPostgres Driver = "postgres"
)

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if _, err := cfg.DB.Driver(); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.App.DefaultOwnerID) == "" {
		return Config{}, errors.New("DEFAULT_OWNER_ID must not be empty")
	}
	return cfg, nil
}

// Driver picks the store implementation from the URL scheme.
func (c DBConfig) Driver() (Driver, error) {
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil {
		return "", fmt.Errorf("DATABASE_URL: %w", err)
	}
	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("DATABASE_URL: unsupported scheme %q", u.Scheme)
	}
}

// Database returns the Mongo database name: the URL path if present, else Name.
func (c DBConfig) Database() string {
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err == nil {
		if db := strings.Trim(u.Path, "/"); db != "" {
			return db
		}
	}
	return c.Name
}

func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}
