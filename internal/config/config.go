package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment
// variables and an optional YAML file.
type Config struct {
	AppEnv      string
	ServerPort  string
	LogLevel    string
	SwaggerHost string
	ResetDB     bool

	DBDriver          string
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	JWTSecret string
}

var envBindings = map[string]string{
	"app_env":              "APP_ENV",
	"server_port":          "SERVER_PORT",
	"log_level":            "LOG_LEVEL",
	"swagger_host":         "SWAGGER_HOST",
	"reset_db":             "RESET_DB",
	"db_driver":            "DB_DRIVER",
	"db_max_open_conns":    "DB_MAX_OPEN_CONNS",
	"db_max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"db_conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"redis_addr":           "REDIS_ADDR",
	"redis_db":             "REDIS_DB",
	"redis_password":       "REDIS_PASSWORD",
	"cache_ttl":            "CACHE_TTL",
	"jwt_secret":           "JWT_SECRET",
}

// Load builds Config from defaults, the optional file at path and the
// environment, in increasing order of precedence. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app_env", "production")
	v.SetDefault("server_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("reset_db", false)
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("db_dsn", "user:password@tcp(localhost:3306)/opensails?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 10)
	v.SetDefault("db_conn_max_lifetime", 5*time.Minute)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("jwt_secret", "change-me")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	// MYSQL_DSN is still honoured for deployments predating DB_DSN.
	if err := v.BindEnv("db_dsn", "DB_DSN", "MYSQL_DSN"); err != nil {
		return nil, fmt.Errorf("bind env DB_DSN: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		AppEnv:            v.GetString("app_env"),
		ServerPort:        v.GetString("server_port"),
		LogLevel:          v.GetString("log_level"),
		SwaggerHost:       v.GetString("swagger_host"),
		ResetDB:           v.GetBool("reset_db"),
		DBDriver:          v.GetString("db_driver"),
		DBDSN:             v.GetString("db_dsn"),
		DBMaxOpenConns:    v.GetInt("db_max_open_conns"),
		DBMaxIdleConns:    v.GetInt("db_max_idle_conns"),
		DBConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		RedisAddr:         v.GetString("redis_addr"),
		RedisDB:           v.GetInt("redis_db"),
		RedisPass:         v.GetString("redis_password"),
		CacheTTL:          v.GetDuration("cache_ttl"),
		JWTSecret:         v.GetString("jwt_secret"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (supported: mysql, postgres, sqlite)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN must not be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local development setup.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}
