package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisURL string

	ServerPort string

	JWTSecret         string
	AccessTokenMaxAge int

	LogLevel  string
	LogFormat string

	WorkerCount        int
	StoryTTL           time.Duration
	StorySweepInterval time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	// EnvFileLoaded reports whether a .env file was read; otherwise only the
	// process environment was used.
	EnvFileLoaded bool
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	envFileErr := godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		StoreDriver: v.GetString("STORE_DRIVER"),

		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		RedisURL: v.GetString("REDIS_URL"),

		ServerPort: v.GetString("SERVER_PORT"),

		JWTSecret:         v.GetString("JWT_SECRET"),
		AccessTokenMaxAge: v.GetInt("ACCESS_TOKEN_MAX_AGE"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		WorkerCount:        v.GetInt("WORKER_COUNT"),
		StoryTTL:           v.GetDuration("STORY_TTL"),
		StorySweepInterval: v.GetDuration("STORY_SWEEP_INTERVAL"),

		R2AccountID:       v.GetString("R2_ACCOUNT_ID"),
		R2AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      v.GetString("R2_BUCKET_NAME"),
		R2PublicURL:       v.GetString("R2_PUBLIC_URL"),

		EnvFileLoaded: envFileErr == nil,
	}

	if cfg.AccessTokenMaxAge <= 0 {
		cfg.AccessTokenMaxAge = 86400
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ACCESS_TOKEN_MAX_AGE", 86400)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("WORKER_COUNT", 2)
	v.SetDefault("STORY_TTL", 24*time.Hour)
	v.SetDefault("STORY_SWEEP_INTERVAL", time.Hour)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// R2Enabled reports whether every Cloudflare R2 setting is present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
