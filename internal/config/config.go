package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Booking   BookingConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

// BookingConfig tunes the reservation commit protocol
type BookingConfig struct {
	MaxCommitAttempts int
	CommitTimeout     time.Duration
}

// RateLimitConfig tunes the Redis-backed request limiter on booking routes
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowSeconds     int
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("BOOKING_MAX_COMMIT_ATTEMPTS", 3)
	viper.SetDefault("BOOKING_COMMIT_TIMEOUT_MS", 5000)
	viper.SetDefault("RATELIMIT_REQUESTS_PER_WINDOW", 30)
	viper.SetDefault("RATELIMIT_WINDOW_SECONDS", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Booking: BookingConfig{
			MaxCommitAttempts: viper.GetInt("BOOKING_MAX_COMMIT_ATTEMPTS"),
			CommitTimeout:     time.Duration(viper.GetInt("BOOKING_COMMIT_TIMEOUT_MS")) * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: viper.GetInt("RATELIMIT_REQUESTS_PER_WINDOW"),
			WindowSeconds:     viper.GetInt("RATELIMIT_WINDOW_SECONDS"),
		},
	}
}
