package config

import (
	"errors"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

// Config is loaded once at startup. GeminiAPIKey may be empty: the service
// still starts and reports the missing credential on each request.
type Config struct {
	ListenAddr              string
	GeminiAPIKey            string
	GeminiModel             string
	GeminiBaseURL           string
	RequestTimeout          time.Duration
	MaxBodyBytes            int64
	LogLevel                string
	BreakerEnabled          bool
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

type envConfig struct {
	ListenAddr              string `env:"LISTEN_ADDR" envDefault:":8080"`
	GeminiAPIKey            string `env:"GEMINI_API_KEY"`
	GeminiModel             string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL           string `env:"GEMINI_BASE_URL"`
	RequestTimeoutSeconds   int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"60"`
	MaxBodyBytes            int64  `env:"MAX_BODY_BYTES" envDefault:"20971520"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
	BreakerEnabled          bool   `env:"BREAKER_ENABLED" envDefault:"false"`
	BreakerFailureThreshold uint32 `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerOpenSeconds      int    `env:"BREAKER_OPEN_SECONDS" envDefault:"30"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:              strings.TrimSpace(raw.ListenAddr),
		GeminiAPIKey:            strings.TrimSpace(raw.GeminiAPIKey),
		GeminiModel:             strings.TrimSpace(raw.GeminiModel),
		GeminiBaseURL:           strings.TrimSpace(raw.GeminiBaseURL),
		RequestTimeout:          time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		MaxBodyBytes:            raw.MaxBodyBytes,
		LogLevel:                strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		BreakerEnabled:          raw.BreakerEnabled,
		BreakerFailureThreshold: raw.BreakerFailureThreshold,
		BreakerOpenTimeout:      time.Duration(raw.BreakerOpenSeconds) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.GeminiModel == "" {
		return errors.New("GEMINI_MODEL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}
	if c.BreakerEnabled {
		if c.BreakerFailureThreshold == 0 {
			return errors.New("BREAKER_FAILURE_THRESHOLD must be > 0")
		}
		if c.BreakerOpenTimeout <= 0 {
			return errors.New("BREAKER_OPEN_SECONDS must be > 0")
		}
	}
	return nil
}

func (c Config) HasCredential() bool {
	return c.GeminiAPIKey != ""
}
