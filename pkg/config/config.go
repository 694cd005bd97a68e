package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"quadras/pkg/logger"
)

type Config struct {
	Port string

	// DirectoryFile is the YAML file holding the court alias map and the
	// admin user list. Loaded once at startup, never reloaded.
	DirectoryFile string

	// ServiceAccountKeyFile is the Google service-account key used for all
	// calendar access, impersonating either the backend user or, for
	// permission discovery, the caller.
	ServiceAccountKeyFile string

	// GoogleClientID is the OAuth client ID expected as the audience of
	// incoming ID tokens.
	GoogleClientID string

	// ImpersonationUser is the backend identity used for calendar
	// operations that are not caller-scoped.
	ImpersonationUser string

	// DefaultTimezone is reported on court list entries; the per-calendar
	// civil timezone still governs time-window construction.
	DefaultTimezone string

	KafkaBrokers []string
	AuditTopic   string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log *logger.Logger
}

func Load(serviceName string) *Config {
	cfg := &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		DirectoryFile:         getEnvStr(EnvDirectoryFile, DefaultDirectoryFile),
		ServiceAccountKeyFile: getEnvStr(EnvServiceAccountKeyFile, DefaultServiceAccountKeyFile),
		GoogleClientID:        getEnvStr(EnvGoogleClientID, ""),
		ImpersonationUser:     getEnvStr(EnvImpersonationUser, ""),
		DefaultTimezone:       getEnvStr(EnvDefaultTimezone, DefaultDefaultTimezone),

		KafkaBrokers: getEnvList(EnvKafkaBrokers),
		AuditTopic:   getEnvStr(EnvAuditTopic, DefaultAuditTopic),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if cfg.DirectoryFile == "" {
		problems = append(problems, "DirectoryFile cannot be empty")
	}
	if cfg.ServiceAccountKeyFile == "" {
		problems = append(problems, "ServiceAccountKeyFile cannot be empty")
	}
	if cfg.GoogleClientID == "" {
		problems = append(problems, "GoogleClientID is required to verify caller ID tokens")
	}
	if cfg.ImpersonationUser == "" {
		problems = append(problems, "ImpersonationUser is required for backend calendar access")
	}
	if cfg.RateLimitRequests <= 0 {
		problems = append(problems, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		problems = append(problems, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		problems = append(problems, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	for name, d := range map[string]time.Duration{
		"ReadTimeout":     cfg.ReadTimeout,
		"WriteTimeout":    cfg.WriteTimeout,
		"IdleTimeout":     cfg.IdleTimeout,
		"ShutdownTimeout": cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if len(problems) > 0 {
		msg := "configuration validation failed:\n"
		for i, p := range problems {
			msg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"directory_file", cfg.DirectoryFile,
		"service_account_key_file", cfg.ServiceAccountKeyFile,
		"google_client_id_set", cfg.GoogleClientID != "",
		"impersonation_user", cfg.ImpersonationUser,
		"default_timezone", cfg.DefaultTimezone,
		"kafka_brokers", len(cfg.KafkaBrokers),
		"audit_topic", cfg.AuditTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
