package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvDirectoryFile         = "DIRECTORY_FILE"
	EnvServiceAccountKeyFile = "SERVICE_ACCOUNT_KEY_FILE"
	EnvGoogleClientID        = "GCP_CLIENT_ID"
	EnvImpersonationUser     = "IMPERSONATION_USER_EMAIL"
	EnvDefaultTimezone       = "DEFAULT_CALENDAR_TIMEZONE"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvAuditTopic   = "AUDIT_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
