package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	CORSAllowedOrigins []string

	StoreDriver             string
	DataDir                 string
	DBURL                   string
	DBDisablePreparedBinary bool
	DraftID                 string
	DBCircuitEnabled        bool
	DBCircuitFailureCount   int
	DBCircuitOpenTimeout    time.Duration
	DBCircuitHalfOpenMaxReq int

	CacheEnabled bool
	CacheTTL     time.Duration

	DraftName           string
	DraftTeamCount      int
	DraftSecondsPerPick int
	DraftAdminToken     string

	NotifyWorkers        int
	NotifyWebhookURL     string
	NotifyWebhookToken   string
	NotifyWebhookTimeout time.Duration
	NotifyNATSURL        string
	NotifyNATSSubject    string

	PprofEnabled           bool
	PprofAddr              string
	UptraceEnabled         bool
	UptraceDSN             string
	UptraceLogsEnabled     bool
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "starleague-draft-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DataDir:            strings.TrimSpace(getEnv("DATA_DIR", "./data")),
		DBURL:              strings.TrimSpace(getEnv("DB_URL", "")),
		DraftID:            strings.TrimSpace(getEnv("DRAFT_ID", "default")),
		DraftName:          strings.TrimSpace(getEnv("DRAFT_NAME", "")),
		DraftAdminToken:    strings.TrimSpace(getEnv("DRAFT_ADMIN_TOKEN", "")),
		NotifyWebhookURL:   strings.TrimSpace(getEnv("NOTIFY_WEBHOOK_URL", "")),
		NotifyWebhookToken: strings.TrimSpace(getEnv("NOTIFY_WEBHOOK_TOKEN", "")),
		NotifyNATSURL:      strings.TrimSpace(getEnv("NOTIFY_NATS_URL", "")),
		NotifyNATSSubject:  strings.TrimSpace(getEnv("NOTIFY_NATS_SUBJECT", "starleague.draft.events")),
		PprofAddr:          strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		UptraceDSN:         strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}

	if cfg.ReadTimeout, err = time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	if cfg.WriteTimeout, err = time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s")); err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	if err := loadStore(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadCache(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadDraft(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadNotify(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadStore(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreFile)))
	switch driver {
	case StoreFile:
		if cfg.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when STORE_DRIVER=file")
		}
	case StoreMemory:
	case StorePostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required when STORE_DRIVER=postgres")
		}
		if cfg.DraftID == "" {
			return fmt.Errorf("DRAFT_ID cannot be empty")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: valid values are %s, %s, %s", driver, StoreFile, StoreMemory, StorePostgres)
	}
	cfg.StoreDriver = driver

	var err error
	if cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true")); err != nil {
		return fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	if cfg.DBCircuitEnabled, err = strconv.ParseBool(getEnv("DB_CIRCUIT_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse DB_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.DBCircuitFailureCount, err = getEnvAsInt("DB_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return fmt.Errorf("parse DB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.DBCircuitFailureCount < 1 {
		return fmt.Errorf("DB_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.DBCircuitOpenTimeout, err = time.ParseDuration(getEnv("DB_CIRCUIT_OPEN_TIMEOUT", "10s")); err != nil {
		return fmt.Errorf("parse DB_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if cfg.DBCircuitOpenTimeout <= 0 {
		return fmt.Errorf("DB_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	if cfg.DBCircuitHalfOpenMaxReq, err = getEnvAsInt("DB_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return fmt.Errorf("parse DB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.DBCircuitHalfOpenMaxReq < 1 {
		return fmt.Errorf("DB_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	return nil
}

func loadCache(cfg *Config) error {
	var err error
	if cfg.CacheEnabled, err = strconv.ParseBool(getEnv("CACHE_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "5m")); err != nil {
		return fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0")
	}
	return nil
}

func loadDraft(cfg *Config) error {
	var err error
	if cfg.DraftTeamCount, err = getEnvAsInt("DRAFT_TEAM_COUNT", 8); err != nil {
		return fmt.Errorf("parse DRAFT_TEAM_COUNT: %w", err)
	}
	if cfg.DraftTeamCount < 2 || cfg.DraftTeamCount > 64 {
		return fmt.Errorf("DRAFT_TEAM_COUNT must be within 2..64")
	}
	if cfg.DraftSecondsPerPick, err = getEnvAsInt("DRAFT_SECONDS_PER_PICK", 120); err != nil {
		return fmt.Errorf("parse DRAFT_SECONDS_PER_PICK: %w", err)
	}
	if cfg.DraftSecondsPerPick < 1 || cfg.DraftSecondsPerPick > 86400 {
		return fmt.Errorf("DRAFT_SECONDS_PER_PICK must be within 1..86400")
	}
	if cfg.DraftAdminToken != "" && len(cfg.DraftAdminToken) < 16 {
		return fmt.Errorf("DRAFT_ADMIN_TOKEN must be at least 16 characters")
	}
	return nil
}

func loadNotify(cfg *Config) error {
	var err error
	if cfg.NotifyWorkers, err = getEnvAsInt("NOTIFY_WORKERS", 4); err != nil {
		return fmt.Errorf("parse NOTIFY_WORKERS: %w", err)
	}
	if cfg.NotifyWorkers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be >= 1")
	}
	if cfg.NotifyWebhookTimeout, err = time.ParseDuration(getEnv("NOTIFY_WEBHOOK_TIMEOUT", "5s")); err != nil {
		return fmt.Errorf("parse NOTIFY_WEBHOOK_TIMEOUT: %w", err)
	}
	if cfg.NotifyWebhookTimeout <= 0 {
		return fmt.Errorf("NOTIFY_WEBHOOK_TIMEOUT must be > 0")
	}
	if cfg.NotifyNATSURL != "" && cfg.NotifyNATSSubject == "" {
		return fmt.Errorf("NOTIFY_NATS_SUBJECT cannot be empty when NOTIFY_NATS_URL is set")
	}
	return nil
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.UptraceLogsEnabled, err = strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	if cfg.PyroscopeUploadRate, err = time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s")); err != nil {
		return fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if cfg.PyroscopeUploadRate <= 0 {
		return fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}
	return nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	return strconv.Atoi(value)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}

	return out
}

// parseUptraceDSNFromOTLPHeaders reads uptrace-dsn=... out of an
// OTEL_EXPORTER_OTLP_HEADERS value.
func parseUptraceDSNFromOTLPHeaders(raw string) string {
	for _, item := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if ok && strings.EqualFold(strings.TrimSpace(key), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), "\"'")
		}
	}
	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
