package config

import (
	"strings"
	"time"
)

// CredentialMode selects how the Tenant Resolver obtains the forwarding
// token: either embedded in the webhook URL at provisioning time, or
// looked up from the workspace record at request time. Explicit either/or,
// never a cascading fallback.
type CredentialMode string

const (
	CredentialModeURL    CredentialMode = "url"
	CredentialModeLookup CredentialMode = "lookup"
)

// Config holds all application configuration in a structured way.
// It is loaded once at process start and injected; components never read
// the environment themselves.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Webhook  WebhookConfig
	Forward  ForwardConfig
	Workers  WorkerPoolConfig
	Security SecurityConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type WebhookConfig struct {
	// Secret signs (workspaceId + ":" + instanceName). Empty means open
	// mode: verification is skipped entirely. That is a deliberate
	// low-friction default for trial tenants, not an oversight.
	Secret         string
	CredentialMode CredentialMode
}

type ForwardConfig struct {
	// BaseURL of the internal CRM ingestion endpoint; the forwarder posts
	// to BaseURL + "/ingest".
	BaseURL string
	Timeout time.Duration
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

type SecurityConfig struct {
	SecretKey string
}

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	debug := getEnvBool("APP_DEBUG", false)

	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.2.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
	}
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", "storages/leadbridge.db"),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "leadbridge:"),
	}

	mode := CredentialMode(strings.ToLower(getEnv("TENANT_CREDENTIAL_MODE", string(CredentialModeURL))))
	if mode != CredentialModeURL && mode != CredentialModeLookup {
		mode = CredentialModeURL
	}

	webhookCfg := WebhookConfig{
		Secret:         getEnv("WEBHOOK_SECRET", ""),
		CredentialMode: mode,
	}

	forwardCfg := ForwardConfig{
		BaseURL: strings.TrimRight(getEnv("FORWARD_BASE_URL", appCfg.BaseUrl), "/"),
		Timeout: time.Duration(getEnvInt("FORWARD_TIMEOUT_MS", 4000)) * time.Millisecond,
	}

	workersCfg := WorkerPoolConfig{
		Size:      getEnvInt("EVENT_WORKERS", 4),
		QueueSize: getEnvInt("EVENT_QUEUE_SIZE", 256),
	}

	securityCfg := SecurityConfig{
		SecretKey: getEnv("APP_SECRET_KEY", ""),
	}

	return &Config{
		App:      appCfg,
		Database: dbCfg,
		Webhook:  webhookCfg,
		Forward:  forwardCfg,
		Workers:  workersCfg,
		Security: securityCfg,
	}, nil
}
