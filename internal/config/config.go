package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	pkgerrors "github.com/kevin07696/genesis-reconciliation/pkg/errors"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Secrets  SecretsConfig
	Store    StoreConfig
	// Checkout and Direct are nil when the variant is disabled
	Checkout *ModuleConfig
	Direct   *ModuleConfig
	// Environment is the process environment, "production" switches the logger to JSON
	Environment string
	// Debug raises the log level and renders error chains
	Debug bool
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Host        string
	Port        int
	MetricsPort int
	// RateLimit is requests per second per client on the public endpoints
	RateLimit float64
	RateBurst int
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
	// AdminToken guards the admin endpoints; empty disables the check
	AdminToken string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host        string
	User        string
	Password    string
	Database    string
	SSLMode     string
	Port        int
	MaxConns    int32
	MinConns    int32
	AutoMigrate bool
}

// SecretsConfig selects where gateway credentials are read from
type SecretsConfig struct {
	// Manager is local, aws, vault or gcp
	Manager      string
	LocalPath    string
	AWSRegion    string
	AWSEndpoint  string
	VaultAddress string
	VaultToken   string
	VaultMount   string
	GCPProjectID string
	CacheTTL     time.Duration
}

// StoreConfig describes the storefront schema
type StoreConfig struct {
	// TablePrefix is prepended to the storefront tables, e.g. "oc_"
	TablePrefix string
	// AdvisoryLocks serializes actions across instances with postgres advisory locks
	AdvisoryLocks bool
}

// ModuleConfig holds the settings of one payment module variant
type ModuleConfig struct {
	Variants *domain.VariantTable

	ScaExemptionAmount decimal.Decimal

	Module string
	// Environment is the gateway environment, staging or production
	Environment        string
	CredentialsPath    string
	CredentialsVersion string
	Username           string
	Password           string
	Token              string
	Usage              string
	ChallengeIndicator string
	ScaExemption       string
	NotificationURL    string
	SuccessURL         string
	FailureURL         string
	CancelURL          string

	TransactionTypes []string
	RecurringTypes   []string

	OrderStatusID    int
	AsyncStatusID    int
	SuccessStatusID  int
	FailureStatusID  int
	RefundedStatusID int

	PartialCapture bool
	PartialRefund  bool
	Void           bool
	ThreeDS        bool
	Tokenization   bool

	scaAmountInvalid bool
}

// Module names of the variants
const (
	ModuleCheckout = "emerchantpay_checkout"
	ModuleDirect   = "emerchantpay_direct"
)

// LoadFromEnv loads configuration from environment variables.
// A .env file (or ENV_FILE) pre-seeds variables that are not already set.
func LoadFromEnv() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Debug:       getEnvAsBool("GENESIS_DEBUG", false),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			RateLimit:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
			RateBurst:       getEnvAsInt("RATE_LIMIT_BURST", 20),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			AdminToken:      getEnv("ADMIN_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", ""),
			Database:    getEnv("DB_NAME", "opencart"),
			SSLMode:     getEnv("DB_SSL_MODE", "disable"),
			MaxConns:    int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:    int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Secrets: SecretsConfig{
			Manager:      getEnv("SECRET_MANAGER", "local"),
			LocalPath:    getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
			AWSEndpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
			VaultMount:   getEnv("VAULT_MOUNT", "secret"),
			GCPProjectID: getEnv("GCP_PROJECT_ID", ""),
			CacheTTL:     getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
		},
		Store: StoreConfig{
			TablePrefix:   getEnv("STORE_TABLE_PREFIX", "oc_"),
			AdvisoryLocks: getEnvAsBool("ADVISORY_LOCKS", false),
		},
	}

	var problems pkgerrors.ValidationErrors
	if cfg.Database.Password == "" {
		problems.Add("DB_PASSWORD", "is required")
	}
	switch cfg.Secrets.Manager {
	case "local", "aws", "vault", "gcp":
	default:
		problems.Add("SECRET_MANAGER", "must be one of local, aws, vault, gcp")
	}

	if getEnvAsBool("CHECKOUT_ENABLED", true) {
		cfg.Checkout = loadModule("CHECKOUT_", ModuleCheckout, "sale3d")
		problems = append(problems, cfg.Checkout.validate(cfg.Checkout.CredentialsPath == "")...)
	}
	if getEnvAsBool("DIRECT_ENABLED", false) {
		cfg.Direct = loadModule("DIRECT_", ModuleDirect, "sale3d")
		problems = append(problems, cfg.Direct.validate(cfg.Direct.CredentialsPath == "")...)
	}
	if cfg.Checkout == nil && cfg.Direct == nil {
		problems.Add("CHECKOUT_ENABLED", "at least one module variant must be enabled")
	}

	if err := problems.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadModule(prefix, module, defaultTypes string) *ModuleConfig {
	m := &ModuleConfig{
		Module:             module,
		Environment:        getEnv(prefix+"ENVIRONMENT", "staging"),
		CredentialsPath:    getEnv(prefix+"CREDENTIALS_PATH", ""),
		CredentialsVersion: getEnv(prefix+"CREDENTIALS_VERSION", ""),
		Username:           getEnv(prefix+"USERNAME", ""),
		Password:           getEnv(prefix+"PASSWORD", ""),
		Token:              getEnv(prefix+"TOKEN", ""),
		Usage:              getEnv(prefix+"USAGE", "Order payment"),
		ChallengeIndicator: getEnv(prefix+"CHALLENGE_INDICATOR", "no_preference"),
		ScaExemption:       getEnv(prefix+"SCA_EXEMPTION", ""),
		NotificationURL:    getEnv(prefix+"NOTIFICATION_URL", ""),
		SuccessURL:         getEnv(prefix+"SUCCESS_URL", ""),
		FailureURL:         getEnv(prefix+"FAILURE_URL", ""),
		CancelURL:          getEnv(prefix+"CANCEL_URL", ""),
		TransactionTypes:   getEnvAsList(prefix+"TRANSACTION_TYPES", defaultTypes),
		RecurringTypes:     getEnvAsList(prefix+"RECURRING_TYPES", "init_recurring_sale3d"),
		OrderStatusID:      getEnvAsInt(prefix+"ORDER_STATUS_ID", 1),
		AsyncStatusID:      getEnvAsInt(prefix+"ASYNC_STATUS_ID", 0),
		SuccessStatusID:    getEnvAsInt(prefix+"SUCCESS_STATUS_ID", 0),
		FailureStatusID:    getEnvAsInt(prefix+"FAILURE_STATUS_ID", 0),
		RefundedStatusID:   getEnvAsInt(prefix+"REFUNDED_STATUS_ID", 11),
		PartialCapture:     getEnvAsBool(prefix+"PARTIAL_CAPTURE", true),
		PartialRefund:      getEnvAsBool(prefix+"PARTIAL_REFUND", true),
		Void:               getEnvAsBool(prefix+"VOID", true),
		ThreeDS:            getEnvAsBool(prefix+"THREEDS", true),
		Tokenization:       getEnvAsBool(prefix+"TOKENIZATION", false),
	}

	if amount, err := decimal.NewFromString(getEnv(prefix+"SCA_EXEMPTION_AMOUNT", "100")); err == nil {
		m.ScaExemptionAmount = amount
	} else {
		m.scaAmountInvalid = true
	}
	return m
}

// Validate checks the settings a variant cannot run without, credentials included.
// Called again once credentials have been resolved from the secret manager.
func (m *ModuleConfig) Validate() error {
	return m.validate(true).Err()
}

func (m *ModuleConfig) validate(credentials bool) pkgerrors.ValidationErrors {
	var problems pkgerrors.ValidationErrors
	field := func(name string) string { return m.Module + "." + name }

	if credentials {
		if m.Username == "" {
			problems.Add(field("username"), "is required")
		}
		if m.Password == "" {
			problems.Add(field("password"), "is required")
		}
	}
	if m.Environment != "staging" && m.Environment != "production" {
		problems.Add(field("environment"), "must be staging or production")
	}

	if len(m.TransactionTypes) == 0 {
		problems.Add(field("transaction_types"), "at least one transaction type is required")
	} else if table, err := domain.NewVariantTable(m.TransactionTypes); err != nil {
		problems.Add(field("transaction_types"), err.Error())
	} else {
		m.Variants = table
	}
	for _, t := range m.RecurringTypes {
		if !domain.TransactionType(t).IsKnown() {
			problems.Add(field("recurring_types"), fmt.Sprintf("unknown transaction type %q", t))
		}
	}

	if m.SuccessStatusID <= 0 {
		problems.Add(field("success_status_id"), "is required")
	}
	if m.FailureStatusID <= 0 {
		problems.Add(field("failure_status_id"), "is required")
	}
	if m.Module == ModuleDirect && m.AsyncStatusID <= 0 {
		problems.Add(field("async_status_id"), "is required")
	}
	if m.scaAmountInvalid {
		problems.Add(field("sca_exemption_amount"), "must be a decimal amount")
	} else if m.ScaExemptionAmount.IsNegative() {
		problems.Add(field("sca_exemption_amount"), "must not be negative")
	}
	return problems
}

// TransactionType is the single type the direct variant charges with
func (m *ModuleConfig) TransactionType() domain.TransactionType {
	if len(m.TransactionTypes) == 0 {
		return ""
	}
	return domain.TransactionType(m.TransactionTypes[0])
}

// RecurringRequestTypes returns the recurring types as hosted page entries
func (m *ModuleConfig) RecurringRequestTypes() []domain.RequestType {
	out := make([]domain.RequestType, 0, len(m.RecurringTypes))
	for _, t := range m.RecurringTypes {
		out = append(out, domain.RequestType{Name: domain.TransactionType(t)})
	}
	return out
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d pool_min_conns=%d",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode, c.MaxConns, c.MinConns,
	)
}

func loadDotEnv() error {
	path := getEnv("ENV_FILE", ".env")
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
