package genesis

import (
	"fmt"
	"strings"
	"time"
)

// Environment selects the gateway endpoints
type Environment string

const (
	EnvironmentStaging    Environment = "staging"
	EnvironmentProduction Environment = "production"
)

// Config holds immutable gateway credentials and transport settings.
// A Client never mutates it after construction.
type Config struct {
	Environment Environment
	Username    string
	Password    string
	Token       string // default processing terminal

	// Endpoint overrides, used by tests and private deployments
	GateBaseURL string
	WPFBaseURL  string

	Timeout    time.Duration
	MaxRetries int // idempotent reads only

	InsecureSkipVerify bool
}

// DefaultConfig returns the endpoint set for environment with a 30s call timeout
func DefaultConfig(environment Environment) Config {
	cfg := Config{
		Environment: environment,
		Timeout:     30 * time.Second,
		MaxRetries:  2,
	}

	if environment == EnvironmentProduction {
		cfg.GateBaseURL = "https://gate.emerchantpay.net"
		cfg.WPFBaseURL = "https://wpf.emerchantpay.net"
	} else {
		cfg.GateBaseURL = "https://staging.gate.emerchantpay.net"
		cfg.WPFBaseURL = "https://staging.wpf.emerchantpay.net"
	}
	return cfg
}

// Validate checks that credentials and endpoints are usable
func (c Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("genesis: username and password are required")
	}
	if c.GateBaseURL == "" || c.WPFBaseURL == "" {
		return fmt.Errorf("genesis: gateway endpoints are not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("genesis: timeout must be positive")
	}
	return nil
}

// IsLive reports whether requests hit production
func (c Config) IsLive() bool {
	return c.Environment == EnvironmentProduction
}

func (c Config) processURL(token string) string {
	return strings.TrimRight(c.GateBaseURL, "/") + "/process/" + token + "/"
}

func (c Config) reconcileURL(token string) string {
	return strings.TrimRight(c.GateBaseURL, "/") + "/reconcile/" + token + "/"
}

func (c Config) consumerURL() string {
	return strings.TrimRight(c.GateBaseURL, "/") + "/v1/retrieve_consumer"
}

func (c Config) wpfCreateURL(language string) string {
	if language == "" {
		language = "en"
	}
	return strings.TrimRight(c.WPFBaseURL, "/") + "/" + language + "/wpf"
}

func (c Config) wpfReconcileURL() string {
	return strings.TrimRight(c.WPFBaseURL, "/") + "/wpf/reconcile"
}
