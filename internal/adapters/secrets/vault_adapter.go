package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"go.uber.org/zap"
)

// VaultConfig contains configuration for HashiCorp Vault adapter
type VaultConfig struct {
	Address string

	// AuthMethod is token, approle or kubernetes
	AuthMethod string
	Token      string

	RoleID   string
	SecretID string

	K8sTokenPath string
	K8sRole      string

	Namespace string // Vault Enterprise

	MountPath string // KV mount, default "secret"
	KVVersion string // v1 or v2

	CacheTTL      time.Duration
	EnableCache   bool
	TLSSkipVerify bool
}

// DefaultVaultConfig returns default configuration for Vault adapter
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:      address,
		AuthMethod:   "token",
		MountPath:    "secret",
		KVVersion:    "v2",
		K8sTokenPath: "/var/run/secrets/kubernetes.io/serviceaccount/token",
		CacheTTL:     5 * time.Minute,
		EnableCache:  true,
	}
}

type vaultAdapter struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultAdapter creates a new HashiCorp Vault adapter
func NewVaultAdapter(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault adapter initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
		zap.String("kv_version", cfg.KVVersion),
	)

	return &vaultAdapter{
		client: client,
		config: cfg,
		logger: logger,
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	var (
		loginPath string
		data      map[string]interface{}
	)

	switch cfg.AuthMethod {
	case "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		loginPath = "auth/approle/login"
		data = map[string]interface{}{"role_id": cfg.RoleID, "secret_id": cfg.SecretID}

	case "kubernetes":
		if cfg.K8sTokenPath == "" || cfg.K8sRole == "" {
			return fmt.Errorf("k8s_token_path and k8s_role are required for Kubernetes auth")
		}
		jwt, err := os.ReadFile(cfg.K8sTokenPath)
		if err != nil {
			return fmt.Errorf("failed to read service account token: %w", err)
		}
		loginPath = "auth/kubernetes/login"
		data = map[string]interface{}{"jwt": string(jwt), "role": cfg.K8sRole}

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}

	resp, err := client.Logical().WriteWithContext(ctx, loginPath, data)
	if err != nil {
		return fmt.Errorf("%s login failed: %w", cfg.AuthMethod, err)
	}
	if resp == nil || resp.Auth == nil {
		return fmt.Errorf("%s login returned no auth info", cfg.AuthMethod)
	}
	client.SetToken(resp.Auth.ClientToken)
	return nil
}

func (a *vaultAdapter) dataPath(path string) string {
	if a.config.KVVersion == "v2" {
		return fmt.Sprintf("%s/data/%s", a.config.MountPath, path)
	}
	return fmt.Sprintf("%s/%s", a.config.MountPath, path)
}

// GetSecret reads the secret at path; the value is the "value" key or the whole data map as JSON
func (a *vaultAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := a.cache.get(path); cached != nil {
		a.logger.Debug("Secret retrieved from cache", zap.String("path", path))
		return cached, nil
	}

	startTime := time.Now()
	raw, err := a.client.Logical().ReadWithContext(ctx, a.dataPath(path))
	if err != nil {
		a.logger.Error("Failed to retrieve secret from Vault",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	secret, err := a.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", path, err)
	}

	a.logger.Info("Secret retrieved successfully",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	a.cache.set(path, secret)
	return secret, nil
}

// GetSecretVersion retrieves a specific version of a secret (KV v2 only)
func (a *vaultAdapter) GetSecretVersion(ctx context.Context, path string, version string) (*ports.Secret, error) {
	if a.config.KVVersion != "v2" {
		return nil, fmt.Errorf("GetSecretVersion requires KV v2")
	}

	raw, err := a.client.Logical().ReadWithDataWithContext(ctx, a.dataPath(path), map[string][]string{"version": {version}})
	if err != nil {
		return nil, fmt.Errorf("failed to read secret version: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("secret version not found: %s v%s", path, version)
	}

	secret, err := a.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("secret %s v%s: %w", path, version, err)
	}
	secret.Version = version
	return secret, nil
}

func (a *vaultAdapter) decode(raw *vault.Secret) (*ports.Secret, error) {
	data := raw.Data
	secret := &ports.Secret{Metadata: make(map[string]string), Version: "1"}

	if a.config.KVVersion == "v2" {
		inner, ok := raw.Data["data"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid secret format from Vault")
		}
		data = inner
		if meta, ok := raw.Data["metadata"].(map[string]interface{}); ok {
			if v, ok := meta["version"].(json.Number); ok {
				secret.Version = v.String()
			}
			if ct, ok := meta["created_time"].(string); ok {
				secret.CreatedAt = ct
			}
		}
	}

	if v, ok := data["value"].(string); ok {
		secret.Value = v
	} else {
		// structured secrets, e.g. gateway credentials, are passed through as JSON
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode secret data: %w", err)
		}
		secret.Value = string(encoded)
	}
	if secret.Value == "" || secret.Value == "{}" {
		return nil, fmt.Errorf("secret value is empty")
	}

	for k, v := range data {
		if s, ok := v.(string); ok && k != "value" {
			secret.Metadata[k] = s
		}
	}
	return secret, nil
}
