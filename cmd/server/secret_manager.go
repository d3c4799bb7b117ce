package main

import (
	"context"
	"fmt"

	"github.com/kevin07696/genesis-reconciliation/internal/adapters/secrets"
	"github.com/kevin07696/genesis-reconciliation/internal/config"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"go.uber.org/zap"
)

// initSecretManager builds the secret manager named by SECRET_MANAGER.
// The returned close func is nil when the backend holds no connection.
//
// Supported backends:
//   - local: JSON files under SECRETS_LOCAL_PATH (development)
//   - aws: AWS Secrets Manager in AWS_REGION, AWS_SECRETS_ENDPOINT for LocalStack
//   - vault: HashiCorp Vault KV at VAULT_ADDR with VAULT_TOKEN
//   - gcp: Google Secret Manager in GCP_PROJECT_ID
func initSecretManager(ctx context.Context, cfg *config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, func() error, error) {
	switch cfg.Manager {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Endpoint = cfg.AWSEndpoint
		awsCfg.CacheTTL = cfg.CacheTTL
		sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("aws secrets manager: %w", err)
		}
		logger.Info("AWS Secrets Manager initialized", zap.String("region", cfg.AWSRegion))
		return sm, nil, nil

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.MountPath = cfg.VaultMount
		vaultCfg.CacheTTL = cfg.CacheTTL
		sm, err := secrets.NewVaultAdapter(ctx, vaultCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("vault: %w", err)
		}
		logger.Info("Vault secret manager initialized", zap.String("address", cfg.VaultAddress))
		return sm, nil, nil

	case "gcp":
		if cfg.GCPProjectID == "" {
			return nil, nil, fmt.Errorf("GCP_PROJECT_ID is required when SECRET_MANAGER=gcp")
		}
		gcpCfg := secrets.DefaultGCPSecretManagerConfig(cfg.GCPProjectID)
		gcpCfg.CacheTTL = cfg.CacheTTL
		sm, err := secrets.NewGCPSecretManager(ctx, gcpCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("gcp secret manager: %w", err)
		}
		logger.Info("GCP Secret Manager initialized",
			zap.String("project_id", cfg.GCPProjectID),
			zap.Duration("cache_ttl", gcpCfg.CacheTTL))
		return sm, sm.Close, nil

	default:
		logger.Warn("Using local secret manager, not for production use",
			zap.String("path", cfg.LocalPath))
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil, nil
	}
}

// resolveCredentials fills a variant's gateway credentials from the secret manager
// when a credentials path is configured, then validates the variant.
func resolveCredentials(ctx context.Context, sm ports.SecretManagerAdapter, m *config.ModuleConfig, logger *zap.Logger) error {
	if m.CredentialsPath != "" {
		creds, err := secrets.LoadGatewayCredentials(ctx, sm, m.CredentialsPath, m.CredentialsVersion)
		if err != nil {
			return fmt.Errorf("load credentials for %s: %w", m.Module, err)
		}
		m.Username = creds.Username
		m.Password = creds.Password
		if creds.Token != "" {
			m.Token = creds.Token
		}
		logger.Info("Gateway credentials loaded",
			zap.String("module", m.Module),
			zap.String("path", m.CredentialsPath))
	}
	return m.Validate()
}
