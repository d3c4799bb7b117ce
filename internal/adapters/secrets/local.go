package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"go.uber.org/zap"
)

// localSecretManager reads secrets from files under basePath.
// Development only; production uses AWS Secrets Manager, Vault or GCP.
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretManager creates a filesystem secret manager rooted at basePath
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret reads basePath/path. JSON files may wrap the value as {"value": ..., "tags": {...}}.
func (m *localSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	clean := filepath.Clean("/" + path)
	filePath := filepath.Join(m.basePath, clean)

	m.logger.Debug("Reading secret from filesystem", zap.String("path", path))

	data, err := os.ReadFile(filePath) // #nosec G304 -- path is confined to basePath
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secret not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var wrapped struct {
		Value     json.RawMessage   `json:"value"`
		Tags      map[string]string `json:"tags"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Value) > 0 {
		value := string(wrapped.Value)
		var s string
		if json.Unmarshal(wrapped.Value, &s) == nil {
			value = s
		}
		return &ports.Secret{
			Value:     value,
			Version:   "v1",
			Metadata:  wrapped.Tags,
			CreatedAt: wrapped.CreatedAt,
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimSpace(string(data)),
		Version: "v1",
	}, nil
}

// GetSecretVersion ignores version; files have a single version
func (m *localSecretManager) GetSecretVersion(ctx context.Context, path string, version string) (*ports.Secret, error) {
	return m.GetSecret(ctx, path)
}
