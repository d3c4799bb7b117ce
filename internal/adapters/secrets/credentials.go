package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
)

// GatewayCredentials are the API credentials of one module variant
type GatewayCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// LoadGatewayCredentials reads a JSON credential secret {"username","password","token"}.
// A rotation in progress may pass the previous version to keep verifying old signatures.
func LoadGatewayCredentials(ctx context.Context, sm ports.SecretManagerAdapter, path, version string) (GatewayCredentials, error) {
	var (
		secret *ports.Secret
		err    error
	)
	if version == "" {
		secret, err = sm.GetSecret(ctx, path)
	} else {
		secret, err = sm.GetSecretVersion(ctx, path, version)
	}
	if err != nil {
		return GatewayCredentials{}, err
	}

	var creds GatewayCredentials
	if err := json.Unmarshal([]byte(strings.TrimSpace(secret.Value)), &creds); err != nil {
		return GatewayCredentials{}, fmt.Errorf("gateway credentials at %s are not valid JSON: %w", path, err)
	}
	if creds.Username == "" || creds.Password == "" {
		return GatewayCredentials{}, fmt.Errorf("gateway credentials at %s lack username or password", path)
	}
	return creds, nil
}
