package ports

import "context"

// Secret represents a retrieved secret with metadata
type Secret struct {
	Metadata  map[string]string
	Value     string
	Version   string
	CreatedAt string
}

// SecretManagerAdapter retrieves gateway credentials from a secret backend.
// Backends: local files, AWS Secrets Manager, HashiCorp Vault.
type SecretManagerAdapter interface {
	// GetSecret retrieves the current version of a secret by path
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version, used while credentials rotate
	GetSecretVersion(ctx context.Context, path string, version string) (*Secret, error)
}
