// Package secrets resolves service credentials from the configured backend.
// Production deployments read from HashiCorp Vault KV v2 behind a TTL cache;
// dev setups fall back to values carried in configuration.
package secrets

import (
	"context"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// Well-known secret locations, relative to the KV mount.
const (
	// AuditKeyPath holds the audit trail signing key.
	AuditKeyPath  = "rampart/audit"
	AuditKeyField = "hmac_key"

	// AdminKeyPath holds the admin-surface JWT secret.
	AdminKeyPath  = "rampart/admin"
	AdminKeyField = "jwt_secret"
)

// VaultProvider reads secrets from Vault KV v2.
type VaultProvider struct {
	client  *vault.Client
	mount   string
	metrics service.Metrics
	logger  logger.Logger
}

var _ service.SecretsProvider = (*VaultProvider)(nil)

// NewVaultProvider builds a Vault client from configuration.
func NewVaultProvider(cfg config.VaultConfig, metrics service.Metrics, log logger.Logger) (*VaultProvider, *errors.AppError) {
	if cfg.Address == "" {
		return nil, errors.ErrConfiguration.WithDescription("vault.address is empty")
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}

	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.Address
	if cfg.Timeout > 0 {
		vaultCfg.Timeout = cfg.Timeout
	}

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, errors.ErrConfiguration.WithError(err).WithDescription("cannot create vault client")
	}
	client.SetToken(cfg.Token)

	mount := cfg.MountPath
	if mount == "" {
		mount = "secret"
	}

	return &VaultProvider{
		client:  client,
		mount:   mount,
		metrics: metrics,
		logger:  log.WithComponent("vault_provider"),
	}, nil
}

// GetSecret reads one field from the KV v2 secret at the given path.
func (p *VaultProvider) GetSecret(ctx context.Context, path, field string) (string, error) {
	start := time.Now()
	secret, err := p.client.Logical().ReadWithContext(ctx, p.dataPath(path))
	if p.metrics != nil {
		p.metrics.RecordVaultAPI("read", time.Since(start), err)
	}
	if err != nil {
		p.logger.Error(ctx, "vault read failed", err, logger.String("path", path))
		return "", fmt.Errorf("vault read %s: %w", path, err)
	}
	if secret == nil || secret.Data["data"] == nil {
		return "", fmt.Errorf("secret not found at %s", path)
	}

	// KV v2 nests the payload under a second "data" level.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected secret format at %s", path)
	}

	value, ok := data[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("field %s missing at %s", field, path)
	}

	return value, nil
}

func (p *VaultProvider) dataPath(path string) string {
	return fmt.Sprintf("%s/data/%s", p.mount, path)
}
