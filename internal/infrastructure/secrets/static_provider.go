package secrets

import (
	"context"
	"fmt"

	"github.com/rampartlabs/rampart/internal/domain/service"
)

// StaticProvider serves secrets from an in-process map. Dev and test setups
// use it when no Vault is available.
type StaticProvider struct {
	values map[string]map[string]string
}

var _ service.SecretsProvider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider over path -> field -> value.
func NewStaticProvider(values map[string]map[string]string) *StaticProvider {
	if values == nil {
		values = make(map[string]map[string]string)
	}
	return &StaticProvider{values: values}
}

// GetSecret implements service.SecretsProvider.
func (p *StaticProvider) GetSecret(_ context.Context, path, field string) (string, error) {
	fields, ok := p.values[path]
	if !ok {
		return "", fmt.Errorf("secret not found at %s", path)
	}
	value, ok := fields[field]
	if !ok || value == "" {
		return "", fmt.Errorf("field %s missing at %s", field, path)
	}
	return value, nil
}
