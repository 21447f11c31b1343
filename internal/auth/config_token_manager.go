package auth

import (
	"context"

	"github.com/gridworks-io/grist/pkg/grist"
)

// ConfigTokenManager reads the API key live from the layered
// configuration. Patch and Rebuild on the configurator take effect on
// the very next call, which is what keeps a long-lived client usable
// across key rotations.
type ConfigTokenManager struct {
	configurator *grist.Configurator
}

// NewConfigTokenManager creates a manager backed by the configurator.
func NewConfigTokenManager(configurator *grist.Configurator) *ConfigTokenManager {
	return &ConfigTokenManager{configurator: configurator}
}

// GetToken returns the currently configured key.
func (m *ConfigTokenManager) GetToken(_ context.Context) (string, error) {
	return m.configurator.APIKey(), nil
}

// SetToken installs a new key as a configuration override.
func (m *ConfigTokenManager) SetToken(key string) error {
	_, err := m.configurator.Patch(map[string]string{grist.KeyAPIKey: key})

	return err
}
