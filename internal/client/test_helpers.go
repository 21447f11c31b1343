package client

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridworks-io/grist/pkg/grist"
)

// Test static errors.
var (
	ErrTestConvert = errors.New("convert failed")
)

// NewTestClient creates a client aimed at a test server. The config
// file is pointed into an empty temp dir and the relevant keys are
// overridden, so neither a developer's ~/.gristapi/config.json nor
// their environment can leak into the test.
func NewTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	return NewTestClientWithOverrides(t, baseURL, nil)
}

// NewTestClientWithOverrides is NewTestClient with extra configuration
// keys forced on top of the test defaults.
func NewTestClientWithOverrides(t *testing.T, baseURL string, extra map[string]string) *Client {
	t.Helper()

	overrides := map[string]string{
		grist.KeyAPIKey:          "test-key-123456",
		grist.KeySelfManaged:     "Y",
		grist.KeySelfManagedHome: baseURL,
		grist.KeyRaiseError:      "Y",
		grist.KeySafeMode:        "N",
	}

	for key, value := range extra {
		overrides[key] = value
	}

	configurator, err := grist.NewConfigurator(overrides,
		grist.WithConfigFile(filepath.Join(t.TempDir(), "absent.json")))
	require.NoError(t, err)

	return NewWithConfigurator(configurator)
}
