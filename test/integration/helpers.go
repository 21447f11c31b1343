// +build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridworks-io/grist/pkg/grist"
	"github.com/gridworks-io/grist/pkg/gristclient"
)

// TestConfig holds the connection settings for integration tests.
// Tests run against a real Grist server, typically a local container
// started with something like:
//
//	docker run -p 8484:8484 -e GRIST_DEFAULT_EMAIL=you@example.com gristlabs/grist
//
// and are gated on GRIST_TEST_SERVER so they never fire against a
// production site by accident.
type TestConfig struct {
	APIKey    string
	ServerURL string
	TeamSite  string
	Verbose   bool
}

// LoadTestConfig loads integration test configuration from environment
// variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIKey:    os.Getenv("GRIST_API_KEY"),
		ServerURL: os.Getenv("GRIST_TEST_SERVER"),
		TeamSite:  os.Getenv("GRIST_TEAM_SITE"),
		Verbose:   os.Getenv("GRIST_TEST_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips the test when the required environment is
// not available.
func (c *TestConfig) SkipIfMissingConfig(t *testing.T) {
	if c.ServerURL == "" {
		t.Skip("GRIST_TEST_SERVER environment variable not set, skipping integration tests")
	}
	if c.APIKey == "" {
		t.Skip("GRIST_API_KEY environment variable not set, skipping integration tests")
	}
}

// NewTestClient builds a client pointed at the configured test server.
// Errors raise by default so every helper can require.NoError.
func NewTestClient(t *testing.T, config *TestConfig) grist.Client {
	t.Helper()

	client, err := gristclient.New(&grist.Config{
		APIKey:          config.APIKey,
		SelfManagedHome: config.ServerURL,
		TeamSite:        config.TeamSite,
	})
	require.NoError(t, err, "Failed to create test client")

	return client
}

// NewSuppressedClient builds a client with error raising turned off,
// for tests that inspect refused calls through the transaction record.
func NewSuppressedClient(t *testing.T, config *TestConfig) grist.Client {
	t.Helper()

	client, err := gristclient.New(&grist.Config{
		APIKey:          config.APIKey,
		SelfManagedHome: config.ServerURL,
		TeamSite:        config.TeamSite,
		SuppressErrors:  true,
	})
	require.NoError(t, err, "Failed to create suppressed client")

	return client
}

// GenerateTestName generates a unique name for test resources.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().Unix())
}

// ScratchDoc creates a throwaway workspace holding a fresh document
// and registers cleanup for both. Tests get an empty document they can
// mutate freely without touching anything pre-existing on the server.
func ScratchDoc(ctx context.Context, t *testing.T, client grist.Client) (string, int) {
	t.Helper()

	wsID, err := client.Workspaces().Create(ctx, GenerateTestName("it-ws"), "")
	require.NoError(t, err, "Failed to create scratch workspace")
	t.Cleanup(func() {
		_ = client.Workspaces().Delete(context.Background(), wsID)
	})

	docID, err := client.Docs().Create(ctx, GenerateTestName("it-doc"), wsID, false)
	require.NoError(t, err, "Failed to create scratch document")
	t.Cleanup(func() {
		_ = client.Docs().Delete(context.Background(), docID)
	})

	return docID, wsID
}

// LogTransaction prints the last transaction when verbose mode is on.
func LogTransaction(t *testing.T, config *TestConfig, client grist.Client) {
	t.Helper()

	if config.Verbose {
		t.Logf("last call:\n%s", client.Inspect())
	}
}
