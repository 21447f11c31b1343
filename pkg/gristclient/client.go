// Package gristclient provides the main entry point for creating Grist API clients
package gristclient

import (
	"fmt"
	"strings"

	"github.com/gridworks-io/grist/internal/client"
	"github.com/gridworks-io/grist/pkg/grist"
)

// New creates a new Grist API client from config. A nil config is
// valid: every setting then comes from GRIST_* variables, the config
// file and the built-in defaults.
func New(config *grist.Config) (grist.Client, error) {
	if config == nil {
		config = &grist.Config{}
	}

	// Normalize the self-managed server URL
	if config.SelfManagedHome != "" {
		home := strings.TrimSuffix(config.SelfManagedHome, "/")
		if !strings.HasPrefix(home, "http://") && !strings.HasPrefix(home, "https://") {
			home = "https://" + home
		}

		config.SelfManagedHome = home
	}

	// Use the internal client implementation
	client, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// NewWithAPIKey creates a new client for the SaaS service with just an
// API key. The team site and default targets keep their configured
// values.
func NewWithAPIKey(apiKey string) (grist.Client, error) {
	return New(&grist.Config{
		APIKey: apiKey,
	})
}

// NewWithTeamSite creates a new client aimed at a specific team site.
func NewWithTeamSite(apiKey, teamSite string) (grist.Client, error) {
	return New(&grist.Config{
		APIKey:   apiKey,
		TeamSite: teamSite,
	})
}

// NewWithSelfManaged creates a new client for a self-hosted server.
// The home URL may omit the scheme; https is assumed.
func NewWithSelfManaged(apiKey, home string) (grist.Client, error) {
	return New(&grist.Config{
		APIKey:          apiKey,
		SelfManagedHome: home,
	})
}

// NewWithDoc creates a new client with the default document
// preselected, so document-scoped calls can pass an empty docID.
func NewWithDoc(apiKey, docID string) (grist.Client, error) {
	return New(&grist.Config{
		APIKey: apiKey,
		DocID:  docID,
	})
}
