package client

import (
	"context"
	"fmt"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// OrgsClient implements grist.OrgsClient.
type OrgsClient struct {
	httpClient *http.Client
}

// NewOrgsClient creates a new orgs client.
func NewOrgsClient(httpClient *http.Client) *OrgsClient {
	return &OrgsClient{
		httpClient: httpClient,
	}
}

// orgID returns the path identifier for a team. An empty team addresses
// the org owning the API key.
func orgID(teamID string) string {
	if teamID == "" {
		return constants.CurrentOrg
	}

	return teamID
}

// accessDelta is the request wrapper for share updates.
type accessDelta struct {
	Delta grist.PermissionDelta `json:"delta"`
}

// List implements grist.OrgsClient.List.
func (c *OrgsClient) List(ctx context.Context) ([]grist.Org, error) {
	resp, err := c.httpClient.Get(ctx, "/orgs", nil)
	if err != nil {
		return nil, fmt.Errorf("listing orgs: %w", err)
	}

	var orgs []grist.Org

	err = decodeJSON(resp, &orgs)
	if err != nil {
		return nil, fmt.Errorf("parsing orgs list: %w", err)
	}

	return orgs, nil
}

// Get implements grist.OrgsClient.Get.
func (c *OrgsClient) Get(ctx context.Context, teamID string) (*grist.Org, error) {
	path := fmt.Sprintf("/orgs/%s", orgID(teamID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting org: %w", err)
	}

	var org grist.Org

	err = decodeJSON(resp, &org)
	if err != nil {
		return nil, fmt.Errorf("parsing org: %w", err)
	}

	return &org, nil
}

// Update implements grist.OrgsClient.Update.
func (c *OrgsClient) Update(ctx context.Context, teamID, name string) error {
	path := fmt.Sprintf("/orgs/%s", orgID(teamID))

	_, err := c.httpClient.Patch(ctx, path, map[string]string{"name": name})
	if err != nil {
		return fmt.Errorf("updating org: %w", err)
	}

	return nil
}

// Delete implements grist.OrgsClient.Delete.
func (c *OrgsClient) Delete(ctx context.Context, teamID string) error {
	path := fmt.Sprintf("/orgs/%s", orgID(teamID))

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting org: %w", err)
	}

	return nil
}

// ListUsers implements grist.OrgsClient.ListUsers.
func (c *OrgsClient) ListUsers(ctx context.Context, teamID string) (*grist.ShareList, error) {
	path := fmt.Sprintf("/orgs/%s/access", orgID(teamID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing org users: %w", err)
	}

	var shares grist.ShareList

	err = decodeJSON(resp, &shares)
	if err != nil {
		return nil, fmt.Errorf("parsing org access: %w", err)
	}

	return &shares, nil
}

// UpdateUsers implements grist.OrgsClient.UpdateUsers.
func (c *OrgsClient) UpdateUsers(ctx context.Context, teamID string, delta grist.PermissionDelta) error {
	path := fmt.Sprintf("/orgs/%s/access", orgID(teamID))

	_, err := c.httpClient.Patch(ctx, path, accessDelta{Delta: delta})
	if err != nil {
		return fmt.Errorf("updating org users: %w", err)
	}

	return nil
}
