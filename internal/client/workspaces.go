package client

import (
	"context"
	"fmt"

	"github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// WorkspacesClient implements grist.WorkspacesClient.
type WorkspacesClient struct {
	httpClient *http.Client
}

// NewWorkspacesClient creates a new workspaces client.
func NewWorkspacesClient(httpClient *http.Client) *WorkspacesClient {
	return &WorkspacesClient{
		httpClient: httpClient,
	}
}

// List implements grist.WorkspacesClient.List.
func (c *WorkspacesClient) List(ctx context.Context, teamID string) ([]grist.Workspace, error) {
	path := fmt.Sprintf("/orgs/%s/workspaces", orgID(teamID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}

	var workspaces []grist.Workspace

	err = decodeJSON(resp, &workspaces)
	if err != nil {
		return nil, fmt.Errorf("parsing workspaces list: %w", err)
	}

	return workspaces, nil
}

// Create implements grist.WorkspacesClient.Create.
func (c *WorkspacesClient) Create(ctx context.Context, name, teamID string) (int, error) {
	path := fmt.Sprintf("/orgs/%s/workspaces", orgID(teamID))

	resp, err := c.httpClient.Post(ctx, path, map[string]string{"name": name})
	if err != nil {
		return 0, fmt.Errorf("creating workspace: %w", err)
	}

	var workspaceID int

	err = decodeJSON(resp, &workspaceID)
	if err != nil {
		return 0, fmt.Errorf("parsing workspace id: %w", err)
	}

	return workspaceID, nil
}

// Get implements grist.WorkspacesClient.Get.
func (c *WorkspacesClient) Get(ctx context.Context, workspaceID int) (*grist.Workspace, error) {
	path := fmt.Sprintf("/workspaces/%d", defaultWorkspaceID(c.httpClient, workspaceID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting workspace: %w", err)
	}

	var workspace grist.Workspace

	err = decodeJSON(resp, &workspace)
	if err != nil {
		return nil, fmt.Errorf("parsing workspace: %w", err)
	}

	return &workspace, nil
}

// Update implements grist.WorkspacesClient.Update.
func (c *WorkspacesClient) Update(ctx context.Context, workspaceID int, name string) error {
	path := fmt.Sprintf("/workspaces/%d", defaultWorkspaceID(c.httpClient, workspaceID))

	_, err := c.httpClient.Patch(ctx, path, map[string]string{"name": name})
	if err != nil {
		return fmt.Errorf("updating workspace: %w", err)
	}

	return nil
}

// Delete implements grist.WorkspacesClient.Delete.
func (c *WorkspacesClient) Delete(ctx context.Context, workspaceID int) error {
	path := fmt.Sprintf("/workspaces/%d", defaultWorkspaceID(c.httpClient, workspaceID))

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting workspace: %w", err)
	}

	return nil
}

// ListUsers implements grist.WorkspacesClient.ListUsers.
func (c *WorkspacesClient) ListUsers(ctx context.Context, workspaceID int) (*grist.ShareList, error) {
	path := fmt.Sprintf("/workspaces/%d/access", defaultWorkspaceID(c.httpClient, workspaceID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing workspace users: %w", err)
	}

	var shares grist.ShareList

	err = decodeJSON(resp, &shares)
	if err != nil {
		return nil, fmt.Errorf("parsing workspace access: %w", err)
	}

	return &shares, nil
}

// UpdateUsers implements grist.WorkspacesClient.UpdateUsers.
func (c *WorkspacesClient) UpdateUsers(ctx context.Context, workspaceID int, delta grist.PermissionDelta) error {
	path := fmt.Sprintf("/workspaces/%d/access", defaultWorkspaceID(c.httpClient, workspaceID))

	_, err := c.httpClient.Patch(ctx, path, accessDelta{Delta: delta})
	if err != nil {
		return fmt.Errorf("updating workspace users: %w", err)
	}

	return nil
}
