package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	http_internal "github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// Accept values for document exports.
const (
	acceptSQLite = "application/x-sqlite3"
	acceptExcel  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	acceptCSV    = "text/csv"
)

// DocsClient implements grist.DocsClient.
type DocsClient struct {
	httpClient *http_internal.Client
}

// NewDocsClient creates a new docs client.
func NewDocsClient(httpClient *http_internal.Client) *DocsClient {
	return &DocsClient{
		httpClient: httpClient,
	}
}

// Create implements grist.DocsClient.Create.
func (c *DocsClient) Create(ctx context.Context, name string, workspaceID int, pinned bool) (string, error) {
	path := fmt.Sprintf("/workspaces/%d/docs", defaultWorkspaceID(c.httpClient, workspaceID))

	resp, err := c.httpClient.Post(ctx, path, grist.DocCreate{
		Name:     name,
		IsPinned: pinned,
	})
	if err != nil {
		return "", fmt.Errorf("creating doc: %w", err)
	}

	var docID string

	err = decodeJSON(resp, &docID)
	if err != nil {
		return "", fmt.Errorf("parsing doc id: %w", err)
	}

	return docID, nil
}

// Get implements grist.DocsClient.Get.
func (c *DocsClient) Get(ctx context.Context, docID string) (*grist.Doc, error) {
	path := fmt.Sprintf("/docs/%s", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting doc: %w", err)
	}

	var doc grist.Doc

	err = decodeJSON(resp, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing doc: %w", err)
	}

	return &doc, nil
}

// Update implements grist.DocsClient.Update.
func (c *DocsClient) Update(ctx context.Context, docID string, update grist.DocUpdate) error {
	path := fmt.Sprintf("/docs/%s", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Patch(ctx, path, update)
	if err != nil {
		return fmt.Errorf("updating doc: %w", err)
	}

	return nil
}

// Move implements grist.DocsClient.Move.
func (c *DocsClient) Move(ctx context.Context, docID string, workspaceID int) error {
	path := fmt.Sprintf("/docs/%s/move", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Patch(ctx, path, map[string]int{"workspace": workspaceID})
	if err != nil {
		return fmt.Errorf("moving doc: %w", err)
	}

	return nil
}

// Delete implements grist.DocsClient.Delete.
func (c *DocsClient) Delete(ctx context.Context, docID string) error {
	path := fmt.Sprintf("/docs/%s", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting doc: %w", err)
	}

	return nil
}

// DeleteHistory implements grist.DocsClient.DeleteHistory.
func (c *DocsClient) DeleteHistory(ctx context.Context, docID string, keep int) error {
	path := fmt.Sprintf("/docs/%s/states/remove", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Post(ctx, path, map[string]int{"keep": keep})
	if err != nil {
		return fmt.Errorf("deleting doc history: %w", err)
	}

	return nil
}

// ForceReload implements grist.DocsClient.ForceReload.
func (c *DocsClient) ForceReload(ctx context.Context, docID string) error {
	path := fmt.Sprintf("/docs/%s/force-reload", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Post(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("reloading doc: %w", err)
	}

	return nil
}

// DownloadSQLite implements grist.DocsClient.DownloadSQLite.
func (c *DocsClient) DownloadSQLite(ctx context.Context, docID string, dst io.Writer, opts *grist.SQLiteDownloadOptions) error {
	path := fmt.Sprintf("/docs/%s/download", defaultDocID(c.httpClient, docID))

	query := url.Values{}

	if opts != nil {
		if opts.NoHistory {
			query.Set("nohistory", "true")
		}

		if opts.Template {
			query.Set("template", "true")
		}
	}

	_, err := c.httpClient.Do(ctx, &http_internal.Request{
		Method:  http.MethodGet,
		Path:    path,
		Query:   query,
		Headers: map[string]string{"Accept": acceptSQLite},
		Sink:    dst,
	})
	if err != nil {
		return fmt.Errorf("downloading doc: %w", err)
	}

	return nil
}

// DownloadExcel implements grist.DocsClient.DownloadExcel. An empty
// tableID exports every table as a separate sheet.
func (c *DocsClient) DownloadExcel(ctx context.Context, docID, tableID string, dst io.Writer, opts *grist.ExportOptions) error {
	path := fmt.Sprintf("/docs/%s/download/xlsx", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Do(ctx, &http_internal.Request{
		Method:  http.MethodGet,
		Path:    path,
		Query:   exportValues(tableID, opts),
		Headers: map[string]string{"Accept": acceptExcel},
		Sink:    dst,
	})
	if err != nil {
		return fmt.Errorf("downloading excel: %w", err)
	}

	return nil
}

// DownloadCSV implements grist.DocsClient.DownloadCSV.
func (c *DocsClient) DownloadCSV(ctx context.Context, docID, tableID string, dst io.Writer, opts *grist.ExportOptions) error {
	path := fmt.Sprintf("/docs/%s/download/csv", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Do(ctx, &http_internal.Request{
		Method:  http.MethodGet,
		Path:    path,
		Query:   exportValues(tableID, opts),
		Headers: map[string]string{"Accept": acceptCSV},
		Sink:    dst,
	})
	if err != nil {
		return fmt.Errorf("downloading csv: %w", err)
	}

	return nil
}

// DownloadTableSchema implements grist.DocsClient.DownloadTableSchema.
func (c *DocsClient) DownloadTableSchema(ctx context.Context, docID, tableID string, opts *grist.ExportOptions) (map[string]interface{}, error) {
	path := fmt.Sprintf("/docs/%s/download/table-schema", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, exportValues(tableID, opts))
	if err != nil {
		return nil, fmt.Errorf("downloading table schema: %w", err)
	}

	var schema map[string]interface{}

	err = decodeJSON(resp, &schema)
	if err != nil {
		return nil, fmt.Errorf("parsing table schema: %w", err)
	}

	return schema, nil
}

// ListUsers implements grist.DocsClient.ListUsers.
func (c *DocsClient) ListUsers(ctx context.Context, docID string) (*grist.ShareList, error) {
	path := fmt.Sprintf("/docs/%s/access", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing doc users: %w", err)
	}

	var shares grist.ShareList

	err = decodeJSON(resp, &shares)
	if err != nil {
		return nil, fmt.Errorf("parsing doc access: %w", err)
	}

	return &shares, nil
}

// UpdateUsers implements grist.DocsClient.UpdateUsers.
func (c *DocsClient) UpdateUsers(ctx context.Context, docID string, delta grist.PermissionDelta) error {
	path := fmt.Sprintf("/docs/%s/access", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Patch(ctx, path, accessDelta{Delta: delta})
	if err != nil {
		return fmt.Errorf("updating doc users: %w", err)
	}

	return nil
}

// exportValues builds the shared query params of the tabular exports.
func exportValues(tableID string, opts *grist.ExportOptions) url.Values {
	query := url.Values{}

	if tableID != "" {
		query.Set("tableId", tableID)
	}

	if opts != nil && opts.Header != "" {
		query.Set("header", opts.Header)
	}

	return query
}
