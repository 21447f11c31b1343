package client

import (
	"context"
	"fmt"

	"github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// TablesClient implements grist.TablesClient.
type TablesClient struct {
	httpClient *http.Client
}

// NewTablesClient creates a new tables client.
func NewTablesClient(httpClient *http.Client) *TablesClient {
	return &TablesClient{
		httpClient: httpClient,
	}
}

// tablesEnvelope is the wire wrapper around table collections.
type tablesEnvelope struct {
	Tables []grist.Table `json:"tables"`
}

// List implements grist.TablesClient.List.
func (c *TablesClient) List(ctx context.Context, docID string) ([]grist.Table, error) {
	path := fmt.Sprintf("/docs/%s/tables", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	var envelope tablesEnvelope

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing tables list: %w", err)
	}

	return envelope.Tables, nil
}

// Create implements grist.TablesClient.Create.
func (c *TablesClient) Create(ctx context.Context, docID string, tables []grist.TableCreate) ([]string, error) {
	path := fmt.Sprintf("/docs/%s/tables", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Post(ctx, path, map[string][]grist.TableCreate{"tables": tables})
	if err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	var envelope tablesEnvelope

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing tables response: %w", err)
	}

	ids := make([]string, 0, len(envelope.Tables))
	for _, table := range envelope.Tables {
		ids = append(ids, table.ID)
	}

	return ids, nil
}

// Update implements grist.TablesClient.Update.
func (c *TablesClient) Update(ctx context.Context, docID string, tables []grist.TableUpdate) error {
	path := fmt.Sprintf("/docs/%s/tables", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Patch(ctx, path, map[string][]grist.TableUpdate{"tables": tables})
	if err != nil {
		return fmt.Errorf("updating tables: %w", err)
	}

	return nil
}
