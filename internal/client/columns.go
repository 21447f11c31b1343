package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	http_internal "github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// ColumnsClient implements grist.ColumnsClient.
type ColumnsClient struct {
	httpClient *http_internal.Client
}

// NewColumnsClient creates a new columns client.
func NewColumnsClient(httpClient *http_internal.Client) *ColumnsClient {
	return &ColumnsClient{
		httpClient: httpClient,
	}
}

// columnsEnvelope is the wire wrapper around column collections.
type columnsEnvelope struct {
	Columns []grist.Column `json:"columns"`
}

// List implements grist.ColumnsClient.List.
func (c *ColumnsClient) List(ctx context.Context, docID, tableID string, hidden bool) ([]grist.Column, error) {
	path := fmt.Sprintf("/docs/%s/tables/%s/columns", defaultDocID(c.httpClient, docID), tableID)

	query := url.Values{}
	if hidden {
		query.Set("hidden", "true")
	}

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}

	var envelope columnsEnvelope

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing columns list: %w", err)
	}

	return envelope.Columns, nil
}

// Create implements grist.ColumnsClient.Create.
func (c *ColumnsClient) Create(ctx context.Context, docID, tableID string, columns []grist.Column) ([]string, error) {
	path := fmt.Sprintf("/docs/%s/tables/%s/columns", defaultDocID(c.httpClient, docID), tableID)

	encoded, err := encodeWidgetOptions(columns)
	if err != nil {
		return nil, fmt.Errorf("encoding widget options: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, path, columnsEnvelope{Columns: encoded})
	if err != nil {
		return nil, fmt.Errorf("creating columns: %w", err)
	}

	var envelope columnsEnvelope

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing columns response: %w", err)
	}

	ids := make([]string, 0, len(envelope.Columns))
	for _, column := range envelope.Columns {
		ids = append(ids, column.ID)
	}

	return ids, nil
}

// Update implements grist.ColumnsClient.Update.
func (c *ColumnsClient) Update(ctx context.Context, docID, tableID string, columns []grist.Column) error {
	path := fmt.Sprintf("/docs/%s/tables/%s/columns", defaultDocID(c.httpClient, docID), tableID)

	encoded, err := encodeWidgetOptions(columns)
	if err != nil {
		return fmt.Errorf("encoding widget options: %w", err)
	}

	_, err = c.httpClient.Patch(ctx, path, columnsEnvelope{Columns: encoded})
	if err != nil {
		return fmt.Errorf("updating columns: %w", err)
	}

	return nil
}

// AddOrUpdate implements grist.ColumnsClient.AddOrUpdate.
func (c *ColumnsClient) AddOrUpdate(ctx context.Context, docID, tableID string, columns []grist.Column, opts *grist.ColumnUpsertOptions) error {
	path := fmt.Sprintf("/docs/%s/tables/%s/columns", defaultDocID(c.httpClient, docID), tableID)

	encoded, err := encodeWidgetOptions(columns)
	if err != nil {
		return fmt.Errorf("encoding widget options: %w", err)
	}

	query := url.Values{}

	if opts != nil {
		if opts.NoAdd {
			query.Set("noadd", "true")
		}

		if opts.NoUpdate {
			query.Set("noupdate", "true")
		}

		if opts.ReplaceAll {
			query.Set("replaceall", "true")
		}
	}

	_, err = c.httpClient.Do(ctx, &http_internal.Request{
		Method: http.MethodPut,
		Path:   path,
		Query:  query,
		Body:   columnsEnvelope{Columns: encoded},
	})
	if err != nil {
		return fmt.Errorf("upserting columns: %w", err)
	}

	return nil
}

// Delete implements grist.ColumnsClient.Delete.
func (c *ColumnsClient) Delete(ctx context.Context, docID, tableID, columnID string) error {
	path := fmt.Sprintf("/docs/%s/tables/%s/columns/%s", defaultDocID(c.httpClient, docID), tableID, columnID)

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting column: %w", err)
	}

	return nil
}

// encodeWidgetOptions returns the columns with any structured
// widgetOptions value serialized to a JSON string, the form the API
// expects. Values that are already strings pass through untouched.
func encodeWidgetOptions(columns []grist.Column) ([]grist.Column, error) {
	encoded := make([]grist.Column, len(columns))

	for i, column := range columns {
		encoded[i] = column

		options, ok := column.Fields["widgetOptions"]
		if !ok {
			continue
		}

		if _, isString := options.(string); isString {
			continue
		}

		serialized, err := json.Marshal(options)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column.ID, err)
		}

		fields := make(map[string]interface{}, len(column.Fields))
		for key, value := range column.Fields {
			fields[key] = value
		}

		fields["widgetOptions"] = string(serialized)
		encoded[i].Fields = fields
	}

	return encoded, nil
}
