package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// SQLClient implements grist.SQLClient. Result rows pass through the
// reserved-key inbound converters.
type SQLClient struct {
	httpClient   *http.Client
	inConverters grist.ConverterMap
}

// NewSQLClient creates a new SQL client.
func NewSQLClient(httpClient *http.Client, in grist.ConverterMap) *SQLClient {
	return &SQLClient{
		httpClient:   httpClient,
		inConverters: in,
	}
}

// Query implements grist.SQLClient.Query.
func (c *SQLClient) Query(ctx context.Context, docID, statement string) (*grist.SQLResult, error) {
	path := fmt.Sprintf("/docs/%s/sql", defaultDocID(c.httpClient, docID))

	query := url.Values{}
	query.Set("q", statement)

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}

	return c.parseResult(resp)
}

// QueryWithArgs implements grist.SQLClient.QueryWithArgs. A zero
// timeout falls back to the server default of one second.
func (c *SQLClient) QueryWithArgs(ctx context.Context, docID, statement string, args []interface{}, timeoutMs int) (*grist.SQLResult, error) {
	path := fmt.Sprintf("/docs/%s/sql", defaultDocID(c.httpClient, docID))

	if timeoutMs <= 0 {
		timeoutMs = constants.DefaultSQLTimeoutMs
	}

	body := map[string]interface{}{
		"sql":     statement,
		"args":    args,
		"timeout": timeoutMs,
	}

	resp, err := c.httpClient.Post(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}

	return c.parseResult(resp)
}

// parseResult decodes a query response and converts its rows.
func (c *SQLClient) parseResult(resp *http.Response) (*grist.SQLResult, error) {
	var result grist.SQLResult

	err := decodeJSON(resp, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing query result: %w", err)
	}

	err = c.inConverters.ConvertInSQL(result.Records)
	if err != nil {
		return nil, fmt.Errorf("converting query result: %w", err)
	}

	return &result, nil
}
