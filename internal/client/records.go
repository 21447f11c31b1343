package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	http_internal "github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// RecordsClient implements grist.RecordsClient. Cell values pass
// through the client's converter maps in both directions.
type RecordsClient struct {
	httpClient    *http_internal.Client
	inConverters  grist.ConverterMap
	outConverters grist.ConverterMap
}

// NewRecordsClient creates a new records client.
func NewRecordsClient(httpClient *http_internal.Client, in, out grist.ConverterMap) *RecordsClient {
	return &RecordsClient{
		httpClient:    httpClient,
		inConverters:  in,
		outConverters: out,
	}
}

// recordsEnvelope is the wire wrapper around record collections.
type recordsEnvelope struct {
	Records []grist.Record `json:"records"`
}

// fieldsOnly is the row shape for record creation, where the server
// assigns the id.
type fieldsOnly struct {
	Fields map[string]interface{} `json:"fields"`
}

// List implements grist.RecordsClient.List.
func (c *RecordsClient) List(ctx context.Context, docID, tableID string, opts *grist.ListOptions) ([]grist.Record, error) {
	path := fmt.Sprintf("/docs/%s/tables/%s/records", defaultDocID(c.httpClient, docID), tableID)

	resp, err := c.httpClient.Do(ctx, &http_internal.Request{
		Method:  http.MethodGet,
		Path:    path,
		Query:   opts.RecordValues(),
		Headers: opts.RecordHeaders(),
	})
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	var envelope recordsEnvelope

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing records list: %w", err)
	}

	err = c.inConverters.ConvertIn(tableID, envelope.Records)
	if err != nil {
		return nil, fmt.Errorf("converting records: %w", err)
	}

	return envelope.Records, nil
}

// Add implements grist.RecordsClient.Add.
func (c *RecordsClient) Add(ctx context.Context, docID, tableID string, fieldsets []map[string]interface{}, opts *grist.RecordWriteOptions) ([]int, error) {
	path := fmt.Sprintf("/docs/%s/tables/%s/records", defaultDocID(c.httpClient, docID), tableID)

	converted, err := c.outConverters.ConvertOut(tableID, fieldsets)
	if err != nil {
		return nil, fmt.Errorf("converting records: %w", err)
	}

	rows := make([]fieldsOnly, len(converted))
	for i, fields := range converted {
		rows[i] = fieldsOnly{Fields: fields}
	}

	query := url.Values{}
	if opts != nil && opts.NoParse {
		query.Set("noparse", "true")
	}

	resp, err := c.httpClient.Do(ctx, &http_internal.Request{
		Method: http.MethodPost,
		Path:   path,
		Query:  query,
		Body:   map[string][]fieldsOnly{"records": rows},
	})
	if err != nil {
		return nil, fmt.Errorf("adding records: %w", err)
	}

	var envelope struct {
		Records []grist.RecordID `json:"records"`
	}

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing records response: %w", err)
	}

	ids := make([]int, 0, len(envelope.Records))
	for _, record := range envelope.Records {
		ids = append(ids, record.ID)
	}

	return ids, nil
}

// Update implements grist.RecordsClient.Update.
func (c *RecordsClient) Update(ctx context.Context, docID, tableID string, records []grist.Record, opts *grist.RecordWriteOptions) error {
	path := fmt.Sprintf("/docs/%s/tables/%s/records", defaultDocID(c.httpClient, docID), tableID)

	converted, err := c.outConverters.ConvertOutRecords(tableID, records)
	if err != nil {
		return fmt.Errorf("converting records: %w", err)
	}

	query := url.Values{}
	if opts != nil && opts.NoParse {
		query.Set("noparse", "true")
	}

	_, err = c.httpClient.Do(ctx, &http_internal.Request{
		Method: http.MethodPatch,
		Path:   path,
		Query:  query,
		Body:   recordsEnvelope{Records: converted},
	})
	if err != nil {
		return fmt.Errorf("updating records: %w", err)
	}

	return nil
}

// AddOrUpdate implements grist.RecordsClient.AddOrUpdate.
func (c *RecordsClient) AddOrUpdate(ctx context.Context, docID, tableID string, records []grist.UpsertRecord, opts *grist.UpsertOptions) error {
	path := fmt.Sprintf("/docs/%s/tables/%s/records", defaultDocID(c.httpClient, docID), tableID)

	converted, err := c.convertUpserts(tableID, records)
	if err != nil {
		return fmt.Errorf("converting records: %w", err)
	}

	query := url.Values{}

	if opts != nil {
		if opts.NoParse {
			query.Set("noparse", "true")
		}

		if opts.OnMany != "" {
			query.Set("onmany", opts.OnMany)
		}

		if opts.NoAdd {
			query.Set("noadd", "true")
		}

		if opts.NoUpdate {
			query.Set("noupdate", "true")
		}

		if opts.AllowEmptyRequire {
			query.Set("allow_empty_require", "true")
		}
	}

	_, err = c.httpClient.Do(ctx, &http_internal.Request{
		Method: http.MethodPut,
		Path:   path,
		Query:  query,
		Body:   map[string][]grist.UpsertRecord{"records": converted},
	})
	if err != nil {
		return fmt.Errorf("upserting records: %w", err)
	}

	return nil
}

// Delete implements grist.RecordsClient.Delete.
func (c *RecordsClient) Delete(ctx context.Context, docID, tableID string, rowIDs []int) error {
	path := fmt.Sprintf("/docs/%s/tables/%s/data/delete", defaultDocID(c.httpClient, docID), tableID)

	// The only endpoint whose body is a bare list.
	_, err := c.httpClient.Post(ctx, path, rowIDs)
	if err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}

	return nil
}

// convertUpserts runs the outbound converters over both halves of each
// upsert row, the matching cells and the applied cells.
func (c *RecordsClient) convertUpserts(tableID string, records []grist.UpsertRecord) ([]grist.UpsertRecord, error) {
	if len(c.outConverters[tableID]) == 0 {
		return records, nil
	}

	requires := make([]map[string]interface{}, len(records))
	fields := make([]map[string]interface{}, len(records))

	for i, record := range records {
		requires[i] = record.Require
		fields[i] = record.Fields
	}

	convertedRequires, err := c.outConverters.ConvertOut(tableID, requires)
	if err != nil {
		return nil, err
	}

	convertedFields, err := c.outConverters.ConvertOut(tableID, fields)
	if err != nil {
		return nil, err
	}

	out := make([]grist.UpsertRecord, len(records))
	for i := range records {
		out[i] = grist.UpsertRecord{
			Require: convertedRequires[i],
			Fields:  convertedFields[i],
		}
	}

	return out, nil
}
