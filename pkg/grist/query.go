package grist

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// ListOptions narrows record and attachment listings. Sort and Limit
// travel as X-Sort / X-Limit headers on the records endpoint and as
// ordinary query parameters elsewhere; Filter is a column-to-values
// map sent as a JSON query parameter either way.
type ListOptions struct {
	Sort   string
	Limit  int
	Hidden bool
	Filter map[string][]interface{}
}

// NewListOptions creates empty list options.
func NewListOptions() *ListOptions {
	return &ListOptions{
		Filter: make(map[string][]interface{}),
	}
}

// WithSort sets the sort spec, e.g. "Name,-Age".
func (o *ListOptions) WithSort(sort string) *ListOptions {
	o.Sort = sort

	return o
}

// WithLimit caps the number of returned rows. Zero means no cap.
func (o *ListOptions) WithLimit(limit int) *ListOptions {
	o.Limit = limit

	return o
}

// WithHidden includes hidden columns in the result.
func (o *ListOptions) WithHidden(hidden bool) *ListOptions {
	o.Hidden = hidden

	return o
}

// WithFilter appends acceptable values for a column. Rows match when
// every filtered column holds one of its listed values.
func (o *ListOptions) WithFilter(column string, values ...interface{}) *ListOptions {
	if o.Filter == nil {
		o.Filter = make(map[string][]interface{})
	}

	o.Filter[column] = append(o.Filter[column], values...)

	return o
}

// FilterJSON renders the filter map as the JSON the API expects, empty
// string when there is no filter.
func (o *ListOptions) FilterJSON() string {
	if len(o.Filter) == 0 {
		return ""
	}

	data, err := json.Marshal(o.Filter)
	if err != nil {
		return ""
	}

	return string(data)
}

// ToValues converts the options to query parameters for endpoints that
// take everything in the URL.
func (o *ListOptions) ToValues() url.Values {
	values := url.Values{}

	if o == nil {
		return values
	}

	if o.Sort != "" {
		values.Set("sort", o.Sort)
	}

	if o.Limit > 0 {
		values.Set("limit", strconv.Itoa(o.Limit))
	}

	if o.Hidden {
		values.Set("hidden", "true")
	}

	if filter := o.FilterJSON(); filter != "" {
		values.Set("filter", filter)
	}

	return values
}

// RecordValues converts the options to the query parameters of the
// records endpoint, where sort and limit travel as headers instead.
func (o *ListOptions) RecordValues() url.Values {
	values := url.Values{}

	if o == nil {
		return values
	}

	if o.Hidden {
		values.Set("hidden", "true")
	}

	if filter := o.FilterJSON(); filter != "" {
		values.Set("filter", filter)
	}

	return values
}

// RecordHeaders returns the X-Sort / X-Limit headers of the records
// endpoint.
func (o *ListOptions) RecordHeaders() map[string]string {
	headers := make(map[string]string)

	if o == nil {
		return headers
	}

	if o.Sort != "" {
		headers["X-Sort"] = o.Sort
	}

	if o.Limit > 0 {
		headers["X-Limit"] = strconv.Itoa(o.Limit)
	}

	return headers
}
