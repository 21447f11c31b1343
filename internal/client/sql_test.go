package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/gridworks-io/grist/internal/client"
	"github.com/gridworks-io/grist/pkg/grist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLClient_Query(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/docs/docid/sql", request.URL.Path)
		assert.Equal(t, "GET", request.Method)
		assert.Equal(t, "select Name from Table1", request.URL.Query().Get("q"))

		response := map[string]interface{}{
			"statement": "select Name from Table1",
			"records": []map[string]interface{}{
				{"fields": map[string]interface{}{"Name": "Bob"}},
				{"fields": map[string]interface{}{"Name": "Ann"}},
			},
		}

		_ = json.NewEncoder(writer).Encode(response)
	}))
	defer server.Close()

	c := NewTestClient(t, server.URL)

	result, err := c.SQL().Query(context.Background(), "docid", "select Name from Table1")
	require.NoError(t, err)
	assert.Equal(t, "select Name from Table1", result.Statement)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Ann", result.Records[1].Fields["Name"])
}

func TestSQLClient_QueryWithArgs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/docs/docid/sql", request.URL.Path)
		assert.Equal(t, "POST", request.Method)

		var body struct {
			SQL     string        `json:"sql"`
			Args    []interface{} `json:"args"`
			Timeout int           `json:"timeout"`
		}

		_ = json.NewDecoder(request.Body).Decode(&body)
		assert.Equal(t, "select * from Table1 where Age > ?", body.SQL)
		assert.Equal(t, []interface{}{float64(18)}, body.Args)
		assert.Equal(t, 500, body.Timeout)

		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"records": []map[string]interface{}{},
		})
	}))
	defer server.Close()

	c := NewTestClient(t, server.URL)

	result, err := c.SQL().QueryWithArgs(context.Background(), "docid",
		"select * from Table1 where Age > ?", []interface{}{18}, 500)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}

func TestSQLClient_QueryWithArgs_DefaultTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			Timeout int `json:"timeout"`
		}

		_ = json.NewDecoder(request.Body).Decode(&body)
		assert.Equal(t, 1000, body.Timeout)

		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"records": []map[string]interface{}{},
		})
	}))
	defer server.Close()

	c := NewTestClient(t, server.URL)

	_, err := c.SQL().QueryWithArgs(context.Background(), "docid", "select 1", nil, 0)
	require.NoError(t, err)
}

func TestSQLClient_Query_InboundConverter(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		response := map[string]interface{}{
			"records": []map[string]interface{}{
				{"fields": map[string]interface{}{"Total": 12.5}},
			},
		}

		_ = json.NewEncoder(writer).Encode(response)
	}))
	defer server.Close()

	c := NewTestClient(t, server.URL)
	c.InConverters().Register(grist.SQLResultsKey, "Total", func(value interface{}) (interface{}, error) {
		number, ok := value.(float64)
		if !ok {
			return nil, grist.ErrBadValue
		}

		return int(number * 100), nil
	})

	result, err := c.SQL().Query(context.Background(), "docid", "select Total from Table1")
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 1250, result.Records[0].Fields["Total"])
}
