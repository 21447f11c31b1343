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

func TestTablesClient_List(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/docs/docid/tables", request.URL.Path)
		assert.Equal(t, "GET", request.Method)

		response := map[string][]grist.Table{
			"tables": {
				{ID: "Table1", Fields: map[string]interface{}{"primaryViewId": float64(1)}},
				{ID: "People", Fields: map[string]interface{}{"onDemand": false}},
			},
		}

		_ = json.NewEncoder(writer).Encode(response)
	}))
	defer server.Close()

	c := NewTestClient(t, server.URL)

	tables, err := c.Tables().List(context.Background(), "docid")
	require.NoError(t, err)
	assert.Len(t, tables, 2)
	assert.Equal(t, "People", tables[1].ID)
}

func TestTablesClient_Create(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/docs/docid/tables", request.URL.Path)
		assert.Equal(t, "POST", request.Method)

		var body struct {
			Tables []grist.TableCreate `json:"tables"`
		}

		_ = json.NewDecoder(request.Body).Decode(&body)
		require.Len(t, body.Tables, 1)
		assert.Equal(t, "Expenses", body.Tables[0].ID)
		require.Len(t, body.Tables[0].Columns, 2)
		assert.Equal(t, "Amount", body.Tables[0].Columns[1].ID)

		response := map[string][]grist.Table{
			"tables": {{ID: "Expenses"}},
		}

		_ = json.NewEncoder(writer).Encode(response)
	}))
	defer server.Close()

	c := NewTestClient(t, server.URL)

	ids, err := c.Tables().Create(context.Background(), "docid", []grist.TableCreate{
		{
			ID: "Expenses",
			Columns: []grist.Column{
				{ID: "Item", Fields: map[string]interface{}{"type": "Text", "label": "Item"}},
				{ID: "Amount", Fields: map[string]interface{}{"type": "Numeric", "label": "Amount"}},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Expenses"}, ids)
}

func TestTablesClient_Update(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/docs/docid/tables", request.URL.Path)
		assert.Equal(t, "PATCH", request.Method)

		var body struct {
			Tables []grist.TableUpdate `json:"tables"`
		}

		_ = json.NewDecoder(request.Body).Decode(&body)
		require.Len(t, body.Tables, 1)
		assert.Equal(t, "Expenses", body.Tables[0].ID)
		assert.Equal(t, true, body.Tables[0].Fields["onDemand"])

		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewTestClient(t, server.URL)

	err := c.Tables().Update(context.Background(), "docid", []grist.TableUpdate{
		{ID: "Expenses", Fields: map[string]interface{}{"onDemand": true}},
	})
	require.NoError(t, err)
}
