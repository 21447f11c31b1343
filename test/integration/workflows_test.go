// +build integration

package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridworks-io/grist/pkg/grist"
)

// TestSiteWorkflow_Structure walks the site tree visible to the
// configured API key: organizations, workspaces and their documents.
func TestSiteWorkflow_Structure(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	ctx := context.Background()
	client := NewTestClient(t, config)

	// 1. Every key sees at least its own organization
	orgs, err := client.Orgs().List(ctx)
	require.NoError(t, err, "Failed to list organizations")
	require.NotEmpty(t, orgs, "Expected at least one organization")

	// 2. The current organization resolves without naming it
	current, err := client.Orgs().Get(ctx, "")
	require.NoError(t, err, "Failed to get current organization")
	assert.NotEmpty(t, current.Name)

	// 3. Workspaces of the current organization
	workspaces, err := client.Workspaces().List(ctx, "")
	require.NoError(t, err, "Failed to list workspaces")

	if len(workspaces) > 0 {
		ws, err := client.Workspaces().Get(ctx, workspaces[0].ID)
		require.NoError(t, err, "Failed to get workspace %d", workspaces[0].ID)
		assert.Equal(t, workspaces[0].Name, ws.Name)
	}

	// 4. The key owner appears among the collaborators
	shares, err := client.Orgs().ListUsers(ctx, "")
	require.NoError(t, err, "Failed to list organization users")
	assert.NotEmpty(t, shares.Users)

	// 5. The session kept count and the last call succeeded
	assert.Greater(t, client.Calls(), 0)
	assert.Equal(t, 200, client.Record().StatusCode)
	LogTransaction(t, config, client)
}

// TestDocumentWorkflow_Lifecycle drives a document from creation
// through rename, pin, move and reload to permanent deletion.
func TestDocumentWorkflow_Lifecycle(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	ctx := context.Background()
	client := NewTestClient(t, config)

	// 1. Create a workspace to host the document
	wsName := GenerateTestName("lifecycle-ws")
	wsID, err := client.Workspaces().Create(ctx, wsName, "")
	require.NoError(t, err, "Failed to create workspace")
	t.Cleanup(func() {
		_ = client.Workspaces().Delete(context.Background(), wsID)
	})

	// 2. Create the document
	docName := GenerateTestName("lifecycle-doc")
	docID, err := client.Docs().Create(ctx, docName, wsID, false)
	require.NoError(t, err, "Failed to create document")
	require.NotEmpty(t, docID)

	doc, err := client.Docs().Get(ctx, docID)
	require.NoError(t, err, "Failed to get new document")
	assert.Equal(t, docName, doc.Name)
	assert.False(t, doc.IsPinned)

	// 3. Rename and pin it
	renamed := docName + "-renamed"
	pinned := true
	err = client.Docs().Update(ctx, docID, grist.DocUpdate{Name: &renamed, IsPinned: &pinned})
	require.NoError(t, err, "Failed to update document")

	doc, err = client.Docs().Get(ctx, docID)
	require.NoError(t, err, "Failed to get renamed document")
	assert.Equal(t, renamed, doc.Name)
	assert.True(t, doc.IsPinned)

	// 4. Move it to a second workspace
	ws2ID, err := client.Workspaces().Create(ctx, GenerateTestName("lifecycle-ws2"), "")
	require.NoError(t, err, "Failed to create second workspace")
	t.Cleanup(func() {
		_ = client.Workspaces().Delete(context.Background(), ws2ID)
	})

	err = client.Docs().Move(ctx, docID, ws2ID)
	require.NoError(t, err, "Failed to move document")

	ws2, err := client.Workspaces().Get(ctx, ws2ID)
	require.NoError(t, err, "Failed to get destination workspace")
	found := false
	for _, d := range ws2.Docs {
		if d.ID == docID {
			found = true
		}
	}
	assert.True(t, found, "Moved document not listed in destination workspace")

	// 5. Maintenance calls succeed on a live document
	require.NoError(t, client.Docs().ForceReload(ctx, docID), "Failed to reload document")
	require.NoError(t, client.Docs().DeleteHistory(ctx, docID, 0), "Failed to purge history")

	// 6. Delete it and verify it is gone
	require.NoError(t, client.Docs().Delete(ctx, docID), "Failed to delete document")

	_, err = client.Docs().Get(ctx, docID)
	require.Error(t, err, "Expected an error getting a deleted document")
	var statusErr *grist.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)
}

// TestRecordsWorkflow_RoundTrip exercises the full record path on a
// scratch document: table creation, adds, sorted and filtered reads,
// updates, upserts, SQL and deletion.
func TestRecordsWorkflow_RoundTrip(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	ctx := context.Background()
	client := NewTestClient(t, config)
	docID, _ := ScratchDoc(ctx, t, client)

	// 1. Create a table to work in
	tableIDs, err := client.Tables().Create(ctx, docID, []grist.TableCreate{{
		ID: "Contacts",
		Columns: []grist.Column{
			{ID: "Name", Fields: map[string]interface{}{"type": "Text", "label": "Name"}},
			{ID: "Email", Fields: map[string]interface{}{"type": "Text", "label": "Email"}},
			{ID: "Age", Fields: map[string]interface{}{"type": "Numeric", "label": "Age"}},
		},
	}})
	require.NoError(t, err, "Failed to create table")
	require.Len(t, tableIDs, 1)
	tableID := tableIDs[0]

	// 2. Add rows
	rowIDs, err := client.Records().Add(ctx, docID, tableID, []map[string]interface{}{
		{"Name": "Carol", "Email": "carol@example.com", "Age": 41},
		{"Name": "Ann", "Email": "ann@example.com", "Age": 33},
		{"Name": "Bob", "Email": "bob@example.com", "Age": 27},
	}, nil)
	require.NoError(t, err, "Failed to add records")
	require.Len(t, rowIDs, 3)

	// 3. Sorted, limited read
	records, err := client.Records().List(ctx, docID, tableID,
		grist.NewListOptions().WithSort("Name").WithLimit(2))
	require.NoError(t, err, "Failed to list records")
	require.Len(t, records, 2)
	assert.Equal(t, "Ann", records[0].Fields["Name"])
	assert.Equal(t, "Bob", records[1].Fields["Name"])

	// 4. Update one row
	err = client.Records().Update(ctx, docID, tableID, []grist.Record{
		{ID: rowIDs[2], Fields: map[string]interface{}{"Age": 28}},
	}, nil)
	require.NoError(t, err, "Failed to update record")

	// 5. Upsert keyed on email: one match updated, one row added
	err = client.Records().AddOrUpdate(ctx, docID, tableID, []grist.UpsertRecord{
		{
			Require: map[string]interface{}{"Email": "ann@example.com"},
			Fields:  map[string]interface{}{"Name": "Annabel"},
		},
		{
			Require: map[string]interface{}{"Email": "dan@example.com"},
			Fields:  map[string]interface{}{"Name": "Dan", "Age": 50},
		},
	}, nil)
	require.NoError(t, err, "Failed to upsert records")

	// 6. Filtered read sees the upserted value
	records, err = client.Records().List(ctx, docID, tableID,
		grist.NewListOptions().WithFilter("Email", "ann@example.com"))
	require.NoError(t, err, "Failed to list filtered records")
	require.Len(t, records, 1)
	assert.Equal(t, "Annabel", records[0].Fields["Name"])

	// 7. SQL sees all four rows
	result, err := client.SQL().Query(ctx, docID, "select count(*) as total from Contacts")
	require.NoError(t, err, "Failed to run SQL query")
	require.Len(t, result.Records, 1)
	assert.EqualValues(t, 4, result.Records[0].Fields["total"])

	// 8. Parametrized SQL
	result, err = client.SQL().QueryWithArgs(ctx, docID,
		"select Name from Contacts where Age > ? order by Name",
		[]interface{}{30}, 1000)
	require.NoError(t, err, "Failed to run parametrized SQL query")
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Carol", result.Records[0].Fields["Name"])

	// 9. Delete the original rows
	err = client.Records().Delete(ctx, docID, tableID, rowIDs)
	require.NoError(t, err, "Failed to delete records")

	records, err = client.Records().List(ctx, docID, tableID, nil)
	require.NoError(t, err, "Failed to list remaining records")
	assert.Len(t, records, 1)
}

// TestAttachmentWorkflow_UploadDownload pushes a file into a scratch
// document and reads it back.
func TestAttachmentWorkflow_UploadDownload(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	ctx := context.Background()
	client := NewTestClient(t, config)
	docID, _ := ScratchDoc(ctx, t, client)

	content := []byte("integration test attachment payload")
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	// 1. Upload
	ids, err := client.Attachments().Upload(ctx, docID, path)
	require.NoError(t, err, "Failed to upload attachment")
	require.Len(t, ids, 1)

	// 2. Metadata round-trips
	fields, err := client.Attachments().Get(ctx, docID, ids[0])
	require.NoError(t, err, "Failed to get attachment metadata")
	assert.Equal(t, "note.txt", fields.FileName)
	assert.EqualValues(t, len(content), fields.FileSize)

	// 3. Content round-trips
	var buf bytes.Buffer
	err = client.Attachments().Download(ctx, docID, ids[0], &buf)
	require.NoError(t, err, "Failed to download attachment")
	assert.Equal(t, content, buf.Bytes())

	// 4. The listing includes it
	attachments, err := client.Attachments().List(ctx, docID, nil)
	require.NoError(t, err, "Failed to list attachments")
	assert.NotEmpty(t, attachments)
}

// TestDownloadWorkflow_Exports checks the document export formats
// against a scratch document with known content.
func TestDownloadWorkflow_Exports(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	ctx := context.Background()
	client := NewTestClient(t, config)
	docID, _ := ScratchDoc(ctx, t, client)

	tableIDs, err := client.Tables().Create(ctx, docID, []grist.TableCreate{{
		ID: "Inventory",
		Columns: []grist.Column{
			{ID: "Item", Fields: map[string]interface{}{"type": "Text", "label": "Item"}},
		},
	}})
	require.NoError(t, err, "Failed to create table")
	tableID := tableIDs[0]

	_, err = client.Records().Add(ctx, docID, tableID, []map[string]interface{}{
		{"Item": "widget"},
	}, nil)
	require.NoError(t, err, "Failed to add record")

	// 1. SQLite export carries the standard file header
	var sqlite bytes.Buffer
	err = client.Docs().DownloadSQLite(ctx, docID, &sqlite, &grist.SQLiteDownloadOptions{NoHistory: true})
	require.NoError(t, err, "Failed to download SQLite copy")
	assert.True(t, strings.HasPrefix(sqlite.String(), "SQLite format 3"),
		"SQLite download does not look like a database file")

	// 2. CSV export contains the table data
	var csv bytes.Buffer
	err = client.Docs().DownloadCSV(ctx, docID, tableID, &csv, nil)
	require.NoError(t, err, "Failed to download CSV export")
	assert.Contains(t, csv.String(), "Item")
	assert.Contains(t, csv.String(), "widget")
}

// TestErrorScenarios verifies both error styles against a live server:
// raised status errors, and suppressed errors left on the transaction
// record.
func TestErrorScenarios(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	ctx := context.Background()

	// 1. Raising client turns a refusal into a typed error
	client := NewTestClient(t, config)
	_, err := client.Docs().Get(ctx, "no-such-document-xyz")
	require.Error(t, err, "Expected an error for a missing document")
	var statusErr *grist.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)

	// 2. Suppressed client swallows the refusal but keeps the evidence
	quiet := NewSuppressedClient(t, config)
	_, err = quiet.Docs().Get(ctx, "no-such-document-xyz")
	require.NoError(t, err, "Suppressed client should not raise on refusals")
	rec := quiet.Record()
	assert.True(t, rec.HasResponse())
	assert.Equal(t, 404, rec.StatusCode)
	LogTransaction(t, config, quiet)
}

// TestRawAccessWorkflow calls an endpoint through the raw interface
// and checks it agrees with the typed client.
func TestRawAccessWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	ctx := context.Background()
	client := NewTestClient(t, config)

	var raw []grist.Org
	status, err := client.Call(ctx, "GET", "/orgs", nil, nil, &raw)
	require.NoError(t, err, "Failed to call /orgs directly")
	assert.Equal(t, 200, status)
	require.NotEmpty(t, raw)

	typed, err := client.Orgs().List(ctx)
	require.NoError(t, err, "Failed to list organizations")
	require.Len(t, typed, len(raw))
	assert.Equal(t, typed[0].ID, raw[0].ID)
}
