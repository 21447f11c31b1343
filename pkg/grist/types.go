package grist

import (
	"encoding/json"
	"io"
	"time"
)

// Org represents a Grist organization (team site).
type Org struct {
	ID        int       `json:"id"                  yaml:"id"`
	Name      string    `json:"name"                yaml:"name"`
	Domain    string    `json:"domain"              yaml:"domain"`
	Owner     *OrgOwner `json:"owner,omitempty"     yaml:"owner,omitempty"`
	Access    string    `json:"access,omitempty"    yaml:"access,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// OrgOwner identifies the user owning an organization.
type OrgOwner struct {
	ID      int    `json:"id"                yaml:"id"`
	Name    string `json:"name"              yaml:"name"`
	Picture string `json:"picture,omitempty" yaml:"picture,omitempty"`
}

// Workspace represents a workspace within an organization.
type Workspace struct {
	ID        int             `json:"id"                  yaml:"id"`
	Name      string          `json:"name"                yaml:"name"`
	Access    string          `json:"access,omitempty"    yaml:"access,omitempty"`
	OrgDomain string          `json:"orgDomain,omitempty" yaml:"orgDomain,omitempty"`
	Owner     *WorkspaceOwner `json:"owner,omitempty"     yaml:"owner,omitempty"`
	Docs      []Doc           `json:"docs,omitempty"      yaml:"docs,omitempty"`
	Org       *Org            `json:"org,omitempty"       yaml:"org,omitempty"`
}

// WorkspaceOwner identifies the user owning a workspace.
type WorkspaceOwner struct {
	ID    int    `json:"id"              yaml:"id"`
	Name  string `json:"name"            yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Doc represents a document.
type Doc struct {
	ID        string     `json:"id"                  yaml:"id"`
	Name      string     `json:"name"                yaml:"name"`
	Access    string     `json:"access,omitempty"    yaml:"access,omitempty"`
	IsPinned  bool       `json:"isPinned"            yaml:"isPinned"`
	URLID     string     `json:"urlId,omitempty"     yaml:"urlId,omitempty"`
	Workspace *Workspace `json:"workspace,omitempty" yaml:"workspace,omitempty"`
}

// DocCreate is the payload for creating or renaming a document.
type DocCreate struct {
	Name     string `json:"name,omitempty"     yaml:"name,omitempty"`
	IsPinned bool   `json:"isPinned,omitempty" yaml:"isPinned,omitempty"`
}

// DocUpdate is the partial shape for modifying a document. Nil fields
// are left untouched.
type DocUpdate struct {
	Name     *string `json:"name,omitempty"     yaml:"name,omitempty"`
	IsPinned *bool   `json:"isPinned,omitempty" yaml:"isPinned,omitempty"`
}

// SQLiteDownloadOptions tunes document downloads.
type SQLiteDownloadOptions struct {
	// NoHistory strips the action history from the downloaded copy.
	NoHistory bool
	// Template drops all data, keeping structure only.
	Template bool
}

// Export header modes for tabular downloads.
const (
	HeaderLabel = "label"
	HeaderColID = "colId"
)

// ExportOptions tunes tabular exports. An empty Header means labels.
type ExportOptions struct {
	Header string
}

// Access levels used in sharing payloads.
const (
	AccessOwners  = "owners"
	AccessEditors = "editors"
	AccessViewers = "viewers"
	AccessMembers = "members"
)

// ShareUser describes one collaborator as reported by the access
// endpoints.
type ShareUser struct {
	ID           int    `json:"id"                     yaml:"id"`
	Name         string `json:"name"                   yaml:"name"`
	Email        string `json:"email"                  yaml:"email"`
	Access       string `json:"access"                 yaml:"access"`
	ParentAccess string `json:"parentAccess,omitempty" yaml:"parentAccess,omitempty"`
	IsMember     bool   `json:"isMember,omitempty"     yaml:"isMember,omitempty"`
}

// ShareList is the response of the access-listing endpoints. The
// maxInheritedRole field only appears for workspaces and documents.
type ShareList struct {
	MaxInheritedRole string      `json:"maxInheritedRole,omitempty" yaml:"maxInheritedRole,omitempty"`
	Users            []ShareUser `json:"users"                      yaml:"users"`
}

// PermissionDelta updates collaborator access. A nil role removes the
// user, which the wire encodes as an explicit null.
type PermissionDelta struct {
	Users            map[string]*string `json:"users,omitempty"            yaml:"users,omitempty"`
	MaxInheritedRole *string            `json:"maxInheritedRole,omitempty" yaml:"maxInheritedRole,omitempty"`
}

// Table represents a table. Fields carries the raw metadata Grist
// reports (primaryViewId, onDemand, ...), which is schema-free.
type Table struct {
	ID     string                 `json:"id"     yaml:"id"`
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

// TableCreate is the payload shape for creating tables: each entry
// declares an id and its columns.
type TableCreate struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Columns []Column `json:"columns"      yaml:"columns"`
}

// TableUpdate modifies table metadata by id.
type TableUpdate struct {
	ID     string                 `json:"id"     yaml:"id"`
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

// Column represents a column. Fields follows Grist's column metadata
// (type, label, formula, widgetOptions, ...).
type Column struct {
	ID     string                 `json:"id"     yaml:"id"`
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

// Record represents one row. Fields maps column ids to cell values.
type Record struct {
	ID     int                    `json:"id"     yaml:"id"`
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

// RecordID is the reduced row shape returned by record creation.
type RecordID struct {
	ID int `json:"id" yaml:"id"`
}

// UpsertRecord addresses rows by matching Require cells instead of an
// id. Rows matching Require get Fields applied; with no match a new
// row is created from both.
type UpsertRecord struct {
	Require map[string]interface{} `json:"require"          yaml:"require"`
	Fields  map[string]interface{} `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// OnMany values select which matching rows an upsert updates.
const (
	OnManyFirst = "first"
	OnManyNone  = "none"
	OnManyAll   = "all"
)

// RecordWriteOptions tunes record creation and modification.
type RecordWriteOptions struct {
	// NoParse disables server-side parsing of cell values into column
	// types.
	NoParse bool
}

// UpsertOptions tunes add-or-update calls.
type UpsertOptions struct {
	NoParse           bool
	NoAdd             bool
	NoUpdate          bool
	AllowEmptyRequire bool
	// OnMany defaults to updating the first matching row.
	OnMany string
}

// ColumnUpsertOptions tunes column add-or-update calls.
type ColumnUpsertOptions struct {
	NoAdd      bool
	NoUpdate   bool
	ReplaceAll bool
}

// Attachment represents attachment metadata.
type Attachment struct {
	ID     int              `json:"id"     yaml:"id"`
	Fields AttachmentFields `json:"fields" yaml:"fields"`
}

// AttachmentFields is the metadata Grist stores per attachment.
type AttachmentFields struct {
	FileName     string `json:"fileName"     yaml:"fileName"`
	FileSize     int64  `json:"fileSize"     yaml:"fileSize"`
	TimeUploaded string `json:"timeUploaded" yaml:"timeUploaded"`
}

// UploadFile is one part of a multipart attachment upload.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// Archive formats accepted by the attachment backup endpoint.
const (
	ArchiveTar = "tar"
	ArchiveZip = "zip"
)

// Attachment store kinds.
const (
	StoreInternal = "internal"
	StoreExternal = "external"
)

// AttachmentStore reports where attachment payloads live.
type AttachmentStore struct {
	Type string `json:"type" yaml:"type"`
}

// TransferStatus reports the progress of moving attachments between
// stores.
type TransferStatus struct {
	Status struct {
		PendingTransferCount int  `json:"pendingTransferCount" yaml:"pendingTransferCount"`
		IsRunning            bool `json:"isRunning"            yaml:"isRunning"`
	} `json:"status" yaml:"status"`
	LocationSummary string `json:"locationSummary,omitempty" yaml:"locationSummary,omitempty"`
}

// Webhook represents a configured webhook.
type Webhook struct {
	ID     string                 `json:"id"              yaml:"id"`
	Fields WebhookFields          `json:"fields"          yaml:"fields"`
	Usage  map[string]interface{} `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// WebhookFields is the configurable part of a webhook.
type WebhookFields struct {
	Name           string   `json:"name"                     yaml:"name"`
	Memo           string   `json:"memo"                     yaml:"memo"`
	URL            string   `json:"url"                      yaml:"url"`
	Enabled        bool     `json:"enabled"                  yaml:"enabled"`
	EventTypes     []string `json:"eventTypes"               yaml:"eventTypes"`
	IsReadyColumn  *string  `json:"isReadyColumn"            yaml:"isReadyColumn"`
	TableID        string   `json:"tableId"                  yaml:"tableId"`
	UnsubscribeKey string   `json:"unsubscribeKey,omitempty" yaml:"unsubscribeKey,omitempty"`
}

// WebhookUpdate is the partial shape for patching a webhook. Nil
// fields are left untouched.
type WebhookUpdate struct {
	Name          *string   `json:"name,omitempty"          yaml:"name,omitempty"`
	Memo          *string   `json:"memo,omitempty"          yaml:"memo,omitempty"`
	URL           *string   `json:"url,omitempty"           yaml:"url,omitempty"`
	Enabled       *bool     `json:"enabled,omitempty"       yaml:"enabled,omitempty"`
	EventTypes    *[]string `json:"eventTypes,omitempty"    yaml:"eventTypes,omitempty"`
	IsReadyColumn *string   `json:"isReadyColumn,omitempty" yaml:"isReadyColumn,omitempty"`
	TableID       *string   `json:"tableId,omitempty"       yaml:"tableId,omitempty"`
}

// SQLResult is the response of the query endpoints.
type SQLResult struct {
	Statement string      `json:"statement,omitempty" yaml:"statement,omitempty"`
	Records   []SQLRecord `json:"records"             yaml:"records"`
}

// SQLRecord is one row of an ad hoc query result. Unlike table rows it
// has no id of its own.
type SQLRecord struct {
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

// SCIM schema URNs.
const (
	SCIMUserSchema     = "urn:ietf:params:scim:schemas:core:2.0:User"
	SCIMPatchOpSchema  = "urn:ietf:params:scim:api:messages:2.0:PatchOp"
	SCIMSearchSchema   = "urn:ietf:params:scim:api:messages:2.0:SearchRequest"
	SCIMListRespSchema = "urn:ietf:params:scim:api:messages:2.0:ListResponse"
)

// SCIMUser represents a user account as exposed by the SCIM endpoints.
type SCIMUser struct {
	Schemas           []string     `json:"schemas,omitempty"           yaml:"schemas,omitempty"`
	ID                string       `json:"id,omitempty"                yaml:"id,omitempty"`
	UserName          string       `json:"userName"                    yaml:"userName"`
	Name              *SCIMName    `json:"name,omitempty"              yaml:"name,omitempty"`
	DisplayName       string       `json:"displayName,omitempty"       yaml:"displayName,omitempty"`
	PreferredLanguage string       `json:"preferredLanguage,omitempty" yaml:"preferredLanguage,omitempty"`
	Locale            string       `json:"locale,omitempty"            yaml:"locale,omitempty"`
	Emails            []SCIMEmail  `json:"emails,omitempty"            yaml:"emails,omitempty"`
	Photos            []SCIMPhoto  `json:"photos,omitempty"            yaml:"photos,omitempty"`
	Meta              *SCIMMeta    `json:"meta,omitempty"              yaml:"meta,omitempty"`
}

// SCIMName holds the structured name parts.
type SCIMName struct {
	Formatted string `json:"formatted,omitempty" yaml:"formatted,omitempty"`
}

// SCIMEmail is one email address entry.
type SCIMEmail struct {
	Value   string `json:"value"             yaml:"value"`
	Primary bool   `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// SCIMPhoto is one photo entry.
type SCIMPhoto struct {
	Value string `json:"value"          yaml:"value"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

// SCIMMeta is the bookkeeping block SCIM attaches to resources.
type SCIMMeta struct {
	ResourceType string `json:"resourceType,omitempty" yaml:"resourceType,omitempty"`
	Created      string `json:"created,omitempty"      yaml:"created,omitempty"`
	Location     string `json:"location,omitempty"     yaml:"location,omitempty"`
}

// SCIMListResponse is the paginated user listing envelope. Resources
// keeps SCIM's capitalized wire name.
type SCIMListResponse struct {
	Schemas      []string   `json:"schemas,omitempty" yaml:"schemas,omitempty"`
	TotalResults int        `json:"totalResults"      yaml:"totalResults"`
	StartIndex   int        `json:"startIndex"        yaml:"startIndex"`
	ItemsPerPage int        `json:"itemsPerPage"      yaml:"itemsPerPage"`
	Resources    []SCIMUser `json:"Resources"         yaml:"resources"`
}

// SCIMPatchOp is one update operation.
type SCIMPatchOp struct {
	Op    string      `json:"op"              yaml:"op"`
	Path  string      `json:"path,omitempty"  yaml:"path,omitempty"`
	Value interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

// SCIMSearchRequest is the body of POST .search.
type SCIMSearchRequest struct {
	Schemas    []string `json:"schemas"              yaml:"schemas"`
	Filter     string   `json:"filter,omitempty"     yaml:"filter,omitempty"`
	StartIndex int      `json:"startIndex,omitempty" yaml:"startIndex,omitempty"`
	Count      int      `json:"count,omitempty"      yaml:"count,omitempty"`
	Attributes []string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// RawJSON re-encodes a decoded payload without HTML escaping, for
// verbatim display.
func RawJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(data)
}
