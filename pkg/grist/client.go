package grist

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"time"
)

// SiteClients provides access to organization-level resource clients.
type SiteClients interface {
	Orgs() OrgsClient
	Workspaces() WorkspacesClient
	Docs() DocsClient
}

// DataClients provides access to in-document data clients.
type DataClients interface {
	Tables() TablesClient
	Columns() ColumnsClient
	Records() RecordsClient
	Attachments() AttachmentsClient
}

// AutomationClients provides access to change notification and query
// clients.
type AutomationClients interface {
	Webhooks() WebhooksClient
	SQL() SQLClient
}

// IdentityClients provides access to user administration clients.
type IdentityClients interface {
	Users() UsersClient
}

// ResourceClients provides access to all resource-specific clients.
type ResourceClients interface {
	// Composite interfaces for resource groups
	SiteClients
	DataClients
	AutomationClients
	IdentityClients
}

// SessionClient exposes the bookkeeping of the underlying engine: the
// last transaction, live configuration, converters and the dry run
// switch.
type SessionClient interface {
	// Record returns the transaction record of the most recent call.
	// The same record is reused across calls.
	Record() *TransactionRecord
	// Inspect renders the last transaction for debugging. Secrets are
	// obfuscated.
	Inspect() string
	// Calls reports how many calls this client has issued, counting
	// faked ones.
	Calls() int
	// SetDryRun makes subsequent calls stop short of the wire.
	SetDryRun(on bool)
	// Configurator returns the live configuration engine.
	Configurator() *Configurator
	// Reconfig rebuilds the configuration from scratch with the given
	// overrides, discarding earlier ones.
	Reconfig(overrides map[string]string) error
	// UpdateConfig layers more overrides on top of the current ones.
	UpdateConfig(overrides map[string]string) error
	// InConverters is the registry applied to received cells.
	InConverters() ConverterMap
	// OutConverters is the registry applied to cells about to be sent.
	OutConverters() ConverterMap
}

// RawClient sends custom calls for endpoints without a typed client.
type RawClient interface {
	// Call issues method on path relative to the configured API root,
	// decoding the response into result when it is non-nil. It returns
	// the HTTP status code.
	Call(ctx context.Context, method, path string, query url.Values, body, result interface{}) (int, error)
}

type Client interface {
	// Composite interfaces for related resource groups
	ResourceClients
	SessionClient
	RawClient
}

// OrgsClient works with team sites. An empty teamID addresses the
// configured one.
type OrgsClient interface {
	List(ctx context.Context) ([]Org, error)
	Get(ctx context.Context, teamID string) (*Org, error)
	Update(ctx context.Context, teamID, name string) error
	Delete(ctx context.Context, teamID string) error
	ListUsers(ctx context.Context, teamID string) (*ShareList, error)
	UpdateUsers(ctx context.Context, teamID string, delta PermissionDelta) error
}

// WorkspacesClient works with workspaces. A zero workspaceID addresses
// the configured one.
type WorkspacesClient interface {
	List(ctx context.Context, teamID string) ([]Workspace, error)
	Create(ctx context.Context, name, teamID string) (int, error)
	Get(ctx context.Context, workspaceID int) (*Workspace, error)
	Update(ctx context.Context, workspaceID int, name string) error
	Delete(ctx context.Context, workspaceID int) error
	ListUsers(ctx context.Context, workspaceID int) (*ShareList, error)
	UpdateUsers(ctx context.Context, workspaceID int, delta PermissionDelta) error
}

// DocsClient works with documents. An empty docID addresses the
// configured one.
type DocsClient interface {
	Create(ctx context.Context, name string, workspaceID int, pinned bool) (string, error)
	Get(ctx context.Context, docID string) (*Doc, error)
	Update(ctx context.Context, docID string, update DocUpdate) error
	Move(ctx context.Context, docID string, workspaceID int) error
	Delete(ctx context.Context, docID string) error
	DeleteHistory(ctx context.Context, docID string, keep int) error
	ForceReload(ctx context.Context, docID string) error
	DownloadSQLite(ctx context.Context, docID string, dst io.Writer, opts *SQLiteDownloadOptions) error
	DownloadExcel(ctx context.Context, docID, tableID string, dst io.Writer, opts *ExportOptions) error
	DownloadCSV(ctx context.Context, docID, tableID string, dst io.Writer, opts *ExportOptions) error
	DownloadTableSchema(ctx context.Context, docID, tableID string, opts *ExportOptions) (map[string]interface{}, error)
	ListUsers(ctx context.Context, docID string) (*ShareList, error)
	UpdateUsers(ctx context.Context, docID string, delta PermissionDelta) error
}

// TablesClient works with the tables of a document. An empty docID
// addresses the configured document, here and in the other
// document-scoped clients below.
type TablesClient interface {
	List(ctx context.Context, docID string) ([]Table, error)
	Create(ctx context.Context, docID string, tables []TableCreate) ([]string, error)
	Update(ctx context.Context, docID string, tables []TableUpdate) error
}

// ColumnsClient works with the columns of a table.
type ColumnsClient interface {
	List(ctx context.Context, docID, tableID string, hidden bool) ([]Column, error)
	Create(ctx context.Context, docID, tableID string, columns []Column) ([]string, error)
	Update(ctx context.Context, docID, tableID string, columns []Column) error
	AddOrUpdate(ctx context.Context, docID, tableID string, columns []Column, opts *ColumnUpsertOptions) error
	Delete(ctx context.Context, docID, tableID, columnID string) error
}

// RecordsClient works with table rows. Registered converters are
// applied on the way in and out.
type RecordsClient interface {
	List(ctx context.Context, docID, tableID string, opts *ListOptions) ([]Record, error)
	Add(ctx context.Context, docID, tableID string, fieldsets []map[string]interface{}, opts *RecordWriteOptions) ([]int, error)
	Update(ctx context.Context, docID, tableID string, records []Record, opts *RecordWriteOptions) error
	AddOrUpdate(ctx context.Context, docID, tableID string, records []UpsertRecord, opts *UpsertOptions) error
	Delete(ctx context.Context, docID, tableID string, recordIDs []int) error
}

// AttachmentsClient works with file attachments of a document.
type AttachmentsClient interface {
	List(ctx context.Context, docID string, opts *ListOptions) ([]Attachment, error)
	Get(ctx context.Context, docID string, attachmentID int) (*AttachmentFields, error)
	Upload(ctx context.Context, docID string, paths ...string) ([]int, error)
	UploadStream(ctx context.Context, docID string, files ...UploadFile) ([]int, error)
	Download(ctx context.Context, docID string, attachmentID int, dst io.Writer) error
	DownloadAll(ctx context.Context, docID string, dst io.Writer, format string) error
	RestoreAll(ctx context.Context, docID string, archive io.Reader) error
	Store(ctx context.Context, docID string) (*AttachmentStore, error)
	SetStore(ctx context.Context, docID, storeType string) error
	StoreSettings(ctx context.Context, docID string) (map[string]interface{}, error)
	TransferAll(ctx context.Context, docID string) (*TransferStatus, error)
	TransferStatus(ctx context.Context, docID string) (*TransferStatus, error)
}

// WebhooksClient works with document webhooks.
type WebhooksClient interface {
	List(ctx context.Context, docID string) ([]Webhook, error)
	Create(ctx context.Context, docID string, webhooks []WebhookFields) ([]string, error)
	Update(ctx context.Context, docID, webhookID string, update WebhookUpdate) error
	Delete(ctx context.Context, docID, webhookID string) error
	EmptyQueue(ctx context.Context, docID string) error
}

// SQLClient runs read-only queries against a document.
type SQLClient interface {
	Query(ctx context.Context, docID, statement string) (*SQLResult, error)
	QueryWithArgs(ctx context.Context, docID, statement string, args []interface{}, timeoutMs int) (*SQLResult, error)
}

// UsersClient administers accounts through the SCIM endpoints, which
// must be enabled on the server.
type UsersClient interface {
	Me(ctx context.Context) (*SCIMUser, error)
	Get(ctx context.Context, userID int) (*SCIMUser, error)
	List(ctx context.Context, startIndex, count int) (*SCIMListResponse, error)
	// Iterate pages through all accounts chunk at a time.
	Iterate(chunk int) *Iterator[SCIMUser]
	Search(ctx context.Context, request *SCIMSearchRequest) (*SCIMListResponse, error)
	Create(ctx context.Context, user *SCIMUser) (int, error)
	Update(ctx context.Context, userID int, user *SCIMUser) error
	Patch(ctx context.Context, userID int, ops ...SCIMPatchOp) error
	Delete(ctx context.Context, userID int) error
	// DeleteAccount removes an account through the plain API, outside
	// SCIM. It only works with the key of the account being removed.
	DeleteAccount(ctx context.Context, userID int) error
	Schemas(ctx context.Context) (json.RawMessage, error)
	ResourceTypes(ctx context.Context) (json.RawMessage, error)
	ProviderConfig(ctx context.Context) (json.RawMessage, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config carries everything needed to build a working client. Zero
// values fall back to the layered configuration, so the usual case is
// setting nothing and relying on GRIST_* variables or the config file.
//
// # Configuration precedence
//
// Explicit fields here become in-process overrides, which beat
// environment variables, which beat the config file, which beats the
// built-in defaults. Overrides entries use the raw GRIST_* names and
// win over the convenience fields.
type Config struct {
	// APIKey is the bearer key; empty keeps the configured one.
	APIKey string
	// TeamSite selects the organization subdomain.
	TeamSite string
	// SelfManagedHome points at a self-hosted server and switches the
	// client to self-managed URLs.
	SelfManagedHome string
	// WorkspaceID and DocID set the default targets.
	WorkspaceID string
	DocID       string
	// ConfigFile replaces the default ~/.gristapi/config.json.
	ConfigFile string
	// Overrides are raw GRIST_* pairs layered over everything above.
	Overrides map[string]string

	// RaiseOnError turns bad statuses into returned errors. Defaults
	// to true; set SuppressErrors to run with it off.
	SuppressErrors bool
	// SafeMode blocks every call that could modify data.
	SafeMode bool
	// DryRun builds requests without sending them.
	DryRun bool
	// SaveBinary retains binary response payloads on the transaction
	// record.
	SaveBinary bool

	// RetryMax is the number of retries for transient failures; zero
	// sends each request once.
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// HTTPTimeout caps each attempt; per-call contexts are preferred.
	HTTPTimeout time.Duration

	// Debug enables request and response logging through Logger.
	Debug bool
	// Logger receives structured log records; nil disables logging.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Interceptors run around every real send. Caching, metrics and
	// rate limiting install themselves here.
	Interceptors *InterceptorChain
}
