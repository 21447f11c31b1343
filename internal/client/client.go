package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gridworks-io/grist/internal/auth"
	"github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// Client implements the grist.Client interface.
type Client struct {
	httpClient    *http.Client
	configurator  *grist.Configurator
	inConverters  grist.ConverterMap
	outConverters grist.ConverterMap

	// Resource clients
	orgs        grist.OrgsClient
	workspaces  grist.WorkspacesClient
	docs        grist.DocsClient
	tables      grist.TablesClient
	columns     grist.ColumnsClient
	records     grist.RecordsClient
	attachments grist.AttachmentsClient
	webhooks    grist.WebhooksClient
	sql         grist.SQLClient
	users       grist.UsersClient
}

// buildOverrides maps the convenience fields of a grist.Config onto
// configuration keys. Explicit entries in config.Overrides win over the
// convenience fields.
func buildOverrides(config *grist.Config) map[string]string {
	overrides := make(map[string]string)

	if config.APIKey != "" {
		overrides[grist.KeyAPIKey] = config.APIKey
	}

	if config.TeamSite != "" {
		overrides[grist.KeyTeamSite] = config.TeamSite
	}

	if config.SelfManagedHome != "" {
		overrides[grist.KeySelfManaged] = "Y"
		overrides[grist.KeySelfManagedHome] = config.SelfManagedHome
	}

	if config.WorkspaceID != "" {
		overrides[grist.KeyWorkspaceID] = config.WorkspaceID
	}

	if config.DocID != "" {
		overrides[grist.KeyDocID] = config.DocID
	}

	if config.SuppressErrors {
		overrides[grist.KeyRaiseError] = "N"
	}

	if config.SafeMode {
		overrides[grist.KeySafeMode] = "Y"
	}

	for key, value := range config.Overrides {
		overrides[key] = value
	}

	return overrides
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *grist.Config) []http.Option {
	var httpOptions []http.Option

	if config.Logger != nil {
		httpOptions = append(httpOptions, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOptions = append(httpOptions, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOptions = append(httpOptions, http.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 {
		httpOptions = append(httpOptions, http.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	if config.HTTPTimeout > 0 {
		httpOptions = append(httpOptions, http.WithTimeout(config.HTTPTimeout))
	}

	if config.SaveBinary {
		httpOptions = append(httpOptions, http.WithSaveBinary(true))
	}

	if config.Interceptors != nil {
		httpOptions = append(httpOptions, http.WithInterceptors(config.Interceptors))
	}

	return httpOptions
}

// New creates a new Grist API client from config.
func New(config *grist.Config) (*Client, error) {
	if config == nil {
		config = &grist.Config{}
	}

	var configOpts []grist.ConfiguratorOption
	if config.ConfigFile != "" {
		configOpts = append(configOpts, grist.WithConfigFile(config.ConfigFile))
	}

	configurator, err := grist.NewConfigurator(buildOverrides(config), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("resolving configuration: %w", err)
	}

	client := NewWithConfigurator(configurator, createHTTPClientOptions(config)...)
	if config.DryRun {
		client.SetDryRun(true)
	}

	return client, nil
}

// NewWithConfigurator creates a client around an already resolved
// configurator. The CLI uses this path to install its own defaults and
// forced values before the client exists.
func NewWithConfigurator(configurator *grist.Configurator, opts ...http.Option) *Client {
	tokenManager := auth.NewConfigTokenManager(configurator)

	client := &Client{
		httpClient:    http.NewClient(configurator, tokenManager, opts...),
		configurator:  configurator,
		inConverters:  make(grist.ConverterMap),
		outConverters: make(grist.ConverterMap),
	}

	client.initializeResourceClients()

	return client
}

// initializeResourceClients creates all resource-specific clients.
func (c *Client) initializeResourceClients() {
	c.orgs = NewOrgsClient(c.httpClient)
	c.workspaces = NewWorkspacesClient(c.httpClient)
	c.docs = NewDocsClient(c.httpClient)
	c.tables = NewTablesClient(c.httpClient)
	c.columns = NewColumnsClient(c.httpClient)
	c.records = NewRecordsClient(c.httpClient, c.inConverters, c.outConverters)
	c.attachments = NewAttachmentsClient(c.httpClient)
	c.webhooks = NewWebhooksClient(c.httpClient)
	c.sql = NewSQLClient(c.httpClient, c.inConverters)
	c.users = NewUsersClient(c.httpClient)
}

// Orgs implements grist.Client.Orgs.
func (c *Client) Orgs() grist.OrgsClient {
	return c.orgs
}

// Workspaces implements grist.Client.Workspaces.
func (c *Client) Workspaces() grist.WorkspacesClient {
	return c.workspaces
}

// Docs implements grist.Client.Docs.
func (c *Client) Docs() grist.DocsClient {
	return c.docs
}

// Tables implements grist.Client.Tables.
func (c *Client) Tables() grist.TablesClient {
	return c.tables
}

// Columns implements grist.Client.Columns.
func (c *Client) Columns() grist.ColumnsClient {
	return c.columns
}

// Records implements grist.Client.Records.
func (c *Client) Records() grist.RecordsClient {
	return c.records
}

// Attachments implements grist.Client.Attachments.
func (c *Client) Attachments() grist.AttachmentsClient {
	return c.attachments
}

// Webhooks implements grist.Client.Webhooks.
func (c *Client) Webhooks() grist.WebhooksClient {
	return c.webhooks
}

// SQL implements grist.Client.SQL.
func (c *Client) SQL() grist.SQLClient {
	return c.sql
}

// Users implements grist.Client.Users.
func (c *Client) Users() grist.UsersClient {
	return c.users
}

// Call implements grist.Client.Call. It issues a request against an
// arbitrary API path and decodes the response into result when given.
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body, result interface{}) (int, error) {
	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		if resp != nil {
			return resp.StatusCode, err
		}

		return 0, err
	}

	if result != nil {
		if decodeErr := decodeJSON(resp, result); decodeErr != nil {
			return resp.StatusCode, fmt.Errorf("parsing response: %w", decodeErr)
		}
	}

	return resp.StatusCode, nil
}

// Record implements grist.Client.Record.
func (c *Client) Record() *grist.TransactionRecord {
	return c.httpClient.Record()
}

// Inspect implements grist.Client.Inspect.
func (c *Client) Inspect() string {
	return c.httpClient.Inspect()
}

// Calls implements grist.Client.Calls.
func (c *Client) Calls() int {
	return c.httpClient.Calls()
}

// SetDryRun implements grist.Client.SetDryRun.
func (c *Client) SetDryRun(enabled bool) {
	c.httpClient.SetDryRun(enabled)
}

// Configurator implements grist.Client.Configurator.
func (c *Client) Configurator() *grist.Configurator {
	return c.configurator
}

// Reconfig implements grist.Client.Reconfig. The whole configuration is
// resolved again from scratch with the given overrides.
func (c *Client) Reconfig(overrides map[string]string) error {
	if _, err := c.configurator.Rebuild(overrides); err != nil {
		return fmt.Errorf("rebuilding configuration: %w", err)
	}

	return nil
}

// UpdateConfig implements grist.Client.UpdateConfig. Only the given keys
// change; the rest of the configuration stays as resolved.
func (c *Client) UpdateConfig(changes map[string]string) error {
	if _, err := c.configurator.Patch(changes); err != nil {
		return fmt.Errorf("patching configuration: %w", err)
	}

	return nil
}

// InConverters implements grist.Client.InConverters.
func (c *Client) InConverters() grist.ConverterMap {
	return c.inConverters
}

// OutConverters implements grist.Client.OutConverters.
func (c *Client) OutConverters() grist.ConverterMap {
	return c.outConverters
}

// decodeJSON unmarshals a response body into out. Error responses and
// empty bodies are skipped so callers keep their zero values when the
// server reports a failure with error raising disabled.
func decodeJSON(resp *http.Response, out interface{}) error {
	if resp == nil || resp.StatusCode >= 300 || len(resp.Body) == 0 {
		return nil
	}

	return json.Unmarshal(resp.Body, out)
}

// defaultDocID substitutes the configured document for an empty id.
func defaultDocID(httpClient *http.Client, id string) string {
	if id != "" {
		return id
	}

	return httpClient.Configurator().DocID()
}

// defaultWorkspaceID substitutes the configured workspace for a zero or
// negative id.
func defaultWorkspaceID(httpClient *http.Client, id int) int {
	if id > 0 {
		return id
	}

	return httpClient.Configurator().WorkspaceID()
}
