package grist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Canonical configuration keys. Every layer speaks in these names:
// the JSON config file uses them as object keys and the environment
// uses them verbatim as variable names.
const (
	KeyAPIKey               = "GRIST_API_KEY"
	KeySelfManaged          = "GRIST_SELF_MANAGED"
	KeySelfManagedHome      = "GRIST_SELF_MANAGED_HOME"
	KeySelfManagedSingleOrg = "GRIST_SELF_MANAGED_SINGLE_ORG"
	KeyServerProtocol       = "GRIST_SERVER_PROTOCOL"
	KeyAPIServer            = "GRIST_API_SERVER"
	KeyAPIRoot              = "GRIST_API_ROOT"
	KeyTeamSite             = "GRIST_TEAM_SITE"
	KeyWorkspaceID          = "GRIST_WORKSPACE_ID"
	KeyDocID                = "GRIST_DOC_ID"
	KeyRaiseError           = "GRIST_RAISE_ERROR"
	KeySafeMode             = "GRIST_SAFEMODE"
)

// configKeys lists the canonical keys in display order.
var configKeys = []string{
	KeyAPIKey,
	KeySelfManaged,
	KeySelfManagedHome,
	KeySelfManagedSingleOrg,
	KeyServerProtocol,
	KeyAPIServer,
	KeyAPIRoot,
	KeyTeamSite,
	KeyWorkspaceID,
	KeyDocID,
	KeyRaiseError,
	KeySafeMode,
}

// Defaults returns the built-in configuration layer. The placeholder
// values are deliberately non-empty so that an unconfigured client
// resolves cleanly and fails at the server instead.
func Defaults() map[string]string {
	return map[string]string{
		KeyAPIKey:               "<your_api_key_here>",
		KeySelfManaged:          "N",
		KeySelfManagedHome:      "http://localhost:8484",
		KeySelfManagedSingleOrg: "Y",
		KeyServerProtocol:       "https://",
		KeyAPIServer:            "getgrist.com",
		KeyAPIRoot:              "api",
		KeyTeamSite:             "docs",
		KeyWorkspaceID:          "0",
		KeyDocID:                "<your_doc_id_here>",
		KeyRaiseError:           "Y",
		KeySafeMode:             "N",
	}
}

// DefaultConfigFile returns the path of the user-level config file,
// ~/.gristapi/config.json.
func DefaultConfigFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}

	return filepath.Join(home, ".gristapi", "config.json"), nil
}

// Configurator resolves layered configuration: built-in defaults, then
// the JSON config file, then GRIST_* environment variables, then
// in-process overrides. The resolved snapshot is a live map shared
// with whoever asked for it: Patch and Rebuild update it in place, so
// a transport holding the handle sees new values on its next call.
//
// A Configurator is not safe for concurrent mutation.
type Configurator struct {
	configFile    string
	extraFiles    []string
	extraDefaults map[string]string
	forced        map[string]string
	overrides     map[string]string
	snapshot      map[string]string
}

// ConfiguratorOption customizes a Configurator.
type ConfiguratorOption func(*Configurator)

// WithConfigFile replaces the default ~/.gristapi/config.json path.
func WithConfigFile(path string) ConfiguratorOption {
	return func(c *Configurator) {
		c.configFile = path
	}
}

// WithExtraConfigFile adds a config file layered above the main one.
// Later files win over earlier ones.
func WithExtraConfigFile(path string) ConfiguratorOption {
	return func(c *Configurator) {
		c.extraFiles = append(c.extraFiles, path)
	}
}

// WithExtraDefaults adds keys beyond the canonical set, with their
// default values. They participate in every layer and in validation.
func WithExtraDefaults(defaults map[string]string) ConfiguratorOption {
	return func(c *Configurator) {
		if c.extraDefaults == nil {
			c.extraDefaults = make(map[string]string)
		}

		for key, value := range defaults {
			c.extraDefaults[key] = value
		}
	}
}

// WithForcedValues pins keys to fixed values that no layer, including
// overrides, can displace. Forced values survive Rebuild.
func WithForcedValues(values map[string]string) ConfiguratorOption {
	return func(c *Configurator) {
		if c.forced == nil {
			c.forced = make(map[string]string)
		}

		for key, value := range values {
			c.forced[key] = value
		}
	}
}

// NewConfigurator builds a Configurator and performs the first
// resolution. A nil overrides map means no in-process overrides.
func NewConfigurator(overrides map[string]string, opts ...ConfiguratorOption) (*Configurator, error) {
	c := &Configurator{
		overrides: make(map[string]string),
		snapshot:  make(map[string]string),
	}

	for key, value := range overrides {
		c.overrides[key] = value
	}

	for _, opt := range opts {
		opt(c)
	}

	err := c.resolveInto(c.snapshot, true)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// keys returns all keys this configurator resolves, canonical first.
func (c *Configurator) keys() []string {
	all := make([]string, 0, len(configKeys)+len(c.extraDefaults))
	all = append(all, configKeys...)

	extra := make([]string, 0, len(c.extraDefaults))

	for key := range c.extraDefaults {
		if _, canonical := Defaults()[key]; !canonical {
			extra = append(extra, key)
		}
	}

	sort.Strings(extra)

	return append(all, extra...)
}

// resolveInto runs a full resolution into dst, reading files and
// environment fresh. dst is cleared first so holders of the map see
// exactly the new state.
func (c *Configurator) resolveInto(dst map[string]string, withOverrides bool) error {
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	for key, value := range c.extraDefaults {
		v.SetDefault(key, value)
	}

	path := c.configFile
	if path == "" {
		defaultPath, err := DefaultConfigFile()
		if err == nil {
			path = defaultPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")

		err := v.ReadInConfig()
		if err != nil && !missingConfigFile(err) {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	for _, extra := range c.extraFiles {
		v.SetConfigFile(extra)
		v.SetConfigType("json")

		err := v.MergeInConfig()
		if err != nil && !missingConfigFile(err) {
			return fmt.Errorf("reading config file %s: %w", extra, err)
		}
	}

	for _, key := range c.keys() {
		_ = v.BindEnv(key, key)
	}

	if withOverrides {
		for key, value := range c.overrides {
			v.Set(key, value)
		}
	}

	for key, value := range c.forced {
		v.Set(key, value)
	}

	clear(dst)

	for _, key := range c.keys() {
		dst[key] = v.GetString(key)
	}

	return validateConfig(dst)
}

// missingConfigFile reports whether a viper read failed only because
// the file is absent, which is not an error for optional layers.
func missingConfigFile(err error) bool {
	if os.IsNotExist(err) {
		return true
	}

	var notFound viper.ConfigFileNotFoundError

	return errors.As(err, &notFound)
}

// validateConfig checks the snapshot for empty values and a
// non-numeric workspace id.
func validateConfig(cfg map[string]string) error {
	var bad []string

	for _, key := range configKeys {
		if value, present := cfg[key]; present && value == "" {
			bad = append(bad, key)
		}
	}

	for key, value := range cfg {
		if _, canonical := Defaults()[key]; !canonical && value == "" {
			bad = append(bad, key)
		}
	}

	if wsID, present := cfg[KeyWorkspaceID]; present && wsID != "" {
		if _, err := strconv.Atoi(wsID); err != nil {
			bad = append(bad, KeyWorkspaceID)
		}
	}

	if len(bad) > 0 {
		sort.Strings(bad)

		return &ConfigError{Keys: bad, Config: ObfuscatedConfig(cfg)}
	}

	return nil
}

// Snapshot returns the live resolved configuration. The map is shared,
// not copied: Patch and Rebuild mutate it in place.
func (c *Configurator) Snapshot() map[string]string {
	return c.snapshot
}

// Resolve re-runs the full resolution, files and environment included,
// keeping accumulated overrides. It returns the live snapshot.
func (c *Configurator) Resolve() (map[string]string, error) {
	err := c.resolveInto(c.snapshot, true)
	if err != nil {
		return nil, err
	}

	return c.snapshot, nil
}

// Static resolves defaults, files and environment while ignoring the
// in-process overrides. The result is a fresh map; the configurator's
// own state, snapshot included, is untouched.
func (c *Configurator) Static() (map[string]string, error) {
	static := make(map[string]string)

	err := c.resolveInto(static, false)
	if err != nil {
		return nil, err
	}

	return static, nil
}

// Rebuild discards all accumulated overrides, re-reads files and
// environment, and installs the optional new override set. The live
// snapshot is updated in place.
func (c *Configurator) Rebuild(overrides map[string]string) (map[string]string, error) {
	c.overrides = make(map[string]string)

	for key, value := range overrides {
		c.overrides[key] = value
	}

	err := c.resolveInto(c.snapshot, true)
	if err != nil {
		return nil, err
	}

	return c.snapshot, nil
}

// Patch merges overrides into the accumulated set and re-resolves.
// Patching twice is the same as patching once with the merged maps,
// later values winning.
func (c *Configurator) Patch(overrides map[string]string) (map[string]string, error) {
	for key, value := range overrides {
		c.overrides[key] = value
	}

	err := c.resolveInto(c.snapshot, true)
	if err != nil {
		return nil, err
	}

	return c.snapshot, nil
}

// Get returns one resolved value.
func (c *Configurator) Get(key string) string {
	return c.snapshot[key]
}

// APIKey returns the configured bearer key.
func (c *Configurator) APIKey() string {
	return c.snapshot[KeyAPIKey]
}

// WorkspaceID returns the configured workspace id. Resolution already
// validated that it parses.
func (c *Configurator) WorkspaceID() int {
	id, _ := strconv.Atoi(c.snapshot[KeyWorkspaceID])

	return id
}

// DocID returns the configured document id.
func (c *Configurator) DocID() string {
	return c.snapshot[KeyDocID]
}

// TeamSite returns the configured team subdomain.
func (c *Configurator) TeamSite() string {
	return c.snapshot[KeyTeamSite]
}

// RaiseError reports whether bad statuses should surface as errors.
func (c *Configurator) RaiseError() bool {
	return c.snapshot[KeyRaiseError] == "Y"
}

// SafeMode reports whether mutating calls are blocked.
func (c *Configurator) SafeMode() bool {
	return c.snapshot[KeySafeMode] == "Y"
}

// Server assembles the API base URL for a team site, empty meaning the
// configured one: {protocol}{team}.{server}/{api_root} against SaaS,
// or the self-managed home, plus /o/{team} for multi-org installs.
func (c *Configurator) Server(teamID string) string {
	cfg := c.snapshot

	team := teamID
	if team == "" {
		team = cfg[KeyTeamSite]
	}

	var server string

	if cfg[KeySelfManaged] == "Y" {
		server = strings.TrimSuffix(cfg[KeySelfManagedHome], "/")
		if cfg[KeySelfManagedSingleOrg] != "Y" {
			server += "/o/" + team
		}
	} else {
		server = fmt.Sprintf("%s%s.%s", cfg[KeyServerProtocol], team, cfg[KeyAPIServer])
	}

	return server + "/" + cfg[KeyAPIRoot]
}

// ObfuscateKey renders an API key for display: short keys as-is,
// anything else as first two characters, the hidden length, and the
// last two, e.g. ab<8>yz.
func ObfuscateKey(apiKey string) string {
	if len(apiKey) < 5 {
		return apiKey
	}

	return fmt.Sprintf("%s<%d>%s", apiKey[:2], len(apiKey)-4, apiKey[len(apiKey)-2:])
}

// ObfuscatedConfig copies a snapshot with the API key obfuscated,
// ready for logs and error text.
func ObfuscatedConfig(cfg map[string]string) map[string]string {
	out := make(map[string]string, len(cfg))

	for key, value := range cfg {
		if key == KeyAPIKey {
			value = ObfuscateKey(value)
		}

		out[key] = value
	}

	return out
}

// DumpConfig renders a snapshot for display, keys in canonical order,
// API key obfuscated.
func DumpConfig(cfg map[string]string, multiline bool) string {
	obfuscated := ObfuscatedConfig(cfg)

	known := make(map[string]bool, len(configKeys))
	lines := make([]string, 0, len(obfuscated))

	for _, key := range configKeys {
		if value, present := obfuscated[key]; present {
			lines = append(lines, fmt.Sprintf("%s: %s", key, value))
			known[key] = true
		}
	}

	extra := make([]string, 0, len(obfuscated))

	for key := range obfuscated {
		if !known[key] {
			extra = append(extra, key)
		}
	}

	sort.Strings(extra)

	for _, key := range extra {
		lines = append(lines, fmt.Sprintf("%s: %s", key, obfuscated[key]))
	}

	sep := ", "
	if multiline {
		sep = "\n"
	}

	return strings.Join(lines, sep)
}
