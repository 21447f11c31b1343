package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ExtendedHTTPTimeout is used for downloads and other longer operations.
	ExtendedHTTPTimeout = 120 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. One call maps to one wire transaction, so retries are
// off unless explicitly configured.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Transaction record limits.
const (
	// MaxSavedResponse is the default cap, in bytes, on the response
	// body kept in the transaction record.
	MaxSavedResponse = 5000

	// InspectMaxContent is the default cap on body text rendered by
	// record inspection.
	InspectMaxContent = 1000
)

// Download and upload behavior.
const (
	// DownloadChunkSize is the copy buffer size for streamed downloads.
	DownloadChunkSize = 102400

	// UploadFieldName is the multipart form field Grist expects for
	// attachment uploads.
	UploadFieldName = "upload"
)

// Org addressing.
const (
	// CurrentOrg is the path identifier for the org owning the API key,
	// used whenever no team site is given.
	CurrentOrg = "current"
)

// SCIM pagination.
const (
	// DefaultSCIMStartIndex is the 1-based index of the first user.
	DefaultSCIMStartIndex = 1

	// DefaultSCIMCount is the default page size for user listings.
	DefaultSCIMCount = 10
)

// SQL query behavior.
const (
	// DefaultSQLTimeoutMs is the statement timeout, in milliseconds,
	// sent with parameterized queries.
	DefaultSQLTimeoutMs = 1000
)

// Synthesized status codes for transport failures, in the style of the
// Cloudflare 52x range. The CLI maps these to exit code 3.
const (
	// StatusTransportUnknown is reported when the failure cause cannot
	// be classified.
	StatusTransportUnknown = 520

	// StatusConnectionRefused is reported when the server refused the
	// TCP connection.
	StatusConnectionRefused = 521

	// StatusTimeout is reported when the call exceeded its deadline.
	StatusTimeout = 522

	// StatusUnreachable is reported for DNS failures and unreachable
	// hosts.
	StatusUnreachable = 523
)

// Dry-run synthesized response.
const (
	// DryRunStatusCode is the status recorded for a faked call.
	DryRunStatusCode = 418

	// DryRunBody is the fixed body recorded for a faked call.
	DryRunBody = `{"warning": "dry run, request not sent"}`
)

// CLI exit codes.
const (
	// ExitOK means the command succeeded.
	ExitOK = 0

	// ExitInternal means the tool itself failed.
	ExitInternal = 1

	// ExitUsage means the invocation was malformed.
	ExitUsage = 2

	// ExitBadCall means the API call failed, either with a bad status
	// or with a transport failure remapped to a 52x status.
	ExitBadCall = 3
)

// Cache size and lifetime defaults.
const (
	// DefaultCacheSize is the default cache entry limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024
)

// Interceptor-level retry defaults, used when a retry policy is wanted
// on top of the transport.
const (
	// LowRetryMax is a conservative retry count.
	LowRetryMax = 3

	// ExtendedRetryWaitMax caps interceptor retry backoff.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Circuit breaker defaults.
const (
	// CircuitBreakerThreshold is the failure count that opens the circuit.
	CircuitBreakerThreshold = 5

	// CircuitBreakerTimeout is how long an open circuit waits before
	// allowing a probe.
	CircuitBreakerTimeout = 30 * time.Second

	// CircuitBreakerSuccessThreshold is the probe successes needed to
	// close the circuit again.
	CircuitBreakerSuccessThreshold = 2

	// StatusOpen marks a circuit rejecting calls.
	StatusOpen = "open"

	// StatusHalfOpen marks a circuit probing for recovery.
	StatusHalfOpen = "half-open"
)

// Display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// KeyObfuscationEdge is how many characters of the API key are
	// shown at each end of the obfuscated form.
	KeyObfuscationEdge = 2

	// KeyObfuscationMin is the key length below which obfuscation is
	// pointless and the key is shown as-is.
	KeyObfuscationMin = 5

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Boolean string constants as Grist config encodes them.
const (
	// ConfigYes is the affirmative config value.
	ConfigYes = "Y"

	// ConfigNo is the negative config value.
	ConfigNo = "N"
)

// Key-value parsing.
const (
	// KeyValueSplitParts is the number of parts when splitting
	// key=value or column:value strings.
	KeyValueSplitParts = 2

	// ColumnDeclParts is the number of parts in an id:type:label
	// column declaration.
	ColumnDeclParts = 3
)
