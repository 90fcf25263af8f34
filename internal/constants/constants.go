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
	// DefaultRequestTimeout bounds a single HTTP attempt.
	DefaultRequestTimeout = 30 * time.Second

	// TokenRequestTimeout bounds OAuth2 token requests.
	TokenRequestTimeout = 10 * time.Second
)

// Retry defaults.
const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the fixed delay between attempts.
	DefaultRetryDelay = 1 * time.Second
)

// DefaultRetryableStatusCodes returns the statuses retried by default.
func DefaultRetryableStatusCodes() []int {
	return []int{408, 429, 500, 502, 503, 504}
}

// HTTP headers and media types.
const (
	// MediaType is the JSON:API media type.
	MediaType = "application/vnd.api+json"

	// DefaultUserAgent is sent when the config has no UserAgent.
	DefaultUserAgent = "jsonapi-client/1.0.0"

	// MaxLoggedBodyBytes caps response bodies written to debug logs.
	MaxLoggedBodyBytes = 2048
)

// Value formatting.
const (
	// FilterDateTimeLayout renders time values inside filter expressions.
	FilterDateTimeLayout = "2006-01-02 15:04:05"
)

// CLI output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// JSONIndent is the indent used by JSON output.
const JSONIndent = "  "
