package jsonapi

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ChannelConfig configures one transport channel. Resources select their
// channel by id through ResourceDef.Channel.
//
// # Authentication precedence
//
//  1. AccessToken: used directly as a static Bearer token.
//  2. ClientID/ClientSecret/TokenURL: the OAuth2 client_credentials grant.
//  3. No credentials: requests are sent without authentication.
type ChannelConfig struct {
	// BaseURL: API root (e.g., "https://api.example.com"). Query paths such
	// as "/api/authors?include=books" are appended to it. Normalized by
	// trimming a trailing slash and adding "https://" if no scheme is present.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// AccessToken: if set, used as a Bearer token.
	AccessToken string `mapstructure:"access_token" yaml:"access_token,omitempty"`
	// ClientID: OAuth2 client ID for the client_credentials grant.
	ClientID string `mapstructure:"client_id" yaml:"client_id,omitempty"`
	// ClientSecret: OAuth2 client secret used with ClientID.
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret,omitempty"`
	// TokenURL: full OAuth2 token endpoint for the client_credentials grant.
	TokenURL string `mapstructure:"token_url" yaml:"token_url,omitempty"`
	// Scopes: optional OAuth2 scopes.
	Scopes []string `mapstructure:"scopes" yaml:"scopes,omitempty"`
	// Headers: extra headers sent with every request on this channel.
	Headers map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
}

// Config represents client configuration.
//
// Per-request deadlines should generally be controlled via the context passed
// to query executions. RequestTimeout bounds every single attempt.
type Config struct {
	// Channels maps channel ids to transports. At least one is required.
	Channels map[string]ChannelConfig
	// Registry holds resource declarations. Defaults to DefaultRegistry.
	Registry *Registry

	// MaxRetries: maximum number of retries after the first attempt. If 0,
	// the default of 3 is used. A negative value disables retries, like
	// DisableRetry.
	MaxRetries int
	// RetryDelay: fixed delay between attempts. If 0, 1s is used.
	RetryDelay time.Duration
	// RequestTimeout: timeout of one HTTP attempt. If 0, 30s is used.
	RequestTimeout time.Duration
	// DisableRetry: when true every request is attempted exactly once.
	DisableRetry bool
	// RetryableStatusCodes: statuses that trigger a retry. Defaults to
	// 408, 429, 500, 502, 503 and 504.
	RetryableStatusCodes []int

	// Debug: enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and queries.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Interceptors: optional hooks run around every request.
	Interceptors *InterceptorChain
	// HTTPClient: optional base client, mainly for custom TLS or tests.
	HTTPClient *http.Client
}

// Response is the final HTTP response returned by a transport.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Transport issues GET requests against one channel.
type Transport interface {
	Get(ctx context.Context, pathWithQuery string) (*Response, error)
}

// Client resolves transports and resource metadata for query clients.
type Client interface {
	Registry() *Registry
	Channel(id string) (Transport, error)
	Logger() Logger
}

// QueryClient builds and executes a read query rooted at the resource T.
//
// Fluent calls only record statements. Argument errors are kept and returned
// by Err and by every execution. Each execution rebuilds the URL, performs
// exactly one GET and decodes the document.
type QueryClient[T any] interface {
	// Select restricts the returned fields of the resource fields is bound to.
	Select(fields Typed) QueryClient[T]
	// Where adds a filter. Conditions on types other than T are scoped to
	// that resource.
	Where(cond Typed) QueryClient[T]
	// Include requests related resources along path.
	Include(path Selector[T]) QueryClient[T]
	OrderBy(attr Typed, scope ...Scope[T]) QueryClient[T]
	OrderByDescending(attr Typed, scope ...Scope[T]) QueryClient[T]
	PageSize(size int, scope ...Scope[T]) QueryClient[T]
	PageNumber(number int, scope ...Scope[T]) QueryClient[T]

	// Err returns the first error recorded by a fluent call.
	Err() error
	// URL builds the path and query string of a list request.
	URL() (string, error)

	Find(ctx context.Context, id string) (*T, error)
	// First returns the first resource of the list, or nil when it is empty.
	First(ctx context.Context) (*T, error)
	List(ctx context.Context) ([]T, error)
	// ListDocument is List plus the top-level links and meta.
	ListDocument(ctx context.Context) (*Document[T], error)
}

// Document is a decoded collection document.
type Document[T any] struct {
	Data  []T
	Links Links
	Meta  map[string]any
}

// Links holds top-level document links by name.
type Links map[string]string

// Next returns the link to the next page, if any.
func (l Links) Next() string { return l["next"] }

// Prev returns the link to the previous page, if any.
func (l Links) Prev() string { return l["prev"] }

// Object is a resource decoded without a dedicated Go type. It holds "id",
// "type", every attribute and every resolved relationship.
type Object map[string]any

// ID returns the resource id.
func (o Object) ID() string {
	if id, ok := o["id"]; ok && id != nil {
		return fmt.Sprint(id)
	}

	return ""
}

// Type returns the resource type.
func (o Object) Type() string {
	if typ, ok := o["type"].(string); ok {
		return typ
	}

	return ""
}
