package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

// Client is the transport of one channel. It issues requests against a base
// URL with retries, bearer authentication and optional debug logging.
type Client struct {
	baseURL        string
	httpClient     *retryablehttp.Client
	tokenSource    oauth2.TokenSource
	logger         jsonapi.Logger
	debug          bool
	userAgent      string
	headers        map[string]string
	interceptors   *jsonapi.InterceptorChain
	retryableCodes []int
}

// Request is a single request. Path may carry a raw query string, which is
// sent as written except for characters that cannot appear in a request
// target.
type Request struct {
	Method string
	Path   string
	// Query holds extra parameters, percent-encoded and appended to Path.
	Query   url.Values
	Headers map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger jsonapi.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *jsonapi.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithRetryConfig retries up to maxRetries times, waiting delay between
// attempts, when a response carries one of codes or the connection fails.
func WithRetryConfig(maxRetries int, delay time.Duration, codes []int) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = delay
		c.httpClient.RetryWaitMax = delay

		if codes != nil {
			c.retryableCodes = slices.Clone(codes)
		}
	}
}

// WithoutRetry makes every request a single attempt.
func WithoutRetry() Option {
	return func(c *Client) {
		c.httpClient.RetryMax = 0
	}
}

// WithHTTPClient uses base for the underlying connections. The per-attempt
// timeout set by WithRequestTimeout still applies.
func WithHTTPClient(base *http.Client) Option {
	return func(c *Client) {
		if base == nil {
			return
		}

		timeout := c.httpClient.HTTPClient.Timeout
		clone := *base
		clone.Timeout = timeout
		c.httpClient.HTTPClient = &clone
	}
}

// WithRequestTimeout bounds each attempt.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// NewClient creates a transport for baseURL. A nil tokenSource sends
// unauthenticated requests.
func NewClient(baseURL string, tokenSource oauth2.TokenSource, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultMaxRetries
	retryClient.RetryWaitMin = constants.DefaultRetryDelay
	retryClient.RetryWaitMax = constants.DefaultRetryDelay
	retryClient.HTTPClient.Timeout = constants.DefaultRequestTimeout
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Backoff = fixedBackoff

	client := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     retryClient,
		tokenSource:    tokenSource,
		userAgent:      constants.DefaultUserAgent,
		headers:        make(map[string]string),
		retryableCodes: constants.DefaultRetryableStatusCodes(),
	}

	retryClient.CheckRetry = client.checkRetry

	for _, opt := range opts {
		opt(client)
	}

	if client.debug && client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

func fixedBackoff(minWait, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return minWait
}

func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return slices.Contains(c.retryableCodes, resp.StatusCode), nil
}

// Get issues a GET for pathWithQuery. It implements jsonapi.Transport.
func (c *Client) Get(ctx context.Context, pathWithQuery string) (*jsonapi.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: pathWithQuery})
}

// Do executes req. Non-2xx responses are returned together with a
// *jsonapi.HTTPError.
func (c *Client) Do(ctx context.Context, req *Request) (*jsonapi.Response, error) {
	target := requestTarget(req)
	intercepted := &jsonapi.Request{
		Method:  req.Method,
		Path:    pathOnly(req.Path),
		Headers: c.requestHeaders(req),
	}

	err := c.authorize(intercepted.Headers)
	if err != nil {
		return nil, err
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, c.baseURL+target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = intercepted.Headers

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    c.baseURL + target,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		_ = c.afterResponse(ctx, intercepted, &jsonapi.Response{Error: err})

		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &jsonapi.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status_code": resp.StatusCode,
			"body":        truncate(body, constants.MaxLoggedBodyBytes),
		})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Error = jsonapi.NewHTTPError(resp.StatusCode, body)
	}

	interceptErr := c.afterResponse(ctx, intercepted, resp)
	if resp.Error != nil {
		return resp, resp.Error
	}

	if interceptErr != nil {
		return resp, interceptErr
	}

	return resp, nil
}

func (c *Client) requestHeaders(req *Request) http.Header {
	headers := make(http.Header)
	headers.Set("Accept", constants.MediaType)
	headers.Set("User-Agent", c.userAgent)

	for key, value := range c.headers {
		headers.Set(key, value)
	}

	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	return headers
}

func (c *Client) authorize(headers http.Header) error {
	if c.tokenSource == nil {
		return nil
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("getting access token: %w", err)
	}

	headers.Set("Authorization", token.Type()+" "+token.AccessToken)

	return nil
}

func (c *Client) afterResponse(ctx context.Context, req *jsonapi.Request, resp *jsonapi.Response) error {
	if c.interceptors == nil {
		return nil
	}

	return c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
}

func requestTarget(req *Request) string {
	target := escapeTarget(req.Path)
	if len(req.Query) == 0 {
		return target
	}

	separator := "?"
	if strings.Contains(target, "?") {
		separator = "&"
	}

	return target + separator + req.Query.Encode()
}

func pathOnly(path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		return path[:idx]
	}

	return path
}

// escapeTarget percent-encodes the bytes that are not allowed in a request
// target, such as spaces inside quoted filter values. The query grammar
// characters ( ) ' , [ ] : are left untouched. Inside single-quoted literals
// the query delimiters & + = % # are encoded as well so a value cannot split
// or alter its parameter.
func escapeTarget(target string) string {
	const hex = "0123456789ABCDEF"

	var sb strings.Builder

	quoted := false

	for i := range len(target) {
		b := target[i]
		if b == '\'' {
			quoted = !quoted
		}

		if allowedInTarget(b) && !(quoted && reservedInLiteral(b)) {
			sb.WriteByte(b)

			continue
		}

		sb.WriteByte('%')
		sb.WriteByte(hex[b>>4])
		sb.WriteByte(hex[b&0x0f])
	}

	return sb.String()
}

func allowedInTarget(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}

	return strings.IndexByte("-._~!$&'()*+,;=:@/?[]%", b) >= 0
}

func reservedInLiteral(b byte) bool {
	return strings.IndexByte("&+=%#", b) >= 0
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}

	return string(body[:limit]) + "..."
}
