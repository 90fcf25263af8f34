package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"sort"
	"strings"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/internal/http"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client implements the jsonapi.Client interface. It owns one transport per
// configured channel.
type Client struct {
	registry *jsonapi.Registry
	channels map[string]*http.Client
	logger   jsonapi.Logger
}

// New creates a client with a transport for every channel in config.
func New(ctx context.Context, config *jsonapi.Config) (*Client, error) {
	if config == nil {
		return nil, jsonapi.ErrConfigRequired
	}

	if len(config.Channels) == 0 {
		return nil, jsonapi.ErrNoChannelsConfigured
	}

	registry := config.Registry
	if registry == nil {
		registry = jsonapi.DefaultRegistry
	}

	client := &Client{
		registry: registry,
		channels: make(map[string]*http.Client, len(config.Channels)),
		logger:   config.Logger,
	}

	for id, channel := range config.Channels {
		baseURL := NormalizeBaseURL(channel.BaseURL)
		if baseURL == "" {
			return nil, fmt.Errorf("%w: channel %q", jsonapi.ErrChannelBaseURLRequired, id)
		}

		tokenSource, err := createTokenSource(ctx, config, channel)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", id, err)
		}

		client.channels[id] = http.NewClient(baseURL, tokenSource, createHTTPClientOptions(config, channel)...)
	}

	return client, nil
}

// NormalizeBaseURL trims a trailing slash and defaults the scheme to https.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}

// createTokenSource picks the channel authentication. A static access token
// wins over client credentials; no credentials means no Authorization header.
func createTokenSource(ctx context.Context, config *jsonapi.Config, channel jsonapi.ChannelConfig) (oauth2.TokenSource, error) {
	if channel.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: channel.AccessToken, TokenType: "Bearer"}), nil
	}

	if channel.ClientID == "" && channel.ClientSecret == "" && channel.TokenURL == "" {
		return nil, nil //nolint:nilnil // unauthenticated channel
	}

	if channel.ClientID == "" || channel.ClientSecret == "" || channel.TokenURL == "" {
		return nil, jsonapi.ErrClientCredentialsIncomplete
	}

	credentials := &clientcredentials.Config{
		ClientID:     channel.ClientID,
		ClientSecret: channel.ClientSecret,
		TokenURL:     channel.TokenURL,
		Scopes:       channel.Scopes,
	}

	tokenClient := &nethttp.Client{Timeout: constants.TokenRequestTimeout}
	if config.HTTPClient != nil {
		clone := *config.HTTPClient
		clone.Timeout = constants.TokenRequestTimeout
		tokenClient = &clone
	}

	// Tokens are refreshed lazily, long after New returns.
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, tokenClient)

	return credentials.TokenSource(tokenCtx), nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *jsonapi.Config, channel jsonapi.ChannelConfig) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if len(channel.Headers) > 0 {
		httpOpts = append(httpOpts, http.WithHeaders(channel.Headers))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.RequestTimeout > 0 {
		httpOpts = append(httpOpts, http.WithRequestTimeout(config.RequestTimeout))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	}

	if config.DisableRetry || config.MaxRetries < 0 {
		return append(httpOpts, http.WithoutRetry())
	}

	maxRetries := constants.DefaultMaxRetries
	if config.MaxRetries > 0 {
		maxRetries = config.MaxRetries
	}

	retryDelay := constants.DefaultRetryDelay
	if config.RetryDelay > 0 {
		retryDelay = config.RetryDelay
	}

	return append(httpOpts, http.WithRetryConfig(maxRetries, retryDelay, config.RetryableStatusCodes))
}

// Registry implements jsonapi.Client.Registry.
func (c *Client) Registry() *jsonapi.Registry {
	return c.registry
}

// Channel implements jsonapi.Client.Channel.
func (c *Client) Channel(id string) (jsonapi.Transport, error) {
	channel, ok := c.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", jsonapi.ErrChannelNotFound, id)
	}

	return channel, nil
}

// Channels returns the configured channel ids in sorted order.
func (c *Client) Channels() []string {
	ids := make([]string, 0, len(c.channels))
	for id := range c.channels {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Logger implements jsonapi.Client.Logger.
func (c *Client) Logger() jsonapi.Logger {
	return c.logger
}
