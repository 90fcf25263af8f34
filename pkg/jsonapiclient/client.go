package jsonapiclient

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/jsonapi-client/internal/client"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
)

// New creates a client with one transport per configured channel.
func New(ctx context.Context, config *jsonapi.Config) (jsonapi.Client, error) {
	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithBaseURL creates a client with a single unauthenticated default
// channel.
func NewWithBaseURL(ctx context.Context, baseURL string) (jsonapi.Client, error) {
	return New(ctx, &jsonapi.Config{
		Channels: map[string]jsonapi.ChannelConfig{
			jsonapi.DefaultChannel: {BaseURL: baseURL},
		},
	})
}

// NewWithToken creates a client with a single default channel authenticated
// by a static bearer token.
func NewWithToken(ctx context.Context, baseURL, token string) (jsonapi.Client, error) {
	return New(ctx, &jsonapi.Config{
		Channels: map[string]jsonapi.ChannelConfig{
			jsonapi.DefaultChannel: {BaseURL: baseURL, AccessToken: token},
		},
	})
}

// Query starts a query rooted at the registered resource type T.
func Query[T any](c jsonapi.Client) jsonapi.QueryClient[T] {
	return client.NewQuery[T](c, jsonapi.KeyOf[T]())
}

// QueryResource starts a query rooted at a resource registered under key.
// Resources are decoded into jsonapi.Object values.
func QueryResource(c jsonapi.Client, key jsonapi.TypeKey) jsonapi.QueryClient[jsonapi.Object] {
	return client.NewQuery[jsonapi.Object](c, key)
}
