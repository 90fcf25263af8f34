package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/jsonapi-client/internal/document"
	"github.com/fivetwenty-io/jsonapi-client/internal/query"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
)

// Query implements jsonapi.QueryClient. Fluent calls record statements; the
// URL is rebuilt from them on every execution.
type Query[T any] struct {
	client  jsonapi.Client
	root    jsonapi.TypeKey
	builder *query.Builder
	err     error
}

// NewQuery starts a query whose root resource is root. Decoded resources are
// unmarshalled into T.
func NewQuery[T any](client jsonapi.Client, root jsonapi.TypeKey) *Query[T] {
	return &Query[T]{
		client:  client,
		root:    root,
		builder: query.NewBuilder(),
	}
}

func (q *Query[T]) registry() *jsonapi.Registry {
	return q.client.Registry()
}

func (q *Query[T]) fail(kind jsonapi.StatementKind, err error) {
	if q.err == nil {
		q.err = &jsonapi.TranslationError{Kind: kind, Err: err}
	}
}

func (q *Query[T]) scopePath(kind jsonapi.StatementKind, scope []jsonapi.Scope[T]) (jsonapi.Expr, bool) {
	switch len(scope) {
	case 0:
		return nil, true
	case 1:
		return scope[0].Path(), true
	default:
		q.fail(kind, fmt.Errorf("%w: at most one scope per statement, got %d", jsonapi.ErrArgumentOutOfRange, len(scope)))

		return nil, false
	}
}

// Select implements jsonapi.QueryClient.Select.
func (q *Query[T]) Select(fields jsonapi.Typed) jsonapi.QueryClient[T] {
	q.builder.Add(jsonapi.KindSelect, query.NewSelectStatement(q.registry(), q.root, fields.Entity(), fields.Expr()))

	return q
}

// Where implements jsonapi.QueryClient.Where.
func (q *Query[T]) Where(cond jsonapi.Typed) jsonapi.QueryClient[T] {
	q.builder.Add(jsonapi.KindWhere, query.NewWhereStatement(q.registry(), q.root, cond.Entity(), cond.Expr()))

	return q
}

// Include implements jsonapi.QueryClient.Include.
func (q *Query[T]) Include(path jsonapi.Selector[T]) jsonapi.QueryClient[T] {
	q.builder.Add(jsonapi.KindInclude, query.NewIncludeStatement(q.registry(), path.Expr()))

	return q
}

// OrderBy implements jsonapi.QueryClient.OrderBy.
func (q *Query[T]) OrderBy(attr jsonapi.Typed, scope ...jsonapi.Scope[T]) jsonapi.QueryClient[T] {
	return q.orderBy(attr, scope, false)
}

// OrderByDescending implements jsonapi.QueryClient.OrderByDescending.
func (q *Query[T]) OrderByDescending(attr jsonapi.Typed, scope ...jsonapi.Scope[T]) jsonapi.QueryClient[T] {
	return q.orderBy(attr, scope, true)
}

func (q *Query[T]) orderBy(attr jsonapi.Typed, scope []jsonapi.Scope[T], descending bool) jsonapi.QueryClient[T] {
	path, ok := q.scopePath(jsonapi.KindSort, scope)
	if ok {
		q.builder.Add(jsonapi.KindSort, query.NewSortStatement(q.registry(), attr.Entity(), attr.Expr(), path, descending))
	}

	return q
}

// PageSize implements jsonapi.QueryClient.PageSize.
func (q *Query[T]) PageSize(size int, scope ...jsonapi.Scope[T]) jsonapi.QueryClient[T] {
	return q.page(jsonapi.KindPageSize, size, scope)
}

// PageNumber implements jsonapi.QueryClient.PageNumber.
func (q *Query[T]) PageNumber(number int, scope ...jsonapi.Scope[T]) jsonapi.QueryClient[T] {
	return q.page(jsonapi.KindPageNumber, number, scope)
}

func (q *Query[T]) page(kind jsonapi.StatementKind, value int, scope []jsonapi.Scope[T]) jsonapi.QueryClient[T] {
	path, ok := q.scopePath(kind, scope)
	if !ok {
		return q
	}

	statement, err := query.NewPageStatement(q.registry(), kind, value, path)
	if err != nil {
		q.fail(kind, err)

		return q
	}

	q.builder.Add(kind, statement)

	return q
}

// Err implements jsonapi.QueryClient.Err.
func (q *Query[T]) Err() error {
	return q.err
}

// URL implements jsonapi.QueryClient.URL.
func (q *Query[T]) URL() (string, error) {
	if q.err != nil {
		return "", q.err
	}

	basePath, err := q.basePath()
	if err != nil {
		return "", err
	}

	return q.builder.Build(basePath)
}

// basePath is /<namespace>/<resource name>, or /<resource name> when the
// resource has no namespace.
func (q *Query[T]) basePath() (string, error) {
	meta, err := q.registry().Resolve(q.root)
	if err != nil {
		return "", err
	}

	segments := make([]string, 0, 2)
	if namespace := strings.Trim(meta.Namespace, "/"); namespace != "" {
		segments = append(segments, namespace)
	}

	segments = append(segments, meta.Name)

	return "/" + strings.Join(segments, "/"), nil
}

// Find implements jsonapi.QueryClient.Find.
func (q *Query[T]) Find(ctx context.Context, id string) (*T, error) {
	basePath, err := q.basePath()
	if err != nil {
		return nil, err
	}

	body, err := q.get(ctx, basePath+"/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	return document.DecodeOne[T](body)
}

// First implements jsonapi.QueryClient.First.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	values, err := q.List(ctx)
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, nil //nolint:nilnil // an empty result is not an error
	}

	return &values[0], nil
}

// List implements jsonapi.QueryClient.List.
func (q *Query[T]) List(ctx context.Context) ([]T, error) {
	doc, err := q.ListDocument(ctx)
	if err != nil {
		return nil, err
	}

	return doc.Data, nil
}

// ListDocument implements jsonapi.QueryClient.ListDocument.
func (q *Query[T]) ListDocument(ctx context.Context) (*jsonapi.Document[T], error) {
	basePath, err := q.basePath()
	if err != nil {
		return nil, err
	}

	body, err := q.get(ctx, basePath)
	if err != nil {
		return nil, err
	}

	return document.DecodeMany[T](body)
}

// get builds the query for path and performs a single GET on the root
// resource's channel.
func (q *Query[T]) get(ctx context.Context, path string) ([]byte, error) {
	if q.err != nil {
		return nil, q.err
	}

	target, err := q.builder.Build(path)
	if err != nil {
		return nil, err
	}

	channelID, err := q.registry().Channel(q.root)
	if err != nil {
		return nil, err
	}

	transport, err := q.client.Channel(channelID)
	if err != nil {
		return nil, err
	}

	if logger := q.client.Logger(); logger != nil {
		logger.Debug("Executing query", map[string]interface{}{
			"url":     target,
			"channel": channelID,
		})
	}

	resp, err := transport.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("executing query %s: %w", path, err)
	}

	return resp.Body, nil
}
