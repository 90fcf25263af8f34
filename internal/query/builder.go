package query

import (
	"strings"

	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
)

// ClauseOrder is the order in which statement kinds appear in the query
// string.
var ClauseOrder = []jsonapi.StatementKind{
	jsonapi.KindInclude,
	jsonapi.KindWhere,
	jsonapi.KindSelect,
	jsonapi.KindSort,
	jsonapi.KindPageSize,
	jsonapi.KindPageNumber,
}

// Aggregated reports whether statements of kind sharing a key are merged into
// one parameter. Filters and includes are never merged.
func Aggregated(kind jsonapi.StatementKind) bool {
	switch kind {
	case jsonapi.KindSelect, jsonapi.KindSort, jsonapi.KindPageSize, jsonapi.KindPageNumber:
		return true
	default:
		return false
	}
}

// Builder accumulates statements and renders them onto a base path. It is
// not safe for concurrent use.
type Builder struct {
	statements map[jsonapi.StatementKind][]Statement
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{statements: make(map[jsonapi.StatementKind][]Statement)}
}

// Add records a statement of the given kind.
func (b *Builder) Add(kind jsonapi.StatementKind, statement Statement) {
	b.statements[kind] = append(b.statements[kind], statement)
}

// Len returns the number of recorded statements.
func (b *Builder) Len() int {
	total := 0
	for _, statements := range b.statements {
		total += len(statements)
	}

	return total
}

// Build validates every statement, then renders basePath followed by the
// query string. The first failure aborts the build and is returned as a
// *jsonapi.TranslationError.
func (b *Builder) Build(basePath string) (string, error) {
	for _, kind := range ClauseOrder {
		for _, statement := range b.statements[kind] {
			err := statement.Validate()
			if err != nil {
				return "", &jsonapi.TranslationError{Kind: kind, Err: err}
			}
		}
	}

	params := make([]string, 0, b.Len())

	for _, kind := range ClauseOrder {
		group, err := b.render(kind)
		if err != nil {
			return "", &jsonapi.TranslationError{Kind: kind, Err: err}
		}

		params = append(params, group...)
	}

	if len(params) == 0 {
		return basePath, nil
	}

	return basePath + "?" + strings.Join(params, "&"), nil
}

func (b *Builder) render(kind jsonapi.StatementKind) ([]string, error) {
	statements := b.statements[kind]
	if len(statements) == 0 {
		return nil, nil
	}

	aggregate := Aggregated(kind)
	keys := make([]string, 0, len(statements))
	values := make(map[string][]string, len(statements))
	params := make([]string, 0, len(statements))

	for _, statement := range statements {
		key, value, err := statement.Translate()
		if err != nil {
			return nil, err
		}

		if !aggregate {
			params = append(params, key+"="+value)

			continue
		}

		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}

		values[key] = append(values[key], value)
	}

	for _, key := range keys {
		params = append(params, key+"="+strings.Join(values[key], ","))
	}

	return params, nil
}
