package commands

import (
	"testing"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/internal/query"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	authorKey jsonapi.TypeKey = "library.Author"
	bookKey   jsonapi.TypeKey = "library.Book"
)

func loadTestSchema(t *testing.T) *jsonapi.Registry {
	t.Helper()

	registry, err := LoadSchema(writeFile(t, "schema.yml", librarySchema))
	require.NoError(t, err)

	return registry
}

func parseNode(t *testing.T, src string) *yaml.Node {
	t.Helper()

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))

	return &node
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestDecodeFilter(t *testing.T) {
	registry := loadTestSchema(t)

	tests := []struct {
		name     string
		root     jsonapi.TypeKey
		filter   string
		expected string
	}{
		{
			name:     "equality",
			root:     authorKey,
			filter:   `eq: [lastName, Smith]`,
			expected: "equals(lastName,'Smith')",
		},
		{
			name:     "declared member name",
			root:     authorKey,
			filter:   `eq: [LastName, Smith]`,
			expected: "equals(lastName,'Smith')",
		},
		{
			name:     "inequality on a renamed attribute",
			root:     bookKey,
			filter:   `ne: [Pages, 100]`,
			expected: "not(equals(pageCount,100))",
		},
		{
			name:     "and with text function",
			root:     bookKey,
			filter:   `and: [{gt: [pageCount, 100]}, {startsWith: [title, The]}]`,
			expected: "and(greaterThan(pageCount,100),startsWith(title,'The'))",
		},
		{
			name:     "or folds left to right",
			root:     authorKey,
			filter:   `or: [{eq: [firstName, A]}, {eq: [firstName, B]}, {eq: [firstName, C]}]`,
			expected: "or(or(equals(firstName,'A'),equals(firstName,'B')),equals(firstName,'C'))",
		},
		{
			name:     "in",
			root:     authorKey,
			filter:   `in: [lastName, [Smith, Jones]]`,
			expected: "any(lastName,'Smith','Jones')",
		},
		{
			name:     "is",
			root:     authorKey,
			filter:   `is: active`,
			expected: "equals(active,'true')",
		},
		{
			name:     "not is",
			root:     authorKey,
			filter:   `not: {is: active}`,
			expected: "not(equals(active,'true'))",
		},
		{
			name:     "has",
			root:     authorKey,
			filter:   `has: books`,
			expected: "has(books)",
		},
		{
			name:     "any",
			root:     authorKey,
			filter:   `any: {path: books, where: {contains: [title, war]}}`,
			expected: "contains(books.title,'war')",
		},
		{
			name:     "to-one path",
			root:     bookKey,
			filter:   `eq: [author.lastName, Herbert]`,
			expected: "equals(author.lastName,'Herbert')",
		},
		{
			name:     "null value",
			root:     bookKey,
			filter:   `eq: [title, null]`,
			expected: "equals(title,null)",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			expr, err := DecodeFilter(registry, testCase.root, parseNode(t, testCase.filter))
			require.NoError(t, err)

			rendered, err := query.Filter(registry, expr, "")
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, rendered)
		})
	}
}

func TestDecodeFilter_Errors(t *testing.T) {
	registry := loadTestSchema(t)

	tests := []struct {
		name     string
		root     jsonapi.TypeKey
		filter   string
		expected error
	}{
		{name: "unknown operator", root: authorKey, filter: `xor: [a, b]`, expected: constants.ErrUnknownFilterOperator},
		{name: "two operators", root: authorKey, filter: "eq: [lastName, A]\nne: [lastName, B]", expected: constants.ErrInvalidFilterNode},
		{name: "scalar node", root: authorKey, filter: `lastName`, expected: constants.ErrInvalidFilterNode},
		{name: "unknown member", root: authorKey, filter: `eq: [nickname, A]`, expected: constants.ErrUnknownMember},
		{name: "and with one operand", root: authorKey, filter: `and: [{is: active}]`, expected: constants.ErrInvalidFilterNode},
		{name: "comparison without value", root: authorKey, filter: `eq: [lastName]`, expected: constants.ErrInvalidFilterNode},
		{name: "any over attribute", root: authorKey, filter: `any: {path: lastName, where: {is: active}}`, expected: constants.ErrInvalidFilterNode},
		{name: "any without where", root: authorKey, filter: `any: {path: books}`, expected: constants.ErrInvalidFilterNode},
		{name: "path through attribute", root: bookKey, filter: `eq: [title.length, 3]`, expected: constants.ErrUnknownMember},
		{name: "path without target", root: bookKey, filter: `eq: [tags.label, sci-fi]`, expected: constants.ErrRelationshipTarget},
		{name: "in without values", root: authorKey, filter: `in: [lastName, []]`, expected: constants.ErrInvalidFilterNode},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := DecodeFilter(registry, testCase.root, parseNode(t, testCase.filter))
			require.ErrorIs(t, err, testCase.expected)
		})
	}
}
