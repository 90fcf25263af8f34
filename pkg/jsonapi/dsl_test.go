package jsonapi_test

import (
	"testing"

	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var (
	authorLastName = jsonapi.StrAttr[Author]("LastName")
	authorActive   = jsonapi.BoolAttr[Author]("Active")
	authorBooks    = jsonapi.Many[Author, Book]("Books")
	bookPages      = jsonapi.Attr[Book, int]("Pages")
	bookTitle      = jsonapi.StrAttr[Book]("Title")
	bookAuthor     = jsonapi.One[Book, Author]("Author")
)

func member(owner jsonapi.TypeKey, name string, parent jsonapi.Expr) *jsonapi.Member {
	return &jsonapi.Member{Owner: owner, Name: name, Parent: parent}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestDSL_Trees(t *testing.T) {
	t.Parallel()

	authorKey := jsonapi.KeyOf[Author]()
	bookKey := jsonapi.KeyOf[Book]()

	tests := []struct {
		name     string
		actual   jsonapi.Typed
		entity   jsonapi.TypeKey
		expected jsonapi.Expr
	}{
		{
			name:   "comparison",
			actual: bookPages.Ge(100),
			entity: bookKey,
			expected: &jsonapi.Binary{
				Op: jsonapi.OpGreaterOrEqual, Left: member(bookKey, "Pages", nil), Right: &jsonapi.Constant{Value: 100},
			},
		},
		{
			name:     "bare flag",
			actual:   authorActive.IsTrue(),
			entity:   authorKey,
			expected: member(authorKey, "Active", nil),
		},
		{
			name:     "negated flag",
			actual:   authorActive.IsFalse(),
			entity:   authorKey,
			expected: &jsonapi.Unary{Op: jsonapi.OpNot, Operand: member(authorKey, "Active", nil)},
		},
		{
			name:   "left folded and",
			actual: jsonapi.And(authorLastName.Eq("a"), authorLastName.Ne("b"), authorActive.IsTrue()),
			entity: authorKey,
			expected: &jsonapi.Binary{
				Op: jsonapi.OpAnd,
				Left: &jsonapi.Binary{
					Op:    jsonapi.OpAnd,
					Left:  &jsonapi.Binary{Op: jsonapi.OpEqual, Left: member(authorKey, "LastName", nil), Right: &jsonapi.Constant{Value: "a"}},
					Right: &jsonapi.Binary{Op: jsonapi.OpNotEqual, Left: member(authorKey, "LastName", nil), Right: &jsonapi.Constant{Value: "b"}},
				},
				Right: member(authorKey, "Active", nil),
			},
		},
		{
			name:   "text call",
			actual: bookTitle.EndsWith("s"),
			entity: bookKey,
			expected: &jsonapi.Call{
				Method: jsonapi.MethodEndsWith, Receiver: member(bookKey, "Title", nil), Args: []jsonapi.Expr{&jsonapi.Constant{Value: "s"}},
			},
		},
		{
			name:   "literal membership",
			actual: authorLastName.OneOf("a", "b"),
			entity: authorKey,
			expected: &jsonapi.Call{
				Method: jsonapi.MethodContains,
				Args: []jsonapi.Expr{
					&jsonapi.List{Elements: []jsonapi.Expr{&jsonapi.Constant{Value: "a"}, &jsonapi.Constant{Value: "b"}}},
					member(authorKey, "LastName", nil),
				},
			},
		},
		{
			name:   "captured membership",
			actual: bookPages.In([]int{1, 2}),
			entity: bookKey,
			expected: &jsonapi.Call{
				Method:   jsonapi.MethodContains,
				Receiver: &jsonapi.Captured{Name: "values", Value: []int{1, 2}},
				Args:     []jsonapi.Expr{member(bookKey, "Pages", nil)},
			},
		},
		{
			name:     "existence",
			actual:   authorBooks.Exists(),
			entity:   authorKey,
			expected: &jsonapi.Call{Method: jsonapi.MethodAny, Receiver: member(authorKey, "Books", nil)},
		},
		{
			name:   "quantifier",
			actual: authorBooks.Any(bookTitle.Eq("Dune")),
			entity: authorKey,
			expected: &jsonapi.Call{
				Method:   jsonapi.MethodAny,
				Receiver: member(authorKey, "Books", nil),
				Args: []jsonapi.Expr{&jsonapi.Lambda{
					Param: bookKey,
					Body:  &jsonapi.Binary{Op: jsonapi.OpEqual, Left: member(bookKey, "Title", nil), Right: &jsonapi.Constant{Value: "Dune"}},
				}},
			},
		},
		{
			name:     "attribute through to-one relationship",
			actual:   jsonapi.Via(bookAuthor, authorLastName.Attribute),
			entity:   bookKey,
			expected: member(authorKey, "LastName", member(bookKey, "Author", nil)),
		},
		{
			name:   "to-many chain",
			actual: jsonapi.Chain(authorBooks, bookAuthor),
			entity: authorKey,
			expected: &jsonapi.Call{
				Method: jsonapi.MethodSelect,
				Args: []jsonapi.Expr{
					member(authorKey, "Books", nil),
					&jsonapi.Lambda{Param: bookKey, Body: member(bookKey, "Author", nil)},
				},
			},
		},
		{
			name:     "to-one chain",
			actual:   jsonapi.Chain(bookAuthor, authorBooks),
			entity:   bookKey,
			expected: member(authorKey, "Books", member(bookKey, "Author", nil)),
		},
		{
			name:   "fields",
			actual: jsonapi.Fields[Book](bookTitle, bookAuthor),
			entity: bookKey,
			expected: &jsonapi.New{Args: []jsonapi.Expr{
				member(bookKey, "Title", nil),
				member(bookKey, "Author", nil),
			}},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.entity, testCase.actual.Entity())

			if diff := cmp.Diff(testCase.expected, testCase.actual.Expr()); diff != "" {
				t.Errorf("expression tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDSL_ChainMultiplicity(t *testing.T) {
	t.Parallel()

	assert.True(t, authorBooks.ToMany())
	assert.False(t, bookAuthor.ToMany())
	assert.True(t, jsonapi.Chain(authorBooks, bookAuthor).ToMany())
	assert.True(t, jsonapi.Chain(bookAuthor, authorBooks).ToMany())
	assert.False(t, jsonapi.Chain(bookAuthor, jsonapi.One[Author, Book]("Latest")).ToMany())

	selectMany, ok := jsonapi.Chain(authorBooks, jsonapi.Many[Book, Author]("Coauthors")).Expr().(*jsonapi.Call)
	assert.True(t, ok)
	assert.Equal(t, jsonapi.MethodSelectMany, selectMany.Method)
}

func TestDSL_ExpressionsAreImmutable(t *testing.T) {
	t.Parallel()

	base := authorLastName.Eq("a")
	combined := base.And(authorActive.IsTrue())
	_ = base.Or(authorActive.IsFalse())

	assert.Equal(t, "Binary(eq)", base.Expr().NodeType())
	assert.Equal(t, "Binary(and)", combined.Expr().NodeType())
	assert.Equal(t, "Unary(not)", jsonapi.Not(base).Expr().NodeType())
	assert.Equal(t, "Binary(eq)", base.Expr().NodeType())
}

func TestScope(t *testing.T) {
	t.Parallel()

	scope := jsonapi.Within[Author](authorBooks)
	assert.Equal(t, authorBooks.Expr(), scope.Path())
}

func TestIsSequence(t *testing.T) {
	t.Parallel()

	assert.True(t, jsonapi.IsSequence(&jsonapi.List{}))
	assert.True(t, jsonapi.IsSequence(&jsonapi.Constant{Value: []string{"a"}}))
	assert.True(t, jsonapi.IsSequence(&jsonapi.Captured{Name: "ids", Value: [2]int{1, 2}}))
	assert.False(t, jsonapi.IsSequence(&jsonapi.Constant{Value: "abc"}))
	assert.False(t, jsonapi.IsSequence(&jsonapi.Constant{Value: nil}))
	assert.False(t, jsonapi.IsSequence(authorLastName.Expr()))
}
