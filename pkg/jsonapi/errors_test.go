package jsonapi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	err := &APIError{Status: "404", Title: "Not Found", Detail: "Author 42 does not exist"}
	assert.Equal(t, "Not Found: Author 42 does not exist (status: 404)", err.Error())
	assert.Equal(t, 404, err.StatusCode())

	bare := &APIError{Title: "Bad Request"}
	assert.Equal(t, "Bad Request (status: )", bare.Error())
	assert.Equal(t, 0, bare.StatusCode())
}

func TestResponseError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown error", (&ResponseError{}).Error())

	single := &ResponseError{Errors: []APIError{{Status: "400", Title: "Invalid filter"}}}
	assert.Equal(t, "Invalid filter (status: 400)", single.Error())

	multiple := &ResponseError{Errors: []APIError{{Title: "a"}, {Title: "b"}}}
	assert.Contains(t, multiple.Error(), "multiple errors")

	require.NotNil(t, single.FirstError())
	assert.Equal(t, "Invalid filter", single.FirstError().Title)
	assert.Nil(t, (&ResponseError{}).FirstError())
}

func TestNewHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("with error document", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"errors":[{"status":"422","title":"Invalid attribute","source":{"pointer":"/data/attributes/title"}}]}`)
		err := NewHTTPError(422, body)

		require.Len(t, err.Errors, 1)
		assert.Equal(t, "/data/attributes/title", err.Errors[0].Source.Pointer)
		assert.Equal(t, "HTTP request failed with status code 422: Invalid attribute (status: 422)", err.Error())
		assert.Equal(t, body, err.Body)
	})

	t.Run("with plain body", func(t *testing.T) {
		t.Parallel()

		err := NewHTTPError(502, []byte("Bad Gateway"))
		assert.Empty(t, err.Errors)
		assert.Equal(t, "HTTP request failed with status code 502", err.Error())
		assert.Equal(t, "Bad Gateway", string(err.Body))
	})
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		notFound     bool
		unauthorized bool
		forbidden    bool
	}{
		{name: "http not found", err: &HTTPError{StatusCode: 404}, notFound: true},
		{name: "wrapped http unauthorized", err: fmt.Errorf("executing query: %w", &HTTPError{StatusCode: 401}), unauthorized: true},
		{name: "api error forbidden", err: &APIError{Status: "403"}, forbidden: true},
		{name: "response error not found", err: &ResponseError{Errors: []APIError{{Status: "404"}}}, notFound: true},
		{name: "empty response error", err: &ResponseError{}},
		{name: "other error", err: errors.New("some error")},
		{name: "nil error", err: nil},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.notFound, IsNotFound(testCase.err))
			assert.Equal(t, testCase.unauthorized, IsUnauthorized(testCase.err))
			assert.Equal(t, testCase.forbidden, IsForbidden(testCase.err))
		})
	}
}

func TestTranslationError(t *testing.T) {
	t.Parallel()

	err := &TranslationError{Kind: KindSort, Err: fmt.Errorf("%w: member Books", ErrInvalidMember)}

	assert.Equal(t, "translating sort statement: invalid member: member Books", err.Error())
	require.ErrorIs(t, err, ErrInvalidMember)
	assert.NotErrorIs(t, err, ErrMissingMetadata)
}
