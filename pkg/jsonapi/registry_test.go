package jsonapi_test

import (
	"sync"
	"testing"

	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Author struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Active      bool   `json:"active"`
	Books       []Book `json:"books"`
}

type Book struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Pages  int     `json:"pages"`
	Author *Author `json:"author"`
}

func newRegistry(t *testing.T) *jsonapi.Registry {
	t.Helper()

	registry := jsonapi.NewRegistry()

	require.NoError(t, jsonapi.Register[Author](registry, jsonapi.ResourceDef{
		Namespace: "api",
		Attributes: []jsonapi.MemberDef{
			{Name: "FirstName"},
			{Name: "LastName"},
			{Name: "DateOfBirth", WireName: "born"},
			{Name: "Active"},
		},
		Relationships: []jsonapi.MemberDef{{Name: "Books", ToMany: true, Target: jsonapi.KeyOf[Book]()}},
	}))
	require.NoError(t, jsonapi.Register[Book](registry, jsonapi.ResourceDef{
		Name:          "books",
		Namespace:     "api",
		Channel:       "catalog",
		Attributes:    []jsonapi.MemberDef{{Name: "Title"}, {Name: "Pages"}},
		Relationships: []jsonapi.MemberDef{{Name: "Author", WireName: "writtenBy"}},
	}))

	return registry
}

func TestKeyOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, jsonapi.TypeKey("github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi_test.Author"), jsonapi.KeyOf[Author]())
	assert.NotEqual(t, jsonapi.KeyOf[Author](), jsonapi.KeyOf[Book]())
	assert.Equal(t, jsonapi.TypeKey("[]string"), jsonapi.KeyOf[[]string]())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	registry := newRegistry(t)

	t.Run("name falls back to lower camel type name", func(t *testing.T) {
		t.Parallel()

		name, err := registry.ResourceName(jsonapi.KeyOf[Author]())
		require.NoError(t, err)
		assert.Equal(t, "author", name)
	})

	t.Run("explicit name", func(t *testing.T) {
		t.Parallel()

		name, err := registry.ResourceName(jsonapi.KeyOf[Book]())
		require.NoError(t, err)
		assert.Equal(t, "books", name)
	})

	t.Run("channel defaults", func(t *testing.T) {
		t.Parallel()

		channel, err := registry.Channel(jsonapi.KeyOf[Author]())
		require.NoError(t, err)
		assert.Equal(t, jsonapi.DefaultChannel, channel)

		channel, err = registry.Channel(jsonapi.KeyOf[Book]())
		require.NoError(t, err)
		assert.Equal(t, "catalog", channel)
	})

	t.Run("namespace", func(t *testing.T) {
		t.Parallel()

		namespace, err := registry.Namespace(jsonapi.KeyOf[Book]())
		require.NoError(t, err)
		assert.Equal(t, "api", namespace)
	})

	t.Run("attribute wire names", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			member   string
			expected string
		}{
			{member: "FirstName", expected: "firstName"},
			{member: "LastName", expected: "lastName"},
			{member: "DateOfBirth", expected: "born"},
			{member: "Active", expected: "active"},
		}

		for _, testCase := range tests {
			name, err := registry.AttributeWireName(jsonapi.KeyOf[Author](), testCase.member)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, name)
		}
	})

	t.Run("relationships", func(t *testing.T) {
		t.Parallel()

		rel, err := registry.Relationship(jsonapi.KeyOf[Author](), "Books")
		require.NoError(t, err)
		assert.Equal(t, "books", rel.WireName)
		assert.True(t, rel.ToMany)
		assert.Equal(t, jsonapi.KeyOf[Book](), rel.Target)

		name, err := registry.RelationshipWireName(jsonapi.KeyOf[Book](), "Author")
		require.NoError(t, err)
		assert.Equal(t, "writtenBy", name)
	})

	t.Run("member kinds are not interchangeable", func(t *testing.T) {
		t.Parallel()

		_, err := registry.AttributeWireName(jsonapi.KeyOf[Author](), "Books")
		require.ErrorIs(t, err, jsonapi.ErrInvalidMember)

		_, err = registry.RelationshipWireName(jsonapi.KeyOf[Author](), "LastName")
		require.ErrorIs(t, err, jsonapi.ErrInvalidMember)

		name, err := registry.MemberWireName(jsonapi.KeyOf[Author](), "Books")
		require.NoError(t, err)
		assert.Equal(t, "books", name)

		_, err = registry.MemberWireName(jsonapi.KeyOf[Author](), "Nickname")
		require.ErrorIs(t, err, jsonapi.ErrInvalidMember)
	})

	t.Run("unregistered type", func(t *testing.T) {
		t.Parallel()

		_, err := registry.Resolve(jsonapi.KeyOf[struct{ Name string }]())
		require.ErrorIs(t, err, jsonapi.ErrMissingMetadata)
	})

	t.Run("resolution is memoized", func(t *testing.T) {
		t.Parallel()

		first, err := registry.Resolve(jsonapi.KeyOf[Author]())
		require.NoError(t, err)

		second, err := registry.Resolve(jsonapi.KeyOf[Author]())
		require.NoError(t, err)

		assert.Same(t, first, second)
	})
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("duplicate registration", func(t *testing.T) {
		t.Parallel()

		registry := newRegistry(t)

		err := jsonapi.Register[Author](registry, jsonapi.ResourceDef{Name: "writers"})
		require.ErrorIs(t, err, jsonapi.ErrDuplicateResource)

		name, err := registry.ResourceName(jsonapi.KeyOf[Author]())
		require.NoError(t, err)
		assert.Equal(t, "author", name)
	})

	t.Run("members need unique names", func(t *testing.T) {
		t.Parallel()

		registry := jsonapi.NewRegistry()

		err := jsonapi.Register[Author](registry, jsonapi.ResourceDef{
			Attributes:    []jsonapi.MemberDef{{Name: "Books"}},
			Relationships: []jsonapi.MemberDef{{Name: "Books"}},
		})
		require.ErrorIs(t, err, jsonapi.ErrInvalidMember)

		err = jsonapi.Register[Book](registry, jsonapi.ResourceDef{Attributes: []jsonapi.MemberDef{{}}})
		require.ErrorIs(t, err, jsonapi.ErrInvalidMember)

		assert.Empty(t, registry.Keys())
	})

	t.Run("must register panics", func(t *testing.T) {
		t.Parallel()

		registry := newRegistry(t)

		assert.Panics(t, func() {
			jsonapi.MustRegister[Book](registry, jsonapi.ResourceDef{})
		})
	})

	t.Run("explicit keys", func(t *testing.T) {
		t.Parallel()

		registry := jsonapi.NewRegistry()
		require.NoError(t, registry.RegisterKey("library.Shelf", jsonapi.ResourceDef{Name: "shelves"}))
		require.NoError(t, registry.RegisterKey("library.Aisle", jsonapi.ResourceDef{}))

		assert.Equal(t, []jsonapi.TypeKey{"library.Aisle", "library.Shelf"}, registry.Keys())

		meta, err := registry.Resolve("library.Shelf")
		require.NoError(t, err)
		assert.Equal(t, "shelves", meta.Name)
	})
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	t.Parallel()

	registry := newRegistry(t)

	const workers = 32

	var wg sync.WaitGroup

	names := make([]string, workers)

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := jsonapi.KeyOf[Author]()
			if i%2 == 1 {
				key = jsonapi.KeyOf[Book]()
			}

			name, err := registry.AttributeWireName(key, map[bool]string{false: "LastName", true: "Title"}[i%2 == 1])
			assert.NoError(t, err)

			names[i] = name
		}()
	}

	wg.Wait()

	for i, name := range names {
		if i%2 == 1 {
			assert.Equal(t, "title", name)
		} else {
			assert.Equal(t, "lastName", name)
		}
	}
}

func TestLowerCamel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "lastName", jsonapi.LowerCamel("LastName"))
	assert.Equal(t, "author", jsonapi.LowerCamel("Author"))
	assert.Equal(t, "dateOfBirth", jsonapi.LowerCamel("DateOfBirth"))
	assert.Equal(t, "title", jsonapi.LowerCamel("title"))

	tests := []struct {
		name     string
		expected string
	}{
		{name: "BookID", expected: "bookID"},
		{name: "PageURL", expected: "pageURL"},
		{name: "HTTPStatus", expected: "httpStatus"},
		{name: "already_snake", expected: "already_snake"},
		{name: "Title2", expected: "title2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, jsonapi.LowerCamel(tt.name), tt.name)
	}
}
