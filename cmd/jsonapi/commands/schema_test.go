package commands

import (
	"testing"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadSchema(t *testing.T) {
	t.Run("registers every resource", func(t *testing.T) {
		registry := loadTestSchema(t)
		assert.Equal(t, []jsonapi.TypeKey{authorKey, bookKey}, registry.Keys())

		channel, err := registry.Channel(bookKey)
		require.NoError(t, err)
		assert.Equal(t, "catalog", channel)

		name, err := registry.AttributeWireName(bookKey, "Pages")
		require.NoError(t, err)
		assert.Equal(t, "pageCount", name)
	})

	t.Run("requires a path", func(t *testing.T) {
		_, err := LoadSchema("")
		require.ErrorIs(t, err, constants.ErrSchemaRequired)
	})

	t.Run("rejects duplicate members", func(t *testing.T) {
		path := writeFile(t, "schema.yml", `
resources:
  library.Tag:
    attributes:
      - name: Label
      - name: Label
`)

		_, err := LoadSchema(path)
		require.ErrorIs(t, err, jsonapi.ErrInvalidMember)
	})

	t.Run("rejects invalid yaml", func(t *testing.T) {
		_, err := LoadSchema(writeFile(t, "schema.yml", "resources: ["))
		require.Error(t, err)
	})
}

func TestResolvePath(t *testing.T) {
	registry := loadTestSchema(t)

	path, err := resolvePath(registry, bookKey, "author.books")
	require.NoError(t, err)
	require.NotNil(t, path.relationship)
	assert.True(t, path.relationship.ToMany)
	assert.Equal(t, authorKey, path.expr.Owner)
	assert.Equal(t, "Books", path.expr.Name)

	parent, ok := path.expr.Parent.(*jsonapi.Member)
	require.True(t, ok)
	assert.Equal(t, bookKey, parent.Owner)
	assert.Equal(t, "Author", parent.Name)

	_, err = resolvePath(registry, bookKey, "publisher")
	require.ErrorIs(t, err, constants.ErrUnknownMember)
}

func TestSchemaShowCommand(t *testing.T) {
	useOutput(t, constants.OutputYAML)

	cmd := NewSchemaCommand()
	require.NotNil(t, findSubcommand(cmd, "show"))

	out, err := execute(t, cmd, "show", "--schema", writeFile(t, "schema.yml", librarySchema))
	require.NoError(t, err)

	var summaries []resourceSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 2)

	assert.Equal(t, resourceSummary{
		Key:           "library.Author",
		Name:          "authors",
		Namespace:     "api",
		Channel:       jsonapi.DefaultChannel,
		Attributes:    []string{"firstName", "lastName", "active"},
		Relationships: []string{"books[]"},
	}, summaries[0])
	assert.Equal(t, []string{"title", "pageCount"}, summaries[1].Attributes)
	assert.Equal(t, []string{"author", "tags[]"}, summaries[1].Relationships)
}

func TestSchemaShowCommand_Table(t *testing.T) {
	useOutput(t, constants.OutputTable)

	out, err := execute(t, NewSchemaCommand(), "show", "--schema", writeFile(t, "schema.yml", librarySchema))
	require.NoError(t, err)
	assert.Contains(t, out, "library.Author")
	assert.Contains(t, out, "catalog")
}
