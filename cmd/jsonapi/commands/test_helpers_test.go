package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const librarySchema = `
resources:
  library.Author:
    name: authors
    namespace: api
    attributes:
      - name: FirstName
      - name: LastName
      - name: Active
    relationships:
      - name: Books
        to_many: true
        target: library.Book
  library.Book:
    name: books
    namespace: api
    channel: catalog
    attributes:
      - name: Title
      - name: Pages
        wire_name: pageCount
    relationships:
      - name: Author
        target: library.Author
      - name: Tags
        to_many: true
`

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// writeFile writes content to name inside a temporary directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	// A nil slice makes cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))

	err := cmd.Execute()

	return out.String(), err
}

// useOutput sets the global output format for the duration of a test.
func useOutput(t *testing.T, format string) {
	t.Helper()

	viper.Set("output", format)
	t.Cleanup(viper.Reset)
}
