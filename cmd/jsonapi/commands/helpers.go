package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"
	Masked       = "***"

	configFileName = "config.yml"
	configDirName  = ".jsonapi"
)

// outputFormat returns the configured output format. Without one, terminals
// get a table and pipes get JSON.
func outputFormat() string {
	output := viper.GetString("output")
	if output != "" {
		return output
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return constants.OutputTable
	}

	return constants.OutputJSON
}

// render writes value as JSON or YAML, or header and rows as a table.
func render(out io.Writer, format string, value interface{}, header []string, rows [][]string) error {
	switch format {
	case constants.OutputJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", constants.JSONIndent)

		return encoder.Encode(value)
	case constants.OutputYAML:
		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(value)
	case constants.OutputTable:
		return renderTable(out, header, rows)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, format)
	}
}

func renderTable(out io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header(toAny(header)...)

	for _, row := range rows {
		_ = table.Append(toAny(row)...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func toAny(values []string) []any {
	converted := make([]any, len(values))
	for i, value := range values {
		converted[i] = value
	}

	return converted
}

// readYAML decodes the YAML file at path into out.
func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}
