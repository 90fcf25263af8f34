package commands

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapiclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewQueryCommand creates the query command group
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Build and run JSON:API queries",
		Long:  "Translate query files into JSON:API URLs and execute them",
	}

	cmd.AddCommand(newQueryURLCommand())
	cmd.AddCommand(newQueryRunCommand())

	return cmd
}

// queryFlags are shared by the query subcommands.
type queryFlags struct {
	schema string
	query  string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.schema, "schema", "s", "", "schema file")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "query file")
}

// prepared is a query file applied to a query client.
type prepared struct {
	registry *jsonapi.Registry
	root     jsonapi.TypeKey
	file     *QueryFile
	query    jsonapi.QueryClient[jsonapi.Object]
}

// prepare loads the schema and query files and records the statements on a
// query created from client.
func (f *queryFlags) prepare(newClient func(*jsonapi.Registry) (jsonapi.Client, error)) (*prepared, error) {
	registry, err := LoadSchema(f.schema)
	if err != nil {
		return nil, err
	}

	file, err := LoadQuery(f.query)
	if err != nil {
		return nil, err
	}

	root, err := resourceKey(registry, file.Resource)
	if err != nil {
		return nil, err
	}

	client, err := newClient(registry)
	if err != nil {
		return nil, err
	}

	query := jsonapiclient.QueryResource(client, root)
	if err := file.Apply(registry, root, query); err != nil {
		return nil, err
	}

	return &prepared{registry: registry, root: root, file: file, query: query}, nil
}

func newQueryURLCommand() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the URL of a query",
		Long:  "Translate a query file into the path and query string it would request",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.prepare(func(registry *jsonapi.Registry) (jsonapi.Client, error) {
				return offlineClient{registry: registry}, nil
			})
			if err != nil {
				return err
			}

			url, err := p.query.URL()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), url)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newQueryRunCommand() *cobra.Command {
	var (
		flags   queryFlags
		baseURL string
		token   string
		headers []string
		stats   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a query",
		Long:  "Execute a query file and display the resources it returns. Queries with an id fetch a single resource.",
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, err := loadChannels(baseURL, token)
			if err != nil {
				return err
			}

			opts := clientOptions{}

			opts.headers, err = parseHeaders(headers)
			if err != nil {
				return err
			}

			opts.logger, err = NewZapLogger(viper.GetBool("verbose"))
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			defer opts.logger.Sync()

			if stats {
				opts.metrics = jsonapi.NewMetricsCollector()
				defer renderStats(cmd.ErrOrStderr(), opts.metrics)
			}

			p, err := flags.prepare(func(registry *jsonapi.Registry) (jsonapi.Client, error) {
				return createClient(cmd.Context(), registry, channels, opts)
			})
			if err != nil {
				return err
			}

			objects, err := p.execute(cmd)
			if err != nil {
				return err
			}

			meta, err := p.registry.Resolve(p.root)
			if err != nil {
				return err
			}

			return renderObjects(cmd.OutOrStdout(), outputFormat(), meta, objects)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL of the default channel")
	cmd.Flags().StringVar(&token, "token", "", "access token of the default channel")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra request header as 'Name: value' (repeatable)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print request statistics to stderr")

	return cmd
}

// parseHeaders reads 'Name: value' pairs. Repeated names keep every value.
func parseHeaders(values []string) (http.Header, error) {
	headers := make(http.Header, len(values))

	for _, value := range values {
		name, content, ok := strings.Cut(value, ":")
		name = strings.TrimSpace(name)

		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidHeader, value)
		}

		headers.Add(name, strings.TrimSpace(content))
	}

	return headers, nil
}

// renderStats prints one line per endpoint the query touched.
func renderStats(out io.Writer, collector *jsonapi.MetricsCollector) {
	for _, endpoint := range collector.Endpoints() {
		metrics := collector.GetMetrics(endpoint)

		_, _ = fmt.Fprintf(out, "%s: %d request(s), %d error(s), average latency %s\n",
			endpoint, metrics.TotalRequests, metrics.TotalErrors, metrics.AverageLatency.Round(time.Millisecond))
	}
}

func (p *prepared) execute(cmd *cobra.Command) ([]jsonapi.Object, error) {
	if p.file.ID == "" {
		objects, err := p.query.List(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", p.root, err)
		}

		return objects, nil
	}

	object, err := p.query.Find(cmd.Context(), p.file.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %s: %w", p.root, p.file.ID, err)
	}

	if object == nil {
		return []jsonapi.Object{}, nil
	}

	return []jsonapi.Object{*object}, nil
}

// renderObjects prints resources. Tables have one column per attribute and
// per relationship; relationships show the related id or the related count.
func renderObjects(out io.Writer, format string, meta *jsonapi.ResourceMetadata, objects []jsonapi.Object) error {
	header := []string{"ID", "Type"}
	for _, attr := range meta.Attributes {
		header = append(header, attr.WireName)
	}

	for _, rel := range meta.Relationships {
		header = append(header, rel.WireName)
	}

	rows := make([][]string, 0, len(objects))
	for _, object := range objects {
		row := []string{object.ID(), object.Type()}
		for _, attr := range meta.Attributes {
			row = append(row, cell(object[attr.WireName]))
		}

		for _, rel := range meta.Relationships {
			row = append(row, relationshipCell(object[rel.WireName]))
		}

		rows = append(rows, row)
	}

	return render(out, format, objects, header, rows)
}

func cell(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case map[string]interface{}:
		return fmt.Sprintf("{%d fields}", len(typed))
	default:
		return fmt.Sprint(typed)
	}
}

func relationshipCell(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case []interface{}:
		return strconv.Itoa(len(typed))
	case map[string]interface{}:
		if id, ok := typed["id"]; ok {
			return cell(id)
		}

		return cell(typed)
	default:
		return cell(typed)
	}
}
