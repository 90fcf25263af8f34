package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/spf13/cobra"
)

// SchemaFile declares runtime resources. Keys are the resource keys used by
// query files, e.g. "library.Author".
type SchemaFile struct {
	Resources map[string]jsonapi.ResourceDef `yaml:"resources"`
}

// LoadSchema reads a schema file into a fresh registry.
func LoadSchema(path string) (*jsonapi.Registry, error) {
	if path == "" {
		return nil, constants.ErrSchemaRequired
	}

	var schema SchemaFile
	if err := readYAML(path, &schema); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(schema.Resources))
	for key := range schema.Resources {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	registry := jsonapi.NewRegistry()
	for _, key := range keys {
		if err := registry.RegisterKey(jsonapi.TypeKey(key), schema.Resources[key]); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", key, err)
		}
	}

	return registry, nil
}

// resourceKey checks that name is declared and returns its key.
func resourceKey(registry *jsonapi.Registry, name string) (jsonapi.TypeKey, error) {
	key := jsonapi.TypeKey(name)
	if _, err := registry.Resolve(key); err != nil {
		return "", fmt.Errorf("%w: %s", constants.ErrUnknownResource, name)
	}

	return key, nil
}

// lookupMember finds a member of key by declared or wire name. The returned
// relationship is nil for attributes.
func lookupMember(registry *jsonapi.Registry, key jsonapi.TypeKey, name string) (string, *jsonapi.RelationshipMetadata, error) {
	meta, err := registry.Resolve(key)
	if err != nil {
		return "", nil, err
	}

	for _, attr := range meta.Attributes {
		if attr.Name == name || attr.WireName == name {
			return attr.Name, nil, nil
		}
	}

	for i := range meta.Relationships {
		rel := meta.Relationships[i]
		if rel.Name == name || rel.WireName == name {
			return rel.Name, &rel, nil
		}
	}

	return "", nil, fmt.Errorf("%w: %s on %s", constants.ErrUnknownMember, name, key)
}

// memberPath is a dotted member path resolved against the schema.
type memberPath struct {
	expr         *jsonapi.Member
	relationship *jsonapi.RelationshipMetadata
}

// resolvePath turns "author.lastName" into a member chain rooted at root.
// Every segment but the last must be a relationship with a target.
func resolvePath(registry *jsonapi.Registry, root jsonapi.TypeKey, path string) (*memberPath, error) {
	var parent jsonapi.Expr

	owner := root
	segments := strings.Split(path, ".")

	for i, segment := range segments {
		name, rel, err := lookupMember(registry, owner, segment)
		if err != nil {
			return nil, err
		}

		member := &jsonapi.Member{Owner: owner, Name: name, Parent: parent}
		if i == len(segments)-1 {
			return &memberPath{expr: member, relationship: rel}, nil
		}

		if rel == nil {
			return nil, fmt.Errorf("%w: %s on %s is not a relationship", constants.ErrUnknownMember, segment, owner)
		}

		if rel.Target == "" {
			return nil, fmt.Errorf("%w: %s on %s", constants.ErrRelationshipTarget, segment, owner)
		}

		parent = member
		owner = rel.Target
	}

	return nil, fmt.Errorf("%w: empty member path", constants.ErrUnknownMember)
}

// resourceSummary is the schema show view of one resource.
type resourceSummary struct {
	Key           string   `json:"key" yaml:"key"`
	Name          string   `json:"name" yaml:"name"`
	Namespace     string   `json:"namespace" yaml:"namespace"`
	Channel       string   `json:"channel" yaml:"channel"`
	Attributes    []string `json:"attributes" yaml:"attributes"`
	Relationships []string `json:"relationships" yaml:"relationships"`
}

func summarize(registry *jsonapi.Registry) ([]resourceSummary, error) {
	keys := registry.Keys()
	summaries := make([]resourceSummary, 0, len(keys))

	for _, key := range keys {
		meta, err := registry.Resolve(key)
		if err != nil {
			return nil, err
		}

		summary := resourceSummary{
			Key:           string(key),
			Name:          meta.Name,
			Namespace:     meta.Namespace,
			Channel:       meta.Channel,
			Attributes:    []string{},
			Relationships: []string{},
		}

		for _, attr := range meta.Attributes {
			summary.Attributes = append(summary.Attributes, attr.WireName)
		}

		for _, rel := range meta.Relationships {
			name := rel.WireName
			if rel.ToMany {
				name += "[]"
			}

			summary.Relationships = append(summary.Relationships, name)
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// NewSchemaCommand creates the schema command group
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect resource schemas",
		Long:  "Inspect the JSON:API resources declared in a schema file",
	}

	cmd.AddCommand(newSchemaShowCommand())

	return cmd
}

func newSchemaShowCommand() *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show declared resources",
		Long:  "Display the resources of a schema file with their resolved wire names",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := LoadSchema(schemaPath)
			if err != nil {
				return err
			}

			summaries, err := summarize(registry)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(summaries))
			for _, summary := range summaries {
				namespace := summary.Namespace
				if namespace == "" {
					namespace = NotAvailable
				}

				rows = append(rows, []string{
					summary.Key,
					summary.Name,
					namespace,
					summary.Channel,
					strings.Join(summary.Attributes, ", "),
					strings.Join(summary.Relationships, ", "),
				})
			}

			return render(cmd.OutOrStdout(), outputFormat(), summaries,
				[]string{"Key", "Name", "Namespace", "Channel", "Attributes", "Relationships"}, rows)
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file")

	return cmd
}
