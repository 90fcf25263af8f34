package commands

import (
	"sort"
	"strings"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"gopkg.in/yaml.v3"
)

// QueryFile describes a query over a schema resource. Member names may be
// given in declared or wire form.
//
//	resource: library.Author
//	include: [books, books.tags]
//	fields:
//	  library.Author: [firstName, lastName]
//	filter:
//	  eq: [lastName, Smith]
//	sort: [lastName, -firstName]
//	page: {size: 10, number: 2}
type QueryFile struct {
	Resource string              `yaml:"resource"`
	ID       string              `yaml:"id,omitempty"`
	Include  []string            `yaml:"include,omitempty"`
	Fields   map[string][]string `yaml:"fields,omitempty"`
	Filter   yaml.Node           `yaml:"filter,omitempty"`
	Sort     []string            `yaml:"sort,omitempty"`
	Page     PageSpec            `yaml:"page,omitempty"`
}

// PageSpec is the pagination of a query. Scope names a relationship path
// when paging an included collection.
type PageSpec struct {
	Size   int    `yaml:"size,omitempty"`
	Number int    `yaml:"number,omitempty"`
	Scope  string `yaml:"scope,omitempty"`
}

// LoadQuery reads a query file.
func LoadQuery(path string) (*QueryFile, error) {
	if path == "" {
		return nil, constants.ErrQueryRequired
	}

	var query QueryFile
	if err := readYAML(path, &query); err != nil {
		return nil, err
	}

	if query.Resource == "" {
		return nil, constants.ErrResourceRequired
	}

	return &query, nil
}

// Apply records the query file's statements on q. Statement errors are sticky
// on q and returned from q.Err.
func (f *QueryFile) Apply(registry *jsonapi.Registry, root jsonapi.TypeKey, q jsonapi.QueryClient[jsonapi.Object]) error {
	for _, include := range f.Include {
		path, err := resolvePath(registry, root, include)
		if err != nil {
			return err
		}

		q.Include(jsonapi.Raw[jsonapi.Object](root, path.expr))
	}

	if err := f.applyFields(registry, q); err != nil {
		return err
	}

	if f.Filter.Kind != 0 {
		expr, err := DecodeFilter(registry, root, &f.Filter)
		if err != nil {
			return err
		}

		q.Where(jsonapi.Raw[jsonapi.Object](root, expr))
	}

	for _, sortBy := range f.Sort {
		name, descending := strings.CutPrefix(sortBy, "-")

		member, _, err := lookupMember(registry, root, name)
		if err != nil {
			return err
		}

		attr := jsonapi.Raw[jsonapi.Object](root, &jsonapi.Member{Owner: root, Name: member})
		if descending {
			q.OrderByDescending(attr)
		} else {
			q.OrderBy(attr)
		}
	}

	if err := f.applyPage(registry, root, q); err != nil {
		return err
	}

	return q.Err()
}

func (f *QueryFile) applyFields(registry *jsonapi.Registry, q jsonapi.QueryClient[jsonapi.Object]) error {
	resources := make([]string, 0, len(f.Fields))
	for resource := range f.Fields {
		resources = append(resources, resource)
	}

	sort.Strings(resources)

	for _, resource := range resources {
		key, err := resourceKey(registry, resource)
		if err != nil {
			return err
		}

		members := make([]jsonapi.Expr, 0, len(f.Fields[resource]))
		for _, field := range f.Fields[resource] {
			name, _, err := lookupMember(registry, key, field)
			if err != nil {
				return err
			}

			members = append(members, &jsonapi.Member{Owner: key, Name: name})
		}

		q.Select(jsonapi.Raw[jsonapi.Object](key, &jsonapi.New{Args: members}))
	}

	return nil
}

func (f *QueryFile) applyPage(registry *jsonapi.Registry, root jsonapi.TypeKey, q jsonapi.QueryClient[jsonapi.Object]) error {
	var scope []jsonapi.Scope[jsonapi.Object]

	if f.Page.Scope != "" {
		path, err := resolvePath(registry, root, f.Page.Scope)
		if err != nil {
			return err
		}

		scope = append(scope, jsonapi.Within[jsonapi.Object](jsonapi.Raw[jsonapi.Object](root, path.expr)))
	}

	if f.Page.Size != 0 {
		q.PageSize(f.Page.Size, scope...)
	}

	if f.Page.Number != 0 {
		q.PageNumber(f.Page.Number, scope...)
	}

	return nil
}
