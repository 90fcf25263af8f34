package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
)

// Statement is one query clause. Validate fails fast on malformed input;
// Translate renders the clause as a query parameter.
type Statement interface {
	Validate() error
	Translate() (key, value string, err error)
}

// SelectStatement renders a sparse fieldset.
type SelectStatement struct {
	registry *jsonapi.Registry
	root     jsonapi.TypeKey
	entity   jsonapi.TypeKey
	expr     jsonapi.Expr
}

// NewSelectStatement creates a select over entity within a query rooted at
// root.
func NewSelectStatement(registry *jsonapi.Registry, root, entity jsonapi.TypeKey, expr jsonapi.Expr) *SelectStatement {
	return &SelectStatement{registry: registry, root: root, entity: entity, expr: expr}
}

// Validate requires a projection of direct members of the entity, each an
// attribute or a relationship.
func (s *SelectStatement) Validate() error {
	_, err := s.fields()

	return err
}

// Translate implements Statement.
func (s *SelectStatement) Translate() (string, string, error) {
	fields, err := s.fields()
	if err != nil {
		return "", "", err
	}

	key := "fields"
	if s.entity != s.root {
		name, err := s.registry.ResourceName(s.entity)
		if err != nil {
			return "", "", err
		}

		key = "fields[" + name + "]"
	}

	return key, strings.Join(fields, ","), nil
}

func (s *SelectStatement) fields() ([]string, error) {
	_, err := s.registry.Resolve(s.entity)
	if err != nil {
		return nil, err
	}

	projection, ok := s.expr.(*jsonapi.New)
	if !ok {
		return nil, fmt.Errorf("%w: invalid expression body type. Expected: New. Found: %s",
			jsonapi.ErrInvalidExpressionShape, nodeType(s.expr))
	}

	if len(projection.Args) == 0 {
		return nil, fmt.Errorf("%w: projection selects no members", jsonapi.ErrInvalidExpressionShape)
	}

	for _, arg := range projection.Args {
		member, ok := arg.(*jsonapi.Member)
		if !ok || member.Parent != nil {
			return nil, fmt.Errorf("%w: invalid expression body argument type. Expected: MemberAccess on the parameter. Found: %s",
				jsonapi.ErrInvalidExpressionShape, nodeType(arg))
		}
	}

	fields := make([]string, 0, len(projection.Args))
	for _, arg := range projection.Args {
		member, _ := arg.(*jsonapi.Member)
		if member.Owner != s.entity {
			return nil, fmt.Errorf("%w: member %s is not a valid property name for %s",
				jsonapi.ErrInvalidMember, member.Name, s.entity)
		}

		name, err := s.registry.MemberWireName(s.entity, member.Name)
		if err != nil {
			return nil, err
		}

		fields = append(fields, name)
	}

	return fields, nil
}

// WhereStatement renders a filter.
type WhereStatement struct {
	registry *jsonapi.Registry
	root     jsonapi.TypeKey
	entity   jsonapi.TypeKey
	expr     jsonapi.Expr
}

// NewWhereStatement creates a filter on entity within a query rooted at root.
func NewWhereStatement(registry *jsonapi.Registry, root, entity jsonapi.TypeKey, expr jsonapi.Expr) *WhereStatement {
	return &WhereStatement{registry: registry, root: root, entity: entity, expr: expr}
}

// Validate renders the filter once and discards it.
func (s *WhereStatement) Validate() error {
	_, _, err := s.Translate()

	return err
}

// Translate implements Statement.
func (s *WhereStatement) Translate() (string, string, error) {
	name, err := s.registry.ResourceName(s.entity)
	if err != nil {
		return "", "", err
	}

	if s.expr == nil {
		return "", "", fmt.Errorf("%w: filter has no condition", jsonapi.ErrInvalidExpressionShape)
	}

	value, err := Filter(s.registry, s.expr, "")
	if err != nil {
		return "", "", err
	}

	key := "filter"
	if s.entity != s.root {
		key = "filter[" + name + "]"
	}

	return key, value, nil
}

// IncludeStatement renders an include path.
type IncludeStatement struct {
	registry *jsonapi.Registry
	expr     jsonapi.Expr
}

// NewIncludeStatement creates an include of the relationship path expr.
func NewIncludeStatement(registry *jsonapi.Registry, expr jsonapi.Expr) *IncludeStatement {
	return &IncludeStatement{registry: registry, expr: expr}
}

// Validate requires every step of the path to be a declared relationship.
func (s *IncludeStatement) Validate() error {
	_, err := RelationshipPath(s.registry, s.expr)

	return err
}

// Translate implements Statement.
func (s *IncludeStatement) Translate() (string, string, error) {
	path, err := RelationshipPath(s.registry, s.expr)
	if err != nil {
		return "", "", err
	}

	return "include", path, nil
}

// SortStatement renders one sort key.
type SortStatement struct {
	registry   *jsonapi.Registry
	entity     jsonapi.TypeKey
	expr       jsonapi.Expr
	scope      jsonapi.Expr
	descending bool
}

// NewSortStatement sorts by the attribute expr of entity. A non-nil scope
// sorts the related collection at that relationship path instead of the root.
func NewSortStatement(registry *jsonapi.Registry, entity jsonapi.TypeKey, expr, scope jsonapi.Expr, descending bool) *SortStatement {
	return &SortStatement{registry: registry, entity: entity, expr: expr, scope: scope, descending: descending}
}

// Validate implements Statement.
func (s *SortStatement) Validate() error {
	_, _, err := s.Translate()

	return err
}

// Translate implements Statement.
func (s *SortStatement) Translate() (string, string, error) {
	_, err := s.registry.Resolve(s.entity)
	if err != nil {
		return "", "", err
	}

	member, ok := s.expr.(*jsonapi.Member)
	if !ok || member.Parent != nil {
		return "", "", fmt.Errorf("%w: invalid expression body type. Expected: MemberAccess on the parameter. Found: %s",
			jsonapi.ErrInvalidExpressionShape, nodeType(s.expr))
	}

	if member.Owner != s.entity {
		return "", "", fmt.Errorf("%w: member %s is not a valid property name for %s",
			jsonapi.ErrInvalidMember, member.Name, s.entity)
	}

	name, err := s.registry.AttributeWireName(s.entity, member.Name)
	if err != nil {
		return "", "", err
	}

	key := "sort"
	if s.scope != nil {
		path, err := RelationshipPath(s.registry, s.scope)
		if err != nil {
			return "", "", err
		}

		key = "sort[" + path + "]"
	}

	if s.descending {
		name = "-" + name
	}

	return key, name, nil
}

// PageStatement renders page[size] or page[number].
type PageStatement struct {
	registry *jsonapi.Registry
	kind     jsonapi.StatementKind
	value    int
	scope    jsonapi.Expr
}

// NewPageStatement creates a page-size or page-number statement. It fails
// with ErrArgumentOutOfRange for values that are not positive.
func NewPageStatement(registry *jsonapi.Registry, kind jsonapi.StatementKind, value int, scope jsonapi.Expr) (*PageStatement, error) {
	if kind != jsonapi.KindPageSize && kind != jsonapi.KindPageNumber {
		return nil, fmt.Errorf("%w: %s is not a page statement", jsonapi.ErrUnsupportedOperator, kind)
	}

	if value <= 0 {
		return nil, fmt.Errorf("%w: %s must be greater than 0, got %d", jsonapi.ErrArgumentOutOfRange, kind, value)
	}

	return &PageStatement{registry: registry, kind: kind, value: value, scope: scope}, nil
}

// Validate implements Statement.
func (s *PageStatement) Validate() error {
	_, _, err := s.Translate()

	return err
}

// Translate implements Statement.
func (s *PageStatement) Translate() (string, string, error) {
	key := "page[size]"
	if s.kind == jsonapi.KindPageNumber {
		key = "page[number]"
	}

	value := strconv.Itoa(s.value)
	if s.scope != nil {
		path, err := RelationshipPath(s.registry, s.scope)
		if err != nil {
			return "", "", err
		}

		value = path + ":" + value
	}

	return key, value, nil
}
