package commands

import (
	"fmt"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"gopkg.in/yaml.v3"
)

var comparisonOperators = map[string]jsonapi.Op{
	"eq": jsonapi.OpEqual,
	"ne": jsonapi.OpNotEqual,
	"gt": jsonapi.OpGreaterThan,
	"ge": jsonapi.OpGreaterOrEqual,
	"lt": jsonapi.OpLessThan,
	"le": jsonapi.OpLessOrEqual,
}

var textOperators = map[string]string{
	"contains":   jsonapi.MethodContains,
	"startsWith": jsonapi.MethodStartsWith,
	"endsWith":   jsonapi.MethodEndsWith,
}

// DecodeFilter turns a YAML filter node into an expression tree over root.
// Each node is a mapping with a single operator key:
//
//	and: [<node>, <node>, ...]
//	or: [<node>, <node>, ...]
//	not: <node>
//	eq: [lastName, Smith]          # also ne, gt, ge, lt, le
//	contains: [title, war]         # also startsWith, endsWith
//	in: [lastName, [Smith, Jones]]
//	is: active                     # boolean attribute is true
//	has: books                     # relationship is not empty
//	any: {path: books, where: <node>}
func DecodeFilter(registry *jsonapi.Registry, root jsonapi.TypeKey, node *yaml.Node) (jsonapi.Expr, error) {
	decoder := filterDecoder{registry: registry}

	return decoder.decode(root, node)
}

type filterDecoder struct {
	registry *jsonapi.Registry
}

func (d filterDecoder) decode(owner jsonapi.TypeKey, node *yaml.Node) (jsonapi.Expr, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}

	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, invalidNode(node, "expected a mapping with a single operator")
	}

	operator, operand := node.Content[0].Value, node.Content[1]

	if op, ok := comparisonOperators[operator]; ok {
		return d.comparison(owner, op, operand)
	}

	if method, ok := textOperators[operator]; ok {
		return d.text(owner, method, operand)
	}

	switch operator {
	case "and":
		return d.logical(owner, jsonapi.OpAnd, operand)
	case "or":
		return d.logical(owner, jsonapi.OpOr, operand)
	case "not":
		inner, err := d.decode(owner, operand)
		if err != nil {
			return nil, err
		}

		return &jsonapi.Unary{Op: jsonapi.OpNot, Operand: inner}, nil
	case "in":
		return d.in(owner, operand)
	case "is":
		return d.is(owner, operand)
	case "has":
		return d.has(owner, operand)
	case "any":
		return d.any(owner, operand)
	default:
		return nil, fmt.Errorf("%w: line %d: %s", constants.ErrUnknownFilterOperator, node.Content[0].Line, operator)
	}
}

// logical folds the operands left to right.
func (d filterDecoder) logical(owner jsonapi.TypeKey, op jsonapi.Op, operand *yaml.Node) (jsonapi.Expr, error) {
	if operand.Kind != yaml.SequenceNode || len(operand.Content) < 2 {
		return nil, invalidNode(operand, "%s expects a list of at least two conditions", op)
	}

	var result jsonapi.Expr

	for _, child := range operand.Content {
		expr, err := d.decode(owner, child)
		if err != nil {
			return nil, err
		}

		if result == nil {
			result = expr

			continue
		}

		result = &jsonapi.Binary{Op: op, Left: result, Right: expr}
	}

	return result, nil
}

func (d filterDecoder) comparison(owner jsonapi.TypeKey, op jsonapi.Op, operand *yaml.Node) (jsonapi.Expr, error) {
	path, valueNode, err := d.pair(owner, operand)
	if err != nil {
		return nil, err
	}

	value, err := scalarValue(valueNode)
	if err != nil {
		return nil, err
	}

	return &jsonapi.Binary{Op: op, Left: path.expr, Right: &jsonapi.Constant{Value: value}}, nil
}

func (d filterDecoder) text(owner jsonapi.TypeKey, method string, operand *yaml.Node) (jsonapi.Expr, error) {
	path, valueNode, err := d.pair(owner, operand)
	if err != nil {
		return nil, err
	}

	if valueNode.Kind != yaml.ScalarNode {
		return nil, invalidNode(valueNode, "expected a text value")
	}

	return &jsonapi.Call{
		Method:   method,
		Receiver: path.expr,
		Args:     []jsonapi.Expr{&jsonapi.Constant{Value: valueNode.Value}},
	}, nil
}

func (d filterDecoder) in(owner jsonapi.TypeKey, operand *yaml.Node) (jsonapi.Expr, error) {
	path, valuesNode, err := d.pair(owner, operand)
	if err != nil {
		return nil, err
	}

	if valuesNode.Kind != yaml.SequenceNode || len(valuesNode.Content) == 0 {
		return nil, invalidNode(valuesNode, "in expects a non-empty list of values")
	}

	elements := make([]jsonapi.Expr, 0, len(valuesNode.Content))
	for _, element := range valuesNode.Content {
		value, err := scalarValue(element)
		if err != nil {
			return nil, err
		}

		elements = append(elements, &jsonapi.Constant{Value: value})
	}

	return &jsonapi.Call{
		Method: jsonapi.MethodContains,
		Args:   []jsonapi.Expr{&jsonapi.List{Elements: elements}, path.expr},
	}, nil
}

func (d filterDecoder) is(owner jsonapi.TypeKey, operand *yaml.Node) (jsonapi.Expr, error) {
	path, err := d.path(owner, operand)
	if err != nil {
		return nil, err
	}

	return path.expr, nil
}

func (d filterDecoder) has(owner jsonapi.TypeKey, operand *yaml.Node) (jsonapi.Expr, error) {
	path, err := d.path(owner, operand)
	if err != nil {
		return nil, err
	}

	return &jsonapi.Call{Method: jsonapi.MethodAny, Receiver: path.expr}, nil
}

func (d filterDecoder) any(owner jsonapi.TypeKey, operand *yaml.Node) (jsonapi.Expr, error) {
	if operand.Kind != yaml.MappingNode {
		return nil, invalidNode(operand, "any expects a mapping with path and where")
	}

	var pathNode, whereNode *yaml.Node

	for i := 0; i+1 < len(operand.Content); i += 2 {
		switch operand.Content[i].Value {
		case "path":
			pathNode = operand.Content[i+1]
		case "where":
			whereNode = operand.Content[i+1]
		default:
			return nil, invalidNode(operand.Content[i], "unexpected key %s", operand.Content[i].Value)
		}
	}

	if pathNode == nil || whereNode == nil {
		return nil, invalidNode(operand, "any expects a mapping with path and where")
	}

	path, err := d.path(owner, pathNode)
	if err != nil {
		return nil, err
	}

	if path.relationship == nil {
		return nil, invalidNode(pathNode, "%s is not a relationship", pathNode.Value)
	}

	if path.relationship.Target == "" {
		return nil, fmt.Errorf("%w: %s", constants.ErrRelationshipTarget, pathNode.Value)
	}

	body, err := d.decode(path.relationship.Target, whereNode)
	if err != nil {
		return nil, err
	}

	return &jsonapi.Call{
		Method:   jsonapi.MethodAny,
		Receiver: path.expr,
		Args:     []jsonapi.Expr{&jsonapi.Lambda{Param: path.relationship.Target, Body: body}},
	}, nil
}

// pair splits a [path, value] operand.
func (d filterDecoder) pair(owner jsonapi.TypeKey, operand *yaml.Node) (*memberPath, *yaml.Node, error) {
	if operand.Kind != yaml.SequenceNode || len(operand.Content) != 2 {
		return nil, nil, invalidNode(operand, "expected [path, value]")
	}

	path, err := d.path(owner, operand.Content[0])
	if err != nil {
		return nil, nil, err
	}

	return path, operand.Content[1], nil
}

func (d filterDecoder) path(owner jsonapi.TypeKey, node *yaml.Node) (*memberPath, error) {
	if node.Kind != yaml.ScalarNode || node.Value == "" {
		return nil, invalidNode(node, "expected a member path")
	}

	return resolvePath(d.registry, owner, node.Value)
}

// scalarValue decodes a YAML scalar into a string, number, bool or nil.
func scalarValue(node *yaml.Node) (interface{}, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, invalidNode(node, "expected a scalar value")
	}

	var value interface{}
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", constants.ErrInvalidFilterNode, node.Line, err)
	}

	return value, nil
}

func invalidNode(node *yaml.Node, format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", constants.ErrInvalidFilterNode, node.Line, fmt.Sprintf(format, args...))
}
