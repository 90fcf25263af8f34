package query

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
)

var comparisonFunctions = map[jsonapi.Op]string{
	jsonapi.OpEqual:          "equals",
	jsonapi.OpGreaterThan:    "greaterThan",
	jsonapi.OpGreaterOrEqual: "greaterOrEqual",
	jsonapi.OpLessThan:       "lessThan",
	jsonapi.OpLessOrEqual:    "lessOrEqual",
}

var textFunctions = map[string]string{
	jsonapi.MethodContains:   "contains",
	jsonapi.MethodStartsWith: "startsWith",
	jsonapi.MethodEndsWith:   "endsWith",
}

// filterVisitor renders a boolean expression into the filter language in a
// single recursive pass. Both operands of every binary node are always
// visited.
type filterVisitor struct {
	registry *jsonapi.Registry
	sb       strings.Builder
}

// Filter renders expr as a filter expression. Member paths are prefixed with
// prefix when it is not empty.
func Filter(registry *jsonapi.Registry, expr jsonapi.Expr, prefix string) (string, error) {
	visitor := &filterVisitor{registry: registry}

	err := visitor.predicate(expr, prefix)
	if err != nil {
		return "", err
	}

	return visitor.sb.String(), nil
}

// predicate visits a node in boolean position.
func (v *filterVisitor) predicate(expr jsonapi.Expr, prefix string) error {
	switch node := expr.(type) {
	case *jsonapi.Member:
		path, err := v.memberPath(node, prefix)
		if err != nil {
			return err
		}

		v.sb.WriteString("equals(")
		v.sb.WriteString(path)
		v.sb.WriteString(",'true')")

		return nil
	case *jsonapi.Binary:
		return v.binary(node, prefix)
	case *jsonapi.Unary:
		return v.unary(node, prefix)
	case *jsonapi.Call:
		return v.call(node, prefix)
	case *jsonapi.Constant:
		v.sb.WriteString(FormatValue(node.Value))

		return nil
	case *jsonapi.Captured:
		v.sb.WriteString(FormatValue(node.Value))

		return nil
	default:
		return fmt.Errorf("%w: expected a boolean expression, found %s",
			jsonapi.ErrUnsupportedExpressionShape, nodeType(expr))
	}
}

// operand visits a node in value position.
func (v *filterVisitor) operand(expr jsonapi.Expr, prefix string) error {
	switch node := expr.(type) {
	case *jsonapi.Member:
		path, err := v.memberPath(node, prefix)
		if err != nil {
			return err
		}

		v.sb.WriteString(path)

		return nil
	case *jsonapi.Constant:
		v.sb.WriteString(FormatValue(node.Value))

		return nil
	case *jsonapi.Captured:
		v.sb.WriteString(FormatValue(node.Value))

		return nil
	case *jsonapi.List:
		for i, element := range node.Elements {
			if i > 0 {
				v.sb.WriteByte(',')
			}

			err := v.element(element, prefix)
			if err != nil {
				return err
			}
		}

		return nil
	default:
		return v.predicate(expr, prefix)
	}
}

func (v *filterVisitor) element(expr jsonapi.Expr, prefix string) error {
	switch node := expr.(type) {
	case *jsonapi.Constant:
		v.sb.WriteString(FormatElement(node.Value))
	case *jsonapi.Captured:
		v.sb.WriteString(FormatElement(node.Value))
	default:
		return v.operand(expr, prefix)
	}

	return nil
}

func (v *filterVisitor) binary(node *jsonapi.Binary, prefix string) error {
	switch node.Op {
	case jsonapi.OpAnd, jsonapi.OpOr:
		v.sb.WriteString(string(node.Op))
		v.sb.WriteByte('(')

		err := v.predicate(node.Left, prefix)
		if err != nil {
			return err
		}

		v.sb.WriteByte(',')

		err = v.predicate(node.Right, prefix)
		if err != nil {
			return err
		}

		v.sb.WriteByte(')')

		return nil
	case jsonapi.OpNotEqual:
		v.sb.WriteString("not(")

		err := v.comparison("equals", node, prefix)
		if err != nil {
			return err
		}

		v.sb.WriteByte(')')

		return nil
	default:
		function, ok := comparisonFunctions[node.Op]
		if !ok {
			return fmt.Errorf("%w: the binary operator '%s' is not supported", jsonapi.ErrUnsupportedOperator, node.Op)
		}

		return v.comparison(function, node, prefix)
	}
}

func (v *filterVisitor) comparison(function string, node *jsonapi.Binary, prefix string) error {
	v.sb.WriteString(function)
	v.sb.WriteByte('(')

	err := v.operand(node.Left, prefix)
	if err != nil {
		return err
	}

	v.sb.WriteByte(',')

	err = v.operand(node.Right, prefix)
	if err != nil {
		return err
	}

	v.sb.WriteByte(')')

	return nil
}

func (v *filterVisitor) unary(node *jsonapi.Unary, prefix string) error {
	if node.Op != jsonapi.OpNot {
		return fmt.Errorf("%w: the unary operator '%s' is not supported", jsonapi.ErrUnsupportedOperator, node.Op)
	}

	v.sb.WriteString("not(")

	err := v.predicate(node.Operand, prefix)
	if err != nil {
		return err
	}

	v.sb.WriteByte(')')

	return nil
}

func (v *filterVisitor) call(node *jsonapi.Call, prefix string) error {
	switch node.Method {
	case jsonapi.MethodAny:
		return v.quantifier(node, prefix)
	case jsonapi.MethodContains, jsonapi.MethodStartsWith, jsonapi.MethodEndsWith:
		return v.text(node, prefix)
	default:
		return fmt.Errorf("%w: the method '%s' is not supported", jsonapi.ErrUnsupportedOperator, node.Method)
	}
}

// quantifier renders has(path) for a bare existence check, or the predicate
// with its members prefixed by the relationship path.
func (v *filterVisitor) quantifier(node *jsonapi.Call, prefix string) error {
	operands := node.Operands()
	if len(operands) == 0 || len(operands) > 2 {
		return fmt.Errorf("%w: Any expects a relationship and an optional predicate, found %d operands",
			jsonapi.ErrUnsupportedExpressionShape, len(operands))
	}

	path, err := RelationshipPath(v.registry, operands[0])
	if err != nil {
		return err
	}

	path = joinPath(prefix, path)

	if len(operands) == 1 {
		v.sb.WriteString("has(")
		v.sb.WriteString(path)
		v.sb.WriteByte(')')

		return nil
	}

	lambda, ok := operands[1].(*jsonapi.Lambda)
	if !ok {
		return fmt.Errorf("%w: Any expects a predicate lambda, found %s",
			jsonapi.ErrUnsupportedExpressionShape, nodeType(operands[1]))
	}

	return v.predicate(lambda.Body, path)
}

// text renders contains/startsWith/endsWith, or any(path,values...) when one
// operand of Contains is a sequence. Either operand order is accepted for
// sequences.
func (v *filterVisitor) text(node *jsonapi.Call, prefix string) error {
	operands := node.Operands()
	if len(operands) != 2 {
		return fmt.Errorf("%w: %s expects two operands, found %d",
			jsonapi.ErrUnsupportedExpressionShape, node.Method, len(operands))
	}

	subject, argument := operands[0], operands[1]
	function := textFunctions[node.Method]

	if node.Method == jsonapi.MethodContains {
		switch {
		case jsonapi.IsSequence(subject):
			subject, argument = argument, subject
			function = "any"
		case jsonapi.IsSequence(argument):
			function = "any"
		}
	}

	v.sb.WriteString(function)
	v.sb.WriteByte('(')

	err := v.operand(subject, prefix)
	if err != nil {
		return err
	}

	v.sb.WriteByte(',')

	err = v.operand(argument, prefix)
	if err != nil {
		return err
	}

	v.sb.WriteByte(')')

	return nil
}

func (v *filterVisitor) memberPath(member *jsonapi.Member, prefix string) (string, error) {
	path, err := AttributePath(v.registry, member)
	if err != nil {
		return "", err
	}

	return joinPath(prefix, path), nil
}

func joinPath(prefix, path string) string {
	if prefix == "" {
		return path
	}

	return prefix + "." + path
}
