package query

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
)

type memberKind int

const (
	attributeMember memberKind = iota
	relationshipMember
	anyMember
)

// memberWalker resolves member chains into dot-joined wire paths. The same
// walk serves attribute and relationship paths; they differ in the kind
// required at the leaf, the kind required at intermediate steps and whether
// Select/SelectMany projections are accepted.
type memberWalker struct {
	registry     *jsonapi.Registry
	leaf         memberKind
	intermediate memberKind
	projections  bool
}

// AttributePath resolves a member chain ending in an attribute, such as
// author.lastName.
func AttributePath(registry *jsonapi.Registry, expr jsonapi.Expr) (string, error) {
	walker := memberWalker{registry: registry, leaf: attributeMember, intermediate: anyMember}

	return walker.path(expr)
}

// RelationshipPath resolves a chain of relationships, including projections
// over to-many relationships, such as books.tagsBooks.tag.
func RelationshipPath(registry *jsonapi.Registry, expr jsonapi.Expr) (string, error) {
	walker := memberWalker{
		registry:     registry,
		leaf:         relationshipMember,
		intermediate: relationshipMember,
		projections:  true,
	}

	return walker.path(expr)
}

func (w memberWalker) path(expr jsonapi.Expr) (string, error) {
	segments, err := w.walk(expr, w.leaf)
	if err != nil {
		return "", err
	}

	return strings.Join(segments, "."), nil
}

func (w memberWalker) walk(expr jsonapi.Expr, want memberKind) ([]string, error) {
	switch node := expr.(type) {
	case *jsonapi.Member:
		var segments []string

		if node.Parent != nil {
			parent, err := w.walk(node.Parent, w.intermediate)
			if err != nil {
				return nil, err
			}

			segments = parent
		}

		name, err := w.wireName(node, want)
		if err != nil {
			return nil, err
		}

		return append(segments, name), nil
	case *jsonapi.Call:
		if !w.projections || (node.Method != jsonapi.MethodSelect && node.Method != jsonapi.MethodSelectMany) {
			return nil, fmt.Errorf("%w: expected member access or Select/SelectMany projection, found %s",
				jsonapi.ErrUnsupportedExpressionShape, node.NodeType())
		}

		source, lambda, err := projection(node)
		if err != nil {
			return nil, err
		}

		head, err := w.walk(source, relationshipMember)
		if err != nil {
			return nil, err
		}

		tail, err := w.walk(lambda.Body, want)
		if err != nil {
			return nil, err
		}

		return append(head, tail...), nil
	case nil:
		return nil, fmt.Errorf("%w: expected member access, found nothing", jsonapi.ErrUnsupportedExpressionShape)
	default:
		return nil, fmt.Errorf("%w: expected member access, found %s",
			jsonapi.ErrUnsupportedExpressionShape, expr.NodeType())
	}
}

// projection splits Select/SelectMany into its source collection and the
// continuation lambda. Both the extension form (source, lambda) and the
// receiver form are accepted.
func projection(call *jsonapi.Call) (jsonapi.Expr, *jsonapi.Lambda, error) {
	operands := call.Operands()
	if len(operands) != 2 {
		return nil, nil, fmt.Errorf("%w: %s expects a source and a lambda, found %d operands",
			jsonapi.ErrUnsupportedExpressionShape, call.Method, len(operands))
	}

	lambda, ok := operands[1].(*jsonapi.Lambda)
	if !ok || lambda.Body == nil {
		return nil, nil, fmt.Errorf("%w: %s expects a lambda, found %s",
			jsonapi.ErrUnsupportedExpressionShape, call.Method, nodeType(operands[1]))
	}

	return operands[0], lambda, nil
}

func (w memberWalker) wireName(member *jsonapi.Member, want memberKind) (string, error) {
	switch want {
	case attributeMember:
		return w.registry.AttributeWireName(member.Owner, member.Name)
	case relationshipMember:
		return w.registry.RelationshipWireName(member.Owner, member.Name)
	default:
		return w.registry.MemberWireName(member.Owner, member.Name)
	}
}

func nodeType(expr jsonapi.Expr) string {
	if expr == nil {
		return "nothing"
	}

	return expr.NodeType()
}
