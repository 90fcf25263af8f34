package jsonapi

import (
	"reflect"
)

// Expr is a node of an expression tree. Trees are immutable once built and
// are only read during translation.
type Expr interface {
	// NodeType names the node kind. It is used in diagnostics.
	NodeType() string
}

// Op is a binary or unary operator.
type Op string

// Operators understood by the filter translator.
const (
	OpEqual          Op = "eq"
	OpNotEqual       Op = "ne"
	OpGreaterThan    Op = "gt"
	OpGreaterOrEqual Op = "ge"
	OpLessThan       Op = "lt"
	OpLessOrEqual    Op = "le"
	OpAnd            Op = "and"
	OpOr             Op = "or"
	OpNot            Op = "not"
)

// Method names accepted in Call nodes.
const (
	MethodContains   = "Contains"
	MethodStartsWith = "StartsWith"
	MethodEndsWith   = "EndsWith"
	MethodAny        = "Any"
	MethodSelect     = "Select"
	MethodSelectMany = "SelectMany"
)

// Member is a member access. A nil Parent means the member is read from the
// lambda parameter; otherwise it is read from the value Parent evaluates to.
type Member struct {
	Owner  TypeKey
	Name   string
	Parent Expr
}

// NodeType implements Expr.
func (*Member) NodeType() string { return "MemberAccess" }

// Binary is a comparison or logical composition.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
}

// NodeType implements Expr.
func (b *Binary) NodeType() string { return "Binary(" + string(b.Op) + ")" }

// Unary is a logical negation.
type Unary struct {
	Op      Op
	Operand Expr
}

// NodeType implements Expr.
func (u *Unary) NodeType() string { return "Unary(" + string(u.Op) + ")" }

// Constant is a literal value written inline in the expression.
type Constant struct {
	Value any
}

// NodeType implements Expr.
func (*Constant) NodeType() string { return "Constant" }

// Captured is a value captured from the surrounding scope, such as a local
// slice passed to In.
type Captured struct {
	Name  string
	Value any
}

// NodeType implements Expr.
func (*Captured) NodeType() string { return "Captured" }

// List is an inline sequence literal.
type List struct {
	Elements []Expr
}

// NodeType implements Expr.
func (*List) NodeType() string { return "List" }

// Call is a method call. Receiver is nil for the extension form, in which
// case the first argument plays the receiver role.
type Call struct {
	Method   string
	Receiver Expr
	Args     []Expr
}

// NodeType implements Expr.
func (c *Call) NodeType() string { return "Call(" + c.Method + ")" }

// Operands returns the receiver followed by the arguments, skipping a nil
// receiver.
func (c *Call) Operands() []Expr {
	if c.Receiver == nil {
		return c.Args
	}

	return append([]Expr{c.Receiver}, c.Args...)
}

// Lambda is a nested function over a resource of type Param.
type Lambda struct {
	Param TypeKey
	Body  Expr
}

// NodeType implements Expr.
func (*Lambda) NodeType() string { return "Lambda" }

// New is an anonymous projection listing the selected members.
type New struct {
	Args []Expr
}

// NodeType implements Expr.
func (*New) NodeType() string { return "New" }

// IsSequence reports whether e evaluates to a sequence of values.
func IsSequence(e Expr) bool {
	switch node := e.(type) {
	case *List:
		return true
	case *Constant:
		return isSequenceValue(node.Value)
	case *Captured:
		return isSequenceValue(node.Value)
	default:
		return false
	}
}

func isSequenceValue(value any) bool {
	if value == nil {
		return false
	}

	kind := reflect.TypeOf(value).Kind()

	return kind == reflect.Slice || kind == reflect.Array
}
