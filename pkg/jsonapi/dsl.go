package jsonapi

// Typed is an expression bound to the resource type its members are read
// from.
type Typed interface {
	Entity() TypeKey
	Expr() Expr
}

// Selector is a Typed expression whose lambda parameter is a T. Values are
// produced by the constructors in this package.
type Selector[T any] interface {
	Typed
	rootedAt(*T)
}

// Expression is an expression tree over T evaluated against Entity.
type Expression[T any] struct {
	entity TypeKey
	node   Expr
}

// Raw wraps a hand-built expression tree. It is meant for resources that are
// only known at runtime.
func Raw[T any](entity TypeKey, node Expr) Expression[T] {
	return Expression[T]{entity: entity, node: node}
}

// Entity implements Typed.
func (e Expression[T]) Entity() TypeKey { return e.entity }

// Expr implements Typed.
func (e Expression[T]) Expr() Expr { return e.node }

func (Expression[T]) rootedAt(*T) {}

// And combines e and other with a logical and.
func (e Expression[T]) And(other Expression[T]) Expression[T] {
	return And(e, other)
}

// Or combines e and other with a logical or.
func (e Expression[T]) Or(other Expression[T]) Expression[T] {
	return Or(e, other)
}

// Not negates a predicate.
func Not[T any](p Expression[T]) Expression[T] {
	return Expression[T]{entity: p.entity, node: &Unary{Op: OpNot, Operand: p.node}}
}

// And folds predicates left to right, so And(a, b, c) is and(and(a,b),c).
func And[T any](first Expression[T], rest ...Expression[T]) Expression[T] {
	return fold(OpAnd, first, rest)
}

// Or folds predicates left to right.
func Or[T any](first Expression[T], rest ...Expression[T]) Expression[T] {
	return fold(OpOr, first, rest)
}

func fold[T any](op Op, first Expression[T], rest []Expression[T]) Expression[T] {
	node := first.node
	for _, next := range rest {
		node = &Binary{Op: op, Left: node, Right: next.node}
	}

	return Expression[T]{entity: first.entity, node: node}
}

// Attribute selects an attribute of T holding values of type V.
type Attribute[T, V any] struct {
	member *Member
}

// Attr declares a selector for the attribute named name on T.
func Attr[T, V any](name string) Attribute[T, V] {
	return Attribute[T, V]{member: &Member{Owner: KeyOf[T](), Name: name}}
}

// Entity implements Typed.
func (a Attribute[T, V]) Entity() TypeKey { return KeyOf[T]() }

// Expr implements Typed.
func (a Attribute[T, V]) Expr() Expr { return a.member }

func (Attribute[T, V]) rootedAt(*T) {}

func (a Attribute[T, V]) compare(op Op, value V) Expression[T] {
	return Expression[T]{
		entity: KeyOf[T](),
		node:   &Binary{Op: op, Left: a.member, Right: &Constant{Value: value}},
	}
}

// Eq matches resources whose attribute equals value.
func (a Attribute[T, V]) Eq(value V) Expression[T] { return a.compare(OpEqual, value) }

// Ne matches resources whose attribute differs from value.
func (a Attribute[T, V]) Ne(value V) Expression[T] { return a.compare(OpNotEqual, value) }

// Gt matches resources whose attribute is greater than value.
func (a Attribute[T, V]) Gt(value V) Expression[T] { return a.compare(OpGreaterThan, value) }

// Ge matches resources whose attribute is greater than or equal to value.
func (a Attribute[T, V]) Ge(value V) Expression[T] { return a.compare(OpGreaterOrEqual, value) }

// Lt matches resources whose attribute is less than value.
func (a Attribute[T, V]) Lt(value V) Expression[T] { return a.compare(OpLessThan, value) }

// Le matches resources whose attribute is less than or equal to value.
func (a Attribute[T, V]) Le(value V) Expression[T] { return a.compare(OpLessOrEqual, value) }

// OneOf matches resources whose attribute equals any of the literal values.
func (a Attribute[T, V]) OneOf(values ...V) Expression[T] {
	elements := make([]Expr, 0, len(values))
	for _, value := range values {
		elements = append(elements, &Constant{Value: value})
	}

	return Expression[T]{
		entity: KeyOf[T](),
		node: &Call{
			Method: MethodContains,
			Args:   []Expr{&List{Elements: elements}, a.member},
		},
	}
}

// In matches resources whose attribute equals any element of values.
func (a Attribute[T, V]) In(values []V) Expression[T] {
	return Expression[T]{
		entity: KeyOf[T](),
		node: &Call{
			Method:   MethodContains,
			Receiver: &Captured{Name: "values", Value: values},
			Args:     []Expr{a.member},
		},
	}
}

// StringAttribute is an attribute holding text.
type StringAttribute[T any] struct {
	Attribute[T, string]
}

// StrAttr declares a selector for a text attribute.
func StrAttr[T any](name string) StringAttribute[T] {
	return StringAttribute[T]{Attribute: Attr[T, string](name)}
}

func (s StringAttribute[T]) text(method, value string) Expression[T] {
	return Expression[T]{
		entity: KeyOf[T](),
		node: &Call{
			Method:   method,
			Receiver: s.member,
			Args:     []Expr{&Constant{Value: value}},
		},
	}
}

// Contains matches resources whose attribute contains value.
func (s StringAttribute[T]) Contains(value string) Expression[T] {
	return s.text(MethodContains, value)
}

// StartsWith matches resources whose attribute starts with value.
func (s StringAttribute[T]) StartsWith(value string) Expression[T] {
	return s.text(MethodStartsWith, value)
}

// EndsWith matches resources whose attribute ends with value.
func (s StringAttribute[T]) EndsWith(value string) Expression[T] {
	return s.text(MethodEndsWith, value)
}

// BoolAttribute is an attribute holding a flag.
type BoolAttribute[T any] struct {
	Attribute[T, bool]
}

// BoolAttr declares a selector for a boolean attribute.
func BoolAttr[T any](name string) BoolAttribute[T] {
	return BoolAttribute[T]{Attribute: Attr[T, bool](name)}
}

// IsTrue matches resources whose flag is set.
func (b BoolAttribute[T]) IsTrue() Expression[T] {
	return Expression[T]{entity: KeyOf[T](), node: b.member}
}

// IsFalse matches resources whose flag is not set.
func (b BoolAttribute[T]) IsFalse() Expression[T] {
	return Not(b.IsTrue())
}

// Relation selects a relationship path from T to resources of type R.
type Relation[T, R any] struct {
	node   Expr
	toMany bool
}

// Many declares a to-many relationship named name on T.
func Many[T, R any](name string) Relation[T, R] {
	return Relation[T, R]{node: &Member{Owner: KeyOf[T](), Name: name}, toMany: true}
}

// One declares a to-one relationship named name on T.
func One[T, R any](name string) Relation[T, R] {
	return Relation[T, R]{node: &Member{Owner: KeyOf[T](), Name: name}}
}

// Entity implements Typed.
func (r Relation[T, R]) Entity() TypeKey { return KeyOf[T]() }

// Expr implements Typed.
func (r Relation[T, R]) Expr() Expr { return r.node }

func (Relation[T, R]) rootedAt(*T) {}

// ToMany reports whether the path crosses a collection.
func (r Relation[T, R]) ToMany() bool { return r.toMany }

// Exists matches resources that have at least one related resource.
func (r Relation[T, R]) Exists() Expression[T] {
	return Expression[T]{entity: KeyOf[T](), node: &Call{Method: MethodAny, Receiver: r.node}}
}

// Any matches resources with related resources satisfying pred.
func (r Relation[T, R]) Any(pred Expression[R]) Expression[T] {
	return Expression[T]{
		entity: KeyOf[T](),
		node: &Call{
			Method:   MethodAny,
			Receiver: r.node,
			Args:     []Expr{&Lambda{Param: KeyOf[R](), Body: pred.node}},
		},
	}
}

// Chain continues a relationship path. Crossing a to-many step renders as a
// projection over the collection, a to-one step as a member access.
func Chain[T, M, R any](first Relation[T, M], next Relation[M, R]) Relation[T, R] {
	if !first.toMany {
		return Relation[T, R]{node: rebase(next.node, first.node), toMany: next.toMany}
	}

	method := MethodSelect
	if next.toMany {
		method = MethodSelectMany
	}

	return Relation[T, R]{
		node: &Call{
			Method: method,
			Args:   []Expr{first.node, &Lambda{Param: KeyOf[M](), Body: next.node}},
		},
		toMany: true,
	}
}

// Via reads an attribute of a to-one related resource.
func Via[T, M, V any](rel Relation[T, M], attr Attribute[M, V]) Attribute[T, V] {
	member, _ := rebase(attr.member, rel.node).(*Member)

	return Attribute[T, V]{member: member}
}

// rebase returns a copy of node whose innermost parameter access is read from
// parent instead.
func rebase(node, parent Expr) Expr {
	switch n := node.(type) {
	case *Member:
		if n.Parent == nil {
			return &Member{Owner: n.Owner, Name: n.Name, Parent: parent}
		}

		return &Member{Owner: n.Owner, Name: n.Name, Parent: rebase(n.Parent, parent)}
	case *Call:
		args := append([]Expr{}, n.Args...)
		if n.Receiver != nil {
			return &Call{Method: n.Method, Receiver: rebase(n.Receiver, parent), Args: args}
		}

		if len(args) > 0 {
			args[0] = rebase(args[0], parent)
		}

		return &Call{Method: n.Method, Args: args}
	default:
		return node
	}
}

// Fields builds a sparse fieldset projection over E.
func Fields[E any](members ...Selector[E]) Expression[E] {
	args := make([]Expr, 0, len(members))
	for _, member := range members {
		args = append(args, member.Expr())
	}

	return Expression[E]{entity: KeyOf[E](), node: &New{Args: args}}
}

// Scope narrows a sort or page statement to a related collection reached
// from the root T.
type Scope[T any] struct {
	path Expr
}

// Within scopes a statement to the resources at the end of path.
func Within[T any](path Selector[T]) Scope[T] {
	return Scope[T]{path: path.Expr()}
}

// Path returns the relationship path expression of the scope.
func (s Scope[T]) Path() Expr { return s.path }
