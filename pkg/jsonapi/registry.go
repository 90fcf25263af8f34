package jsonapi

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/ettle/strcase"
	"github.com/puzpuzpuz/xsync/v4"
)

// DefaultChannel is the transport channel used by resources that do not name one.
const DefaultChannel = "default"

// TypeKey identifies a registered resource type.
type TypeKey string

// KeyOf returns the TypeKey under which Register stores the Go type T.
func KeyOf[T any]() TypeKey {
	t := reflect.TypeFor[T]()
	if t.PkgPath() == "" || t.Name() == "" {
		return TypeKey(t.String())
	}

	return TypeKey(t.PkgPath() + "." + t.Name())
}

// MemberDef declares an attribute or relationship of a resource.
type MemberDef struct {
	// Name is the declared member name, e.g. "LastName".
	Name string `yaml:"name"`
	// WireName overrides the name used on the wire. Defaults to the
	// lower-camel form of Name.
	WireName string `yaml:"wire_name,omitempty"`
	// ToMany marks a relationship as a collection. Ignored for attributes.
	ToMany bool `yaml:"to_many,omitempty"`
	// Target is the related resource type. Optional; only used for
	// introspection.
	Target TypeKey `yaml:"target,omitempty"`
}

// ResourceDef declares how a type is exposed as a JSON:API resource.
type ResourceDef struct {
	// Name is the resource type on the wire. Defaults to the lower-camel form
	// of TypeName.
	Name string `yaml:"name,omitempty"`
	// Namespace is the path segment preceding the resource name in URLs.
	Namespace string `yaml:"namespace"`
	// Channel selects the configured transport. Defaults to DefaultChannel.
	Channel string `yaml:"channel,omitempty"`
	// TypeName is the declared type name. Register fills it from the Go type.
	TypeName      string      `yaml:"type_name,omitempty"`
	Attributes    []MemberDef `yaml:"attributes,omitempty"`
	Relationships []MemberDef `yaml:"relationships,omitempty"`
}

// RelationshipMetadata is a resolved relationship member.
type RelationshipMetadata struct {
	Name     string
	WireName string
	ToMany   bool
	Target   TypeKey
}

// ResourceMetadata is the resolved, immutable view of a ResourceDef with all
// wire-name fallbacks applied.
type ResourceMetadata struct {
	Key           TypeKey
	Name          string
	Namespace     string
	Channel       string
	Attributes    []MemberDef
	Relationships []RelationshipMetadata

	attributes    map[string]string
	relationships map[string]RelationshipMetadata
}

// Registry holds resource declarations and a lazily populated cache of their
// resolved metadata. It is safe for concurrent use.
type Registry struct {
	defs  *xsync.Map[TypeKey, ResourceDef]
	cache *xsync.Map[TypeKey, *ResourceMetadata]
}

// DefaultRegistry is used by clients whose Config has no Registry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:  xsync.NewMap[TypeKey, ResourceDef](),
		cache: xsync.NewMap[TypeKey, *ResourceMetadata](),
	}
}

// Register declares the Go type T as a resource.
func Register[T any](reg *Registry, def ResourceDef) error {
	if def.TypeName == "" {
		def.TypeName = reflect.TypeFor[T]().Name()
	}

	return reg.RegisterKey(KeyOf[T](), def)
}

// MustRegister is like Register but panics on error. Intended for package
// initialization.
func MustRegister[T any](reg *Registry, def ResourceDef) {
	err := Register[T](reg, def)
	if err != nil {
		panic(err)
	}
}

// RegisterKey declares a resource under an explicit key. It is used for
// resources that have no dedicated Go type, such as schema-driven ones.
func (r *Registry) RegisterKey(key TypeKey, def ResourceDef) error {
	if def.TypeName == "" {
		def.TypeName = string(key)
	}

	seen := make(map[string]bool, len(def.Attributes)+len(def.Relationships))
	for _, member := range append(append([]MemberDef{}, def.Attributes...), def.Relationships...) {
		if member.Name == "" {
			return fmt.Errorf("%w: %s declares a member without a name", ErrInvalidMember, key)
		}

		if seen[member.Name] {
			return fmt.Errorf("%w: %s declares member %s twice", ErrInvalidMember, key, member.Name)
		}

		seen[member.Name] = true
	}

	_, loaded := r.defs.LoadOrStore(key, def)
	if loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, key)
	}

	return nil
}

// Resolve returns the resolved metadata for key. Results are memoized;
// concurrent first calls may both compute the value, which is harmless since
// the result is identical.
func (r *Registry) Resolve(key TypeKey) (*ResourceMetadata, error) {
	if meta, ok := r.cache.Load(key); ok {
		return meta, nil
	}

	def, ok := r.defs.Load(key)
	if !ok {
		return nil, fmt.Errorf("%w: type %s is not registered as a JSON:API resource", ErrMissingMetadata, key)
	}

	meta := resolveDef(key, def)
	r.cache.Store(key, meta)

	return meta, nil
}

func resolveDef(key TypeKey, def ResourceDef) *ResourceMetadata {
	meta := &ResourceMetadata{
		Key:           key,
		Name:          wireName(def.Name, def.TypeName),
		Namespace:     def.Namespace,
		Channel:       def.Channel,
		attributes:    make(map[string]string, len(def.Attributes)),
		relationships: make(map[string]RelationshipMetadata, len(def.Relationships)),
	}

	if meta.Channel == "" {
		meta.Channel = DefaultChannel
	}

	for _, attr := range def.Attributes {
		resolved := MemberDef{Name: attr.Name, WireName: wireName(attr.WireName, attr.Name)}
		meta.Attributes = append(meta.Attributes, resolved)
		meta.attributes[attr.Name] = resolved.WireName
	}

	for _, rel := range def.Relationships {
		resolved := RelationshipMetadata{
			Name:     rel.Name,
			WireName: wireName(rel.WireName, rel.Name),
			ToMany:   rel.ToMany,
			Target:   rel.Target,
		}
		meta.Relationships = append(meta.Relationships, resolved)
		meta.relationships[rel.Name] = resolved
	}

	return meta
}

func wireName(override, declared string) string {
	if override != "" {
		return override
	}

	return LowerCamel(declared)
}

// wireCaser splits only on case changes. Underscores and digits stay inside
// a word and Go initialisms keep their case after the first word.
var wireCaser = strcase.NewCaser(true, nil, strcase.NewSplitFn(nil, strcase.SplitCase, strcase.SplitAcronym))

// LowerCamel converts a declared name to its default wire form: BookID
// becomes bookID and PageURL becomes pageURL.
func LowerCamel(name string) string {
	return wireCaser.ToCamel(name)
}

// ResourceName returns the wire type of key.
func (r *Registry) ResourceName(key TypeKey) (string, error) {
	meta, err := r.Resolve(key)
	if err != nil {
		return "", err
	}

	return meta.Name, nil
}

// Namespace returns the API namespace of key.
func (r *Registry) Namespace(key TypeKey) (string, error) {
	meta, err := r.Resolve(key)
	if err != nil {
		return "", err
	}

	return meta.Namespace, nil
}

// Channel returns the transport channel id of key.
func (r *Registry) Channel(key TypeKey) (string, error) {
	meta, err := r.Resolve(key)
	if err != nil {
		return "", err
	}

	return meta.Channel, nil
}

// AttributeWireName resolves an attribute member of key.
func (r *Registry) AttributeWireName(key TypeKey, member string) (string, error) {
	meta, err := r.Resolve(key)
	if err != nil {
		return "", err
	}

	name, ok := meta.attributes[member]
	if !ok {
		return "", fmt.Errorf("%w: member %s of %s is not declared as a JSON:API attribute", ErrInvalidMember, member, key)
	}

	return name, nil
}

// RelationshipWireName resolves a relationship member of key.
func (r *Registry) RelationshipWireName(key TypeKey, member string) (string, error) {
	rel, err := r.Relationship(key, member)
	if err != nil {
		return "", err
	}

	return rel.WireName, nil
}

// Relationship returns the resolved relationship member of key.
func (r *Registry) Relationship(key TypeKey, member string) (RelationshipMetadata, error) {
	meta, err := r.Resolve(key)
	if err != nil {
		return RelationshipMetadata{}, err
	}

	rel, ok := meta.relationships[member]
	if !ok {
		return RelationshipMetadata{}, fmt.Errorf("%w: member %s of %s is not declared as a JSON:API relationship", ErrInvalidMember, member, key)
	}

	return rel, nil
}

// MemberWireName resolves a member that may be either an attribute or a
// relationship.
func (r *Registry) MemberWireName(key TypeKey, member string) (string, error) {
	meta, err := r.Resolve(key)
	if err != nil {
		return "", err
	}

	if name, ok := meta.attributes[member]; ok {
		return name, nil
	}

	if rel, ok := meta.relationships[member]; ok {
		return rel.WireName, nil
	}

	return "", fmt.Errorf("%w: member %s is not a valid attribute or relationship of %s", ErrInvalidMember, member, key)
}

// Keys returns every registered key in lexical order.
func (r *Registry) Keys() []TypeKey {
	keys := make([]TypeKey, 0, r.defs.Size())
	r.defs.Range(func(key TypeKey, _ ResourceDef) bool {
		keys = append(keys, key)

		return true
	})

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}
