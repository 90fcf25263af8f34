// Package document decodes JSON:API response documents into Go values.
//
// Resource objects are flattened before decoding: "id", "type", every
// attribute and every relationship become top-level members, so a target
// struct only needs json tags matching the wire names. Relationship linkage
// is resolved against the "included" section. Each included resource is
// expanded once per primary resource, at its shallowest reference; a
// resource that is not included, or that was already expanded, is left as
// its identifier.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/tidwall/gjson"
)

type identity struct {
	typ string
	id  string
}

type decoder struct {
	included map[identity]gjson.Result
}

// DecodeMany decodes a collection document. A null "data" yields an empty
// slice and a single resource object yields a one-element slice.
func DecodeMany[T any](body []byte) (*jsonapi.Document[T], error) {
	root, err := parse(body)
	if err != nil {
		return nil, err
	}

	data := root.Get("data")
	dec := newDecoder(root)

	var resources []gjson.Result

	switch {
	case data.IsArray():
		resources = data.Array()
	case data.IsObject():
		resources = []gjson.Result{data}
	case data.Type != gjson.Null:
		return nil, fmt.Errorf("%w: data must be an array, an object or null, found %s", jsonapi.ErrUnexpectedDocumentShape, data.Type)
	}

	values := make([]T, 0, len(resources))

	for _, resource := range resources {
		var value T

		err = dec.decodeInto(resource, &value)
		if err != nil {
			return nil, err
		}

		values = append(values, value)
	}

	return &jsonapi.Document[T]{
		Data:  values,
		Links: links(root.Get("links")),
		Meta:  meta(root.Get("meta")),
	}, nil
}

// DecodeOne decodes a single-resource document. A null "data" yields nil.
func DecodeOne[T any](body []byte) (*T, error) {
	root, err := parse(body)
	if err != nil {
		return nil, err
	}

	data := root.Get("data")

	switch {
	case data.Type == gjson.Null:
		return nil, nil //nolint:nilnil // a null primary resource is a valid answer
	case !data.IsObject():
		return nil, fmt.Errorf("%w: data must be a resource object or null, found %s", jsonapi.ErrUnexpectedDocumentShape, data.Type)
	}

	var value T

	err = newDecoder(root).decodeInto(data, &value)
	if err != nil {
		return nil, err
	}

	return &value, nil
}

// parse checks the envelope. Error documents are returned as
// *jsonapi.ResponseError.
func parse(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: body is not valid JSON", jsonapi.ErrInvalidDocument)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: top level must be an object", jsonapi.ErrInvalidDocument)
	}

	data := root.Get("data")
	errs := root.Get("errors")

	if !data.Exists() && errs.Exists() {
		errResp, err := jsonapi.ParseResponseError([]byte(root.Raw))
		if err != nil {
			return gjson.Result{}, fmt.Errorf("%w: %w", jsonapi.ErrInvalidDocument, err)
		}

		return gjson.Result{}, errResp
	}

	if !data.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: missing primary data", jsonapi.ErrUnexpectedDocumentShape)
	}

	return root, nil
}

func newDecoder(root gjson.Result) *decoder {
	dec := &decoder{included: make(map[identity]gjson.Result)}

	root.Get("included").ForEach(func(_, resource gjson.Result) bool {
		dec.included[identityOf(resource)] = resource

		return true
	})

	return dec
}

func (d *decoder) decodeInto(resource gjson.Result, target any) error {
	if !resource.IsObject() {
		return fmt.Errorf("%w: resource must be an object, found %s", jsonapi.ErrUnexpectedDocumentShape, resource.Type)
	}

	flat, err := json.Marshal(d.flatten(resource))
	if err != nil {
		return fmt.Errorf("flattening resource: %w", err)
	}

	err = json.Unmarshal(flat, target)
	if err != nil {
		return fmt.Errorf("%w: decoding %s resource: %w", jsonapi.ErrInvalidDocument, resource.Get("type").String(), err)
	}

	return nil
}

// flatten merges identity, attributes and relationships into one object.
// Included resources are expanded breadth first, each at most once per
// primary resource, so the result is a tree no larger than the document.
func (d *decoder) flatten(resource gjson.Result) map[string]any {
	e := &expansion{
		decoder:  d,
		expanded: map[identity]bool{identityOf(resource): true},
	}

	root := members(resource)
	e.queue = append(e.queue, pending{resource: resource, flat: root})

	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue = e.queue[1:]

		e.relationships(next)
	}

	return root
}

type pending struct {
	resource gjson.Result
	flat     map[string]any
}

type expansion struct {
	decoder  *decoder
	expanded map[identity]bool
	queue    []pending
}

func (e *expansion) relationships(item pending) {
	item.resource.Get("relationships").ForEach(func(key, relationship gjson.Result) bool {
		linkage := relationship.Get("data")

		switch {
		case !linkage.Exists():
		case linkage.IsArray():
			items := linkage.Array()
			related := make([]any, 0, len(items))

			for _, linked := range items {
				related = append(related, e.resolve(linked))
			}

			item.flat[key.String()] = related
		case linkage.IsObject():
			item.flat[key.String()] = e.resolve(linkage)
		default:
			item.flat[key.String()] = nil
		}

		return true
	})
}

// resolve expands an included resource the first time it is reached and
// leaves every later reference, and every resource not included, as its
// identifier.
func (e *expansion) resolve(linkage gjson.Result) any {
	ident := identityOf(linkage)

	resource, ok := e.decoder.included[ident]
	if !ok || e.expanded[ident] {
		return map[string]any{
			"id":   rawOrNull(linkage.Get("id")),
			"type": ident.typ,
		}
	}

	e.expanded[ident] = true

	flat := members(resource)
	e.queue = append(e.queue, pending{resource: resource, flat: flat})

	return flat
}

// members copies identity and attributes. Relationships are filled in when
// the resource is dequeued.
func members(resource gjson.Result) map[string]any {
	flat := make(map[string]any)

	resource.Get("attributes").ForEach(func(key, value gjson.Result) bool {
		flat[key.String()] = json.RawMessage(value.Raw)

		return true
	})

	flat["type"] = resource.Get("type").String()
	if id := resource.Get("id"); id.Exists() {
		flat["id"] = json.RawMessage(id.Raw)
	}

	return flat
}

func rawOrNull(value gjson.Result) any {
	if !value.Exists() {
		return nil
	}

	return json.RawMessage(value.Raw)
}

func identityOf(resource gjson.Result) identity {
	return identity{
		typ: resource.Get("type").String(),
		id:  resource.Get("id").String(),
	}
}

// links reads top-level links, which may be strings or link objects.
func links(value gjson.Result) jsonapi.Links {
	if !value.IsObject() {
		return nil
	}

	result := make(jsonapi.Links)

	value.ForEach(func(key, link gjson.Result) bool {
		switch {
		case link.IsObject():
			result[key.String()] = link.Get("href").String()
		case link.Type == gjson.String:
			result[key.String()] = link.String()
		}

		return true
	})

	return result
}

func meta(value gjson.Result) map[string]any {
	if !value.IsObject() {
		return nil
	}

	result, ok := value.Value().(map[string]interface{})
	if !ok {
		return nil
	}

	return result
}
