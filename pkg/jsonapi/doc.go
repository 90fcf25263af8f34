// Package jsonapi provides the resource registry, the typed expression DSL
// and the shared types of the JSON:API query client.
//
// # Overview
//
// Resources are declared in a Registry with a ResourceDef naming the wire
// type, the URL namespace, the transport channel and the attribute and
// relationship members. Wire names default to the lower-camel form of the
// declared names.
//
//	jsonapi.MustRegister[Book](reg, jsonapi.ResourceDef{
//	  Name:          "books",
//	  Namespace:     "api",
//	  Attributes:    []jsonapi.MemberDef{{Name: "Title"}, {Name: "Pages", WireName: "pageCount"}},
//	  Relationships: []jsonapi.MemberDef{{Name: "Author"}},
//	})
//
// Selectors such as StrAttr, Attr, Many and One build immutable expression
// trees (Expr) that the query client translates into query parameters:
//
//	title := jsonapi.StrAttr[Book]("Title")
//	pages := jsonapi.Attr[Book, int]("Pages")
//	author := jsonapi.One[Book, Author]("Author")
//
//	// filter=and(contains(title,'war'),greaterThan(pageCount,300))
//	cond := title.Contains("war").And(pages.Gt(300))
//
//	// include=author
//	include := author
//
// Resources only known at runtime are registered with RegisterKey and queried
// through Raw expressions over Object.
//
// # Errors
//
// Translation errors unwrap to the sentinel errors declared in errors.go and
// are wrapped in a *TranslationError naming the failing statement. Failed
// responses are reported as *HTTPError; use IsNotFound, IsUnauthorized and
// IsForbidden to classify them.
package jsonapi
