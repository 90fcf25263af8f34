// Package jsonapiclient provides the entry point for building typed JSON:API
// query clients on top of the jsonapi package.
//
// Resource types are declared once in a jsonapi.Registry. Queries are then
// composed from typed selectors and translated into JSON:API query strings
// when they run.
//
// Quick start
//
//	type Author struct {
//	  ID       string `json:"id"`
//	  LastName string `json:"lastName"`
//	  Books    []Book `json:"books"`
//	}
//
//	jsonapi.MustRegister[Author](jsonapi.DefaultRegistry, jsonapi.ResourceDef{
//	  Name:          "authors",
//	  Namespace:     "api",
//	  Attributes:    []jsonapi.MemberDef{{Name: "LastName"}},
//	  Relationships: []jsonapi.MemberDef{{Name: "Books", ToMany: true}},
//	})
//
//	lastName := jsonapi.StrAttr[Author]("LastName")
//	books := jsonapi.Many[Author, Book]("Books")
//
//	cli, err := jsonapiclient.NewWithToken(ctx, "https://library.example.com", token)
//	if err != nil { log.Fatal(err) }
//
//	// GET /api/authors?include=books&filter=equals(lastName,'Smith')&page[size]=10
//	authors, err := jsonapiclient.Query[Author](cli).
//	  Where(lastName.Eq("Smith")).
//	  Include(books).
//	  PageSize(10).
//	  List(ctx)
//
// # Channels
//
// Each resource names the transport channel it is served from. Channels are
// configured in jsonapi.Config.Channels, each with its own base URL, headers
// and credentials. Resources without a channel use jsonapi.DefaultChannel.
//
// # Errors
//
// Translation failures are reported before any request is sent and unwrap to
// the sentinel errors of the jsonapi package. Non-2xx responses are returned
// as *jsonapi.HTTPError once retries are exhausted.
package jsonapiclient
