package query_test

import (
	"testing"
	"time"

	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/stretchr/testify/require"
)

type Author struct{}

type Book struct{}

type Tag struct{}

type BookTag struct{}

type TestModel struct{}

type Unregistered struct{}

var (
	authorFirstName = jsonapi.StrAttr[Author]("FirstName")
	authorLastName  = jsonapi.StrAttr[Author]("LastName")
	authorBooks     = jsonapi.Many[Author, Book]("Books")

	bookTitle     = jsonapi.StrAttr[Book]("Title")
	bookDeleted   = jsonapi.BoolAttr[Book]("Deleted")
	bookAuthor    = jsonapi.One[Book, Author]("Author")
	bookTags      = jsonapi.Many[Book, Tag]("Tags")
	bookTagsBooks = jsonapi.Many[Book, BookTag]("TagsBooks")

	tagLabel = jsonapi.StrAttr[Tag]("Label")
	tagBooks = jsonapi.Many[Tag, Book]("Books")

	bookTagTag = jsonapi.One[BookTag, Tag]("Tag")

	modelLastName     = jsonapi.StrAttr[TestModel]("LastName")
	modelAge          = jsonapi.Attr[TestModel, int]("Age")
	modelDescription  = jsonapi.StrAttr[TestModel]("Description")
	modelChapter      = jsonapi.StrAttr[TestModel]("Chapter")
	modelLastModified = jsonapi.Attr[TestModel, time.Time]("LastModified")
	modelDuration     = jsonapi.Attr[TestModel, time.Duration]("Duration")
	modelPercentage   = jsonapi.Attr[TestModel, float64]("Percentage")
	modelActive       = jsonapi.BoolAttr[TestModel]("Active")
	modelAuthors      = jsonapi.Many[TestModel, Author]("Authors")
)

func attrs(names ...string) []jsonapi.MemberDef {
	defs := make([]jsonapi.MemberDef, 0, len(names))
	for _, name := range names {
		defs = append(defs, jsonapi.MemberDef{Name: name})
	}

	return defs
}

func newRegistry(t *testing.T) *jsonapi.Registry {
	t.Helper()

	registry := jsonapi.NewRegistry()

	require.NoError(t, jsonapi.Register[Author](registry, jsonapi.ResourceDef{
		Name:          "authors",
		Namespace:     "api",
		Attributes:    attrs("FirstName", "LastName", "DateOfBirth", "Active"),
		Relationships: []jsonapi.MemberDef{{Name: "Books", ToMany: true}},
	}))
	require.NoError(t, jsonapi.Register[Book](registry, jsonapi.ResourceDef{
		Name:       "books",
		Namespace:  "api",
		Attributes: attrs("Title", "PublishDate", "Deleted"),
		Relationships: []jsonapi.MemberDef{
			{Name: "Author"},
			{Name: "Tags", ToMany: true},
			{Name: "TagsBooks", ToMany: true},
		},
	}))
	require.NoError(t, jsonapi.Register[Tag](registry, jsonapi.ResourceDef{
		Name:       "tags",
		Namespace:  "api.books",
		Attributes: attrs("Label"),
		Relationships: []jsonapi.MemberDef{
			{Name: "Books", ToMany: true},
			{Name: "TagsBooks", ToMany: true},
		},
	}))
	require.NoError(t, jsonapi.Register[BookTag](registry, jsonapi.ResourceDef{
		Name:      "tags-books",
		Namespace: "api.books",
		Attributes: []jsonapi.MemberDef{
			{Name: "BookID", WireName: "bookId"},
			{Name: "TagID", WireName: "tagId"},
		},
		Relationships: []jsonapi.MemberDef{{Name: "Book"}, {Name: "Tag"}},
	}))
	require.NoError(t, jsonapi.Register[TestModel](registry, jsonapi.ResourceDef{
		Namespace: "api",
		Attributes: attrs("LastName", "Age", "Description", "Chapter", "LastModified",
			"Duration", "Percentage", "Active"),
		Relationships: []jsonapi.MemberDef{{Name: "Authors", ToMany: true}},
	}))

	return registry
}
