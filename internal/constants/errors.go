package constants

import "errors"

// Schema and query file errors.
var (
	ErrSchemaRequired        = errors.New("--schema flag is required")
	ErrQueryRequired         = errors.New("--query flag is required")
	ErrResourceRequired      = errors.New("query file does not name a resource")
	ErrUnknownResource       = errors.New("resource is not declared in the schema")
	ErrUnknownMember         = errors.New("member is not declared in the schema")
	ErrRelationshipTarget    = errors.New("relationship declares no target resource")
	ErrInvalidFilterNode     = errors.New("invalid filter node")
	ErrUnknownFilterOperator = errors.New("unknown filter operator")
)

// Output errors.
var (
	ErrUnsupportedOutput = errors.New("unsupported output format")
	ErrInvalidHeader     = errors.New("header must have the form 'Name: value'")
)
