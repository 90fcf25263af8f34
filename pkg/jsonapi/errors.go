package jsonapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Translation errors. These are returned before any network I/O and are
// deterministic for a given expression.
var (
	ErrMissingMetadata             = errors.New("missing resource metadata")
	ErrInvalidMember               = errors.New("invalid member")
	ErrInvalidExpressionShape      = errors.New("invalid expression shape")
	ErrUnsupportedExpressionShape  = errors.New("unsupported expression shape")
	ErrUnsupportedOperator         = errors.New("unsupported operator")
	ErrArgumentOutOfRange          = errors.New("argument out of range")
	ErrDuplicateResource           = errors.New("resource already registered")
	ErrChannelNotFound             = errors.New("transport channel not configured")
	ErrChannelBaseURLRequired      = errors.New("channel base URL is required")
	ErrConfigRequired              = errors.New("config is required")
	ErrNoChannelsConfigured        = errors.New("no channels configured")
	ErrUnexpectedDocumentShape     = errors.New("unexpected JSON:API document shape")
	ErrInvalidDocument             = errors.New("invalid JSON:API document")
	ErrClientCredentialsIncomplete = errors.New("client credentials require token URL, client ID and client secret")
)

// ErrorSource identifies the part of the request that caused an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"   yaml:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Header    string `json:"header,omitempty"    yaml:"header,omitempty"`
}

// APIError is a JSON:API error object.
type APIError struct {
	ID     string         `json:"id,omitempty"     yaml:"id,omitempty"`
	Status string         `json:"status,omitempty" yaml:"status,omitempty"`
	Code   string         `json:"code,omitempty"   yaml:"code,omitempty"`
	Title  string         `json:"title,omitempty"  yaml:"title,omitempty"`
	Detail string         `json:"detail,omitempty" yaml:"detail,omitempty"`
	Source *ErrorSource   `json:"source,omitempty" yaml:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"   yaml:"meta,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (status: %s)", e.Title, e.Status)
	}

	return fmt.Sprintf("%s: %s (status: %s)", e.Title, e.Detail, e.Status)
}

// StatusCode returns the numeric form of Status, or 0 when it is absent.
func (e *APIError) StatusCode() int {
	code, err := strconv.Atoi(e.Status)
	if err != nil {
		return 0
	}

	return code
}

// ResponseError is the top-level error document returned by a JSON:API server.
type ResponseError struct {
	Errors []APIError `json:"errors"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return "unknown error"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	return fmt.Sprintf("multiple errors: %v", e.Errors)
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *APIError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// HTTPError is returned when a request ends with a non-2xx status, after any
// retries were exhausted.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Errors     []APIError
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("HTTP request failed with status code %d", e.StatusCode)
	if len(e.Errors) > 0 {
		return msg + ": " + e.Errors[0].Error()
	}

	return msg
}

// NewHTTPError builds an HTTPError, parsing a JSON:API error document from body
// when one is present.
func NewHTTPError(statusCode int, body []byte) *HTTPError {
	httpErr := &HTTPError{StatusCode: statusCode, Body: body}

	errResp, err := ParseResponseError(body)
	if err == nil {
		httpErr.Errors = errResp.Errors
	}

	return httpErr
}

// ParseResponseError parses an error document from JSON.
func ParseResponseError(data []byte) (*ResponseError, error) {
	var errResp ResponseError

	err := json.Unmarshal(data, &errResp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response error: %w", err)
	}

	return &errResp, nil
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

func hasStatus(err error, status int) bool {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == status
	}

	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode() == status
	}

	errResp := &ResponseError{}
	if errors.As(err, &errResp) {
		first := errResp.FirstError()
		if first != nil {
			return first.StatusCode() == status
		}
	}

	return false
}

// StatementKind names a query clause.
type StatementKind string

// Statement kinds in the order their parameters appear in a query string.
const (
	KindInclude    StatementKind = "include"
	KindWhere      StatementKind = "filter"
	KindSelect     StatementKind = "select"
	KindSort       StatementKind = "sort"
	KindPageSize   StatementKind = "page-size"
	KindPageNumber StatementKind = "page-number"
)

// TranslationError reports which statement failed to translate. It unwraps to
// one of the translation sentinel errors.
type TranslationError struct {
	Kind StatementKind
	Err  error
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	return fmt.Sprintf("translating %s statement: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *TranslationError) Unwrap() error {
	return e.Err
}
