package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorEnvelope is the JSON body returned by every failed API call.
// Error holds either a message string or the upstream JSON error body.
type ErrorEnvelope struct {
	OK    bool `json:"ok"`
	Error any  `json:"error"`
}

// Standard error codes for client input errors
const (
	ErrCodeMissingParam     = "MISSING_PARAM"
	ErrCodeInvalidParam     = "INVALID_PARAM"
	ErrCodeUnsupportedHost  = "UNSUPPORTED_HOST"
	ErrCodeUpstreamFailure  = "UPSTREAM_FAILURE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeRouteNotFound    = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// Domain errors for client input. They are always reported as 4xx and are
// raised before any upstream call is made.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrMissingRecordID   = NewDomainError(ErrCodeMissingParam, "id is required")
	ErrInvalidRecordID   = NewDomainError(ErrCodeInvalidParam, "id must be a positive integer")
	ErrInvalidLimit      = NewDomainError(ErrCodeInvalidParam, "limit must be an integer between 0 and 500")
	ErrInvalidOffset     = NewDomainError(ErrCodeInvalidParam, "offset must be an integer between 0 and 10000")
	ErrInvalidOrder      = NewDomainError(ErrCodeInvalidParam, "order must list sortable fields, each optionally followed by asc or desc")
	ErrMissingImageURL   = NewDomainError(ErrCodeMissingParam, "url required")
	ErrUnsupportedImgURL = NewDomainError(ErrCodeUnsupportedHost, "unsupported host")
)

// UpstreamError describes a failed call to an upstream service: the kintone
// record API or an image host. Status is zero when no HTTP response was
// received (network failure, timeout).
type UpstreamError struct {
	Status int
	// Body is the decoded JSON error document returned by upstream, if any.
	Body any
	Err  error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream responded %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusOr returns the upstream status code, or fallback when none was received.
func (e *UpstreamError) StatusOr(fallback int) int {
	if e.Status >= http.StatusBadRequest {
		return e.Status
	}
	return fallback
}

// Detail returns what the API reports to the caller in the error envelope:
// the upstream JSON body when there is one, otherwise the error message.
func (e *UpstreamError) Detail() any {
	if e.Body != nil {
		return e.Body
	}
	return e.Error()
}

// NewUpstreamError builds an UpstreamError from a non-2xx upstream reply.
// The body is kept as decoded JSON when it parses, otherwise discarded.
func NewUpstreamError(status int, body []byte) *UpstreamError {
	ue := &UpstreamError{
		Status: status,
		Err:    errors.New(http.StatusText(status)),
	}
	var decoded any
	if len(body) > 0 && json.Unmarshal(body, &decoded) == nil {
		ue.Body = decoded
	}
	return ue
}
