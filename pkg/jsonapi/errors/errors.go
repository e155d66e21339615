package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var ErrBadResponse = fmt.Errorf("bad response")
var ErrFieldNotFound = fmt.Errorf("field not found")
var ErrForbidden = fmt.Errorf("forbidden")
var ErrInternal = fmt.Errorf("internal error")
var ErrInvalidType = fmt.Errorf("invalid type")
var ErrNotFound = fmt.Errorf("not found")
var ErrRequest = fmt.Errorf("request error")
var ErrNotACollection = fmt.Errorf("not a collection")
var ErrIsACollection = fmt.Errorf("is a collection")

type myError struct {
	msg    string
	target error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }

// NewFieldNotFoundError reports a field name that is missing from an entity's field map
func NewFieldNotFoundError(field, entityType string) error {
	return &myError{
		msg:    fmt.Sprintf("field %s not found on entity %s", field, entityType),
		target: ErrFieldNotFound,
	}
}

func NewInvalidTypeError(typ string) error {
	return &myError{
		msg:    fmt.Sprintf("resource type %q is not of the form <entity>--<bundle>", typ),
		target: ErrInvalidType,
	}
}

func NewNotFoundError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrNotFound,
	}
}

func NewForbiddenError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrForbidden,
	}
}

func NewBadResponseError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrBadResponse,
	}
}

func NewInternalError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrInternal,
	}
}

// ErrorObject is a single entry of a JSON:API error document
type ErrorObject struct {
	Status string `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// NewErrorFromErrorDocument converts an error response from a JSON:API server into
// an error that can be matched against the sentinel errors in this package
func NewErrorFromErrorDocument(code int, body []byte) error {
	document := &struct {
		Errors []ErrorObject `json:"errors"`
	}{}

	if len(bytes.TrimSpace(body)) > 0 {
		err := json.Unmarshal(body, document)
		if err != nil {
			return NewBadResponseError(
				fmt.Sprintf("[code: %d] failed to process error document from server: %s", code, err.Error()),
			)
		}
	}

	details := make([]string, 0, len(document.Errors))
	for _, e := range document.Errors {
		if e.Detail != "" {
			details = append(details, e.Detail)
		} else if e.Title != "" {
			details = append(details, e.Title)
		}

		if status, err := strconv.Atoi(e.Status); err == nil && code < http.StatusBadRequest {
			code = status
		}
	}

	detail := strings.Join(details, "; ")
	if detail == "" {
		detail = http.StatusText(code)
	}

	switch code {
	case http.StatusNotFound:
		return NewNotFoundError(detail)
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewForbiddenError(detail)
	}

	if code >= http.StatusInternalServerError {
		return NewInternalError(fmt.Sprintf("[code: %d] %s", code, detail))
	}

	return NewBadResponseError(fmt.Sprintf("[code: %d] %s", code, detail))
}
