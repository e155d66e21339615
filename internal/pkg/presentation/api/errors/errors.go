package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	//ErrorDocumentContentType is the media type of a JSON:API error document
	ErrorDocumentContentType string = "application/vnd.api+json"
)

//ErrorDocument is a JSON:API error document holding a single error object
type ErrorDocument struct {
	code   string
	title  string
	detail string
	status int
}

func newErrorDocument(status int, code, detail string) *ErrorDocument {
	return &ErrorDocument{
		code:   code,
		title:  http.StatusText(status),
		detail: detail,
		status: status,
	}
}

func NewBadRequestData(detail string) *ErrorDocument {
	return newErrorDocument(http.StatusBadRequest, "BadRequestData", detail)
}

func ReportNewBadRequestData(w http.ResponseWriter, detail string) {
	NewBadRequestData(detail).WriteResponse(w)
}

func NewNotFound(detail string) *ErrorDocument {
	return newErrorDocument(http.StatusNotFound, "ResourceNotFound", detail)
}

func ReportNotFoundError(w http.ResponseWriter, detail string) {
	NewNotFound(detail).WriteResponse(w)
}

func NewUnknownTenant(detail string) *ErrorDocument {
	return newErrorDocument(http.StatusNotFound, "UnknownTenant", detail)
}

func ReportUnknownTenantError(w http.ResponseWriter, detail string) {
	NewUnknownTenant(detail).WriteResponse(w)
}

func NewUnauthorizedRequest(detail string) *ErrorDocument {
	return newErrorDocument(http.StatusUnauthorized, "Unauthorized", detail)
}

func ReportUnauthorizedRequest(w http.ResponseWriter, detail string) {
	NewUnauthorizedRequest(detail).WriteResponse(w)
}

func NewForbidden(detail string) *ErrorDocument {
	return newErrorDocument(http.StatusForbidden, "Forbidden", detail)
}

func ReportForbiddenError(w http.ResponseWriter, detail string) {
	NewForbidden(detail).WriteResponse(w)
}

//NewBadGateway reports that the upstream JSON:API server failed or returned something unusable
func NewBadGateway(detail string) *ErrorDocument {
	return newErrorDocument(http.StatusBadGateway, "UpstreamError", detail)
}

func ReportBadGatewayError(w http.ResponseWriter, detail string) {
	NewBadGateway(detail).WriteResponse(w)
}

func NewInternalError(detail string) *ErrorDocument {
	return newErrorDocument(http.StatusInternalServerError, "InternalError", detail)
}

func ReportNewInternalError(w http.ResponseWriter, detail string) {
	NewInternalError(detail).WriteResponse(w)
}

func (e *ErrorDocument) ContentType() string {
	return ErrorDocumentContentType
}

func (e *ErrorDocument) Detail() string {
	return e.detail
}

func (e *ErrorDocument) MarshalJSON() ([]byte, error) {
	type errorObject struct {
		Status string `json:"status"`
		Code   string `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail,omitempty"`
	}

	return json.Marshal(struct {
		Errors []errorObject `json:"errors"`
	}{
		Errors: []errorObject{{
			Status: strconv.Itoa(e.ResponseCode()),
			Code:   e.code,
			Title:  e.title,
			Detail: e.detail,
		}},
	})
}

func (e *ErrorDocument) ResponseCode() int {
	if e.status != 0 {
		return e.status
	}

	return http.StatusBadRequest
}

//WriteResponse writes the contents of this instance to a http.ResponseWriter
func (e *ErrorDocument) WriteResponse(w http.ResponseWriter) {
	w.Header().Add("Content-Type", e.ContentType())
	w.Header().Add("Content-Language", "en")
	w.WriteHeader(e.ResponseCode())

	b, err := json.MarshalIndent(e, "", "  ")
	if err == nil {
		w.Write(b)
	}
}
