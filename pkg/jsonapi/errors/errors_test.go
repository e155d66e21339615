package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/matryer/is"
)

func TestNotFoundErrorDocument(t *testing.T) {
	is := is.New(t)

	body := []byte(`{"errors":[{"title":"Not Found","status":"404","detail":"The requested resource could not be found."}]}`)
	err := NewErrorFromErrorDocument(http.StatusNotFound, body)

	is.True(errors.Is(err, ErrNotFound))
	is.Equal(err.Error(), "The requested resource could not be found.")
}

func TestEmptyErrorDocumentIsMappedOnStatusCode(t *testing.T) {
	is := is.New(t)

	is.True(errors.Is(NewErrorFromErrorDocument(http.StatusForbidden, nil), ErrForbidden))
	is.True(errors.Is(NewErrorFromErrorDocument(http.StatusUnauthorized, []byte(" ")), ErrForbidden))
	is.True(errors.Is(NewErrorFromErrorDocument(http.StatusBadGateway, nil), ErrInternal))
	is.True(errors.Is(NewErrorFromErrorDocument(http.StatusBadRequest, nil), ErrBadResponse))
}

func TestMalformedErrorDocument(t *testing.T) {
	is := is.New(t)

	err := NewErrorFromErrorDocument(http.StatusNotFound, []byte("<html>"))
	is.True(errors.Is(err, ErrBadResponse))
	is.True(!errors.Is(err, ErrNotFound))
}

func TestFieldNotFoundError(t *testing.T) {
	is := is.New(t)

	err := NewFieldNotFoundError("field_missing", "node--article")
	is.True(errors.Is(err, ErrFieldNotFound))
	is.Equal(err.Error(), "field field_missing not found on entity node--article")
}
