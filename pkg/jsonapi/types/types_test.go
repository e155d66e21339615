package types

import (
	"errors"
	"testing"

	jsonapierrors "github.com/diwise/jsonapi-entities/pkg/jsonapi/errors"
	"github.com/matryer/is"
)

func TestParseType(t *testing.T) {
	is := is.New(t)

	entity, bundle, err := ParseType("node--article")
	is.NoErr(err)
	is.Equal(entity, "node")
	is.Equal(bundle, "article")
	is.Equal(entity+TypeSeparator+bundle, "node--article")
}

func TestParseTypeWithoutSeparatorFails(t *testing.T) {
	is := is.New(t)

	for _, typ := range []string{"node", "node--", "--article", "a--b--c", ""} {
		_, _, err := ParseType(typ)
		is.True(errors.Is(err, jsonapierrors.ErrInvalidType)) // should fail with invalid type
	}
}

func TestLookupKey(t *testing.T) {
	is := is.New(t)

	key, err := NewLookupKey("paragraph--from_library", "0e8f1b3c-3c59-4e39-9c4d-4b4f2c9b1f1a")
	is.NoErr(err)
	is.Equal(key.Entity, "paragraph")
	is.Equal(key.Bundle, "from_library")
	is.Equal(key.Type(), "paragraph--from_library")
	is.Equal(key.String(), "paragraph--from_library/0e8f1b3c-3c59-4e39-9c4d-4b4f2c9b1f1a")
}
