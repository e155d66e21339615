package types

import (
	"strings"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/errors"
)

// TypeSeparator splits a resource type into its entity kind and bundle
const TypeSeparator string = "--"

// LookupKey identifies a resource that can be requested from the backend
type LookupKey struct {
	Entity string `json:"entity"`
	Bundle string `json:"bundle"`
	UUID   string `json:"uuid"`
}

func (k LookupKey) Type() string {
	return k.Entity + TypeSeparator + k.Bundle
}

func (k LookupKey) String() string {
	return k.Type() + "/" + k.UUID
}

// ParseType splits a resource type such as node--article into kind and bundle
func ParseType(typ string) (entity, bundle string, err error) {
	parts := strings.Split(typ, TypeSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.NewInvalidTypeError(typ)
	}

	return parts[0], parts[1], nil
}

func NewLookupKey(typ, id string) (LookupKey, error) {
	entity, bundle, err := ParseType(typ)
	if err != nil {
		return LookupKey{}, err
	}

	return LookupKey{Entity: entity, Bundle: bundle, UUID: id}, nil
}
