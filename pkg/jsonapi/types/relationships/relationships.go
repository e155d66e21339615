package relationships

import (
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
)

// Reference is a {type, id} pointer from one resource to another
type Reference struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Entity string `json:"-"`
	Bundle string `json:"-"`
}

func (r Reference) LookupKey() types.LookupKey {
	return types.LookupKey{Entity: r.Entity, Bundle: r.Bundle, UUID: r.ID}
}

// IsRelationshipFunc decides if a value has the shape of a relationship reference
type IsRelationshipFunc func(value any) bool

// IsRelationship accepts objects carrying a well formed type and a string id
func IsRelationship(value any) bool {
	_, ok := parse(value)
	return ok
}

// AsReference returns the reference held by value, if the supplied predicate accepts it
func AsReference(value any, isRelationship IsRelationshipFunc) (Reference, bool) {
	if isRelationship == nil {
		isRelationship = IsRelationship
	}

	if !isRelationship(value) {
		return Reference{}, false
	}

	return parse(value)
}

func parse(value any) (Reference, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return Reference{}, false
	}

	typ, ok := obj["type"].(string)
	if !ok {
		return Reference{}, false
	}

	id, ok := obj["id"].(string)
	if !ok || id == "" {
		return Reference{}, false
	}

	entity, bundle, err := types.ParseType(typ)
	if err != nil {
		return Reference{}, false
	}

	return Reference{Type: typ, ID: id, Entity: entity, Bundle: bundle}, true
}

// EndpointFunc returns the canonical string form of a lookup key
type EndpointFunc func(types.LookupKey) string

// Extract walks the supplied values and collects every reachable relationship reference,
// keyed by the endpoint of its lookup key. Descent stops at references.
func Extract(endpoint EndpointFunc, isRelationship IsRelationshipFunc, values ...any) map[string]types.LookupKey {
	found := map[string]types.LookupKey{}

	for _, v := range values {
		extract(v, endpoint, isRelationship, found)
	}

	return found
}

func extract(value any, endpoint EndpointFunc, isRelationship IsRelationshipFunc, found map[string]types.LookupKey) {
	if ref, ok := AsReference(value, isRelationship); ok {
		key := ref.LookupKey()
		found[endpoint(key)] = key
		return
	}

	switch typed := value.(type) {
	case map[string]any:
		for _, v := range typed {
			extract(v, endpoint, isRelationship, found)
		}
	case []any:
		for _, v := range typed {
			extract(v, endpoint, isRelationship, found)
		}
	}
}
