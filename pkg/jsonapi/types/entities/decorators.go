package entities

import (
	"context"
	"maps"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/transform"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/relationships"
)

type EntityDecoratorFunc func(e *Entity)

// CleanFunc turns a raw JSON:API document into the document an entity wraps
type CleanFunc func(document map[string]any) map[string]any

// ValueProcessorFunc replaces the default resolution of a field value
type ValueProcessorFunc func(ctx context.Context, raw any) (any, error)

// UnwrapFunc resolves a reference of a specific entity kind and bundle
type UnwrapFunc func(ctx context.Context, e *Entity, ref relationships.Reference) (any, error)

const DefaultRelationshipGroup string = "relationships"

// RelationshipTests replaces the rules used to select relationship fields for the field map
func RelationshipTests(rules ...transform.Rule) EntityDecoratorFunc {
	return func(e *Entity) {
		e.relationshipTests = rules
	}
}

// RelationshipGroups replaces the resource members that hold relationship fields
func RelationshipGroups(groups ...string) EntityDecoratorFunc {
	return func(e *Entity) {
		e.relationshipGroups = groups
	}
}

func CleanEntity(fn CleanFunc) EntityDecoratorFunc {
	return func(e *Entity) {
		e.cleanEntity = fn
	}
}

// ValueProcessor registers a processor for the field with the given name
func ValueProcessor(field string, fn ValueProcessorFunc) EntityDecoratorFunc {
	return func(e *Entity) {
		processors := maps.Clone(e.valueProcessors)
		if processors == nil {
			processors = map[string]ValueProcessorFunc{}
		}
		processors[field] = fn
		e.valueProcessors = processors
	}
}

func ValueProcessors(processors map[string]ValueProcessorFunc) EntityDecoratorFunc {
	return func(e *Entity) {
		for field, fn := range processors {
			ValueProcessor(field, fn)(e)
		}
	}
}

func IsRelationship(fn relationships.IsRelationshipFunc) EntityDecoratorFunc {
	return func(e *Entity) {
		e.isRelationship = fn
	}
}

// Unwrap registers fn as the resolver for references of the given kind and bundle
func Unwrap(entityType, bundle string, fn UnwrapFunc) EntityDecoratorFunc {
	return func(e *Entity) {
		unwrappers := maps.Clone(e.unwrappers)
		if unwrappers == nil {
			unwrappers = map[unwrapKey]UnwrapFunc{}
		}
		unwrappers[unwrapKey{entityType, bundle}] = fn
		e.unwrappers = unwrappers
	}
}

// Depth sets the traversal depth the entity was hydrated at
func Depth(depth int) EntityDecoratorFunc {
	return func(e *Entity) {
		e.depth = depth
	}
}

type unwrapKey struct {
	entityType string
	bundle     string
}

func defaultUnwrappers() map[unwrapKey]UnwrapFunc {
	return map[unwrapKey]UnwrapFunc{
		{"paragraph", "from_library"}: unwrapLibraryParagraph,
	}
}
