package entities

import (
	"context"
	"fmt"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/relationships"
)

const (
	ReusableParagraphField string = "field_reusable_paragraph"
	ParagraphsField        string = "paragraphs"
)

// Fields returns the names of all fields that can be queried on this entity
func (e *Entity) Fields() []string {
	fields := e.fieldMap()

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	return names
}

func (e *Entity) fieldMap() map[string][]string {
	e.fieldsOnce.Do(func() {
		e.fields = map[string][]string{}

		for name := range e.attributes() {
			e.fields[name] = []string{"data", "attributes", name}
		}

		data := e.data()
		for _, group := range e.relationshipGroups {
			fields, ok := data[group].(map[string]any)
			if !ok {
				continue
			}

			for name := range fields {
				if e.relationshipTests.Match(name) {
					e.fields[name] = []string{"data", group, name}
				}
			}
		}
	})

	return e.fields
}

// Field returns the raw value of a field without any unwrapping
func (e *Entity) Field(name string) (any, error) {
	path, ok := e.fieldMap()[name]
	if !ok {
		return nil, errors.NewFieldNotFoundError(name, e.entityType)
	}

	var current any = e.document
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, nil
		}
		current = obj[key]
	}

	return current, nil
}

// Value returns the first resolved value of a field. Relationship references are
// hydrated through the resolver and returned as *Entity.
func (e *Entity) Value(ctx context.Context, name string) (any, error) {
	raw, err := e.Field(name)
	if err != nil {
		return nil, err
	}

	if processor, ok := e.valueProcessors[name]; ok {
		return processor(ctx, raw)
	}

	return e.GetFieldValue(ctx, raw, 0)
}

// AllValues resolves every element of a to-many field
func (e *Entity) AllValues(ctx context.Context, name string) ([]any, error) {
	raw, err := e.Field(name)
	if err != nil {
		return nil, err
	}

	items, ok := raw.([]any)
	if !ok {
		if obj, isObj := raw.(map[string]any); isObj {
			items, ok = obj["data"].([]any)
		}
	}

	if !ok {
		value, err := e.GetFieldValue(ctx, raw, 0)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return []any{}, nil
		}
		return []any{value}, nil
	}

	values := make([]any, 0, len(items))
	for _, item := range items {
		value, err := e.GetFieldValue(ctx, item, 0)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, nil
}

// GetFieldValue resolves a single value out of a raw field structure, unwrapping
// data envelopes and arrays, and hydrating relationship references
func (e *Entity) GetFieldValue(ctx context.Context, structure any, index int) (any, error) {
	value := structure

	if obj, ok := value.(map[string]any); ok {
		if data, exposesData := obj["data"]; exposesData {
			value = data
			if arr, isArray := data.([]any); isArray {
				value = elementAt(arr, index)
			}
		}
	}

	if arr, ok := value.([]any); ok {
		value = elementAt(arr, index)
	}

	ref, ok := relationships.AsReference(value, e.isRelationship)
	if !ok {
		return value, nil
	}

	if e.resolver == nil {
		return nil, errors.NewInternalError(fmt.Sprintf("no resolver available to hydrate %s", ref.LookupKey()))
	}

	if unwrap, ok := e.unwrappers[unwrapKey{ref.Entity, ref.Bundle}]; ok {
		return unwrap(ctx, e, ref)
	}

	return e.resolver.GetEntity(ctx, ref.LookupKey(), e.depth+1)
}

func elementAt(arr []any, index int) any {
	if index < 0 || index >= len(arr) {
		return nil
	}
	return arr[index]
}

// unwrapLibraryParagraph collapses a paragraph--from_library reference into the
// paragraph stored in the referenced library item
func unwrapLibraryParagraph(ctx context.Context, e *Entity, ref relationships.Reference) (any, error) {
	wrapper, err := e.resolver.GetRelationship(ctx, ref)
	if err != nil {
		return nil, err
	}

	item, err := wrapper.Value(ctx, ReusableParagraphField)
	if err != nil {
		return nil, err
	}

	if item == nil {
		return nil, nil
	}

	libraryItem, ok := item.(*Entity)
	if !ok {
		return nil, errors.NewBadResponseError(
			fmt.Sprintf("%s on %s does not reference an entity", ReusableParagraphField, ref.LookupKey()),
		)
	}

	return libraryItem.Value(ctx, ParagraphsField)
}
