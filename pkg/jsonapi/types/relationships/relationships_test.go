package relationships

import (
	"encoding/json"
	"testing"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/matryer/is"
)

func TestIsRelationship(t *testing.T) {
	is := is.New(t)

	is.True(IsRelationship(map[string]any{"type": "node--page", "id": "abc"}))
	is.True(!IsRelationship(map[string]any{"type": "node", "id": "abc"}))      // type without separator
	is.True(!IsRelationship(map[string]any{"type": "node--page"}))             // missing id
	is.True(!IsRelationship([]any{map[string]any{"type": "a--b", "id": "1"}})) // arrays are never references
	is.True(!IsRelationship("node--page"))
}

func TestAsReferenceWithCustomPredicate(t *testing.T) {
	is := is.New(t)

	onlyMedia := func(v any) bool {
		obj, ok := v.(map[string]any)
		return ok && obj["type"] == "media--image"
	}

	ref, ok := AsReference(map[string]any{"type": "media--image", "id": "m1"}, onlyMedia)
	is.True(ok)
	is.Equal(ref.Entity, "media")
	is.Equal(ref.Bundle, "image")
	is.Equal(ref.LookupKey(), types.LookupKey{Entity: "media", Bundle: "image", UUID: "m1"})

	_, ok = AsReference(map[string]any{"type": "node--page", "id": "n1"}, onlyMedia)
	is.True(!ok) // rejected by custom predicate
}

func TestExtractFindsNestedReferencesOnce(t *testing.T) {
	is := is.New(t)

	var group map[string]any
	err := json.Unmarshal([]byte(relationshipsJSON), &group)
	is.NoErr(err)

	found := Extract(testEndpoint, nil, group)

	is.Equal(len(found), 3) // should deduplicate the repeated tag reference
	is.Equal(found["taxonomy_term/tags/t1"], types.LookupKey{Entity: "taxonomy_term", Bundle: "tags", UUID: "t1"})
	_, ok := found["paragraph/text/p1"]
	is.True(ok)
	_, ok = found["media/image/m1"]
	is.True(ok)
}

func TestExtractStopsAtReferences(t *testing.T) {
	is := is.New(t)

	value := map[string]any{
		"type": "node--page",
		"id":   "outer",
		"meta": map[string]any{
			"nested": map[string]any{"type": "node--page", "id": "inner"},
		},
	}

	found := Extract(testEndpoint, nil, value)
	is.Equal(len(found), 1)
	_, ok := found["node/page/outer"]
	is.True(ok)
}

func TestExtractWithNoValues(t *testing.T) {
	is := is.New(t)
	is.Equal(len(Extract(testEndpoint, nil)), 0)
	is.Equal(len(Extract(testEndpoint, nil, nil, "scalar", 17.0)), 0)
}

func testEndpoint(k types.LookupKey) string {
	return k.Entity + "/" + k.Bundle + "/" + k.UUID
}

const relationshipsJSON string = `{
	"field_tags": {
		"data": [
			{"type": "taxonomy_term--tags", "id": "t1"},
			{"type": "taxonomy_term--tags", "id": "t1"}
		]
	},
	"field_image": {
		"data": {"type": "media--image", "id": "m1", "meta": {"alt": "a picture"}}
	},
	"paragraphs": {
		"data": [
			{"type": "paragraph--text", "id": "p1"}
		]
	},
	"field_empty": {"data": null}
}`
