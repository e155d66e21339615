package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/cache"
	"github.com/matryer/is"
)

func TestGetAndSet(t *testing.T) {
	is, ctx, c := setupTest(t)

	_, err := c.Get(ctx, "https://cms.example/jsonapi/node/article/1")
	is.True(errors.Is(err, cache.ErrNotFound))

	err = c.Set(ctx, "https://cms.example/jsonapi/node/article/1", articleDocument())
	is.NoErr(err)

	doc, err := c.Get(ctx, "https://cms.example/jsonapi/node/article/1")
	is.NoErr(err)

	data := doc["data"].(map[string]any)
	attributes := data["attributes"].(map[string]any)
	is.Equal(attributes["drupal_internal__nid"], float64(42)) // numbers should be decoded as a json decoder would
	is.Equal(attributes["field_tags"], []any{"a", "b"})
}

func TestSnapshot(t *testing.T) {
	is, ctx, c := setupTest(t)

	is.NoErr(c.Set(ctx, "https://cms.example/jsonapi/node/article/1", articleDocument()))
	is.NoErr(c.Set(ctx, "https://cms.example/jsonapi/node/article/2", articleDocument()))

	snapshot, err := c.Snapshot(ctx)
	is.NoErr(err)
	is.Equal(len(snapshot), 2)

	_, ok := snapshot["https://cms.example/jsonapi/node/article/2"]
	is.True(ok)
}

func TestOnDiskRequiresDirectory(t *testing.T) {
	is := is.New(t)

	_, err := New(context.Background(), Options{})
	is.True(err != nil)
}

func setupTest(t *testing.T) (*is.I, context.Context, *Cache) {
	is := is.New(t)
	ctx := context.Background()

	c, err := New(ctx, Options{InMemory: true})
	is.NoErr(err)

	t.Cleanup(func() { c.Close() })

	return is, ctx, c
}

func articleDocument() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"type": "node--article",
			"id":   "1",
			"attributes": map[string]any{
				"drupal_internal__nid": 42,
				"field_tags":           []any{"a", "b"},
			},
		},
	}
}
