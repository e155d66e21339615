package processors

import (
	"context"
	"testing"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/entities"
	"github.com/matryer/is"
)

func TestApply(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	p, err := Compile(".value")
	is.NoErr(err)

	v, err := p.Apply(ctx, map[string]any{"value": "<p>Hello</p>", "format": "basic_html"})
	is.NoErr(err)
	is.Equal(v, "<p>Hello</p>")
}

func TestApplyWithSeveralResults(t *testing.T) {
	is := is.New(t)

	p, err := Compile(".data[].id")
	is.NoErr(err)

	v, err := p.Apply(context.Background(), map[string]any{
		"data": []any{
			map[string]any{"type": "taxonomy_term--tags", "id": "a"},
			map[string]any{"type": "taxonomy_term--tags", "id": "b"},
		},
	})
	is.NoErr(err)
	is.Equal(v, []any{"a", "b"})
}

func TestApplyWithoutResultIsNil(t *testing.T) {
	is := is.New(t)

	p, err := Compile("empty")
	is.NoErr(err)

	v, err := p.Apply(context.Background(), "anything")
	is.NoErr(err)
	is.Equal(v, nil)
}

func TestApplyNormalizesNumbers(t *testing.T) {
	is := is.New(t)

	p, err := Compile(".width * 2")
	is.NoErr(err)

	v, err := p.Apply(context.Background(), map[string]any{"width": int64(320)})
	is.NoErr(err)
	is.Equal(v, float64(640))
}

func TestApplyFailsOnRuntimeError(t *testing.T) {
	is := is.New(t)

	p, err := Compile(`error("no summary")`)
	is.NoErr(err)

	_, err = p.Apply(context.Background(), nil)
	is.True(err != nil)
}

func TestCompileFailsOnInvalidExpression(t *testing.T) {
	is := is.New(t)

	_, err := Compile(".value |")
	is.True(err != nil)
}

func TestFromExpressionsAsEntityDecorator(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	fns, err := FromExpressions(map[string]string{
		"field_body": ".value",
	})
	is.NoErr(err)

	e, err := entities.NewFromJSON([]byte(`{
		"data": {
			"type": "node--article",
			"id": "1",
			"attributes": {
				"field_body": {"value": "<p>Hi</p>", "format": "basic_html", "processed": "<p>Hi</p>"},
				"field_lead": {"value": "lead"}
			}
		}
	}`), nil, entities.ValueProcessors(fns))
	is.NoErr(err)

	body, err := e.Value(ctx, "field_body")
	is.NoErr(err)
	is.Equal(body, "<p>Hi</p>")

	lead, err := e.Value(ctx, "field_lead")
	is.NoErr(err)
	is.Equal(lead, map[string]any{"value": "lead"})
}
