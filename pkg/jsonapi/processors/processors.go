// Package processors builds value processors from jq expressions so that the
// shape of a field value can be configured rather than compiled in.
package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/entities"
	"github.com/itchyny/gojq"
)

// Processor is a compiled jq expression that is run against the raw structure of a field
type Processor struct {
	expr string
	code *gojq.Code
}

func Compile(expr string) (*Processor, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression %q: %w", expr, err)
	}

	return &Processor{expr: expr, code: code}, nil
}

func (p *Processor) String() string {
	return p.expr
}

// Apply runs the expression against raw. An expression yielding no result
// returns nil, and one yielding several results returns them as a slice.
func (p *Processor) Apply(ctx context.Context, raw any) (any, error) {
	input, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	results := []any{}

	iter := p.code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, ok := v.(error); ok {
			if err, ok := err.(*gojq.HaltError); ok && err.Value() == nil {
				break
			}
			return nil, fmt.Errorf("jq expression %q failed: %w", p.expr, err)
		}

		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func (p *Processor) Func() entities.ValueProcessorFunc {
	return p.Apply
}

// FromExpressions compiles a map of field names to jq expressions
func FromExpressions(expressions map[string]string) (map[string]entities.ValueProcessorFunc, error) {
	result := make(map[string]entities.ValueProcessorFunc, len(expressions))

	for _, field := range slices.Sorted(maps.Keys(expressions)) {
		p, err := Compile(expressions[field])
		if err != nil {
			return nil, fmt.Errorf("value processor for %s: %w", field, err)
		}
		result[field] = p.Func()
	}

	return result, nil
}

// normalize converts raw into the value types understood by gojq
func normalize(raw any) (any, error) {
	switch v := raw.(type) {
	case nil, bool, string, float64, int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return float64(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case []any:
		result := make([]any, len(v))
		for i := range v {
			n, err := normalize(v[i])
			if err != nil {
				return nil, err
			}
			result[i] = n
		}
		return result, nil
	case map[string]any:
		result := make(map[string]any, len(v))
		for k := range v {
			n, err := normalize(v[k])
			if err != nil {
				return nil, err
			}
			result[k] = n
		}
		return result, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unsupported value of type %T: %w", v, err)
		}

		var result any
		err = json.Unmarshal(b, &result)
		return result, err
	}
}
