package entities

import (
	"context"
	"fmt"
	"slices"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/relationships"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("jsonapi-entities/entities")

const (
	TraceAttributeEntityType string = "entity-type"
	TraceAttributeEntityUUID string = "entity-uuid"
	TraceAttributeDepth      string = "traversal-depth"
)

// Relationships returns every lookup reachable from the entity's relationship groups,
// keyed by the endpoint the resolver reports for it
func (e *Entity) Relationships() (map[string]types.LookupKey, error) {
	if e.resolver == nil {
		return nil, errors.NewInternalError("no resolver available to compute endpoints")
	}

	data := e.data()

	groups := make([]any, 0, len(e.relationshipGroups))
	for _, group := range e.relationshipGroups {
		if value, ok := data[group]; ok {
			groups = append(groups, value)
		}
	}

	return relationships.Extract(e.resolver.Endpoint, e.isRelationship, groups...), nil
}

// LoadRelationships hydrates, concurrently and at depth+1, every reachable relationship
// that has not been traversed yet. It returns when all hydrations have completed, or with
// the first error encountered. Depth is not inspected here; the resolver decides where
// recursion stops.
func (e *Entity) LoadRelationships(ctx context.Context, depth int) error {
	var err error

	ctx, span := tracer.Start(ctx, "load-relationships",
		trace.WithAttributes(
			attribute.String(TraceAttributeEntityType, e.Type()),
			attribute.String(TraceAttributeEntityUUID, e.uuid),
			attribute.Int(TraceAttributeDepth, depth),
		),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	lookups, err := e.Relationships()
	if err != nil {
		return err
	}

	endpoints := make([]string, 0, len(lookups))
	for endpoint := range lookups {
		endpoints = append(endpoints, endpoint)
	}
	slices.Sort(endpoints)

	g, gctx := errgroup.WithContext(ctx)
	claimed := 0

	for _, endpoint := range endpoints {
		key := lookups[endpoint]

		if e.resolver.HasBeenTraversed(key) || !e.resolver.Claim(key) {
			continue
		}

		claimed++
		g.Go(func() error {
			_, err := e.resolver.GetEntity(gctx, key, depth+1)
			if err != nil {
				return fmt.Errorf("failed to hydrate %s: %w", endpoint, err)
			}
			return nil
		})
	}

	logging.GetFromContext(ctx).Debug("loading relationships",
		"type", e.Type(), "uuid", e.uuid, "depth", depth,
		"found", len(lookups), "claimed", claimed,
	)

	err = g.Wait()
	return err
}
