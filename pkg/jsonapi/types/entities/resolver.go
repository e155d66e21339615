package entities

import (
	"context"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/relationships"
)

// Resolver hydrates relationship references into entities. It owns caching,
// network access, the shared traversal state and any maximum depth cutoff.
type Resolver interface {
	// GetEntity fetches or constructs the entity identified by key at the given traversal depth
	GetEntity(ctx context.Context, key types.LookupKey, depth int) (*Entity, error)
	// GetRelationship returns the entity a reference points at, preferring already hydrated entities
	GetRelationship(ctx context.Context, ref relationships.Reference) (*Entity, error)

	HasBeenTraversed(key types.LookupKey) bool
	// Claim atomically marks key as traversed. It returns false if key was already claimed.
	Claim(key types.LookupKey) bool
	// Endpoint returns the canonical string form of key
	Endpoint(key types.LookupKey) string

	CacheToObject(ctx context.Context) (map[string]any, error)
	LoadCache(ctx context.Context, snapshot map[string]any) error
}
