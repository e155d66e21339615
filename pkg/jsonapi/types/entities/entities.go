package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/transform"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/relationships"
)

// Entity wraps a single cleaned JSON:API resource
type Entity struct {
	document   map[string]any
	entityType string
	bundle     string
	uuid       string
	depth      int

	resolver Resolver

	relationshipTests  transform.Rules
	relationshipGroups []string
	cleanEntity        CleanFunc
	valueProcessors    map[string]ValueProcessorFunc
	isRelationship     relationships.IsRelationshipFunc
	unwrappers         map[unwrapKey]UnwrapFunc

	fieldsOnce sync.Once
	fields     map[string][]string

	idOnce sync.Once
	id     int64
	hasID  bool
}

// New cleans a raw document holding a single resource and wraps it in an Entity
func New(document map[string]any, resolver Resolver, decorators ...EntityDecoratorFunc) (*Entity, error) {
	e := newEntity(resolver, decorators)
	return e.init(e.cleanEntity(document))
}

func NewFromJSON(body []byte, resolver Resolver, decorators ...EntityDecoratorFunc) (*Entity, error) {
	var document map[string]any

	err := json.Unmarshal(body, &document)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}

	return New(document, resolver, decorators...)
}

func newEntity(resolver Resolver, decorators []EntityDecoratorFunc) *Entity {
	e := &Entity{
		resolver:           resolver,
		relationshipTests:  transform.DefaultRelationshipRules(),
		relationshipGroups: []string{DefaultRelationshipGroup},
		cleanEntity:        transform.Clean,
		isRelationship:     relationships.IsRelationship,
		unwrappers:         defaultUnwrappers(),
	}

	for _, decorator := range decorators {
		decorator(e)
	}

	return e
}

func (e *Entity) init(document map[string]any) (*Entity, error) {
	if document == nil {
		document = map[string]any{}
	}

	switch data := document["data"].(type) {
	case map[string]any:
		typ, _ := data["type"].(string)

		entityType, bundle, err := types.ParseType(typ)
		if err != nil {
			return nil, err
		}

		e.entityType = entityType
		e.bundle = bundle
		e.uuid, _ = data["id"].(string)
	case []any:
		return nil, fmt.Errorf("document holds %d resources (%w)", len(data), errors.ErrIsACollection)
	default:
		return nil, errors.NewBadResponseError("document does not contain a resource")
	}

	e.document = document

	return e, nil
}

// EntityType returns the entity kind, i.e. node for a resource of type node--article
func (e *Entity) EntityType() string {
	return e.entityType
}

func (e *Entity) Bundle() string {
	return e.bundle
}

// Type returns the resource type that the entity kind and bundle were parsed from
func (e *Entity) Type() string {
	return e.entityType + types.TypeSeparator + e.bundle
}

func (e *Entity) UUID() string {
	return e.uuid
}

func (e *Entity) Depth() int {
	return e.depth
}

func (e *Entity) LookupKey() types.LookupKey {
	return types.LookupKey{Entity: e.entityType, Bundle: e.bundle, UUID: e.uuid}
}

var internalID = regexp.MustCompile(transform.InternalIDPattern)

// ID returns the numeric backend id stored in the first drupal_internal__ id attribute
func (e *Entity) ID() (int64, bool) {
	e.idOnce.Do(func() {
		attributes := e.attributes()

		keys := make([]string, 0, len(attributes))
		for k := range attributes {
			if internalID.MatchString(k) {
				keys = append(keys, k)
			}
		}

		if len(keys) == 0 {
			return
		}

		slices.Sort(keys)
		e.id, e.hasID = toInt64(attributes[keys[0]])
	})

	return e.id, e.hasID
}

// ToObject returns a copy of the cleaned document, suitable for passing to New
func (e *Entity) ToObject() map[string]any {
	doc, _ := transform.DeepCopy(e.document).(map[string]any)
	return doc
}

// Envelope is the serialized form of an entity together with the resolver cache
type Envelope struct {
	Entity map[string]any `json:"entity"`
	Cache  map[string]any `json:"cache"`
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	return e.ToJSON(context.Background())
}

// ToJSON serializes the entity and a snapshot of every entity hydrated by its resolver
func (e *Entity) ToJSON(ctx context.Context) ([]byte, error) {
	envelope := Envelope{
		Entity: e.document,
		Cache:  map[string]any{},
	}

	if e.resolver != nil {
		cache, err := e.resolver.CacheToObject(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot cache: %w", err)
		}
		envelope.Cache = cache
	}

	return json.Marshal(envelope)
}

// NewFromEnvelope restores an entity serialized with ToJSON and seeds the resolver cache
func NewFromEnvelope(ctx context.Context, body []byte, resolver Resolver, decorators ...EntityDecoratorFunc) (*Entity, error) {
	envelope := Envelope{}

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	if resolver != nil && len(envelope.Cache) > 0 {
		err = resolver.LoadCache(ctx, envelope.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to load cache from envelope: %w", err)
		}
	}

	return New(envelope.Entity, resolver, decorators...)
}

func (e *Entity) data() map[string]any {
	data, _ := e.document["data"].(map[string]any)
	return data
}

func (e *Entity) attributes() map[string]any {
	attributes, ok := e.data()["attributes"].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return attributes
}

// Collection wraps a cleaned JSON:API document holding an array of resources
type Collection struct {
	document   map[string]any
	resolver   Resolver
	decorators []EntityDecoratorFunc
}

func NewCollection(document map[string]any, resolver Resolver, decorators ...EntityDecoratorFunc) (*Collection, error) {
	e := newEntity(resolver, decorators)
	cleaned := e.cleanEntity(document)

	if _, ok := cleaned["data"].([]any); !ok {
		return nil, fmt.Errorf("document does not hold an array of resources (%w)", errors.ErrNotACollection)
	}

	return &Collection{
		document:   cleaned,
		resolver:   resolver,
		decorators: decorators,
	}, nil
}

func NewCollectionFromJSON(body []byte, resolver Resolver, decorators ...EntityDecoratorFunc) (*Collection, error) {
	var document map[string]any

	err := json.Unmarshal(body, &document)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal collection: %w", err)
	}

	return NewCollection(document, resolver, decorators...)
}

func (c *Collection) Len() int {
	return len(c.resources())
}

// Entities wraps every resource of the collection in an Entity of its own
func (c *Collection) Entities() ([]*Entity, error) {
	resources := c.resources()
	result := make([]*Entity, 0, len(resources))

	for _, r := range resources {
		resource, ok := r.(map[string]any)
		if !ok {
			continue
		}

		e := newEntity(c.resolver, c.decorators)
		e, err := e.init(map[string]any{"data": resource})
		if err != nil {
			return nil, err
		}

		result = append(result, e)
	}

	return result, nil
}

func (c *Collection) ToObject() map[string]any {
	doc, _ := transform.DeepCopy(c.document).(map[string]any)
	return doc
}

func (c *Collection) resources() []any {
	resources, _ := c.document["data"].([]any)
	return resources
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case float32:
		return toInt64(float64(v))
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return i, err == nil
	}

	return 0, false
}
