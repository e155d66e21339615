package hydrator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/diwise/jsonapi-entities/internal/pkg/infrastructure/cache/badger"
	"github.com/diwise/jsonapi-entities/internal/pkg/infrastructure/cache/postgres"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/cache"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/client"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/processors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/transform"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/entities"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

//go:generate moq -rm -out hydrator_mock.go . Hydrator

type Hydrator interface {
	// RetrieveEntity fetches an entity and hydrates its relationships down to depth.
	// A negative depth uses the maximum depth configured for the source.
	RetrieveEntity(ctx context.Context, tenant string, key types.LookupKey, depth int) (*entities.Entity, error)
	RetrieveCollection(ctx context.Context, tenant, entityType, bundle string, parameters ...client.RequestDecoratorFunc) (*entities.Collection, error)
	// RetrieveFieldValues resolves every value of a single field, hydrating any references
	RetrieveFieldValues(ctx context.Context, tenant string, key types.LookupKey, field string) ([]any, error)
}

type source struct {
	endpoint   string
	pathPrefix string
	maxDepth   int
	headers    map[string][]string
	decorators []entities.EntityDecoratorFunc
	cfg        SourceConfig
}

type hydratorApp struct {
	tenants map[string][]*source
	cache   cache.Cache
}

func New(ctx context.Context, cfg Config, c cache.Cache) (Hydrator, error) {
	app := &hydratorApp{
		tenants: make(map[string][]*source),
		cache:   c,
	}

	if app.cache == nil {
		app.cache = cache.NewMemory()
	}

	for _, tenant := range cfg.Tenants {
		for _, sc := range tenant.Sources {
			src, err := newSource(sc)
			if err != nil {
				return nil, fmt.Errorf("tenant %s: %w", tenant.ID, err)
			}
			app.tenants[tenant.ID] = append(app.tenants[tenant.ID], src)
		}
	}

	logging.GetFromContext(ctx).Info("hydrator configured", slog.Int("tenants", len(app.tenants)))

	return app, nil
}

func newSource(sc SourceConfig) (*source, error) {
	if sc.Endpoint == "" {
		return nil, fmt.Errorf("source is missing an endpoint")
	}

	src := &source{
		endpoint:   sc.Endpoint,
		pathPrefix: sc.PathPrefix,
		maxDepth:   client.DefaultMaxDepth,
		headers:    map[string][]string{},
		cfg:        sc,
	}

	if sc.MaxDepth != nil {
		src.maxDepth = max(*sc.MaxDepth, 0)
	}

	for k, v := range sc.Headers {
		src.headers[k] = []string{v}
	}

	if len(sc.Fields.Patterns) > 0 || len(sc.Fields.Names) > 0 {
		rules := transform.Rules{transform.Pattern(transform.InternalIDPattern)}

		for _, p := range sc.Fields.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return nil, fmt.Errorf("invalid field pattern %q: %w", p, err)
			}
			rules = append(rules, transform.Pattern(p))
		}

		if len(sc.Fields.Names) > 0 {
			rules = append(rules, transform.Exact(sc.Fields.Names...))
		}

		src.decorators = append(src.decorators,
			entities.CleanEntity(transform.New(rules...).Clean),
			entities.RelationshipTests(rules[1:]...),
		)
	}

	if len(sc.Fields.RelationshipGroups) > 0 {
		src.decorators = append(src.decorators, entities.RelationshipGroups(sc.Fields.RelationshipGroups...))
	}

	if len(sc.Fields.ValueProcessors) > 0 {
		fns, err := processors.FromExpressions(sc.Fields.ValueProcessors)
		if err != nil {
			return nil, err
		}
		src.decorators = append(src.decorators, entities.ValueProcessors(fns))
	}

	return src, nil
}

func (app *hydratorApp) RetrieveEntity(ctx context.Context, tenant string, key types.LookupKey, depth int) (*entities.Entity, error) {
	src, err := app.sourceFor(tenant, key.Type())
	if err != nil {
		return nil, err
	}

	if depth < 0 || depth > src.maxDepth {
		depth = src.maxDepth
	}

	ctx = logging.NewContextWithLogger(ctx, logging.GetFromContext(ctx), "entity", key.String())

	return app.newClient(src, depth).RetrieveEntity(ctx, key)
}

func (app *hydratorApp) RetrieveCollection(ctx context.Context, tenant, entityType, bundle string, parameters ...client.RequestDecoratorFunc) (*entities.Collection, error) {
	src, err := app.sourceFor(tenant, entityType+types.TypeSeparator+bundle)
	if err != nil {
		return nil, err
	}

	return app.newClient(src, 0).RetrieveCollection(ctx, entityType, bundle, parameters...)
}

func (app *hydratorApp) RetrieveFieldValues(ctx context.Context, tenant string, key types.LookupKey, field string) ([]any, error) {
	src, err := app.sourceFor(tenant, key.Type())
	if err != nil {
		return nil, err
	}

	c := app.newClient(src, src.maxDepth)

	e, err := c.GetEntity(ctx, key, src.maxDepth)
	if err != nil {
		return nil, err
	}

	return e.AllValues(ctx, field)
}

func (app *hydratorApp) newClient(src *source, maxDepth int) client.JSONAPIClient {
	return client.NewJSONAPIClient(src.endpoint,
		client.PathPrefix(src.pathPrefix),
		client.MaxDepth(maxDepth),
		client.Headers(src.headers),
		client.WithCache(app.cache),
		client.WithDecorators(src.decorators...),
		client.Debug(strconv.FormatBool(src.cfg.Debug)),
	)
}

func (app *hydratorApp) sourceFor(tenant, typ string) (*source, error) {
	sources, ok := app.tenants[tenant]
	if !ok {
		return nil, NewUnknownTenantError(tenant)
	}

	if _, _, err := types.ParseType(typ); err != nil {
		return nil, NewBadRequestDataError(err.Error())
	}

	for _, src := range sources {
		if src.cfg.Serves(typ) {
			return src, nil
		}
	}

	return nil, NewNoSourceError(typ)
}

// NewCache creates the document cache selected by cfg
func NewCache(ctx context.Context, cfg CacheConfig) (cache.Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return cache.NewMemory(cache.ExpireAfter(cfg.TTL)), nil
	case "badger":
		return badger.New(ctx, badger.Options{Dir: cfg.Dir, InMemory: cfg.Dir == "", TTL: cfg.TTL})
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.LoadConfiguration(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return postgres.New(ctx, pool, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
