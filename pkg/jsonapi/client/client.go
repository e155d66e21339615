package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/cache"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/traversal"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/entities"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/relationships"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// JSONAPIClient fetches resources from a Drupal JSON:API endpoint and hydrates
// their relationships. A client owns the traversal state of the entities it
// returns, so it should be created per hydration and share its cache instead.
type JSONAPIClient interface {
	entities.Resolver

	RetrieveEntity(ctx context.Context, key types.LookupKey) (*entities.Entity, error)
	RetrieveCollection(ctx context.Context, entityType, bundle string, parameters ...RequestDecoratorFunc) (*entities.Collection, error)
}

type RequestDecoratorFunc func(url.Values)

// Filter adds a JSON:API filter condition on path to a collection request
func Filter(path, value string) RequestDecoratorFunc {
	return func(v url.Values) {
		v.Set("filter["+path+"]", value)
	}
}

func PageLimit(limit int) RequestDecoratorFunc {
	return func(v url.Values) {
		v.Set("page[limit]", fmt.Sprintf("%d", limit))
	}
}

func Sort(fields ...string) RequestDecoratorFunc {
	return func(v url.Values) {
		v.Set("sort", strings.Join(fields, ","))
	}
}

const (
	DefaultMaxDepth     int           = 2
	DefaultPathPrefix   string        = "/jsonapi"
	DefaultFetchTimeout time.Duration = 30 * time.Second
	ContentType         string        = "application/vnd.api+json"
)

func Debug(enabled string) func(*jaClient) {
	return func(c *jaClient) {
		c.debug = (enabled == "true")
	}
}

// MaxDepth sets the depth at which GetEntity stops loading relationships
func MaxDepth(depth int) func(*jaClient) {
	return func(c *jaClient) {
		c.maxDepth = max(depth, 0)
	}
}

func PathPrefix(prefix string) func(*jaClient) {
	return func(c *jaClient) {
		if prefix = strings.Trim(prefix, "/"); prefix != "" {
			c.prefix = "/" + prefix
		}
	}
}

func WithCache(ch cache.Cache) func(*jaClient) {
	return func(c *jaClient) {
		c.cache = ch
	}
}

// WithDecorators are applied to every entity the client constructs
func WithDecorators(decorators ...entities.EntityDecoratorFunc) func(*jaClient) {
	return func(c *jaClient) {
		c.decorators = append(c.decorators, decorators...)
	}
}

func Headers(headers map[string][]string) func(*jaClient) {
	return func(c *jaClient) {
		c.headers = headers
	}
}

// FetchTimeout bounds a single request to the backend. Fetches are shared between
// callers and outlive the context of the caller that started them.
func FetchTimeout(timeout time.Duration) func(*jaClient) {
	return func(c *jaClient) {
		if timeout > 0 {
			c.fetchTimeout = timeout
		}
	}
}

func WithHTTPClient(httpClient *http.Client) func(*jaClient) {
	return func(c *jaClient) {
		c.httpClient = httpClient
	}
}

func NewJSONAPIClient(baseURL string, options ...func(*jaClient)) JSONAPIClient {
	c := &jaClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		prefix:       DefaultPathPrefix,
		maxDepth:     DefaultMaxDepth,
		fetchTimeout: DefaultFetchTimeout,
		traversed:    traversal.NewSet(),
		resolved:     traversal.NewSet(),
	}

	for _, option := range options {
		option(c)
	}

	if c.cache == nil {
		c.cache = cache.NewMemory()
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return c
}

const (
	TraceAttributeEndpoint string = "jsonapi-endpoint"
	TraceAttributeDepth    string = "jsonapi-depth"
	TraceAttributeBundle   string = "jsonapi-bundle"
)

var tracer = otel.Tracer("jsonapi-client")

type jaClient struct {
	baseURL      string
	prefix       string
	debug        bool
	maxDepth     int
	fetchTimeout time.Duration
	headers      map[string][]string

	cache      cache.Cache
	decorators []entities.EntityDecoratorFunc
	traversed  *traversal.Set
	// endpoints this client has resolved, the cache may hold documents of other clients
	resolved   *traversal.Set
	inflight   singleflight.Group
	httpClient *http.Client
}

func (c *jaClient) Endpoint(key types.LookupKey) string {
	return c.baseURL + c.prefix + "/" + url.PathEscape(key.Entity) + "/" + url.PathEscape(key.Bundle) + "/" + url.PathEscape(key.UUID)
}

// RetrieveEntity fetches the root entity identified by key and hydrates its relationships
func (c *jaClient) RetrieveEntity(ctx context.Context, key types.LookupKey) (*entities.Entity, error) {
	return c.GetEntity(ctx, key, 0)
}

func (c *jaClient) GetEntity(ctx context.Context, key types.LookupKey, depth int) (*entities.Entity, error) {
	var err error

	endpoint := c.Endpoint(key)

	ctx, span := tracer.Start(ctx, "get-entity",
		trace.WithAttributes(
			attribute.String(TraceAttributeEndpoint, endpoint),
			attribute.Int(TraceAttributeDepth, depth),
		),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	document, err := c.document(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	e, err := entities.New(document, c, c.entityDecorators(depth)...)
	if err != nil {
		return nil, err
	}

	if depth < c.maxDepth {
		c.traversed.Claim(endpoint)

		err = e.LoadRelationships(ctx, depth)
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

// GetRelationship returns the entity a reference points at without loading its own relationships
func (c *jaClient) GetRelationship(ctx context.Context, ref relationships.Reference) (*entities.Entity, error) {
	return c.GetEntity(ctx, ref.LookupKey(), c.maxDepth)
}

func (c *jaClient) HasBeenTraversed(key types.LookupKey) bool {
	return c.traversed.Has(c.Endpoint(key))
}

func (c *jaClient) Claim(key types.LookupKey) bool {
	return c.traversed.Claim(c.Endpoint(key))
}

// CacheToObject returns the documents of every endpoint resolved by this client
func (c *jaClient) CacheToObject(ctx context.Context) (map[string]any, error) {
	endpoints := c.resolved.Keys()

	result := make(map[string]any, len(endpoints))
	for _, endpoint := range endpoints {
		document, err := c.cache.Get(ctx, endpoint)
		if err != nil {
			if stderrors.Is(err, cache.ErrNotFound) {
				continue
			}
			return nil, err
		}
		result[endpoint] = document
	}

	return result, nil
}

func (c *jaClient) LoadCache(ctx context.Context, snapshot map[string]any) error {
	for endpoint, value := range snapshot {
		document, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("cached value for %s is not a document (%w)", endpoint, errors.ErrBadResponse)
		}

		err := c.cache.Set(ctx, endpoint, document)
		if err != nil {
			return err
		}
		c.resolved.Claim(endpoint)
	}

	return nil
}

func (c *jaClient) RetrieveCollection(ctx context.Context, entityType, bundle string, parameters ...RequestDecoratorFunc) (*entities.Collection, error) {
	var err error

	ctx, span := tracer.Start(ctx, "retrieve-collection",
		trace.WithAttributes(attribute.String(TraceAttributeBundle, entityType+types.TypeSeparator+bundle)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	endpoint := c.baseURL + c.prefix + "/" + url.PathEscape(entityType) + "/" + url.PathEscape(bundle)

	if len(parameters) > 0 {
		params := url.Values{}
		for _, p := range parameters {
			p(params)
		}
		endpoint = endpoint + "?" + params.Encode()
	}

	responseBody, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	collection, err := entities.NewCollectionFromJSON(responseBody, c, c.entityDecorators(0)...)
	if err != nil {
		return nil, err
	}

	members, err := collection.Entities()
	if err != nil {
		return nil, err
	}

	for _, member := range members {
		endpoint := c.Endpoint(member.LookupKey())

		err = c.cache.Set(ctx, endpoint, member.ToObject())
		if err != nil {
			logging.GetFromContext(ctx).Warn("failed to cache collection member", "endpoint", endpoint, "err", err.Error())
			err = nil
			continue
		}
		c.resolved.Claim(endpoint)
	}

	return collection, nil
}

func (c *jaClient) entityDecorators(depth int) []entities.EntityDecoratorFunc {
	return slices.Concat(c.decorators, []entities.EntityDecoratorFunc{entities.Depth(depth)})
}

// document returns the cleaned document for endpoint, fetching it at most once
// even when several branches ask for it concurrently. A caller that gives up
// does not cancel the fetch for the others.
func (c *jaClient) document(ctx context.Context, endpoint string) (map[string]any, error) {
	log := logging.GetFromContext(ctx)

	document, err := c.cache.Get(ctx, endpoint)
	if err == nil {
		c.resolved.Claim(endpoint)
		return document, nil
	}

	if !stderrors.Is(err, cache.ErrNotFound) {
		log.Warn("cache lookup failed", "endpoint", endpoint, "err", err.Error())
	}

	ch := c.inflight.DoChan(endpoint, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		if document, err := c.cache.Get(fetchCtx, endpoint); err == nil {
			return document, nil
		}

		responseBody, err := c.get(fetchCtx, endpoint)
		if err != nil {
			return nil, err
		}

		e, err := entities.NewFromJSON(responseBody, nil, c.decorators...)
		if err != nil {
			return nil, err
		}

		document := e.ToObject()

		err = c.cache.Set(fetchCtx, endpoint, document)
		if err != nil {
			log.Warn("failed to cache document", "endpoint", endpoint, "err", err.Error())
		}

		return document, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("gave up waiting for %s: %w", endpoint, ctx.Err())
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}

		if result.Shared {
			log.Debug("shared in-flight request", "endpoint", endpoint)
		}

		c.resolved.Claim(endpoint)
		return result.Val.(map[string]any), nil
	}
}

func (c *jaClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	response, responseBody, err := c.callJSONAPI(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		if response.StatusCode >= http.StatusBadRequest && response.StatusCode <= http.StatusNetworkAuthenticationRequired {
			return nil, errors.NewErrorFromErrorDocument(response.StatusCode, responseBody)
		}

		return nil, fmt.Errorf("unexpected response code %d (%w)", response.StatusCode, errors.ErrInternal)
	}

	return responseBody, nil
}

func (c *jaClient) callJSONAPI(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	req.Header.Add("Accept", ContentType)

	for header, headerValue := range c.headers {
		for _, val := range headerValue {
			req.Header.Add(header, val)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrRequest)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	if c.debug && resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		reqbytes, _ := httputil.DumpRequest(req, false)
		respbytes, _ := httputil.DumpResponse(resp, false)

		logging.GetFromContext(ctx).Error("request failed", "request", string(reqbytes), "response", string(respbytes))
	}

	return resp, respBody, nil
}
