package hydrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/cache"
	jaerrors "github.com/diwise/jsonapi-entities/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/entities"
	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var anyInput = expects.AnyInput
var method = expects.RequestMethod
var path = expects.RequestPath

const (
	articleUUID string = "0b5e2c1c-4b8f-4a55-b0d8-8e2d8f2a7c11"
	secretUUID  string = "1111a0c4-2d3e-4f5a-8b6c-7d8e9f0a1b2c"
)

func TestRetrieveEntity(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/api/node/article/"+articleUUID),
		),
		Returns(
			response.ContentType("application/vnd.api+json"),
			response.Code(http.StatusOK),
			response.Body([]byte(articleJSON)),
		),
	)
	defer s.Close()

	app, err := New(ctx, testConfig(s.URL()), nil)
	is.NoErr(err)

	e, err := app.RetrieveEntity(ctx, "default", types.LookupKey{Entity: "node", Bundle: "article", UUID: articleUUID}, 0)
	is.NoErr(err)

	body, err := e.Value(ctx, "field_body")
	is.NoErr(err)
	is.Equal(body, "<p>Hello</p>") // value processor from config should be applied

	_, err = e.Field("created")
	is.True(errors.Is(err, jaerrors.ErrFieldNotFound)) // field patterns from config should be applied

	id, ok := e.ID()
	is.True(ok)
	is.Equal(id, int64(17))
}

func TestRetrieveFieldValues(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/vnd.api+json"),
			response.Code(http.StatusOK),
			response.Body([]byte(articleJSON)),
		),
	)
	defer s.Close()

	app, err := New(ctx, testConfig(s.URL()), nil)
	is.NoErr(err)

	values, err := app.RetrieveFieldValues(ctx, "default", types.LookupKey{Entity: "node", Bundle: "article", UUID: articleUUID}, "field_keywords")
	is.NoErr(err)
	is.Equal(values, []any{"lakes", "forests"})
}

func TestRetrieveEntityForUnknownTenant(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	app, err := New(ctx, testConfig("http://lolcathost:1234"), nil)
	is.NoErr(err)

	_, err = app.RetrieveEntity(ctx, "unknown", types.LookupKey{Entity: "node", Bundle: "article", UUID: articleUUID}, 0)
	is.True(err != nil)

	_, ok := err.(UnknownTenantError)
	is.True(ok)
}

func TestRetrieveEntityOfUnregisteredType(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	app, err := New(ctx, testConfig("http://lolcathost:1234"), nil)
	is.NoErr(err)

	_, err = app.RetrieveEntity(ctx, "default", types.LookupKey{Entity: "node", Bundle: "page", UUID: articleUUID}, 0)

	_, ok := err.(NoSourceError)
	is.True(ok)
}

func TestNewFailsOnInvalidFieldPattern(t *testing.T) {
	is := is.New(t)

	cfg := testConfig("http://lolcathost:1234")
	cfg.Tenants[0].Sources[0].Fields.Patterns = []string{"field_("}

	_, err := New(context.Background(), cfg, nil)
	is.True(err != nil)
}

func TestNewFailsOnInvalidValueProcessor(t *testing.T) {
	is := is.New(t)

	cfg := testConfig("http://lolcathost:1234")
	cfg.Tenants[0].Sources[0].Fields.ValueProcessors["field_lead"] = ".value |"

	_, err := New(context.Background(), cfg, nil)
	is.True(err != nil)
}

func TestEnvelopeDoesNotContainOtherTenantsDocuments(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := map[string]string{
			"/jsonapi/node/secret/" + secretUUID:   secretJSON,
			"/jsonapi/node/article/" + articleUUID: articleJSON,
		}[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	cfg := Config{
		Tenants: []Tenant{
			{ID: "a", Sources: []SourceConfig{{Endpoint: srv.URL}}},
			{ID: "b", Sources: []SourceConfig{{Endpoint: srv.URL}}},
		},
	}

	app, err := New(ctx, cfg, nil)
	is.NoErr(err)

	_, err = app.RetrieveEntity(ctx, "a", types.LookupKey{Entity: "node", Bundle: "secret", UUID: secretUUID}, -1)
	is.NoErr(err)

	e, err := app.RetrieveEntity(ctx, "b", types.LookupKey{Entity: "node", Bundle: "article", UUID: articleUUID}, -1)
	is.NoErr(err)

	b, err := e.ToJSON(ctx)
	is.NoErr(err)

	envelope := entities.Envelope{}
	is.NoErr(json.Unmarshal(b, &envelope))

	is.Equal(len(envelope.Cache), 1)
	_, leaked := envelope.Cache[srv.URL+"/jsonapi/node/secret/"+secretUUID]
	is.True(!leaked) // tenant b must not see documents fetched for tenant a
}

func TestNewCacheWithUnknownDriverFails(t *testing.T) {
	is := is.New(t)

	_, err := NewCache(context.Background(), CacheConfig{Driver: "redis"})
	is.True(err != nil)
}

func TestNewCacheDefaultsToMemory(t *testing.T) {
	is := is.New(t)

	c, err := NewCache(context.Background(), CacheConfig{})
	is.NoErr(err)
	is.NoErr(c.Close())
}

func TestNewMemoryCacheHonoursTTL(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	c, err := NewCache(ctx, CacheConfig{Driver: "memory", TTL: time.Millisecond})
	is.NoErr(err)
	defer c.Close()

	is.NoErr(c.Set(ctx, "https://cms.example/jsonapi/node/article/1", map[string]any{"data": map[string]any{}}))
	time.Sleep(10 * time.Millisecond)

	_, err = c.Get(ctx, "https://cms.example/jsonapi/node/article/1")
	is.True(errors.Is(err, cache.ErrNotFound)) // stale documents should be fetched again
}

func testConfig(endpoint string) Config {
	return Config{
		Tenants: []Tenant{
			{
				ID:   "default",
				Name: "Kommunen",
				Sources: []SourceConfig{
					{
						Endpoint:   endpoint,
						PathPrefix: "/api/",
						Fields: FieldConfig{
							Patterns:        []string{"^field_"},
							Names:           []string{"title"},
							ValueProcessors: map[string]string{"field_body": ".value"},
						},
						Information: []RegistrationInfo{
							{Entities: []EntityInfo{{Type: "node--article"}}},
						},
					},
				},
			},
		},
	}
}

const articleJSON string = `{
	"data": {
		"type": "node--article",
		"id": "0b5e2c1c-4b8f-4a55-b0d8-8e2d8f2a7c11",
		"attributes": {
			"drupal_internal__nid": 17,
			"title": "Lakes and forests",
			"created": "2024-05-01T10:00:00+00:00",
			"field_body": {"value": "<p>Hello</p>", "format": "basic_html"},
			"field_keywords": ["lakes", "forests"]
		},
		"relationships": {}
	}
}`

const secretJSON string = `{
	"data": {
		"type": "node--secret",
		"id": "1111a0c4-2d3e-4f5a-8b6c-7d8e9f0a1b2c",
		"attributes": {"drupal_internal__nid": 3, "title": "Only for tenant a"},
		"relationships": {}
	}
}`
