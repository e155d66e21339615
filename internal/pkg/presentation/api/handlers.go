package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/diwise/jsonapi-entities/internal/pkg/application/hydrator"
	"github.com/diwise/jsonapi-entities/internal/pkg/presentation/api/auth"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceAttributeTenant string = "tenant"
	TraceAttributeEntity string = "jsonapi-entity"
	TraceAttributeDepth  string = "jsonapi-depth"
	DefaultTenant        string = "default"
	TenantHeaderName     string = "Tenant"
	ResponseContentType  string = "application/vnd.api+json"
)

var tracer = otel.Tracer("jsonapi-hydrator/api")

func RegisterHandlers(ctx context.Context, r chi.Router, policies io.Reader, app hydrator.Hydrator) error {

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/api/entities", func(r chi.Router) {
		r.Use(
			Logger(logging.GetFromContext(ctx)),
			TenantMiddleware(),
		)

		r.Get("/{entity}/{bundle}", NewRetrieveCollectionHandler(app, authenticator))
		r.Get("/{entity}/{bundle}/{uuid}", NewRetrieveEntityHandler(app, authenticator))
		r.Get("/{entity}/{bundle}/{uuid}/fields/{field}", NewRetrieveFieldValuesHandler(app, authenticator))
	})

	return nil
}

type tenantContextKey struct {
	name string
}

var tenantCtxKey = &tenantContextKey{"jsonapi-tenant"}

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			_, ctx, _ = o11y.AddTraceIDToLoggerAndStoreInContext(
				trace.SpanFromContext(ctx),
				logger,
				ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantMiddleware packs any tenant id into the context
func TenantMiddleware() func(http.Handler) http.Handler {
	tenantHeaderName := http.CanonicalHeaderKey(TenantHeaderName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant := DefaultTenant

			tenantHeader := r.Header[tenantHeaderName]
			if len(tenantHeader) > 0 {
				tenant = tenantHeader[0]
			}

			if labeler, found := otelhttp.LabelerFromContext(r.Context()); found {
				labeler.Add(attribute.String(TraceAttributeTenant, tenant))
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey, tenant)

			ctx = logging.NewContextWithLogger(
				ctx,
				logging.GetFromContext(r.Context()),
				"tenant",
				tenant,
			)

			if tenant != DefaultTenant {
				w.Header().Add(tenantHeaderName, tenant)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenantFromContext extracts the tenant name, if any, from the provided context
func GetTenantFromContext(ctx context.Context) string {
	tenant, ok := ctx.Value(tenantCtxKey).(string)

	if !ok {
		return ""
	}

	return tenant
}
