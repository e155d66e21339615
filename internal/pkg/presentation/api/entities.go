package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diwise/jsonapi-entities/internal/pkg/application/hydrator"
	"github.com/diwise/jsonapi-entities/internal/pkg/presentation/api/auth"
	apierrors "github.com/diwise/jsonapi-entities/internal/pkg/presentation/api/errors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/client"
	jaerrors "github.com/diwise/jsonapi-entities/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/entities"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

//NewRetrieveEntityHandler returns an entity hydrated to the requested depth, together with every entity it references
func NewRetrieveEntityHandler(app hydrator.Hydrator, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)

		key, err := lookupKeyFromRequest(r)
		if err != nil {
			apierrors.ReportNewBadRequestData(w, err.Error())
			return
		}

		depth := -1
		if d := r.URL.Query().Get("depth"); d != "" {
			depth, err = strconv.Atoi(d)
			if err != nil || depth < 0 {
				err = errors.New("depth must be a non negative integer")
				apierrors.ReportNewBadRequestData(w, err.Error())
				return
			}
		}

		ctx, span := tracer.Start(ctx, "retrieve-entity",
			trace.WithAttributes(
				attribute.String(TraceAttributeTenant, tenant),
				attribute.String(TraceAttributeEntity, key.String()),
				attribute.Int(TraceAttributeDepth, depth),
			),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = authenticator.CheckAccess(ctx, r, tenant, []string{key.Type()})
		if err != nil {
			apierrors.ReportForbiddenError(w, "access denied")
			return
		}

		var entity *entities.Entity
		entity, err = app.RetrieveEntity(ctx, tenant, key, depth)
		if err != nil {
			logging.GetFromContext(ctx).Error("failed to retrieve entity", "entity", key.String(), "err", err.Error())
			reportError(w, err)
			return
		}

		body, err := entity.ToJSON(ctx)
		if err != nil {
			apierrors.ReportNewInternalError(w, "failed to serialize entity")
			return
		}

		w.Header().Add("Content-Type", ResponseContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})
}

//NewRetrieveCollectionHandler returns a single page of resources of a bundle
func NewRetrieveCollectionHandler(app hydrator.Hydrator, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)

		entityType := chi.URLParam(r, "entity")
		bundle := chi.URLParam(r, "bundle")

		ctx, span := tracer.Start(ctx, "retrieve-collection",
			trace.WithAttributes(
				attribute.String(TraceAttributeTenant, tenant),
				attribute.String(TraceAttributeEntity, entityType+types.TypeSeparator+bundle),
			),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = authenticator.CheckAccess(ctx, r, tenant, []string{entityType + types.TypeSeparator + bundle})
		if err != nil {
			apierrors.ReportForbiddenError(w, "access denied")
			return
		}

		parameters, err := collectionParameters(r)
		if err != nil {
			apierrors.ReportNewBadRequestData(w, err.Error())
			return
		}

		collection, err := app.RetrieveCollection(ctx, tenant, entityType, bundle, parameters...)
		if err != nil {
			logging.GetFromContext(ctx).Error("failed to retrieve collection", "type", entityType+types.TypeSeparator+bundle, "err", err.Error())
			reportError(w, err)
			return
		}

		body, err := json.Marshal(collection.ToObject())
		if err != nil {
			apierrors.ReportNewInternalError(w, "failed to serialize collection")
			return
		}

		w.Header().Add("Content-Type", ResponseContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})
}

//NewRetrieveFieldValuesHandler returns the resolved values of a single field
func NewRetrieveFieldValuesHandler(app hydrator.Hydrator, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)
		field := chi.URLParam(r, "field")

		key, err := lookupKeyFromRequest(r)
		if err != nil {
			apierrors.ReportNewBadRequestData(w, err.Error())
			return
		}

		ctx, span := tracer.Start(ctx, "retrieve-field-values",
			trace.WithAttributes(
				attribute.String(TraceAttributeTenant, tenant),
				attribute.String(TraceAttributeEntity, key.String()),
			),
		)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = authenticator.CheckAccess(ctx, r, tenant, []string{key.Type()})
		if err != nil {
			apierrors.ReportForbiddenError(w, "access denied")
			return
		}

		values, err := app.RetrieveFieldValues(ctx, tenant, key, field)
		if err != nil {
			logging.GetFromContext(ctx).Error("failed to retrieve field values", "entity", key.String(), "field", field, "err", err.Error())
			reportError(w, err)
			return
		}

		for i, v := range values {
			if e, ok := v.(*entities.Entity); ok {
				values[i] = e.ToObject()
			}
		}

		body, err := json.Marshal(map[string]any{"field": field, "values": values})
		if err != nil {
			apierrors.ReportNewInternalError(w, "failed to serialize field values")
			return
		}

		w.Header().Add("Content-Type", ResponseContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})
}

func lookupKeyFromRequest(r *http.Request) (types.LookupKey, error) {
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		return types.LookupKey{}, errors.New("resource id must be a valid uuid")
	}

	return types.LookupKey{
		Entity: chi.URLParam(r, "entity"),
		Bundle: chi.URLParam(r, "bundle"),
		UUID:   id.String(),
	}, nil
}

// collectionParameters forwards paging, sorting and filtering to the JSON:API server
func collectionParameters(r *http.Request) ([]client.RequestDecoratorFunc, error) {
	parameters := []client.RequestDecoratorFunc{}

	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}

		switch {
		case key == "page[limit]":
			limit, err := strconv.Atoi(values[0])
			if err != nil || limit <= 0 {
				return nil, errors.New("page[limit] must be a positive integer")
			}
			parameters = append(parameters, client.PageLimit(limit))
		case key == "sort":
			parameters = append(parameters, client.Sort(strings.Split(values[0], ",")...))
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			parameters = append(parameters, client.Filter(key[len("filter["):len(key)-1], values[0]))
		}
	}

	return parameters, nil
}

func reportError(w http.ResponseWriter, err error) {
	var unknownTenant hydrator.UnknownTenantError
	var noSource hydrator.NoSourceError
	var badRequest hydrator.BadRequestDataError

	switch {
	case errors.As(err, &unknownTenant):
		apierrors.ReportUnknownTenantError(w, err.Error())
	case errors.As(err, &noSource):
		apierrors.ReportNotFoundError(w, err.Error())
	case errors.As(err, &badRequest), errors.Is(err, jaerrors.ErrInvalidType):
		apierrors.ReportNewBadRequestData(w, err.Error())
	case errors.Is(err, jaerrors.ErrNotFound), errors.Is(err, jaerrors.ErrFieldNotFound):
		apierrors.ReportNotFoundError(w, err.Error())
	case errors.Is(err, jaerrors.ErrForbidden):
		apierrors.ReportForbiddenError(w, err.Error())
	case errors.Is(err, jaerrors.ErrNotACollection), errors.Is(err, jaerrors.ErrIsACollection),
		errors.Is(err, jaerrors.ErrBadResponse), errors.Is(err, jaerrors.ErrRequest):
		apierrors.ReportBadGatewayError(w, err.Error())
	default:
		apierrors.ReportNewInternalError(w, err.Error())
	}
}
