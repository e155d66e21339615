package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/open-policy-agent/opa/rego"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("jsonapi-hydrator/api/authz")

var ErrAccessDenied = errors.New("authorization failed")

// PolicyQuery is evaluated once per requested entity type. The policy sees the
// request as input.method, input.path, input.token and input.tenant, and the
// type as input.entity.type, input.entity.kind and input.entity.bundle.
const PolicyQuery string = "allowed = data.jsonapi.authz.allow"

type Enticator interface {
	// CheckAccess succeeds only if the policy allows every one of entityTypes
	CheckAccess(ctx context.Context, r *http.Request, tenant string, entityTypes []string) error
}

type enticatorImpl struct {
	preparedQuery rego.PreparedEvalQuery
}

func NewAuthenticator(ctx context.Context, policies io.Reader) (Enticator, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %s", err.Error())
	}

	pq, err := rego.New(
		rego.Query(PolicyQuery),
		rego.Module("jsonapi.rego", string(module)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}

	return &enticatorImpl{preparedQuery: pq}, nil
}

func (e *enticatorImpl) CheckAccess(ctx context.Context, r *http.Request, tenant string, entityTypes []string) error {
	var err error

	ctx, span := tracer.Start(ctx, "check-auth",
		trace.WithAttributes(attribute.StringSlice("entity-types", entityTypes)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if len(entityTypes) == 0 {
		err = fmt.Errorf("no entity types requested (%w)", ErrAccessDenied)
		return err
	}

	token := r.Header.Get("Authorization")
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = token[7:]
	}

	request := map[string]any{
		"method": r.Method,
		"path":   strings.Split(strings.Trim(r.URL.Path, "/"), "/"),
		"token":  token,
		"tenant": tenant,
	}

	for _, typ := range entityTypes {
		err = e.allowed(ctx, request, typ)
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *enticatorImpl) allowed(ctx context.Context, request map[string]any, typ string) error {
	kind, bundle, err := types.ParseType(typ)
	if err != nil {
		return fmt.Errorf("%s (%w)", err.Error(), ErrAccessDenied)
	}

	input := make(map[string]any, len(request)+1)
	for k, v := range request {
		input[k] = v
	}
	input["entity"] = map[string]any{"type": typ, "kind": kind, "bundle": bundle}

	results, err := e.preparedQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("opa eval failed: %w", err)
	}

	// an undefined allow rule yields no results
	if len(results) == 0 {
		return fmt.Errorf("access to %s is not defined by policy (%w)", typ, ErrAccessDenied)
	}

	allowed, ok := results[0].Bindings["allowed"].(bool)
	if !ok {
		return fmt.Errorf("opa error: allow must be a boolean, got %T", results[0].Bindings["allowed"])
	}

	if !allowed {
		return fmt.Errorf("access to %s denied (%w)", typ, ErrAccessDenied)
	}

	return nil
}
