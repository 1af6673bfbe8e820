package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"go.uber.org/zap"
)

// ContractValidator checks inbound requests against the published
// OpenAPI document before a handler ever sees them, catching a
// malformed envelope earlier than the handler's own struct validation
// would.
type ContractValidator struct {
	loader *openapi3.Loader
	doc    *openapi3.T
	router routers.Router
	logger *zap.Logger
}

// NewContractValidator loads and validates the OpenAPI document at
// specPath.
func NewContractValidator(specPath string, logger *zap.Logger) (*ContractValidator, error) {
	loader := &openapi3.Loader{Context: context.Background()}
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("loading openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("openapi spec is invalid: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("building contract router: %w", err)
	}
	return &ContractValidator{loader: loader, doc: doc, router: router, logger: logger}, nil
}

// Middleware rejects a request that doesn't match the OpenAPI document
// for its route, before decoding or business logic runs.
func (cv *ContractValidator) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := cv.router.FindRoute(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"no matching route"}}`))
				return
			}

			if err := openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
			}); err != nil {
				cv.logger.Info("request rejected by contract validation", zap.Error(err), zap.String("path", r.URL.Path))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"CONTRACT_VIOLATION","message":"request does not match the published API contract"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
