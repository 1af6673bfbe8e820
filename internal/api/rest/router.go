package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/originwatch/originwatch/internal/config"
	"github.com/originwatch/originwatch/internal/service/orchestrator"
	"github.com/originwatch/originwatch/internal/service/vpnguard"
)

// RouterConfig selects which cross-cutting middleware the router
// installs. Contract validation and auth are both optional: a
// deployment behind its own gateway may already enforce one or both.
type RouterConfig struct {
	Auth            AuthConfig
	OpenAPISpecPath string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// NewRouter wires the three inbound collaborator contracts onto a
// standard-library mux: POST /v1/verify, GET /v1/vpn/{ip}, and
// GET/PUT /v1/thresholds.
func NewRouter(cfg RouterConfig, logger *zap.Logger, o *orchestrator.Orchestrator, aggregator *vpnguard.Aggregator, registry *config.Registry) (http.Handler, error) {
	base := NewBaseHandler(logger)
	verify := NewVerifyHandler(base, o)
	checkIP := NewCheckIPHandler(base, aggregator)
	thresholds := NewThresholdsHandler(base, registry)

	mux := http.NewServeMux()
	mux.Handle("POST /v1/verify", verify)
	mux.Handle("GET /v1/vpn/{ip}", checkIP)
	mux.HandleFunc("GET /v1/thresholds", thresholds.Get)
	mux.HandleFunc("PUT /v1/thresholds", thresholds.Replace)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	limiter := newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	middlewares := []Middleware{
		recoveryMiddleware(logger),
		loggingMiddleware(logger),
		rateLimitMiddleware(limiter),
		authMiddleware(cfg.Auth, logger),
	}

	if cfg.OpenAPISpecPath != "" {
		validator, err := NewContractValidator(cfg.OpenAPISpecPath, logger)
		if err != nil {
			logger.Warn("contract validation disabled, spec could not be loaded", zap.Error(err))
		} else {
			middlewares = append(middlewares, validator.Middleware())
		}
	}

	return chain(mux, middlewares...), nil
}
