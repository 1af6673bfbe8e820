package rest

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/originwatch/originwatch/internal/config"
	environmentdomain "github.com/originwatch/originwatch/internal/domain/environment"
	domainErrors "github.com/originwatch/originwatch/internal/domain/errors"
	"github.com/originwatch/originwatch/internal/domain/location"
	"github.com/originwatch/originwatch/internal/domain/network"
	"github.com/originwatch/originwatch/internal/service/orchestrator"
	"github.com/originwatch/originwatch/internal/service/vpnguard"
)

// VerifyHandler serves POST /v1/verify, the Session Orchestrator's
// single entry point.
type VerifyHandler struct {
	*BaseHandler
	orchestrator *orchestrator.Orchestrator
}

// NewVerifyHandler builds a VerifyHandler.
func NewVerifyHandler(base *BaseHandler, o *orchestrator.Orchestrator) *VerifyHandler {
	return &VerifyHandler{BaseHandler: base, orchestrator: o}
}

// verifyRequestBody is the wire shape for POST /v1/verify.
type verifyRequestBody struct {
	Location struct {
		Latitude       *float64 `json:"latitude"`
		Longitude      *float64 `json:"longitude"`
		AccuracyMeters *float64 `json:"accuracyMeters"`
		TimestampMS    int64    `json:"timestampMs"`
		ResponseTimeMS int64    `json:"responseTimeMs"`
	} `json:"location"`
	Environment struct {
		ScreenWidth    int    `json:"screenWidth"`
		ScreenHeight   int    `json:"screenHeight"`
		ColorDepth     int    `json:"colorDepth"`
		TouchSupport   *bool  `json:"touchSupport"`
		WebGLRenderer  string `json:"webglRenderer"`
		Platform       string `json:"platform"`
		Timezone       string `json:"timezone"`
		Language       string `json:"language"`
		UserAgent      string `json:"userAgent"`
	} `json:"environment"`
	Network struct {
		ClientIP              string   `json:"clientIp" validate:"required"`
		CandidateIPs          []string `json:"candidateIps"`
		SuspiciousProperties  []string `json:"suspiciousProperties"`
	} `json:"network" validate:"required"`
	FullRiskEvaluation bool `json:"fullRiskEvaluation"`
}

// ServeHTTP decodes, validates, and runs one verification request.
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body verifyRequestBody
	if err := h.decodeAndValidate(r, &body); err != nil {
		h.writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error())
		return
	}

	req := orchestrator.Request{
		Location: location.Signal{
			Latitude:       body.Location.Latitude,
			Longitude:      body.Location.Longitude,
			AccuracyMeters: body.Location.AccuracyMeters,
			TimestampMS:    body.Location.TimestampMS,
			ResponseTimeMS: body.Location.ResponseTimeMS,
		},
		Environment: environmentdomain.Signal{
			ScreenWidth:   body.Environment.ScreenWidth,
			ScreenHeight:  body.Environment.ScreenHeight,
			ColorDepth:    body.Environment.ColorDepth,
			TouchSupport:  body.Environment.TouchSupport,
			WebGLRenderer: body.Environment.WebGLRenderer,
			Platform:      body.Environment.Platform,
			Timezone:      body.Environment.Timezone,
			Language:      body.Environment.Language,
			UserAgent:     body.Environment.UserAgent,
		},
		Network: network.Signal{
			ClientIP:             body.Network.ClientIP,
			CandidateIPs:         body.Network.CandidateIPs,
			SuspiciousProperties: body.Network.SuspiciousProperties,
		},
		FullRiskEvaluation: body.FullRiskEvaluation,
	}

	result, err := h.orchestrator.Verify(r.Context(), req)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *BaseHandler) writeAppError(w http.ResponseWriter, err error) {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		h.writeError(w, appErr.StatusCode, appErr.Code, appErr.Message)
		return
	}
	h.logger.Error("unclassified error reached the transport boundary", zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
}

// CheckIPHandler serves GET /v1/vpn/{ip}, exposing the VPN Aggregator
// directly.
type CheckIPHandler struct {
	*BaseHandler
	aggregator *vpnguard.Aggregator
}

// NewCheckIPHandler builds a CheckIPHandler.
func NewCheckIPHandler(base *BaseHandler, aggregator *vpnguard.Aggregator) *CheckIPHandler {
	return &CheckIPHandler{BaseHandler: base, aggregator: aggregator}
}

func (h *CheckIPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := r.PathValue("ip")
	if ip == "" {
		h.writeError(w, http.StatusBadRequest, "IP_REQUIRED", "path parameter ip is required")
		return
	}
	result := h.aggregator.Detect(r.Context(), ip)
	h.writeJSON(w, http.StatusOK, result)
}

// ThresholdsHandler serves GET/PUT /v1/thresholds over the Threshold
// Registry's Get/Replace pair.
type ThresholdsHandler struct {
	*BaseHandler
	registry *config.Registry
}

// NewThresholdsHandler builds a ThresholdsHandler.
func NewThresholdsHandler(base *BaseHandler, registry *config.Registry) *ThresholdsHandler {
	return &ThresholdsHandler{BaseHandler: base, registry: registry}
}

func (h *ThresholdsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Get())
}

func (h *ThresholdsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error())
		return
	}
	if err := h.registry.LoadJSON(body); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_THRESHOLDS", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, h.registry.Get())
}
