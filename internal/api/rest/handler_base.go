// Package rest exposes the Session Orchestrator, the VPN Aggregator,
// and the Threshold Registry over HTTP. The wire shapes here are the
// "invoked by the HTTP transport" collaborator contracts; the decision
// logic itself lives entirely in internal/service and internal/config.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResponseEnvelope wraps every JSON response the transport returns.
type ResponseEnvelope struct {
	Success bool           `json:"success"`
	Data    interface{}    `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
	Meta    ResponseMeta   `json:"meta"`
}

// ResponseMeta carries per-response bookkeeping useful for support
// tickets and client-side tracing correlation.
type ResponseMeta struct {
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the shape of ResponseEnvelope.Error.
type ErrorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// BaseHandler bundles the collaborators every handler in this package
// needs: a struct validator for decoded request bodies and a logger.
type BaseHandler struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBaseHandler builds a BaseHandler.
func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{validate: validator.New(), logger: logger}
}

func (h *BaseHandler) decodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func (h *BaseHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	envelope := ResponseEnvelope{
		Success: status < http.StatusBadRequest,
		Data:    data,
		Meta: ResponseMeta{
			RequestID: uuid.NewString(),
			Timestamp: time.Now().UTC(),
		},
	}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *BaseHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	envelope := ResponseEnvelope{
		Success: false,
		Error:   &ErrorResponse{Code: code, Message: message},
		Meta: ResponseMeta{
			RequestID: uuid.NewString(),
			Timestamp: time.Now().UTC(),
		},
	}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		h.logger.Error("failed to encode error response", zap.Error(err))
	}
}
