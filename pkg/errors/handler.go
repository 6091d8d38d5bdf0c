package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"datapoint-service/pkg/trace"

	"go.uber.org/zap"
)

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	ID       string       `json:"id"`
	Message  string       `json:"message"`
	Entity   string       `json:"entity,omitempty"`
	Criteria []Criterion  `json:"criteria,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// ErrorHandler handles errors and sends appropriate HTTP responses
type ErrorHandler struct {
	logger        *zap.Logger
	debug         bool
	defaultStatus int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger:        logger,
		debug:         debug,
		defaultStatus: http.StatusInternalServerError,
	}
}

// Handle processes an error and sends an HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := trace.ID(r.Context())

	var status int
	var response ErrorResponse

	if appErr := GetAppError(err); appErr != nil {
		status = appErr.HTTPStatus
		if status == 0 {
			status = h.defaultStatus
		}

		response = ErrorResponse{
			ID:       traceID,
			Message:  appErr.Message,
			Entity:   appErr.Entity,
			Criteria: appErr.Criteria,
			Errors:   appErr.FieldErrors,
		}

		switch appErr.Type {
		case ErrorTypeInternal:
			response.Message = MessageInternalServerError
		case ErrorTypeExternal:
			response.Message = MessageExternalService
		}

		h.logError(r, appErr, status)
	} else {
		status = h.defaultStatus
		response = ErrorResponse{
			ID:      traceID,
			Message: MessageInternalServerError,
		}

		trace.Logger(r.Context(), h.logger).Error("Unhandled error",
			zap.Error(err),
			zap.Int("status", status),
		)

		if h.debug {
			response.Message = err.Error()
		}
	}

	h.sendJSON(w, r, status, response)
}

// logError logs an application error with appropriate level
func (h *ErrorHandler) logError(r *http.Request, err *AppError, status int) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.Int("status", status),
	}

	if err.Entity != "" {
		fields = append(fields, zap.String("entity", err.Entity))
	}

	if len(err.Criteria) > 0 {
		fields = append(fields, zap.Any("criteria", err.Criteria))
	}

	if len(err.FieldErrors) > 0 {
		fields = append(fields, zap.Any("field_errors", err.FieldErrors))
	}

	if err.Cause != nil {
		fields = append(fields, zap.NamedError("cause", err.Cause))
	}

	logger := trace.Logger(r.Context(), h.logger)
	switch {
	case status >= 500:
		logger.Error(err.Message, fields...)
	case status >= 400:
		logger.Warn(err.Message, fields...)
	default:
		logger.Info(err.Message, fields...)
	}
}

// sendJSON sends a JSON response
func (h *ErrorHandler) sendJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		trace.Logger(r.Context(), h.logger).Error("Failed to encode error response",
			zap.Error(err),
			zap.Any("data", data),
		)
	}
}

// Middleware returns an HTTP middleware that turns panics into 500 responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := NewInternalError(fmt.Sprintf("panic: %v", rec))
				h.Handle(w, r, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
