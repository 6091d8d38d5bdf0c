package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"datapoint-service/application/commands"
	"datapoint-service/application/commands/bus"
	"datapoint-service/application/queries"
	querybus "datapoint-service/application/queries/bus"
	"datapoint-service/domain/core/entities"
	apperrors "datapoint-service/pkg/errors"
	"datapoint-service/pkg/trace"
	"datapoint-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DataPointHandler handles data point HTTP requests
type DataPointHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *apperrors.ErrorHandler
	logger       *zap.Logger
}

// NewDataPointHandler creates a new data point handler
func NewDataPointHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *DataPointHandler {
	return &DataPointHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateDataPoint handles POST /data-points
func (h *DataPointHandler) CreateDataPoint(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateDataPointCommand
	if err := utils.DecodeJSON(r.Body, &cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

// ImportDataPoints handles POST /data-points/import
func (h *DataPointHandler) ImportDataPoints(w http.ResponseWriter, r *http.Request) {
	result, err := h.commandBus.Send(r.Context(), commands.ImportDataPointsCommand{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

// GetDataPoint handles GET /data-points/{id}
func (h *DataPointHandler) GetDataPoint(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError(apperrors.FieldError{
			Field:   entities.FieldID,
			Reason:  apperrors.ReasonInvalidType,
			Message: "Request parameter is invalid",
		}).WithCause(err))
		return
	}

	h.ask(w, r, queries.GetDataPointByIDQuery{ID: id})
}

// GetDataPointByExternalID handles GET /data-points/external-id/{externalId}
func (h *DataPointHandler) GetDataPointByExternalID(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetDataPointByExternalIDQuery{ExternalID: chi.URLParam(r, "externalId")})
}

// ListDataPoints handles GET /data-points
func (h *DataPointHandler) ListDataPoints(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListDataPointsQuery{})
}

func (h *DataPointHandler) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

// Helper methods

func (h *DataPointHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		trace.Logger(r.Context(), h.logger).Error("Failed to encode response", zap.Error(err))
	}
}
