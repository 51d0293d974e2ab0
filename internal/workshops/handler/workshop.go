package handler

import (
	"encoding/json"
	"net/http"

	"ceramico/internal/workshops/service"
	apperrors "ceramico/pkg/errors"
	httputil "ceramico/pkg/http"
	"ceramico/pkg/logger"
	"ceramico/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type WorkshopHandler struct {
	service service.WorkshopService
	log     *logger.Logger
}

func NewWorkshopHandler(service service.WorkshopService, log *logger.Logger) *WorkshopHandler {
	return &WorkshopHandler{
		service: service,
		log:     log,
	}
}

func (h *WorkshopHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.requireAdmin(w, r, "Create") {
		return
	}

	var workshop model.Workshop
	if err := json.NewDecoder(r.Body).Decode(&workshop); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &workshop); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, workshop); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *WorkshopHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	workshop, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, workshop); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WorkshopHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	workshops, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, workshops, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *WorkshopHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	availability, err := h.service.Availability(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WorkshopHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.requireAdmin(w, r, "Update") {
		return
	}

	id := ps.ByName("id")

	var updates model.WorkshopUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), id, &updates); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *WorkshopHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.requireAdmin(w, r, "Delete") {
		return
	}

	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *WorkshopHandler) requireAdmin(w http.ResponseWriter, r *http.Request, handlerName string) bool {
	if httputil.IsAdmin(r) {
		return true
	}
	if writeErr := httputil.WriteError(w, apperrors.Forbidden("Admin role required")); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
	return false
}

func (h *WorkshopHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/workshops", h.Create)
	router.GET("/api/v1/workshops", h.GetAll)
	router.GET("/api/v1/workshops/id/:id", h.GetByID)
	router.GET("/api/v1/workshops/id/:id/availability", h.Availability)
	router.PATCH("/api/v1/workshops/id/:id", h.Update)
	router.DELETE("/api/v1/workshops/id/:id", h.Delete)
}
