package health

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	httputil "ceramico/pkg/http"
	"ceramico/pkg/logger"
)

// Handler serves liveness and readiness probes.
type Handler struct {
	mongo *mongo.Client
	log   *logger.Logger
}

func NewHandler(mongoClient *mongo.Client, log *logger.Logger) *Handler {
	return &Handler{mongo: mongoClient, log: log}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/health", h.Live)
	router.HandlerFunc(http.MethodGet, "/ready", h.Ready)
}

// Live reports that the process is up.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	if err := httputil.WriteSuccess(w, map[string]string{"status": "ok"}); err != nil {
		h.log.Error("Failed to write health response", "error", err)
	}
}

// Ready additionally pings the database so load balancers stop routing to
// instances that lost their connection.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.log.Error("Readiness check failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","reason":"database unreachable"}`))
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"status": "ready"}); err != nil {
		h.log.Error("Failed to write readiness response", "error", err)
	}
}
