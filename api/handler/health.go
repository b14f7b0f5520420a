package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
)

type StatusReporter interface {
	GetStatus() monitor.Status
	Refresh() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusReporter
}

func NewHealthHandler(mon StatusReporter, opts Options) *HealthHandler {
	return &HealthHandler{baseHandler: newBaseHandler(opts), monitor: mon}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	if status.LastCheck.IsZero() {
		status = h.monitor.Refresh()
	}

	resp := transport.HealthResponse{
		Status:    "ok",
		Timestamp: status.LastCheck.UTC(),
		Postgres:  transport.ServiceStatus{Online: status.PostgreSQL},
		Redis:     transport.ServiceStatus{Online: status.Redis},
		Buffer:    transport.BufferStatus{Online: status.Buffer, Size: status.BufferSize},
	}
	if !status.Healthy() {
		resp.Status = "degraded"
		h.respondJSON(ctx, http.StatusServiceUnavailable, resp)
		return
	}
	h.respondJSON(ctx, http.StatusOK, resp)
}
