package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/domain"
)

type MetricsService interface {
	GetMetrics(ctx context.Context, userID string) (*domain.Metrics, error)
}

type MetricsHandler struct {
	baseHandler
	uc MetricsService
}

func NewMetricsHandler(uc MetricsService, opts Options) *MetricsHandler {
	return &MetricsHandler{baseHandler: newBaseHandler(opts), uc: uc}
}

// @Summary Productivity metrics for the caller
// @Tags users
// @Router /api/users/metrics [get]
func (h *MetricsHandler) GetMetrics(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	metrics, err := h.uc.GetMetrics(stdCtx, session.UserID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, metrics)
}
