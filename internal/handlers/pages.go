package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/presentation"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	dashboard *services.Dashboard
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewPageHandlers(dashboard *services.Dashboard, m *metrics.Metrics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		dashboard: dashboard,
		metrics:   m,
		logger:    logger,
	}
}

func (h *PageHandlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, models.PageOverview)
}

func (h *PageHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, models.PageID(r.PathValue("page")))
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, page models.PageID) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()
	requestID := observability.GetRequestID(ctx)

	view, err := h.dashboard.Page(ctx, observability.GetSessionID(ctx), page)
	if err != nil {
		errors.WriteError(w, h.logger, appError(err), requestID)
		return
	}

	charts, err := presentation.BuildAll(view.Tables)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build charts"), requestID)
		return
	}

	data, err := templates.NewPageData(page, h.dashboard.FilterLists(), view.Selection, charts)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to prepare page"), requestID)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Dashboard(data).Render(ctx, w); err != nil {
		observability.LoggerFrom(ctx, h.logger).Error("render dashboard", "page", page, "error", err)
		return
	}

	h.metrics.PageRenders.WithLabelValues(string(page), "html").Inc()
}
