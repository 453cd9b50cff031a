package handlers

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/aggregate"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/presentation"
	"sales-dashboard/internal/services"
)

const maxFilterBody = 4 << 10

type APIHandlers struct {
	dashboard *services.Dashboard
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, m *metrics.Metrics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		metrics:   m,
		logger:    logger,
	}
}

type filtersResponse struct {
	Lists     models.FilterValueLists `json:"lists"`
	Selection models.FilterSelection  `json:"selection"`
}

type pageResponse struct {
	*services.View
	Charts []presentation.Chart `json:"charts"`
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	sessionID := observability.GetSessionID(r.Context())

	errors.WriteSuccess(w, filtersResponse{
		Lists:     h.dashboard.FilterLists(),
		Selection: h.dashboard.Selection(sessionID),
	})
}

func (h *APIHandlers) HandleApplyFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := observability.GetRequestID(ctx)

	var sel models.FilterSelection
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFilterBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sel); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid filter selection"), requestID)
		return
	}

	applied := h.dashboard.ApplyFilter(ctx, observability.GetSessionID(ctx), sel)
	errors.WriteSuccess(w, applied)
}

func (h *APIHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := models.PageID(r.PathValue("page"))

	view, err := h.dashboard.Page(ctx, observability.GetSessionID(ctx), page)
	if err != nil {
		errors.WriteError(w, h.logger, appError(err), observability.GetRequestID(ctx))
		return
	}

	charts, err := presentation.BuildAll(view.Tables)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build charts"), observability.GetRequestID(ctx))
		return
	}

	h.metrics.PageRenders.WithLabelValues(string(page), "api").Inc()
	errors.WriteSuccessWithHeaders(w, pageResponse{View: view, Charts: charts}, map[string]string{
		"Cache-Control": "no-store",
	})
}

func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := observability.GetRequestID(ctx)
	page := models.PageID(r.PathValue("page"))

	view, err := h.dashboard.Page(ctx, observability.GetSessionID(ctx), page)
	if err != nil {
		errors.WriteError(w, h.logger, appError(err), requestID)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, page, view.Selection, view.Tables); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build workbook"), requestID)
		return
	}

	h.metrics.PageRenders.WithLabelValues(string(page), "export").Inc()
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(page, view.Selection)))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write export", "error", err, "request_id", requestID)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.dashboard.Ready() {
		status = "loading"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}

func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := h.dashboard.Reload(ctx)
	if err != nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailableWrap(err, "Dataset reload failed"), observability.GetRequestID(ctx))
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"version":  snap.Version,
		"records":  len(snap.Table),
		"rejected": snap.Rejected,
		"loaded":   snap.LoadedAt.Format(time.RFC3339),
	})
}

// appError maps domain errors onto HTTP error codes.
func appError(err error) error {
	var yearErr *filter.InvalidYearError

	switch {
	case stderrors.Is(err, aggregate.ErrUnknownPage):
		return errors.NotFound("Unknown page")
	case stderrors.As(err, &yearErr):
		return errors.ValidationWrap(err, "Invalid year in filter selection")
	case stderrors.Is(err, services.ErrNotLoaded), stderrors.Is(err, dataset.ErrNoRecords):
		return errors.ServiceUnavailableWrap(err, "Dataset not available")
	default:
		return errors.InternalWrap(err, "Failed to compute page")
	}
}
