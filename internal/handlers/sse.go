package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/presentation"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard *services.Dashboard
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, m *metrics.Metrics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		metrics:   m,
		logger:    logger,
	}
}

// filterSignals are the datastar signals bound to the filter form.
type filterSignals struct {
	State    string `json:"state"`
	Year     string `json:"year"`
	Category string `json:"category"`
	Page     string `json:"page"`
}

func (h *SSEHandlers) renderContent(ctx context.Context, view *services.View) (string, error) {
	charts, err := presentation.BuildAll(view.Tables)
	if err != nil {
		return "", err
	}
	content, err := templates.NewContent(view.Page, charts)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := templates.Content(content).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (h *SSEHandlers) patchPage(ctx context.Context, sse *datastar.ServerSentEventGenerator, view *services.View) {
	logger := observability.LoggerFrom(ctx, h.logger)

	html, err := h.renderContent(ctx, view)
	if err != nil {
		logger.Error("render page content", "page", view.Page, "error", err)
		return
	}

	if err := sse.PatchElements(html); err != nil {
		logger.Warn("patch page content", "page", view.Page, "error", err)
		return
	}

	h.metrics.PageRenders.WithLabelValues(string(view.Page), "sse").Inc()
}

func (h *SSEHandlers) patchError(ctx context.Context, sse *datastar.ServerSentEventGenerator, page models.PageID, err error) {
	observability.LoggerFrom(ctx, h.logger).Warn("page computation failed", "page", page, "error", err)

	msg := `<div id="` + templates.ContentID + `"><p class="error">Unable to show this page right now.</p></div>`
	if perr := sse.PatchElements(msg); perr != nil {
		h.logger.Debug("patch error message", "error", perr)
	}
}

// HandlePage streams the content of one page for the session's selection.
func (h *SSEHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := models.PageID(r.PathValue("page"))

	if !page.Valid() {
		errors.WriteError(w, h.logger, errors.NotFound("Unknown page"), observability.GetRequestID(ctx))
		return
	}

	sse := datastar.NewSSE(w, r)

	view, err := h.dashboard.Page(ctx, observability.GetSessionID(ctx), page)
	if err != nil {
		h.patchError(ctx, sse, page, err)
		return
	}
	h.patchPage(ctx, sse, view)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleFilter reads the filter signals, applies them and re-renders the page
// the client is on. Corrected values are sent back as signals.
func (h *SSEHandlers) HandleFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := observability.GetSessionID(ctx)

	var signals filterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid filter signals"), observability.GetRequestID(ctx))
		return
	}

	page := models.PageID(signals.Page)
	if !page.Valid() {
		page = models.PageOverview
	}

	applied := h.dashboard.ApplyFilter(ctx, sessionID, models.FilterSelection{
		State:    signals.State,
		Year:     signals.Year,
		Category: signals.Category,
	})

	sse := datastar.NewSSE(w, r)

	if err := sse.MarshalAndPatchSignals(filterSignals{
		State:    applied.State,
		Year:     applied.Year,
		Category: applied.Category,
		Page:     string(page),
	}); err != nil {
		observability.LoggerFrom(ctx, h.logger).Warn("patch filter signals", "error", err)
		return
	}

	view, err := h.dashboard.ComputeView(ctx, page, applied)
	if err != nil {
		h.patchError(ctx, sse, page, err)
		return
	}
	h.patchPage(ctx, sse, view)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
