package handlers

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/export"
	"ecommerce-dashboard/internal/services"
)

const (
	cacheControl = "public, max-age=300"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImageSide = 4000
)

type APIHandlers struct {
	views  *services.ViewBuilder
	logger *slog.Logger
}

func NewAPIHandlers(views *services.ViewBuilder, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		views:  views,
		logger: logger,
	}
}

// selectionFromQuery reads repeated season parameters. Absent parameters
// mean an empty selection.
func selectionFromQuery(r *http.Request) []string {
	selection := make([]string, 0)
	for _, v := range r.URL.Query()["season"] {
		if v = strings.TrimSpace(v); v != "" {
			selection = append(selection, v)
		}
	}
	return selection
}

func (h *APIHandlers) HandleSeasons(w http.ResponseWriter, r *http.Request) {
	store := h.views.Store()

	data := map[string][]string{
		"seasons": store.Seasons(),
		"default": store.DefaultSelection(),
	}

	errors.WriteSuccessWithHeaders(w, r, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	dash := h.views.Render(r.Context(), selectionFromQuery(r))

	errors.WriteSuccessWithHeaders(w, r, dash, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleChartPNG(w http.ResponseWriter, r *http.Request) {
	kind, ok := charts.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		errors.WriteError(w, r, h.logger, errors.BadRequest("unknown chart kind").
			WithDetails("kind must be one of %v", charts.Kinds))
		return
	}

	width, err := dimension(r, "width", charts.DefaultWidth)
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.ValidationWrap(err, "invalid width").
			WithDetails("width must be an integer between 1 and %d", maxImageSide))
		return
	}
	height, err := dimension(r, "height", charts.DefaultHeight)
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.ValidationWrap(err, "invalid height").
			WithDetails("height must be an integer between 1 and %d", maxImageSide))
		return
	}

	dash := h.views.Render(r.Context(), selectionFromQuery(r))
	chart, _ := dash.Chart(kind)

	var buf bytes.Buffer
	err = charts.RenderPNG(&buf, chart, width, height)
	switch {
	case stderrors.Is(err, charts.ErrNoData):
		w.WriteHeader(http.StatusNoContent)
		return
	case stderrors.Is(err, charts.ErrUnsupported):
		errors.WriteError(w, r, h.logger, errors.BadRequest(string(kind)+" charts have no PNG rendering"))
		return
	case err != nil:
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "failed to render chart"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", cacheControl)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("write png", "error", err)
	}
}

func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	selection := selectionFromQuery(r)
	rows := h.views.Filter(selection)
	dash := h.views.Render(r.Context(), selection)

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, rows, dash); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "failed to build workbook"))
		return
	}

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.xlsx"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("write workbook", "error", err)
	}
}

// HandleHealth reports unhealthy until the listings table holds rows.
func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if len(h.views.Store().Rows()) == 0 {
		errors.WriteError(w, r, h.logger, errors.ServiceUnavailable("no listings loaded"))
		return
	}

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, r, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.views.Store().Stats())
}

func dimension(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > maxImageSide {
		return 0, stderrors.New(key + " out of range")
	}
	return n, nil
}
