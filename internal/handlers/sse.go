package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/services"
)

var statusTemplate = template.Must(template.New("status").Parse(
	`<div id="status">{{if .Selection}}{{.Rows}} produtos em {{range $i, $s := .Selection}}{{if $i}}, {{end}}{{$s}}{{end}}{{else}}Nenhuma temporada selecionada{{end}}</div>`))

// dashboardSignals is the part of the page's signal state the server reads.
type dashboardSignals struct {
	Seasons []string `json:"seasons"`
}

type SSEHandlers struct {
	views  *services.ViewBuilder
	logger *slog.Logger
}

func NewSSEHandlers(views *services.ViewBuilder, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		views:  views,
		logger: logger,
	}
}

func (h *SSEHandlers) renderStatus(dash charts.Dashboard) (string, error) {
	var buf strings.Builder
	err := statusTemplate.Execute(&buf, dash)
	return buf.String(), err
}

// HandleCharts re-renders the dashboard for the checklist selection carried
// in the request signals and patches the chart figures back.
func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "invalid signals"))
		return
	}

	dash := h.views.Render(r.Context(), signals.Seasons)

	sse := datastar.NewSSE(w, r)

	if err := sse.MarshalAndPatchSignals(map[string]any{
		"charts": dash.Figures(),
		"rows":   dash.Rows,
	}); err != nil {
		h.logger.Error("patch chart signals", "error", err)
		return
	}

	html, err := h.renderStatus(dash)
	if err != nil {
		h.logger.Error("render status", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Error("patch status", "error", err)
	}
}
