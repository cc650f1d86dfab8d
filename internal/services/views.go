package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
)

const tracerName = "ecommerce-dashboard/services"

// ViewBuilder derives the dashboard charts from the store for a season
// selection. It never modifies the store.
type ViewBuilder struct {
	store   *Store
	metrics *observability.Metrics
}

// NewViewBuilder returns a builder over store. metrics may be nil.
func NewViewBuilder(store *Store, metrics *observability.Metrics) *ViewBuilder {
	return &ViewBuilder{
		store:   store,
		metrics: metrics,
	}
}

func (v *ViewBuilder) Store() *Store {
	return v.store
}

// Filter returns the rows whose season is in selection, in table order.
// An empty selection matches nothing.
func (v *ViewBuilder) Filter(selection []string) []models.Product {
	return FilterBySeason(v.store.Rows(), selection)
}

func FilterBySeason(rows []models.Product, selection []string) []models.Product {
	wanted := make(map[string]struct{}, len(selection))
	for _, s := range selection {
		wanted[s] = struct{}{}
	}

	filtered := make([]models.Product, 0)
	if len(wanted) == 0 {
		return filtered
	}
	for _, p := range rows {
		if _, ok := wanted[p.Season]; ok {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Render filters the table by selection and builds the five charts.
func (v *ViewBuilder) Render(ctx context.Context, selection []string) charts.Dashboard {
	_, span := otel.Tracer(tracerName).Start(ctx, "services.render")
	defer span.End()

	start := time.Now()
	if selection == nil {
		selection = []string{}
	}
	filtered := v.Filter(selection)

	dash := charts.Dashboard{
		Selection: selection,
		Rows:      len(filtered),
		Bar:       charts.NewBar(filtered, v.store.Seasons()),
		Scatter:   charts.NewScatter(filtered),
		Histogram: charts.NewHistogram(filtered, charts.HistogramBins),
		Heatmap:   charts.NewHeatmap(filtered),
		Pie:       charts.NewPie(filtered),
	}

	span.SetAttributes(
		attribute.StringSlice("dashboard.selection", selection),
		attribute.Int("dashboard.rows", len(filtered)),
	)
	v.metrics.ObserveRender(len(filtered), time.Since(start))

	return dash
}
