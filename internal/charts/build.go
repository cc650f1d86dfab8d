package charts

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"ecommerce-dashboard/internal/models"
)

const (
	HistogramBins  = 20
	histogramColor = "green"
	heatmapScale   = "RdBu"
)

// Set3 is the qualitative palette used for season colors.
var Set3 = []string{
	"#8DD3C7", "#FFFFB3", "#BEBADA", "#FB8072", "#80B1D3", "#FDB462",
	"#B3DE69", "#FCCDE5", "#D9D9D9", "#BC80BD", "#CCEBC5", "#FFED6F",
}

// Plotly is the default qualitative palette, used for gender colors.
var Plotly = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// NewBar sums sold quantity per season. Series follow the order of seasons,
// which also fixes each season's color; seasons present in rows but absent
// from seasons are appended in first-seen order.
func NewBar(rows []models.Product, seasons []string) Chart {
	totals := make(map[string]float64)
	var seen []string
	for _, p := range rows {
		if _, ok := totals[p.Season]; !ok {
			totals[p.Season] = 0
			seen = append(seen, p.Season)
		}
		if p.HasSoldQuantity() {
			totals[p.Season] += p.SoldQuantity
		}
	}

	order := slices.Clone(seasons)
	for _, s := range seen {
		if !slices.Contains(order, s) {
			order = append(order, s)
		}
	}

	series := make([]Series, 0, len(seen))
	for i, season := range order {
		total, ok := totals[season]
		if !ok {
			continue
		}
		series = append(series, Series{
			Name:   season,
			Color:  Set3[i%len(Set3)],
			Labels: []string{season},
			Y:      []float64{total},
		})
	}

	return Chart{
		Kind:   KindBar,
		Title:  "Quantidade de Produtos Vendidos por Temporada",
		XLabel: "Temporada",
		YLabel: "Quantidade Vendida",
		Series: series,
	}
}

// NewScatter plots price against rating, one series per gender.
func NewScatter(rows []models.Product) Chart {
	index := make(map[string]int)
	series := make([]Series, 0)
	for _, p := range rows {
		if math.IsNaN(p.Price) || math.IsNaN(p.Rating) {
			continue
		}
		i, ok := index[p.Gender]
		if !ok {
			i = len(series)
			index[p.Gender] = i
			series = append(series, Series{
				Name:  p.Gender,
				Color: Plotly[i%len(Plotly)],
			})
		}
		series[i].X = append(series[i].X, p.Price)
		series[i].Y = append(series[i].Y, p.Rating)
	}

	return Chart{
		Kind:   KindScatter,
		Title:  "Preço vs Nota",
		XLabel: models.ColPrice,
		YLabel: models.ColRating,
		Series: series,
	}
}

// NewHistogram bins prices into equal-width bins spanning the observed
// range. X holds bin starts and Y the counts.
func NewHistogram(rows []models.Product, bins int) Chart {
	if bins < 1 {
		bins = HistogramBins
	}
	values := make([]float64, 0, len(rows))
	for _, p := range rows {
		if !math.IsNaN(p.Price) {
			values = append(values, p.Price)
		}
	}

	c := Chart{
		Kind:   KindHistogram,
		Title:  "Distribuição de Preços",
		XLabel: models.ColPrice,
		YLabel: "count",
		Series: []Series{{
			Name:  models.ColPrice,
			Color: histogramColor,
			X:     []float64{},
			Y:     []float64{},
		}},
	}
	if len(values) == 0 {
		return c
	}

	sort.Float64s(values)
	lo, hi := values[0], values[len(values)-1]
	if lo == hi {
		c.BinSize = 1
		c.Series[0].X = []float64{lo - 0.5}
		c.Series[0].Y = []float64{float64(len(values))}
		return c
	}

	dividers := spanDividers(lo, hi, bins)
	// the top edge is exclusive in stat.Histogram
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, values, nil)

	c.BinSize = hi/float64(bins) - lo/float64(bins)
	c.Series[0].X = dividers[:bins]
	c.Series[0].Y = counts
	return c
}

// spanDividers returns bins+1 evenly spaced edges from lo to hi. When hi-lo
// overflows, the edges are interpolated term by term so they stay finite.
func spanDividers(lo, hi float64, bins int) []float64 {
	dividers := make([]float64, bins+1)
	if !math.IsInf(hi-lo, 0) {
		return floats.Span(dividers, lo, hi)
	}
	for i := range dividers {
		t := float64(i) / float64(bins)
		dividers[i] = lo*(1-t) + hi*t
	}
	return dividers
}

// NewHeatmap builds the price/discount correlation matrix.
func NewHeatmap(rows []models.Product) Chart {
	labels := []string{models.ColPrice, models.ColDiscount}
	columns := [][]float64{
		make([]float64, len(rows)),
		make([]float64, len(rows)),
	}
	for i, p := range rows {
		columns[0][i] = p.Price
		columns[1][i] = p.Discount
	}

	return Chart{
		Kind:       KindHeatmap,
		Title:      "Mapa de Calor - Correlação Preço e Desconto",
		Series:     []Series{},
		Matrix:     CorrelationMatrix(labels, columns),
		ColorScale: heatmapScale,
	}
}

// CorrelationMatrix computes pairwise Pearson correlations between columns.
// The result is symmetric; a cell is NaN when the pair has fewer than two
// complete observations or either side has zero variance.
func CorrelationMatrix(labels []string, columns [][]float64) *Matrix {
	n := len(columns)
	m := &Matrix{
		Labels: labels,
		Values: make([][]Value, n),
		Text:   make([][]string, n),
	}
	for i := range n {
		m.Values[i] = make([]Value, n)
		m.Text[i] = make([]string, n)
	}

	for i := range n {
		for j := i; j < n; j++ {
			r := Correlation(columns[i], columns[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.Values[i][j], m.Values[j][i] = Value(r), Value(r)
		}
	}
	for i := range n {
		for j := range n {
			if m.Values[i][j].Valid() {
				m.Text[i][j] = fmt.Sprintf("%.2f", float64(m.Values[i][j]))
			}
		}
	}
	return m
}

// Correlation is the Pearson coefficient over the positions where both x
// and y are defined.
func Correlation(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range min(len(x), len(y)) {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if floats.Min(xs) == floats.Max(xs) || floats.Min(ys) == floats.Max(ys) {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// NewPie counts rows per season, largest first. Ties keep first-seen order.
func NewPie(rows []models.Product) Chart {
	counts := make(map[string]int)
	var order []string
	for _, p := range rows {
		if _, ok := counts[p.Season]; !ok {
			order = append(order, p.Season)
		}
		counts[p.Season]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	c := Chart{
		Kind:   KindPie,
		Title:  "Proporção por Temporada",
		Series: []Series{},
	}
	if len(order) == 0 {
		return c
	}

	values := make([]float64, len(order))
	for i, s := range order {
		values[i] = float64(counts[s])
	}
	c.Series = append(c.Series, Series{
		Name:   models.ColSeason,
		Labels: order,
		Y:      values,
	})
	return c
}
