package charts

import (
	"errors"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	ErrNoData      = errors.New("chart has no data")
	ErrUnsupported = errors.New("chart kind has no raster rendering")
)

const (
	DefaultWidth  = 800
	DefaultHeight = 450
)

var namedColors = map[string]string{
	"green": "008000",
}

func toColor(c string) drawing.Color {
	if hex, ok := namedColors[c]; ok {
		return drawing.ColorFromHex(hex)
	}
	if strings.HasPrefix(c, "#") {
		return drawing.ColorFromHex(c[1:])
	}
	return chart.ColorBlue
}

// RenderPNG rasterizes a chart. Heatmaps are not supported; charts without
// points return ErrNoData.
func RenderPNG(w io.Writer, c Chart, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if c.Kind == KindHeatmap {
		return ErrUnsupported
	}
	if c.Points() == 0 {
		return ErrNoData
	}

	var err error
	switch c.Kind {
	case KindBar:
		err = renderBar(w, c, width, height)
	case KindHistogram:
		err = renderHistogram(w, c, width, height)
	case KindScatter:
		err = renderScatter(w, c, width, height)
	case KindPie:
		err = renderPie(w, c, width, height)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, c.Kind)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", c.Kind, err)
	}
	return nil
}

func renderBar(w io.Writer, c Chart, width, height int) error {
	bars := make([]chart.Value, 0, len(c.Series))
	for _, s := range c.Series {
		col := toColor(s.Color)
		bars = append(bars, chart.Value{
			Label: s.Name,
			Value: s.Y[0],
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
	}
	bc := chart.BarChart{
		Title:    c.Title,
		Width:    width,
		Height:   height,
		BarWidth: 60,
		Bars:     bars,
		YAxis:    chart.YAxis{Range: barRange(bars)},
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
	}
	return bc.Render(chart.PNG, w)
}

func renderHistogram(w io.Writer, c Chart, width, height int) error {
	s := c.Series[0]
	col := toColor(s.Color)
	bars := make([]chart.Value, 0, len(s.Y))
	for i, count := range s.Y {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%.0f", s.X[i]),
			Value: count,
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
	}
	barWidth := width / (len(bars) + 2)
	bc := chart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		BarWidth:   max(barWidth-4, 4),
		BarSpacing: 2,
		Bars:       bars,
		YAxis:      chart.YAxis{Range: barRange(bars)},
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
	}
	return bc.Render(chart.PNG, w)
}

func renderScatter(w io.Writer, c Chart, width, height int) error {
	series := make([]chart.Series, 0, len(c.Series))
	var xs, ys []float64
	for _, s := range c.Series {
		series = append(series, chart.ContinuousSeries{
			Name: s.Name,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    toColor(s.Color),
			},
			XValues: s.X,
			YValues: s.Y,
		})
		xs = append(xs, s.X...)
		ys = append(ys, s.Y...)
	}

	ch := chart.Chart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16},
		},
		XAxis:  chart.XAxis{Name: c.XLabel, Range: paddedRange(xs)},
		YAxis:  chart.YAxis{Name: c.YLabel, Range: paddedRange(ys)},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// paddedRange widens a degenerate range so a single point still renders.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// barRange anchors bars at zero. go-chart refuses a zero-height value
// range, which a single bar or equal bars would otherwise produce.
func barRange(bars []chart.Value) *chart.ContinuousRange {
	top := 0.0
	for _, b := range bars {
		top = max(top, b.Value)
	}
	if top == 0 {
		top = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: top * 1.1}
}

func renderPie(w io.Writer, c Chart, width, height int) error {
	s := c.Series[0]
	values := make([]chart.Value, 0, len(s.Y))
	for i, v := range s.Y {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.0f)", s.Labels[i], v),
			Value: v,
			Style: chart.Style{FillColor: toColor(Plotly[i%len(Plotly)])},
		})
	}
	pc := chart.PieChart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}
