// Package charts holds the chart descriptors served by the dashboard and the
// builders that derive them from a filtered set of products.
package charts

import (
	"encoding/json"
	"math"
	"strconv"
)

type Kind string

const (
	KindBar       Kind = "bar"
	KindScatter   Kind = "scatter"
	KindHistogram Kind = "histogram"
	KindHeatmap   Kind = "heatmap"
	KindPie       Kind = "pie"
)

// Kinds lists every chart kind in display order.
var Kinds = []Kind{KindBar, KindScatter, KindHistogram, KindHeatmap, KindPie}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Value is a float that encodes NaN and infinities as JSON null.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func (v Value) Valid() bool {
	return !math.IsNaN(float64(v))
}

type Series struct {
	Name   string    `json:"name"`
	Color  string    `json:"color,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y"`
}

// MarshalJSON writes non-finite coordinates as null.
func (s Series) MarshalJSON() ([]byte, error) {
	type plain Series
	return json.Marshal(struct {
		plain
		X []Value `json:"x,omitempty"`
		Y []Value `json:"y"`
	}{plain(s), values(s.X), values(s.Y)})
}

func values(xs []float64) []Value {
	if xs == nil {
		return nil
	}
	out := make([]Value, len(xs))
	for i, x := range xs {
		out[i] = Value(x)
	}
	return out
}

// Matrix is a square, labelled grid of values with per-cell annotations.
type Matrix struct {
	Labels []string   `json:"labels"`
	Values [][]Value  `json:"values"`
	Text   [][]string `json:"text"`
}

type Chart struct {
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title"`
	XLabel     string   `json:"x_label,omitempty"`
	YLabel     string   `json:"y_label,omitempty"`
	Series     []Series `json:"series"`
	Matrix     *Matrix  `json:"matrix,omitempty"`
	BinSize    float64  `json:"bin_size,omitempty"`
	ColorScale string   `json:"color_scale,omitempty"`
}

// Points counts the data points the chart carries. Undefined matrix cells
// are not counted.
func (c Chart) Points() int {
	n := 0
	for _, s := range c.Series {
		n += len(s.Y)
	}
	if c.Matrix != nil {
		for _, row := range c.Matrix.Values {
			for _, v := range row {
				if v.Valid() {
					n++
				}
			}
		}
	}
	return n
}

// Fractions returns each value of the first series as a share of the
// series total. It is meant for pie charts.
func (c Chart) Fractions() []float64 {
	if len(c.Series) == 0 {
		return nil
	}
	values := c.Series[0].Y
	total := 0.0
	for _, v := range values {
		total += v
	}
	out := make([]float64, len(values))
	if total == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / total
	}
	return out
}

// Dashboard is the result of one render: the five charts built from the
// same filtered set.
type Dashboard struct {
	Selection []string `json:"selection"`
	Rows      int      `json:"rows"`
	Bar       Chart    `json:"bar"`
	Scatter   Chart    `json:"scatter"`
	Histogram Chart    `json:"histogram"`
	Heatmap   Chart    `json:"heatmap"`
	Pie       Chart    `json:"pie"`
}

// Charts lists the five charts in the order the page lays them out.
func (d Dashboard) Charts() []Chart {
	return []Chart{d.Bar, d.Scatter, d.Histogram, d.Heatmap, d.Pie}
}

func (d Dashboard) Chart(kind Kind) (Chart, bool) {
	switch kind {
	case KindBar:
		return d.Bar, true
	case KindScatter:
		return d.Scatter, true
	case KindHistogram:
		return d.Histogram, true
	case KindHeatmap:
		return d.Heatmap, true
	case KindPie:
		return d.Pie, true
	}
	return Chart{}, false
}
