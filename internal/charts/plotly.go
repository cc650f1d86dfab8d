package charts

// Figure is a Plotly.js figure: the browser passes Data and Layout straight
// to Plotly.react.
type Figure struct {
	Data   []map[string]any `json:"data"`
	Layout map[string]any   `json:"layout"`
}

func (c Chart) Figure() Figure {
	f := Figure{
		Data: make([]map[string]any, 0, len(c.Series)),
		Layout: map[string]any{
			"title":    map[string]any{"text": c.Title},
			"template": "plotly_white",
		},
	}
	if c.XLabel != "" {
		f.Layout["xaxis"] = axis(c.XLabel)
	}
	if c.YLabel != "" {
		f.Layout["yaxis"] = axis(c.YLabel)
	}

	switch c.Kind {
	case KindBar:
		f.Layout["barmode"] = "relative"
		f.Layout["legend"] = map[string]any{"title": map[string]any{"text": c.XLabel}}
		for _, s := range c.Series {
			f.Data = append(f.Data, map[string]any{
				"type":   "bar",
				"name":   s.Name,
				"x":      s.Labels,
				"y":      values(s.Y),
				"marker": map[string]any{"color": s.Color},
			})
		}

	case KindScatter:
		f.Layout["legend"] = map[string]any{"title": map[string]any{"text": "Gênero"}}
		for _, s := range c.Series {
			f.Data = append(f.Data, map[string]any{
				"type":   "scatter",
				"mode":   "markers",
				"name":   s.Name,
				"x":      values(s.X),
				"y":      values(s.Y),
				"marker": map[string]any{"color": s.Color},
			})
		}

	case KindHistogram:
		f.Layout["bargap"] = 0
		for _, s := range c.Series {
			f.Data = append(f.Data, map[string]any{
				"type":   "bar",
				"name":   s.Name,
				"x":      values(s.X),
				"y":      values(s.Y),
				"offset": 0,
				"width":  c.BinSize,
				"marker": map[string]any{"color": s.Color},
			})
		}

	case KindHeatmap:
		if c.Matrix != nil {
			f.Data = append(f.Data, map[string]any{
				"type":         "heatmap",
				"x":            c.Matrix.Labels,
				"y":            c.Matrix.Labels,
				"z":            c.Matrix.Values,
				"text":         c.Matrix.Text,
				"texttemplate": "%{text}",
				"colorscale":   c.ColorScale,
				"zmin":         -1,
				"zmax":         1,
			})
			f.Layout["yaxis"] = map[string]any{"autorange": "reversed"}
		}

	case KindPie:
		for _, s := range c.Series {
			f.Data = append(f.Data, map[string]any{
				"type":   "pie",
				"labels": s.Labels,
				"values": values(s.Y),
			})
		}
	}
	return f
}

func axis(title string) map[string]any {
	return map[string]any{"title": map[string]any{"text": title}}
}

// Figures keys each chart's figure by kind, the signal each chart region draws.
func (d Dashboard) Figures() map[string]Figure {
	figures := make(map[string]Figure, len(Kinds))
	for _, c := range d.Charts() {
		figures[string(c.Kind)] = c.Figure()
	}
	return figures
}
