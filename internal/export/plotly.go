package export

import (
	"webplots/internal/models"
)

// plotlyTrace renders a trace in the shape plotly.js expects.
func plotlyTrace(t models.Trace) map[string]any {
	out := map[string]any{
		"type": t.Type,
		"x":    t.X,
		"name": t.Name,
	}
	if t.LegendGroup != "" {
		out["legendgroup"] = t.LegendGroup
	}
	if t.Opacity > 0 {
		out["opacity"] = t.Opacity
	}
	if t.ShowLegend != nil {
		out["showlegend"] = *t.ShowLegend
	}
	if t.HoverSkip {
		out["hoverinfo"] = "skip"
	}

	marker := map[string]any{}
	switch {
	case len(t.Marker.Colors) > 0:
		marker["color"] = t.Marker.Colors
	case t.Marker.Color != "":
		marker["color"] = t.Marker.Color
	}

	if t.Type == "histogram" {
		out["marker"] = marker
		if t.XBins != nil {
			out["autobinx"] = false
			out["xbins"] = map[string]float64{"start": t.XBins.Start, "end": t.XBins.End, "size": t.XBins.Size}
		}
		return out
	}

	out["y"] = t.Y
	out["mode"] = t.Mode
	if t.Mode == "" {
		out["mode"] = "markers"
	}
	if t.Color != "" {
		out["line"] = map[string]any{"color": t.Color}
	}
	switch {
	case len(t.Marker.Symbols) > 0:
		marker["symbol"] = t.Marker.Symbols
	case t.Marker.Symbol != "":
		marker["symbol"] = t.Marker.Symbol
	}
	if len(t.Marker.Sizes) > 0 {
		marker["size"] = t.Marker.Sizes
	} else if t.Marker.Size > 0 {
		marker["size"] = t.Marker.Size
	}
	out["marker"] = marker
	if len(t.Absorbed) > 0 {
		out["customdata"] = t.Absorbed
		out["hovertemplate"] = "%{x}, %{y}<br>absorbed: %{customdata}<extra></extra>"
	}
	return out
}

func plotlyAxis(a models.Axis) map[string]any {
	out := map[string]any{
		"title":     map[string]string{"text": a.Title},
		"type":      a.Type,
		"autorange": a.Autorange,
	}
	if a.Range != nil {
		out["range"] = a.Range[:]
	}
	return out
}

func plotlyLayout(l models.Layout) map[string]any {
	out := map[string]any{
		"title":      map[string]string{"text": l.Title},
		"xaxis":      plotlyAxis(l.XAxis),
		"yaxis":      plotlyAxis(l.YAxis),
		"showlegend": l.ShowLegend,
		"margin":     l.Margin,
	}
	if l.Barmode != "" {
		out["barmode"] = l.Barmode
	}
	return out
}

// Plotly converts a plot config to plotly.js data and layout objects.
func Plotly(cfg *models.PlotConfig) (data []map[string]any, layout map[string]any) {
	data = make([]map[string]any, len(cfg.Traces))
	for i, t := range cfg.Traces {
		data[i] = plotlyTrace(t)
	}
	return data, plotlyLayout(cfg.Layout)
}
