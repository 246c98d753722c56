package export

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"webplots/internal/engine"
	"webplots/internal/models"
)

// pixelsPerPoint converts chart pixels to vg points (96 dpi screen, 72 dpi vg).
const pixelsPerPoint = 96.0 / 72.0

var glyphs = map[string]draw.GlyphDrawer{
	"circle":      draw.CircleGlyph{},
	"square":      draw.SquareGlyph{},
	"triangle-up": draw.TriangleGlyph{},
	"cross":       draw.PlusGlyph{},
	"x":           draw.CrossGlyph{},
}

func glyph(symbol string) draw.GlyphDrawer {
	if g, ok := glyphs[symbol]; ok {
		return g
	}
	if symbol == "" {
		return draw.CircleGlyph{}
	}
	return draw.RingGlyph{}
}

// rgba parses a hex colour, falling back to black.
func rgba(hex string, opacity float64) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.Black
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(opacity*255 + 0.5)}
}

func at[T any](s []T, i int, def T) T {
	if i < len(s) {
		return s[i]
	}
	return def
}

func scatterPlotters(t models.Trace, logX, logY bool) ([]plot.Plotter, plot.Thumbnailer, error) {
	var xys plotter.XYs
	var colors, symbols []string
	var sizes []float64
	for i := range t.X {
		x, okx := engine.PlotNumber(t.X[i])
		y, oky := engine.PlotNumber(at(t.Y, i, models.Null()))
		if !okx || !oky || (logX && x <= 0) || (logY && y <= 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
		colors = append(colors, at(t.Marker.Colors, i, t.Marker.Color))
		symbols = append(symbols, at(t.Marker.Symbols, i, t.Marker.Symbol))
		sizes = append(sizes, at(t.Marker.Sizes, i, t.Marker.Size))
	}
	if len(xys) == 0 {
		return nil, nil, nil
	}

	var out []plot.Plotter
	var thumb plot.Thumbnailer
	if t.Mode == "lines" || t.Mode == "lines+markers" {
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, nil, err
		}
		line.Color = rgba(t.Color, t.Opacity)
		line.Width = vg.Points(1.5)
		out = append(out, line)
		thumb = line
	}
	if t.Mode != "lines" {
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, nil, err
		}
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			size := sizes[i]
			if size <= 0 {
				size = 8
			}
			return draw.GlyphStyle{
				Color:  rgba(colors[i], t.Opacity),
				Radius: vg.Length(size / 2 / pixelsPerPoint),
				Shape:  glyph(symbols[i]),
			}
		}
		sc.GlyphStyle = sc.GlyphStyleFunc(0)
		out = append(out, sc)
		thumb = sc
	}
	return out, thumb, nil
}

func histogramPlotter(t models.Trace, logX, logY bool) *plotter.Histogram {
	if t.XBins == nil {
		return nil
	}
	bins := make([]plotter.HistogramBin, 0, len(t.BinCounts))
	for i, n := range t.BinCounts {
		if i+1 >= len(t.XBins.Edges) {
			break
		}
		if logX && t.XBins.Edges[i] <= 0 {
			continue
		}
		bins = append(bins, plotter.HistogramBin{Min: t.XBins.Edges[i], Max: t.XBins.Edges[i+1], Weight: n})
	}
	if len(bins) == 0 || (logY && allEmpty(bins)) {
		return nil
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     bins[0].Max - bins[0].Min,
		FillColor: rgba(t.Marker.Color, t.Opacity),
		LineStyle: plotter.DefaultLineStyle,
		LogY:      logY,
	}
	h.LineStyle.Color = rgba(t.Color, 1)
	return h
}

func allEmpty(bins []plotter.HistogramBin) bool {
	for _, b := range bins {
		if b.Weight > 0 {
			return false
		}
	}
	return true
}

// Plot builds a static gonum plot of cfg. It is a preview: per point
// colours and glyphs are kept, hover data and bar modes are not. Points a
// log axis cannot show are skipped.
func Plot(cfg *models.PlotConfig) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = cfg.Layout.Title
	p.X.Label.Text = cfg.Layout.XAxis.Title
	p.Y.Label.Text = cfg.Layout.YAxis.Title
	logX, logY := cfg.Layout.XAxis.Type == "log", cfg.Layout.YAxis.Type == "log"

	plotted := 0
	for _, t := range cfg.Traces {
		switch t.Type {
		case "histogram":
			h := histogramPlotter(t, logX, logY)
			if h == nil {
				continue
			}
			p.Add(h)
			plotted++
			if cfg.Layout.ShowLegend {
				p.Legend.Add(t.Name, h)
			}
		default:
			ps, thumb, err := scatterPlotters(t, logX, logY)
			if err != nil {
				return nil, fmt.Errorf("trace %q: %w", t.Name, err)
			}
			if len(ps) == 0 {
				continue
			}
			p.Add(ps...)
			plotted++
			if cfg.Layout.ShowLegend && (t.ShowLegend == nil || *t.ShowLegend) {
				p.Legend.Add(t.Name, thumb)
			}
		}
	}

	// An empty log axis has no positive range to draw.
	applyAxis(&p.X, cfg.Layout.XAxis, plotted > 0)
	applyAxis(&p.Y, cfg.Layout.YAxis, plotted > 0)
	return p, nil
}

func applyAxis(a *plot.Axis, axis models.Axis, hasData bool) {
	if axis.Type == "log" && hasData {
		a.Scale = plot.LogScale{}
		a.Tick.Marker = plot.LogTicks{Prec: -1}
		if a.Min >= a.Max {
			a.Min, a.Max = a.Min/10, a.Max*10
		}
	}
	if axis.Range != nil && !axis.Autorange {
		lo, hi := axis.Range[0], axis.Range[1]
		if axis.Type == "log" && hasData {
			// Ranges of log axes are exponents.
			lo, hi = math.Pow(10, lo), math.Pow(10, hi)
		}
		a.Min, a.Max = lo, hi
	}
}

// WriteSVG renders cfg as an SVG of width x height pixels.
func WriteSVG(w io.Writer, cfg *models.PlotConfig, width, height float64) error {
	p, err := Plot(cfg)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Length(width/pixelsPerPoint), vg.Length(height/pixelsPerPoint), "svg")
	if err != nil {
		return fmt.Errorf("failed to render svg: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}
