package engine

import (
	"math"

	"webplots/internal/models"
)

// PixelPoint is a data point projected onto the chart canvas.
type PixelPoint struct {
	PX, PY float64
}

func (p PixelPoint) finite() bool {
	return !math.IsNaN(p.PX) && !math.IsNaN(p.PY) && !math.IsInf(p.PX, 0) && !math.IsInf(p.PY, 0)
}

// Projector maps data coordinates onto a width x height canvas with the Y axis
// pointing down. On log axes values are projected by their log10, and
// manual ranges are read in those log units.
type Projector struct {
	xMin, xSpan float64
	yMin, ySpan float64
	width       float64
	height      float64
	log         bool
}

// NewProjector fits a projector to the finite values of xs and ys unless a
// manual range overrides an axis.
func NewProjector(xs, ys []float64, xRange, yRange *[2]float64, width, height float64, logAxes bool) Projector {
	p := Projector{width: width, height: height, log: logAxes}
	if p.width == 0 || math.IsNaN(p.width) {
		p.width = 1
	}
	if p.height == 0 || math.IsNaN(p.height) {
		p.height = 1
	}
	p.xMin, p.xSpan = axisBounds(xs, xRange, logAxes)
	p.yMin, p.ySpan = axisBounds(ys, yRange, logAxes)
	return p
}

func axisBounds(vals []float64, manual *[2]float64, logAxis bool) (min, span float64) {
	if manual != nil {
		min, span = manual[0], manual[1]-manual[0]
	} else {
		min, max := math.NaN(), math.NaN()
		for _, v := range vals {
			v = axisValue(v, logAxis)
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(min) || v < min {
				min = v
			}
			if math.IsNaN(max) || v > max {
				max = v
			}
		}
		span = max - min
	}
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		span = 1
	}
	return min, span
}

// axisValue is the coordinate of v along an axis, NaN when v cannot be placed.
func axisValue(v float64, logAxis bool) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	if logAxis {
		if v <= 0 {
			return math.NaN()
		}
		return math.Log10(v)
	}
	return v
}

// Project returns the pixel position of (x, y). Unplaceable values yield NaN
// coordinates, which Decimate passes through untouched.
func (p Projector) Project(x, y float64) PixelPoint {
	nx := (axisValue(x, p.log) - p.xMin) / p.xSpan
	ny := (axisValue(y, p.log) - p.yMin) / p.ySpan
	return PixelPoint{PX: nx * p.width, PY: (1 - ny) * p.height}
}

// MinPixelDistance derives the decimation threshold for markers of the given
// radius. enabled is false when nothing can be dropped.
func MinPixelDistance(cfg models.DensityConfig, radius float64) (dist float64, enabled bool) {
	if cfg.UseCustomRadius {
		dist = cfg.CustomRadius
	} else {
		ink := math.Min(math.Max(cfg.InkRatio, 0), 1)
		if ink >= 1 {
			return 0, false
		}
		dist = radius * 2 * (1 - ink)
	}
	if math.IsNaN(dist) || dist <= 0 {
		return 0, false
	}
	return dist, true
}

// Decimation is the outcome of thinning one trace.
type Decimation struct {
	// Kept holds the indices of surviving points in input order.
	Kept []int
	// Absorbed[i] counts the points dropped because of Kept[i].
	Absorbed []int
	Dropped  int
}

// Decimate walks points in order and drops every point closer than
// minPixelDistance to any point kept before it. Points that could not be
// projected are kept without taking part in the distance checks.
func Decimate(points []PixelPoint, minPixelDistance float64) Decimation {
	d := Decimation{
		Kept:     make([]int, 0, len(points)),
		Absorbed: make([]int, 0, len(points)),
	}
	if !(minPixelDistance > 0) {
		for i := range points {
			d.Kept = append(d.Kept, i)
			d.Absorbed = append(d.Absorbed, 0)
		}
		return d
	}

	// anchors are the projected kept points; slot maps them back into d.Kept.
	type anchor struct {
		PixelPoint
		slot int
	}
	var anchors []anchor

	for i, pt := range points {
		if !pt.finite() {
			d.Kept = append(d.Kept, i)
			d.Absorbed = append(d.Absorbed, 0)
			continue
		}
		absorbedBy := -1
		for j := range anchors {
			dx := pt.PX - anchors[j].PX
			dy := pt.PY - anchors[j].PY
			if math.Sqrt(dx*dx+dy*dy) < minPixelDistance {
				absorbedBy = anchors[j].slot
				break
			}
		}
		if absorbedBy >= 0 {
			d.Absorbed[absorbedBy]++
			d.Dropped++
			continue
		}
		anchors = append(anchors, anchor{PixelPoint: pt, slot: len(d.Kept)})
		d.Kept = append(d.Kept, i)
		d.Absorbed = append(d.Absorbed, 0)
	}
	return d
}
