package engine

import (
	"math"

	"webplots/internal/models"
)

const (
	// binEpsilon nudges clipped values inside the first and last bins.
	binEpsilon = 1e-6
	// maxBins caps edge generation for pathological size settings.
	maxBins         = 10000
	defaultBinCount = 10
)

// BinResolution is the outcome of binning one histogram trace.
type BinResolution struct {
	Config models.HistogramBins `json:"config"`
	Edges  []float64            `json:"edges"`
	// Values are the numeric inputs after underflow/overflow clipping.
	Values []float64 `json:"values"`
	// Counts[i] is the number of Values in [Edges[i], Edges[i+1]); the last
	// bin also takes values equal to its upper edge.
	Counts     []float64 `json:"counts"`
	Underflows int       `json:"underflows"`
	Overflows  int       `json:"overflows"`
}

// DefaultBins derives a ten-bin layout covering values.
func DefaultBins(values []float64) models.HistogramBins {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if math.IsInf(min, 1) {
		min, max = 0, 1
	}
	start, end := math.Floor(min), math.Ceil(max)
	size := (end - start) / defaultBinCount
	if size == 0 {
		size = 1
	}
	return models.HistogramBins{
		Start:     start,
		End:       end,
		Size:      size,
		BinMode:   models.BinWidth,
		Count:     defaultBinCount,
		Underflow: true,
		Overflow:  true,
	}
}

// EffectiveSize is the bin width actually used: derived from the count in
// count mode, the stored size otherwise. It never returns a non-positive width.
func EffectiveSize(cfg models.HistogramBins) float64 {
	size := cfg.Size
	if cfg.BinMode == models.BinCount {
		count := cfg.Count
		if count <= 0 {
			count = defaultBinCount
		}
		size = (cfg.End - cfg.Start) / float64(count)
	}
	if !(size > 0) || math.IsInf(size, 0) {
		return 1
	}
	return size
}

// ResolveBins bins the numeric values of a column. A nil cfg uses DefaultBins.
// Values the column's NumberReader cannot convert are dropped.
func ResolveBins(values []models.Value, cfg *models.HistogramBins) BinResolution {
	reader := NewNumberReader(values)
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := reader.Number(v); ok {
			nums = append(nums, f)
		}
	}
	var res BinResolution
	if cfg != nil {
		res.Config = *cfg
	} else {
		res.Config = DefaultBins(nums)
	}
	c := res.Config

	res.Values = make([]float64, len(nums))
	for i, v := range nums {
		switch {
		case c.Underflow && v < c.Start:
			v = c.Start + binEpsilon
			res.Underflows++
		case c.Overflow && v > c.End:
			v = c.End - binEpsilon
			res.Overflows++
		}
		res.Values[i] = v
	}

	res.Edges = binEdges(c)
	res.Counts = countBins(res.Values, res.Edges)
	return res
}

func binEdges(c models.HistogramBins) []float64 {
	size := EffectiveSize(c)
	n := 1
	if span := c.End - c.Start; span > 0 {
		n = int(math.Ceil(span/size - 1e-9))
	}
	if c.BinMode == models.BinCount && c.Count > 0 {
		n = c.Count
	}
	n = min(max(n, 1), maxBins)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = c.Start + float64(i)*size
	}
	return edges
}

func countBins(values, edges []float64) []float64 {
	counts := make([]float64, len(edges)-1)
	if len(counts) == 0 {
		return counts
	}
	lo, hi := edges[0], edges[len(edges)-1]
	size := edges[1] - edges[0]
	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		i := int((v - lo) / size)
		if i >= len(counts) {
			i = len(counts) - 1
		}
		counts[i]++
	}
	return counts
}

// SetBinMode switches between width and count mode keeping the range. Going
// to count mode picks the nearest whole count and derives the size from it;
// the width-mode size is kept aside so switching back restores it exactly.
func SetBinMode(c models.HistogramBins, mode models.BinMode) models.HistogramBins {
	if c.BinMode == mode || (c.BinMode == "" && mode == models.BinWidth) {
		c.BinMode = mode
		return c
	}
	if mode == models.BinCount {
		size := c.Size
		if !(size > 0) {
			size = 1
		}
		c.Count = max(1, int(math.Round((c.End-c.Start)/size)))
		c.WidthSize = size
		c.BinMode = mode
		c.Size = EffectiveSize(c)
		return c
	}
	if c.WidthSize > 0 {
		c.Size = c.WidthSize
	} else if !(c.Size > 0) {
		c.Size = EffectiveSize(c)
	}
	c.WidthSize = 0
	c.BinMode = mode
	return c
}

// SetBinRange moves start/end. Count mode keeps the number of bins and
// recomputes the width; width mode keeps the width.
func SetBinRange(c models.HistogramBins, start, end float64) models.HistogramBins {
	c.Start, c.End = start, end
	if c.BinMode == models.BinCount {
		c.Size = EffectiveSize(c)
		c.WidthSize = 0
	}
	return c
}

// SetBinCount sets the number of bins and derives the width from it.
func SetBinCount(c models.HistogramBins, count int) models.HistogramBins {
	c.Count = max(1, count)
	if c.BinMode == models.BinCount {
		c.Size = EffectiveSize(c)
		c.WidthSize = 0
	}
	return c
}

// SetBinSize sets the bin width. Non-positive widths are ignored.
func SetBinSize(c models.HistogramBins, size float64) models.HistogramBins {
	if size > 0 && !math.IsInf(size, 0) {
		c.Size = size
	}
	return c
}
