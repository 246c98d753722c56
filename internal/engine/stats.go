package engine

import (
	"github.com/aclements/go-moremath/stats"

	"webplots/internal/models"
)

// traceStats summarises one trace for the density panel. values are the Y
// values the trace shows (kept points, or raw histogram inputs); absorbed is
// the per-kept-point absorption count and may be nil.
func traceStats(dropped int, values []float64, absorbed []int) models.TraceStats {
	s := models.TraceStats{Filtered: dropped}
	if len(values) > 0 {
		s.Min, s.Max = stats.Bounds(values)
		s.Avg = stats.Mean(values)
	}
	if len(absorbed) > 0 {
		counts := make([]float64, len(absorbed))
		for i, n := range absorbed {
			counts[i] = float64(n)
		}
		lo, hi := stats.Bounds(counts)
		s.AbsorbedMin, s.AbsorbedMax = int(lo), int(hi)
		s.AbsorbedAvg = stats.Mean(counts)
	}
	return s
}

// numericValues keeps the cells of rows[idx][column] that can be plotted.
func numericValues(rows []models.Row, idx []int, column string) []float64 {
	out := make([]float64, 0, len(idx))
	for _, i := range idx {
		if f, ok := PlotNumber(rows[i][column]); ok {
			out = append(out, f)
		}
	}
	return out
}
