package engine

import (
	"math"

	"webplots/internal/models"
)

// ApplyFilters keeps the rows that pass every filter. The result does not
// depend on filter order and preserves row order; rows is not modified.
func ApplyFilters(rows []models.Row, filters []models.Filter) []models.Row {
	if len(filters) == 0 {
		return rows
	}
	readers := filterReaders(rows, filters)
	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if passesAll(row, filters, readers) {
			out = append(out, row)
		}
	}
	return out
}

// Funnel applies filters one after another and reports how many rows enter
// and leave each step.
func Funnel(rows []models.Row, filters []models.Filter) []models.FunnelStep {
	steps := make([]models.FunnelStep, 0, len(filters))
	readers := filterReaders(rows, filters)
	current := rows
	for i, f := range filters {
		in := len(current)
		next := make([]models.Row, 0, in)
		for _, row := range current {
			if passes(row, f, readers[i]) {
				next = append(next, row)
			}
		}
		pct := 0.0
		if in > 0 {
			pct = math.Round(float64(len(next)) * 100 / float64(in))
		}
		steps = append(steps, models.FunnelStep{
			FilterID:         f.ID,
			Column:           f.Column,
			InputCount:       in,
			OutputCount:      len(next),
			PercentRemaining: pct,
		})
		current = next
	}
	return steps
}

// filterReaders infers column types once, on the unfiltered rows, so a
// column reads the same way at every funnel step.
func filterReaders(rows []models.Row, filters []models.Filter) []NumberReader {
	readers := make([]NumberReader, len(filters))
	for i, f := range filters {
		if f.Type == models.FilterNumber {
			readers[i] = columnReader(rows, f.Column)
		}
	}
	return readers
}

func passesAll(row models.Row, filters []models.Filter, readers []NumberReader) bool {
	for i, f := range filters {
		if !passes(row, f, readers[i]) {
			return false
		}
	}
	return true
}

// passes evaluates one filter. Filters of an unknown type let everything through.
func passes(row models.Row, f models.Filter, reader NumberReader) bool {
	val := row[f.Column]
	switch f.Type {
	case models.FilterNumber:
		num, ok := reader.Number(val)
		if !ok {
			return false
		}
		if f.Config.Min != nil && num < *f.Config.Min {
			return false
		}
		if f.Config.Max != nil && num > *f.Config.Max {
			return false
		}
		return true
	case models.FilterCategory:
		included := f.Config.IncludedValues
		if included == nil {
			return true
		}
		s := val.String()
		for _, v := range included {
			if v == s {
				return true
			}
		}
		return false
	}
	return true
}
