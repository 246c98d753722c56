package engine

import (
	"math"
	"strconv"
	"strings"
	"time"

	"webplots/internal/models"
)

// inferSampleLimit bounds how many non-empty values InferType inspects.
const inferSampleLimit = 100

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"2006-01",
	"15:04:05",
	"15:04",
}

// ParseDate reports whether s looks like a date. Plain words never count even
// if a layout would accept them: a date must carry a -, / or : separator.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "-/:") {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func blank(v models.Value) bool {
	return v.IsNull() || (v.Kind == models.KindText && v.Str == "")
}

// InferType guesses a column type from the first non-empty values. Filters,
// grouping, binning and summaries read numbers through a NumberReader built
// from this type, so they never disagree about a column.
func InferType(values []models.Value) models.ColumnType {
	var hasNumber, hasDate, hasString bool
	samples := 0
	for _, v := range values {
		if blank(v) {
			continue
		}
		samples++
		switch v.Kind {
		case models.KindNumber:
			hasNumber = true
		case models.KindText:
			if _, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil && strings.TrimSpace(v.Str) != "" {
				hasNumber = true
			} else if _, ok := ParseDate(v.Str); ok {
				hasDate = true
			} else {
				hasString = true
			}
		case models.KindBool:
			hasString = true
		}
		if samples >= inferSampleLimit {
			break
		}
	}
	switch {
	case hasString:
		return models.ColumnCategory
	case hasDate:
		return models.ColumnDate
	case hasNumber:
		return models.ColumnNumber
	}
	return models.ColumnCategory
}

// NumberReader reads the cells of one column as numbers, according to the
// column's inferred type.
type NumberReader struct {
	Type models.ColumnType
}

func NewNumberReader(values []models.Value) NumberReader {
	return NumberReader{Type: InferType(values)}
}

// columnReader infers the type of a row column without copying the column.
func columnReader(rows []models.Row, column string) NumberReader {
	sample := make([]models.Value, 0, min(len(rows), inferSampleLimit))
	for _, row := range rows {
		if v := row[column]; !blank(v) {
			sample = append(sample, v)
			if len(sample) == inferSampleLimit {
				break
			}
		}
	}
	return NewNumberReader(sample)
}

// Number converts v. Number cells always convert. Text converts when it is
// numeric in a number column, or a date in a date column (as Unix
// milliseconds). NaN and infinities never convert.
func (r NumberReader) Number(v models.Value) (float64, bool) {
	var f float64
	switch v.Kind {
	case models.KindNumber:
		f = v.Num
	case models.KindText:
		switch r.Type {
		case models.ColumnNumber:
			n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
			if err != nil {
				return 0, false
			}
			f = n
		case models.ColumnDate:
			t, ok := ParseDate(v.Str)
			if !ok {
				return 0, false
			}
			f = float64(t.UnixMilli())
		default:
			return 0, false
		}
	default:
		return 0, false
	}
	return f, !math.IsNaN(f) && !math.IsInf(f, 0)
}

// PlotNumber converts a cell to a plottable number. Dates become Unix
// milliseconds so they order and scale like numbers.
func PlotNumber(v models.Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, !math.IsInf(f, 0)
	}
	if v.Kind == models.KindText {
		if t, ok := ParseDate(v.Str); ok {
			return float64(t.UnixMilli()), true
		}
	}
	return 0, false
}

// columnValues extracts one column; absent cells read as null.
func columnValues(rows []models.Row, column string) []models.Value {
	out := make([]models.Value, len(rows))
	for i, row := range rows {
		out[i] = row[column]
	}
	return out
}
