package models

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
)

// Value is one cell of a dataset. Column types are never declared; consumers
// infer them from samples.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

// Row maps column name to cell value.
type Row map[string]Value

func Null() Value { return Value{} }
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func Text(s string) Value { return Value{Kind: KindText, Str: s} }
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func (v Value) IsNull() bool { return v.Kind == KindNull }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// String renders the value the way a browser's String(v) would, which is the
// form category filters and group labels compare against.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num)
	case KindText:
		return v.Str
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	}
	return "null"
}

// Float coerces the value to a number: numbers as-is, text that parses as a
// float. Everything else reports false.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, !math.IsNaN(v.Num)
	case KindText:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		// JS writes exponents without zero padding: 1e-7, not 1e-07.
		s := strconv.FormatFloat(f, 'g', -1, 64)
		return strings.Replace(strings.Replace(s, "e-0", "e-", 1), "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return []byte(formatNumber(v.Num)), nil
	case KindText:
		return json.Marshal(v.Str)
	case KindBool:
		return strconv.AppendBool(nil, v.Bool), nil
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = Null()
	case bytes.Equal(b, []byte("true")):
		*v = Boolean(true)
	case bytes.Equal(b, []byte("false")):
		*v = Boolean(false)
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
	case b[0] == '{' || b[0] == '[':
		// Nested structures are not cells; keep their text so nothing is lost.
		*v = Text(string(b))
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}
