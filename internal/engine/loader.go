package engine

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"webplots/internal/models"
)

// ErrEmptyCSV is returned when the input has no header row.
var ErrEmptyCSV = errors.New("csv has no header row")

// parallelThreshold is the smallest body worth splitting across workers.
const parallelThreshold = 64 << 10

var (
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
	floatPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)
)

// --- 1. CELL TYPING ---

// parseCell types a raw cell: empty is null, true/false (lower or upper case)
// are booleans, anything that looks like a float is a number, the rest is text.
func parseCell(s string) models.Value {
	switch s {
	case "":
		return models.Null()
	case "true", "TRUE":
		return models.Boolean(true)
	case "false", "FALSE":
		return models.Boolean(false)
	}
	if floatPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return models.Number(f)
		}
	}
	return models.Text(s)
}

// dedupeHeaders renames repeated column names to name_1, name_2, ...
func dedupeHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	for i, h := range header {
		n := seen[h]
		seen[h] = n + 1
		name := h
		for n > 0 {
			name = h + "_" + strconv.Itoa(n)
			if !taken[name] {
				break
			}
			n++
			seen[h] = n + 1
		}
		if name != h {
			taken[name] = true
		}
		out[i] = name
	}
	return out
}

func toRow(columns, record []string) models.Row {
	row := make(models.Row, len(columns))
	for i, col := range columns {
		if i < len(record) {
			row[col] = parseCell(record[i])
		} else {
			row[col] = models.Null()
		}
	}
	return row
}

// --- 2. MAIN LOADER ---

// LoadCSVFile reads and parses a CSV file from disk.
func LoadCSVFile(path string, log *zap.Logger) (*Dataset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return LoadCSV(content, log)
}

// LoadCSV parses CSV text whose first record is the header. Large bodies
// without quoted fields are split into newline-aligned chunks and parsed in
// parallel; rows always come back in file order.
func LoadCSV(content []byte, log *zap.Logger) (*Dataset, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	content = bytes.TrimPrefix(content, utf8BOM)

	var header []string
	var records [][]string
	var err error
	parallel := false

	// Quoted fields may contain newlines, so only unquoted input can be cut
	// at arbitrary line breaks.
	if bytes.IndexByte(content, '"') == -1 {
		line, body, _ := bytes.Cut(content, []byte{'\n'})
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(bytes.TrimSpace(line)) == 0 {
			return nil, ErrEmptyCSV
		}
		header = strings.Split(string(line), ",")
		if len(body) >= parallelThreshold {
			records, err = parseParallel(body)
			if err != nil {
				log.Warn("parallel csv parse failed, retrying sequentially", zap.Error(err))
				records = nil
			} else {
				parallel = true
			}
		}
		if !parallel {
			if records, err = parseChunk(body); err != nil {
				return nil, fmt.Errorf("parse csv: %w", err)
			}
		}
	} else {
		if records, err = parseChunk(content); err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if len(records) == 0 {
			return nil, ErrEmptyCSV
		}
		header, records = records[0], records[1:]
	}

	ds := &Dataset{
		Columns: dedupeHeaders(header),
		Rows:    make([]models.Row, len(records)),
	}
	for i, rec := range records {
		ds.Rows[i] = toRow(ds.Columns, rec)
	}

	log.Info("csv loaded",
		zap.Int("rows", len(ds.Rows)),
		zap.Int("columns", len(ds.Columns)),
		zap.Bool("parallel", parallel),
		zap.Duration("took", time.Since(start)),
	)
	return ds, nil
}

func parseChunk(chunk []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(chunk))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// alignChunk moves both ends of [start, end) just past the next newline so
// neighbouring chunks share a boundary and no line is split.
func alignChunk(content []byte, start, end int) (int, int) {
	if start > 0 {
		if i := bytes.IndexByte(content[start:], '\n'); i != -1 {
			start += i + 1
		} else {
			start = len(content)
		}
	}
	if end < len(content) {
		if i := bytes.IndexByte(content[end:], '\n'); i != -1 {
			end += i + 1
		} else {
			end = len(content)
		}
	}
	return start, end
}

func parseParallel(content []byte) ([][]string, error) {
	numWorkers := runtime.NumCPU()
	chunkSize := len(content) / numWorkers

	parts := make([][][]string, numWorkers)
	errs := make([]error, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start, end := i*chunkSize, (i+1)*chunkSize
		if i == numWorkers-1 {
			end = len(content)
		}
		wg.Add(1)
		go func(idx, start, end int) {
			defer wg.Done()
			start, end = alignChunk(content, start, end)
			if start >= end {
				return
			}
			parts[idx], errs[idx] = parseChunk(content[start:end])
		}(i, start, end)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	records := make([][]string, 0, total)
	for _, p := range parts {
		records = append(records, p...)
	}
	return records, nil
}
