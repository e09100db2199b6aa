package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
	"etlapi/internal/objectstore"
)

// ── CSV File Source ─────────────────────────────────────────
// Reads a CSV file with a header row from a local path or an object store.

// CSVSource reads one configured CSV file.
type CSVSource struct {
	Path      string
	Delimiter rune
	Store     objectstore.Store
}

// NewCSVSource returns a csv source reading path through store.
func NewCSVSource(path string, store objectstore.Store) *CSVSource {
	return &CSVSource{Path: path, Delimiter: ',', Store: store}
}

func (s *CSVSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  etl.SourceCSV,
		Label: "CSV File",
		ConfigFields: []etl.ConfigField{
			{Key: "path", Label: "Path", Value: s.Path, Help: "Local path or s3://, gs://, az:// URI"},
			{Key: "delimiter", Label: "Delimiter", Value: string(s.delimiter())},
		},
	}
}

func (s *CSVSource) delimiter() rune {
	if s.Delimiter == 0 {
		return ','
	}
	return s.Delimiter
}

func (s *CSVSource) Extract(ctx context.Context) (*etl.Dataset, error) {
	store := s.Store
	if store == nil {
		store = objectstore.Local{}
	}
	rc, err := store.Open(ctx, s.Path)
	if err != nil {
		return nil, domain.ErrStorage("open", s.Path, err)
	}
	defer rc.Close()

	headers, rows, err := readCSV(rc, s.delimiter())
	if err != nil {
		return nil, domain.ErrStorage("read", s.Path, err)
	}

	columns := make([][]any, len(headers))
	for j := range headers {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				raw[i] = row[j]
			}
		}
		columns[j] = inferColumn(raw)
	}

	ds := etl.NewDataset()
	for j, name := range headers {
		col := &etl.Column{Name: name, Type: etl.InferType(columns[j]), Values: columns[j]}
		if err := ds.SetColumn(col); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func readCSV(r io.Reader, delimiter rune) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("empty csv file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv header: %w", err)
	}
	headers := dedupeHeaders(header)

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse csv: %w", err)
		}
		if len(row) > len(headers) {
			line, _ := reader.FieldPos(0)
			return nil, nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(headers), len(row))
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// dedupeHeaders trims header names, names blank ones "Unnamed: i" and
// suffixes repeats with ".1", ".2", ...
func dedupeHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	repeats := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			repeats[h]++
			name = fmt.Sprintf("%s.%d", h, repeats[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// inferColumn types a whole column at once: integers if every non-empty
// cell is an integer, floats if every one is numeric, booleans if every one
// is true/false, text otherwise. Empty cells become nil.
func inferColumn(raw []string) []any {
	values := make([]any, len(raw))

	allInt, allFloat, allBool := true, true, true
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			allFloat = false
		}
		if _, ok := parseBool(s); !ok {
			allBool = false
		}
	}

	for i, s := range raw {
		t := strings.TrimSpace(s)
		if t == "" {
			continue
		}
		switch {
		case allInt:
			n, _ := strconv.ParseInt(t, 10, 64)
			values[i] = n
		case allFloat:
			f, _ := strconv.ParseFloat(t, 64)
			values[i] = f
		case allBool:
			b, _ := parseBool(t)
			values[i] = b
		default:
			values[i] = s
		}
	}
	return values
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
