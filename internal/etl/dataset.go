package etl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ── Dataset ────────────────────────────────────────────────
// Common intermediate data format.
// Every source produces a Dataset, the transformer mutates it in place and
// every destination consumes it.

// Column types inferred from values.
const (
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
	TypeText    = "text"
)

// Field describes a single column in a dataset.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "integer" | "float" | "boolean" | "text"
}

// Schema describes the shape of a dataset.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Column is a named sequence of values aligned by row index.
// Values hold nil, int64, float64, bool or string.
type Column struct {
	Name   string
	Type   string
	Values []any
}

// Dataset is an ordered set of named columns of equal length.
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{index: make(map[string]int)}
}

// NewDatasetFromRows builds a dataset from a header and row-major values,
// inferring each column's type. Short rows are padded with nil.
func NewDatasetFromRows(names []string, rows [][]any) (*Dataset, error) {
	d := NewDataset()
	for j, name := range names {
		values := make([]any, len(rows))
		for i, row := range rows {
			if len(row) > len(names) {
				return nil, fmt.Errorf("row %d has %d values, expected at most %d", i, len(row), len(names))
			}
			if j < len(row) {
				values[i] = row[j]
			}
		}
		if err := d.SetColumn(&Column{Name: name, Type: InferType(values), Values: values}); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		d.rows = len(rows)
	}
	return d, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Width returns the number of columns.
func (d *Dataset) Width() int { return len(d.columns) }

// Columns returns the columns in order.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// SetColumn appends c, or replaces the column of the same name in place.
// The first column fixes the row count; later columns must match it.
func (d *Dataset) SetColumn(c *Column) error {
	if c.Name == "" {
		return fmt.Errorf("column name is required")
	}
	if len(d.columns) > 0 && len(c.Values) != d.rows {
		return fmt.Errorf("column %q has %d values, dataset has %d rows", c.Name, len(c.Values), d.rows)
	}
	if i, ok := d.index[c.Name]; ok {
		d.columns[i] = c
		return nil
	}
	if len(d.columns) == 0 {
		d.rows = len(c.Values)
	}
	d.index[c.Name] = len(d.columns)
	d.columns = append(d.columns, c)
	return nil
}

// Row returns the values of row i in column order.
func (d *Dataset) Row(i int) []any {
	row := make([]any, len(d.columns))
	for j, c := range d.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Rows returns up to limit rows in row-major order. A negative limit returns all rows.
func (d *Dataset) Rows(limit int) [][]any {
	n := d.rows
	if limit >= 0 && limit < n {
		n = limit
	}
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = d.Row(i)
	}
	return rows
}

// Head returns a new dataset holding the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n > d.rows {
		n = d.rows
	}
	if n < 0 {
		n = 0
	}
	out := NewDataset()
	for _, c := range d.columns {
		values := make([]any, n)
		copy(values, c.Values[:n])
		_ = out.SetColumn(&Column{Name: c.Name, Type: c.Type, Values: values})
	}
	out.rows = n
	return out
}

// Schema describes the dataset's columns.
func (d *Dataset) Schema() *Schema {
	s := &Schema{Fields: make([]Field, len(d.columns))}
	for i, c := range d.columns {
		s.Fields[i] = Field{Name: c.Name, Type: c.Type}
	}
	return s
}

// ── Values ─────────────────────────────────────────────────

// InferType returns the narrowest type that fits every non-nil value.
func InferType(values []any) string {
	typ := ""
	for _, v := range values {
		var t string
		switch v.(type) {
		case nil:
			continue
		case int64:
			t = TypeInteger
		case float64:
			t = TypeFloat
		case bool:
			t = TypeBoolean
		default:
			return TypeText
		}
		switch {
		case typ == "" || typ == t:
			typ = t
		case IsNumericType(typ) && IsNumericType(t):
			typ = TypeFloat
		default:
			return TypeText
		}
	}
	if typ == "" {
		return TypeText
	}
	return typ
}

// IsNumericType reports whether t is an integer or float column type.
func IsNumericType(t string) bool {
	return t == TypeInteger || t == TypeFloat
}

// ToFloat converts a numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// FormatValue renders a value for text outputs such as CSV.
// nil renders as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// formatFloat prints the shortest representation that parses back to f,
// using exponent notation only for very small or very large magnitudes.
// Whole numbers keep a ".0" so the column reads back as float.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
