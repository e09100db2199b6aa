package destinations

import (
	"bytes"
	"context"
	"encoding/csv"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
	"etlapi/internal/objectstore"
)

// CSVFile writes a dataset as a comma-separated file with a header row and no
// index column. Null cells are written as empty fields.
type CSVFile struct {
	Path  string
	Store objectstore.Store
}

func (c *CSVFile) Target() string { return c.Path }

func (c *CSVFile) Write(ctx context.Context, d *etl.Dataset) (int, error) {
	data, err := EncodeCSV(d)
	if err != nil {
		return 0, domain.ErrStorage("encode", c.Path, err)
	}
	store := c.Store
	if store == nil {
		store = objectstore.Local{}
	}
	if err := store.Put(ctx, c.Path, data); err != nil {
		return 0, domain.ErrStorage("write", c.Path, err)
	}
	return d.Len(), nil
}

// EncodeCSV renders d as CSV bytes.
func EncodeCSV(d *etl.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(d.Names()); err != nil {
		return nil, err
	}

	record := make([]string, d.Width())
	for i := 0; i < d.Len(); i++ {
		for j, v := range d.Row(i) {
			record[j] = etl.FormatValue(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
