package destinations

import (
	"context"

	"etlapi/internal/dbclient"
	"etlapi/internal/domain"
	"etlapi/internal/etl"
)

// Database writes a dataset into the configured table (or collection) of a
// database target, replacing any previous table of the same name. The
// target is pinged before anything is dropped.
type Database struct {
	DB      domain.DatabaseTarget
	Connect ConnectFunc
}

// Target returns "<driver>:<table>".
func (d *Database) Target() string {
	return string(d.DB.Driver) + ":" + d.DB.Table
}

func (d *Database) Write(ctx context.Context, data *etl.Dataset) (int, error) {
	target := d.DB
	conn, err := d.Connect(&target)
	if err != nil {
		return 0, domain.ErrStorage("connect", d.Target(), err)
	}
	defer conn.Close()

	if err := conn.TestConnection(ctx); err != nil {
		return 0, domain.ErrStorage("connect", d.Target(), err)
	}
	n, err := conn.ReplaceTable(ctx, TableFromDataset(target.Table, data))
	if err != nil {
		return 0, domain.ErrStorage("write", d.Target(), err)
	}
	return n, nil
}

// TableFromDataset converts a dataset into a row-major table for a connector.
func TableFromDataset(name string, data *etl.Dataset) *dbclient.Table {
	schema := data.Schema()
	cols := make([]dbclient.ColumnInfo, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = dbclient.ColumnInfo{Name: f.Name, Type: f.Type}
	}
	return &dbclient.Table{Name: name, Columns: cols, Rows: data.Rows(-1)}
}
