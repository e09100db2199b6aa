package etl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────

type fakeSource struct {
	typ  string
	data *etl.Dataset
	err  error
}

func (s *fakeSource) Spec() etl.SourceSpec { return etl.SourceSpec{Type: s.typ, Label: s.typ} }

func (s *fakeSource) Extract(context.Context) (*etl.Dataset, error) { return s.data, s.err }

type fakeDestination struct {
	written *etl.Dataset
	err     error
}

func (d *fakeDestination) Target() string { return "fake" }

func (d *fakeDestination) Write(_ context.Context, data *etl.Dataset) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	d.written = data
	return data.Len(), nil
}

func numbers(t *testing.T, values ...any) *etl.Dataset {
	t.Helper()
	rows := make([][]any, len(values))
	for i, v := range values {
		rows[i] = []any{v}
	}
	d, err := etl.NewDatasetFromRows([]string{etl.OriginalColumn}, rows)
	require.NoError(t, err)
	return d
}

// ─────────────────────────────────────────────────────────────
// Dataset
// ─────────────────────────────────────────────────────────────

func TestNewDatasetFromRows_InfersTypes(t *testing.T) {
	d, err := etl.NewDatasetFromRows(
		[]string{"id", "price", "ok", "name"},
		[][]any{
			{int64(1), 1.5, true, "a"},
			{int64(2), int64(3), nil},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []etl.Field{
		{Name: "id", Type: etl.TypeInteger},
		{Name: "price", Type: etl.TypeFloat},
		{Name: "ok", Type: etl.TypeBoolean},
		{Name: "name", Type: etl.TypeText},
	}, d.Schema().Fields)
	assert.Equal(t, []any{int64(2), int64(3), nil, nil}, d.Row(1))
}

func TestNewDatasetFromRows_RejectsLongRows(t *testing.T) {
	_, err := etl.NewDatasetFromRows([]string{"a"}, [][]any{{1, 2}})
	require.Error(t, err)
}

func TestDataset_SetColumnLengthMismatch(t *testing.T) {
	d := numbers(t, int64(1), int64(2))
	err := d.SetColumn(&etl.Column{Name: "x", Values: []any{1}})
	require.Error(t, err)
}

func TestDataset_Head(t *testing.T) {
	d := numbers(t, int64(1), int64(2), int64(3))

	h := d.Head(2)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 3, d.Len(), "source dataset is not modified")
	assert.Equal(t, 3, d.Head(10).Len())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", etl.FormatValue(nil))
	assert.Equal(t, "42", etl.FormatValue(int64(42)))
	assert.Equal(t, "2.5", etl.FormatValue(2.5))
	assert.Equal(t, "10.0", etl.FormatValue(10.0))
	assert.Equal(t, "1e-05", etl.FormatValue(0.00001))
	assert.Equal(t, "true", etl.FormatValue(true))
	assert.Equal(t, "x", etl.FormatValue("x"))
}

// ─────────────────────────────────────────────────────────────
// ScaleTransform
// ─────────────────────────────────────────────────────────────

func TestScaleTransform_UsesOneFactor(t *testing.T) {
	d := numbers(t, int64(10), 2.0, nil, int64(-4))

	k, err := etl.NewScaleTransform(etl.FixedRandom(0.5)).Transform(d)
	require.NoError(t, err)
	assert.Equal(t, 0.5, k)

	col, ok := d.Column(etl.TransformedColumn)
	require.True(t, ok)
	assert.Equal(t, etl.TypeFloat, col.Type)
	assert.Equal(t, []any{5.0, 1.0, nil, -2.0}, col.Values)
	assert.Equal(t, []string{etl.OriginalColumn, etl.TransformedColumn}, d.Names())
}

func TestScaleTransform_DrawsOncePerCall(t *testing.T) {
	calls := 0
	r := etl.RandomFunc(func() float64 {
		calls++
		return 0.25
	})
	d := numbers(t, int64(1), int64(2), int64(3))

	_, err := etl.NewScaleTransform(r).Transform(d)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestScaleTransform_ReplacesExistingTarget(t *testing.T) {
	d, err := etl.NewDatasetFromRows(
		[]string{etl.OriginalColumn, etl.TransformedColumn},
		[][]any{{int64(4), "stale"}},
	)
	require.NoError(t, err)

	_, err = etl.NewScaleTransform(etl.FixedRandom(0.25)).Transform(d)
	require.NoError(t, err)

	col, _ := d.Column(etl.TransformedColumn)
	assert.Equal(t, []any{1.0}, col.Values)
	assert.Equal(t, 2, d.Width())
}

func TestScaleTransform_MissingColumn(t *testing.T) {
	d, err := etl.NewDatasetFromRows([]string{"other"}, [][]any{{int64(1)}})
	require.NoError(t, err)

	_, err = etl.NewScaleTransform(etl.FixedRandom(0.5)).Transform(d)

	var missing *domain.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, etl.OriginalColumn, missing.Column)
	_, ok := d.Column(etl.TransformedColumn)
	assert.False(t, ok)
}

func TestScaleTransform_NonNumeric(t *testing.T) {
	d := numbers(t, int64(1), "abc")

	_, err := etl.NewScaleTransform(etl.FixedRandom(0.5)).Transform(d)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDefaultRandom_InRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		k := etl.DefaultRandom.Float64()
		require.GreaterOrEqual(t, k, 0.0)
		require.Less(t, k, 1.0)
	}
}

// ─────────────────────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────────────────────

func TestRegistry_GetAndList(t *testing.T) {
	r := etl.NewRegistry(&fakeSource{typ: "csv"}, &fakeSource{typ: "api"})

	s, err := r.Get("csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", s.Spec().Type)

	specs := r.List()
	require.Len(t, specs, 2)
	assert.Equal(t, "api", specs[0].Type)
	assert.Equal(t, "csv", specs[1].Type)

	_, err = r.Get("ftp")
	var unsupported *domain.UnsupportedSourceError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "ftp", unsupported.Source)
}

// ─────────────────────────────────────────────────────────────
// Engine
// ─────────────────────────────────────────────────────────────

func newEngine(src etl.Source, dest etl.Destination) *etl.Engine {
	return &etl.Engine{
		Sources: etl.NewRegistry(src),
		Destinations: etl.DestinationResolverFunc(func(destination, dbname string) (etl.Destination, error) {
			if destination != "csv" {
				return nil, domain.ErrUnsupportedDestination(destination, dbname)
			}
			return dest, nil
		}),
		Transform: etl.NewScaleTransform(etl.FixedRandom(0.5)),
	}
}

func TestEngine_Run_Success(t *testing.T) {
	dest := &fakeDestination{}
	engine := newEngine(&fakeSource{typ: "csv", data: numbers(t, int64(2), int64(4))}, dest)

	res, err := engine.Run(context.Background(), &etl.Job{ID: "j1", Source: "csv", Destination: "csv"})
	require.NoError(t, err)

	assert.Equal(t, etl.StatusSuccess, res.Status)
	assert.Equal(t, 2, res.RowsRead)
	assert.Equal(t, 2, res.RowsWritten)
	assert.Equal(t, 0.5, res.Multiplier)
	assert.Equal(t, "fake", res.Target)

	col, ok := dest.written.Column(etl.TransformedColumn)
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, col.Values)
}

func TestEngine_Run_UnsupportedDestinationSkipsExtract(t *testing.T) {
	src := &fakeSource{typ: "csv", err: errors.New("must not be called")}
	engine := newEngine(src, &fakeDestination{})

	res, err := engine.Run(context.Background(), &etl.Job{Source: "csv", Destination: "ftp"})

	var unsupported *domain.UnsupportedDestinationError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, etl.StatusError, res.Status)
}

func TestEngine_Run_UnsupportedSource(t *testing.T) {
	dest := &fakeDestination{}
	engine := newEngine(&fakeSource{typ: "csv"}, dest)

	_, err := engine.Run(context.Background(), &etl.Job{Source: "ftp", Destination: "csv"})

	var unsupported *domain.UnsupportedSourceError
	require.ErrorAs(t, err, &unsupported)
	assert.Nil(t, dest.written)
}

func TestEngine_Run_MissingColumnDoesNotWrite(t *testing.T) {
	data, err := etl.NewDatasetFromRows([]string{"x"}, [][]any{{int64(1)}})
	require.NoError(t, err)
	dest := &fakeDestination{}
	engine := newEngine(&fakeSource{typ: "csv", data: data}, dest)

	_, err = engine.Run(context.Background(), &etl.Job{Source: "csv", Destination: "csv"})

	var missing *domain.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Nil(t, dest.written)
}

func TestEngine_Run_WriteError(t *testing.T) {
	writeErr := domain.ErrStorage("write", "fake", errors.New("disk full"))
	engine := newEngine(&fakeSource{typ: "csv", data: numbers(t, int64(1))}, &fakeDestination{err: writeErr})

	res, err := engine.Run(context.Background(), &etl.Job{Source: "csv", Destination: "csv"})

	var storage *domain.StorageError
	require.ErrorAs(t, err, &storage)
	assert.Contains(t, res.Error, "disk full")
}

func TestEngine_Preview(t *testing.T) {
	engine := newEngine(&fakeSource{typ: "csv", data: numbers(t, int64(1), int64(2), int64(3))}, &fakeDestination{})

	d, err := engine.Preview(context.Background(), "csv", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	_, ok := d.Column(etl.TransformedColumn)
	assert.False(t, ok)
}
