package etl

import (
	"math/rand/v2"

	"etlapi/internal/domain"
)

// ── Transformer ────────────────────────────────────────────
// The pipeline applies one fixed transformation: a single random factor k
// in [0, 1) is drawn per call and every row gets
// transformed_column = original_column * k.

// Column names read and written by ScaleTransform.
const (
	OriginalColumn    = "original_column"
	TransformedColumn = "transformed_column"
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// RandomFunc adapts a plain function to the RandomSource interface.
type RandomFunc func() float64

func (f RandomFunc) Float64() float64 { return f() }

// FixedRandom always yields the same value.
type FixedRandom float64

func (f FixedRandom) Float64() float64 { return float64(f) }

// DefaultRandom draws from the process-wide generator, which is safe for
// concurrent use.
var DefaultRandom RandomSource = RandomFunc(rand.Float64)

// ScaleTransform multiplies Source by one random factor per call and stores
// the product in Target.
type ScaleTransform struct {
	Rand   RandomSource
	Source string
	Target string
}

// NewScaleTransform returns the pipeline transformation reading
// original_column and writing transformed_column. A nil r uses DefaultRandom.
func NewScaleTransform(r RandomSource) *ScaleTransform {
	if r == nil {
		r = DefaultRandom
	}
	return &ScaleTransform{Rand: r, Source: OriginalColumn, Target: TransformedColumn}
}

// Transform validates the source column, draws the factor and writes the
// target column into d. It returns the factor used. Null cells stay null.
func (t *ScaleTransform) Transform(d *Dataset) (float64, error) {
	src, ok := d.Column(t.Source)
	if !ok {
		return 0, domain.ErrMissingColumn(t.Source)
	}

	inputs := make([]float64, len(src.Values))
	for i, v := range src.Values {
		if v == nil {
			continue
		}
		f, ok := ToFloat(v)
		if !ok {
			return 0, domain.ErrValidation("column %q row %d: value %q is not numeric", t.Source, i, FormatValue(v))
		}
		inputs[i] = f
	}

	k := t.Rand.Float64()
	out := make([]any, len(src.Values))
	for i, v := range src.Values {
		if v == nil {
			continue
		}
		out[i] = inputs[i] * k
	}

	if err := d.SetColumn(&Column{Name: t.Target, Type: TypeFloat, Values: out}); err != nil {
		return 0, err
	}
	return k, nil
}
