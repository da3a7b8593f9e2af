package features

import (
	"errors"
	"fmt"

	"score-predictor/internal/schema"
)

// ErrSchemaMismatch is returned when no usable Expected Column List is available.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Vector is an encoded record aligned to the Expected Column List.
// Columns and Values always have the same length.
type Vector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// Len returns the number of encoded columns.
func (v Vector) Len() int {
	return len(v.Values)
}

// Get returns the value of a named column.
func (v Vector) Get(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Encoder one-hot encodes records against a fixed column list.
type Encoder struct {
	columns *schema.Columns
}

func NewEncoder(columns *schema.Columns) *Encoder {
	return &Encoder{columns: columns}
}

// Columns returns the column list the encoder aligns to.
func (e *Encoder) Columns() *schema.Columns {
	if e == nil {
		return nil
	}
	return e.columns
}

// Encode expands r into one indicator per declared category plus the raw
// scores, then selects exactly the expected columns in order. Expected
// columns the record does not produce are 0; produced columns that are not
// expected are dropped.
func (e *Encoder) Encode(r Record) (Vector, error) {
	if e == nil || e.columns.Len() == 0 {
		return Vector{}, fmt.Errorf("%w: expected column list is empty or unavailable", ErrSchemaMismatch)
	}
	if err := r.Validate(); err != nil {
		return Vector{}, err
	}

	expanded := expand(r)

	names := e.columns.Names()
	values := make([]float64, len(names))
	for i, name := range names {
		values[i] = expanded[name] // missing columns read as 0
	}

	return Vector{Columns: names, Values: values}, nil
}

// expand produces every column the declared fields define for r.
func expand(r Record) map[string]float64 {
	out := make(map[string]float64, len(schema.KnownColumns()))
	for _, f := range schema.Fields {
		switch f.Kind {
		case schema.Numeric:
			out[f.Source] = float64(r.Score(f.Key))
		case schema.Categorical:
			selected := r.Category(f.Key)
			for _, c := range f.Categories {
				v := 0.0
				if c == selected {
					v = 1
				}
				out[schema.OneHotColumn(f, c)] = v
			}
		}
	}
	return out
}
