// Package features turns raw student attributes into model input.
// It validates records against the declared input domain and one-hot
// encodes them aligned to the Expected Column List.
package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"score-predictor/internal/common"
	"score-predictor/internal/schema"
)

// ErrInvalidRecord is returned for records outside the declared input domain.
var ErrInvalidRecord = errors.New("invalid input record")

// ErrMalformedRecord is returned when a record body is not a JSON object.
var ErrMalformedRecord = errors.New("malformed input record")

// Record is one raw prediction request.
type Record struct {
	Gender          string `json:"gender"`
	Ethnicity       string `json:"ethnicity"`
	ParentEducation string `json:"parent_education"`
	Lunch           string `json:"lunch"`
	TestPrep        string `json:"test_prep"`
	MathScore       int    `json:"math_score"`
	ReadingScore    int    `json:"reading_score"`
	WritingScore    int    `json:"writing_score"`
}

// DefaultRecord mirrors the initial state of the input form: the first
// category of every field and all scores at 75.
func DefaultRecord() Record {
	first := func(key string) string {
		f, _ := schema.Lookup(key)
		return f.Categories[0]
	}
	return Record{
		Gender:          first(schema.KeyGender),
		Ethnicity:       first(schema.KeyEthnicity),
		ParentEducation: first(schema.KeyParentEducation),
		Lunch:           first(schema.KeyLunch),
		TestPrep:        first(schema.KeyTestPrep),
		MathScore:       common.DefaultScore,
		ReadingScore:    common.DefaultScore,
		WritingScore:    common.DefaultScore,
	}
}

// Category returns the value of a categorical field by key.
func (r Record) Category(key string) string {
	switch key {
	case schema.KeyGender:
		return r.Gender
	case schema.KeyEthnicity:
		return r.Ethnicity
	case schema.KeyParentEducation:
		return r.ParentEducation
	case schema.KeyLunch:
		return r.Lunch
	case schema.KeyTestPrep:
		return r.TestPrep
	}
	return ""
}

// Score returns the value of a numeric field by key.
func (r Record) Score(key string) int {
	switch key {
	case schema.KeyMathScore:
		return r.MathScore
	case schema.KeyReadingScore:
		return r.ReadingScore
	case schema.KeyWritingScore:
		return r.WritingScore
	}
	return 0
}

// Validate checks every field against the declared domain.
func (r Record) Validate() error {
	var problems []string
	for _, f := range schema.Fields {
		switch f.Kind {
		case schema.Categorical:
			if v := r.Category(f.Key); !f.Has(v) {
				problems = append(problems, fmt.Sprintf("%s: unknown value %q", f.Key, v))
			}
		case schema.Numeric:
			if err := f.ValidateScore(r.Score(f.Key)); err != nil {
				problems = append(problems, err.Error())
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(problems, "; "))
	}
	return nil
}

// FromValues builds a record from form or query values keyed by field key.
func FromValues(values url.Values) (Record, error) {
	var r Record
	for _, f := range schema.Fields {
		raw := strings.TrimSpace(values.Get(f.Key))
		if raw == "" {
			return Record{}, fmt.Errorf("%w: %s is required", ErrInvalidRecord, f.Key)
		}
		if f.Kind == schema.Categorical {
			r.setCategory(f.Key, raw)
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidRecord, f.Key, raw)
		}
		r.setScore(f.Key, v)
	}
	return r, r.Validate()
}

// DecodeRecord reads one JSON record. Every declared field must be present
// and non-null; keys that are not declared fields are rejected.
func DecodeRecord(r io.Reader) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if raw == nil {
		return Record{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedRecord)
	}

	for key := range raw {
		if _, ok := schema.Lookup(key); !ok {
			return Record{}, fmt.Errorf("%w: unknown field %q", ErrInvalidRecord, key)
		}
	}

	var rec Record
	for _, f := range schema.Fields {
		v, ok := raw[f.Key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Record{}, fmt.Errorf("%w: %s is required", ErrInvalidRecord, f.Key)
		}

		if f.Kind == schema.Categorical {
			var c string
			if err := json.Unmarshal(v, &c); err != nil {
				return Record{}, fmt.Errorf("%w: %s must be a string", ErrInvalidRecord, f.Key)
			}
			rec.setCategory(f.Key, c)
			continue
		}

		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return Record{}, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidRecord, f.Key, v)
		}
		rec.setScore(f.Key, n)
	}

	return rec, rec.Validate()
}

// Values is the inverse of FromValues.
func (r Record) Values() url.Values {
	values := url.Values{}
	for _, f := range schema.Fields {
		if f.Kind == schema.Categorical {
			values.Set(f.Key, r.Category(f.Key))
		} else {
			values.Set(f.Key, strconv.Itoa(r.Score(f.Key)))
		}
	}
	return values
}

func (r *Record) setCategory(key, v string) {
	switch key {
	case schema.KeyGender:
		r.Gender = v
	case schema.KeyEthnicity:
		r.Ethnicity = v
	case schema.KeyParentEducation:
		r.ParentEducation = v
	case schema.KeyLunch:
		r.Lunch = v
	case schema.KeyTestPrep:
		r.TestPrep = v
	}
}

func (r *Record) setScore(key string, v int) {
	switch key {
	case schema.KeyMathScore:
		r.MathScore = v
	case schema.KeyReadingScore:
		r.ReadingScore = v
	case schema.KeyWritingScore:
		r.WritingScore = v
	}
}
