// Package schema holds the feature schema shared by the encoder and the
// models: the declared input fields with their category enumerations, and
// the ordered Expected Column List produced at training time.
//
// Both are read-only after construction and safe for concurrent use.
package schema

import (
	"fmt"
	"strconv"
)

// Kind distinguishes categorical fields from numeric ones.
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

// Field describes one raw input attribute.
type Field struct {
	// Key is the identifier used by the JSON API and the HTML form.
	Key string `json:"key"`
	// Source is the training-time column name; one-hot columns are named
	// Source + "_" + category.
	Source     string   `json:"source"`
	Label      string   `json:"label"`
	Kind       Kind     `json:"kind"`
	Categories []string `json:"categories,omitempty"`
	Min        int      `json:"min,omitempty"`
	Max        int      `json:"max,omitempty"`
}

const (
	KeyGender          = "gender"
	KeyEthnicity       = "ethnicity"
	KeyParentEducation = "parent_education"
	KeyLunch           = "lunch"
	KeyTestPrep        = "test_prep"
	KeyMathScore       = "math_score"
	KeyReadingScore    = "reading_score"
	KeyWritingScore    = "writing_score"
)

// Fields is the declared input domain, in form order.
var Fields = []Field{
	{
		Key: KeyGender, Source: "gender", Label: "Gender", Kind: Categorical,
		Categories: []string{"male", "female"},
	},
	{
		Key: KeyEthnicity, Source: "race/ethnicity", Label: "Race/Ethnicity", Kind: Categorical,
		Categories: []string{"group A", "group B", "group C", "group D", "group E"},
	},
	{
		Key: KeyParentEducation, Source: "parental level of education", Label: "Parental Level of Education", Kind: Categorical,
		Categories: []string{
			"high school", "some high school", "some college",
			"associate's degree", "bachelor's degree", "master's degree",
		},
	},
	{
		Key: KeyLunch, Source: "lunch", Label: "Lunch Type", Kind: Categorical,
		Categories: []string{"standard", "free/reduced"},
	},
	{
		Key: KeyTestPrep, Source: "test preparation course", Label: "Test Preparation Course", Kind: Categorical,
		Categories: []string{"none", "completed"},
	},
	{Key: KeyMathScore, Source: "math_score", Label: "Math Score", Kind: Numeric, Min: 0, Max: 100},
	{Key: KeyReadingScore, Source: "reading_score", Label: "Reading Score", Kind: Numeric, Min: 0, Max: 100},
	{Key: KeyWritingScore, Source: "writing_score", Label: "Writing Score", Kind: Numeric, Min: 0, Max: 100},
}

// Lookup returns the declared field with the given key.
func Lookup(key string) (Field, bool) {
	for _, f := range Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// OneHotColumn names the indicator column for a category of a field.
func OneHotColumn(f Field, category string) string {
	return f.Source + "_" + category
}

// Has reports whether category is part of the field's enumeration.
func (f Field) Has(category string) bool {
	for _, c := range f.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ValidateScore checks a numeric value against the field's bounds.
func (f Field) ValidateScore(v int) error {
	if v < f.Min || v > f.Max {
		return fmt.Errorf("%s must be between %d and %d, got %d", f.Key, f.Min, f.Max, v)
	}
	return nil
}

// KnownColumns returns every column name the declared fields can produce, in
// declaration order: numeric columns first, then one-hot columns per field.
func KnownColumns() []string {
	var cols []string
	for _, f := range Fields {
		if f.Kind == Numeric {
			cols = append(cols, f.Source)
		}
	}
	for _, f := range Fields {
		if f.Kind != Categorical {
			continue
		}
		for _, c := range f.Categories {
			cols = append(cols, OneHotColumn(f, c))
		}
	}
	return cols
}

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Numeric:
		return "numeric"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// MarshalText lets Kind render as a string in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "categorical":
		*k = Categorical
	case "numeric":
		*k = Numeric
	default:
		return fmt.Errorf("unknown field kind %q", text)
	}
	return nil
}
