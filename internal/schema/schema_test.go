package schema

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeColumns(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model_columns.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadColumns(t *testing.T) {
	path := writeColumns(t, `["math_score", "gender_female", "gender_male"]`)

	cols, err := LoadColumns(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cols.Len())
	assert.Equal(t, []string{"math_score", "gender_female", "gender_male"}, cols.Names())
	assert.Equal(t, path, cols.Path())

	i, ok := cols.Index("gender_male")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = cols.Index("lunch_standard")
	assert.False(t, ok)
}

func TestLoadColumns_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"empty list", `[]`},
		{"null", `null`},
		{"not json", `math_score,gender_male`},
		{"wrong type", `{"columns": ["a"]}`},
		{"duplicate", `["a", "b", "a"]`},
		{"empty name", `["a", ""]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadColumns(writeColumns(t, tc.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrColumnsLoad))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadColumns(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorIs(t, err, ErrColumnsLoad)
	})
}

func TestColumns_NamesIsACopy(t *testing.T) {
	cols, err := NewColumns([]string{"a", "b"})
	require.NoError(t, err)

	names := cols.Names()
	names[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, cols.Names())
}

func TestColumns_Equal(t *testing.T) {
	cols, err := NewColumns([]string{"a", "b", "c"})
	require.NoError(t, err)

	assert.True(t, cols.Equal([]string{"a", "b", "c"}))
	assert.False(t, cols.Equal([]string{"a", "c", "b"}), "order matters")
	assert.False(t, cols.Equal([]string{"a", "b"}))
	assert.False(t, cols.Equal(nil))
}

func TestColumns_NilSafety(t *testing.T) {
	var cols *Columns

	assert.Equal(t, 0, cols.Len())
	assert.Nil(t, cols.Names())
	assert.False(t, cols.Equal([]string{"a"}))
	assert.True(t, cols.Equal(nil))
	_, ok := cols.Index("a")
	assert.False(t, ok)
}

func TestColumns_Unmapped(t *testing.T) {
	cols, err := NewColumns([]string{"math_score", "gender_male", "school_type_private", "lunch_standard"})
	require.NoError(t, err)

	assert.Equal(t, []string{"school_type_private"}, cols.Unmapped())
}

func TestKnownColumns(t *testing.T) {
	known := KnownColumns()

	// 3 numeric + 2 + 5 + 6 + 2 + 2 one-hot columns
	assert.Len(t, known, 20)
	assert.Equal(t, []string{"math_score", "reading_score", "writing_score"}, known[:3])
	assert.Contains(t, known, "race/ethnicity_group B")
	assert.Contains(t, known, "parental level of education_bachelor's degree")
	assert.Contains(t, known, "lunch_free/reduced")
	assert.Contains(t, known, "test preparation course_completed")
}

func TestFieldHelpers(t *testing.T) {
	f, ok := Lookup(KeyLunch)
	require.True(t, ok)
	assert.True(t, f.Has("free/reduced"))
	assert.False(t, f.Has("Free/Reduced"))
	assert.Equal(t, "lunch_standard", OneHotColumn(f, "standard"))

	score, ok := Lookup(KeyMathScore)
	require.True(t, ok)
	assert.NoError(t, score.ValidateScore(0))
	assert.NoError(t, score.ValidateScore(100))
	assert.Error(t, score.ValidateScore(-1))
	assert.Error(t, score.ValidateScore(101))

	_, ok = Lookup("shoe_size")
	assert.False(t, ok)
}

func TestKind_JSON(t *testing.T) {
	data, err := json.Marshal(Fields[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"categorical"`)

	var f Field
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, Categorical, f.Kind)

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("numeric")))
	assert.Equal(t, Numeric, k)
	assert.Error(t, k.UnmarshalText([]byte("ordinal")))
}
