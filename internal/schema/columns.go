package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrColumnsLoad is returned when the column list artifact is missing or corrupt.
var ErrColumnsLoad = errors.New("column list artifact load failed")

// Columns is the Expected Column List: the exact, ordered feature schema the
// models were trained against.
type Columns struct {
	names []string
	index map[string]int
	path  string
}

// NewColumns builds a column list, rejecting empty lists and duplicates.
func NewColumns(names []string) (*Columns, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("column list is empty")
	}

	c := &Columns{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	copy(c.names, names)

	for i, name := range c.names {
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if prev, dup := c.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q at positions %d and %d", name, prev, i)
		}
		c.index[name] = i
	}

	return c, nil
}

// LoadColumns reads a JSON array of column names from path.
func LoadColumns(path string) (*Columns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrColumnsLoad, path, err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrColumnsLoad, path, err)
	}

	c, err := NewColumns(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrColumnsLoad, path, err)
	}
	c.path = path

	return c, nil
}

// Len returns the number of expected columns. A nil list has length 0.
func (c *Columns) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns a copy of the ordered column names.
func (c *Columns) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Index returns the position of a column in the list.
func (c *Columns) Index(name string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[name]
	return i, ok
}

// Path returns the artifact path the list was loaded from, if any.
func (c *Columns) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Equal reports whether names matches the list exactly, including order.
func (c *Columns) Equal(names []string) bool {
	if c.Len() != len(names) {
		return false
	}
	for i, n := range names {
		if c.names[i] != n {
			return false
		}
	}
	return true
}

// Unmapped returns expected columns that no declared field can produce.
// They are always encoded as 0.
func (c *Columns) Unmapped() []string {
	known := make(map[string]struct{})
	for _, name := range KnownColumns() {
		known[name] = struct{}{}
	}

	var out []string
	for _, name := range c.Names() {
		if _, ok := known[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
