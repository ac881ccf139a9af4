package gridcore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CellState holds the validation outcome stored on a single cell.
type CellState struct {
	HasError     bool
	ErrorMessage string
}

// Row is a single table row: a dense index, a column name to value map,
// and per-cell validation state. Missing map entries read as nil.
type Row struct {
	Index  int
	Values map[string]interface{}
	States map[string]CellState
}

func newRow(index int) *Row {
	return &Row{
		Index:  index,
		Values: make(map[string]interface{}),
		States: make(map[string]CellState),
	}
}

// IsEmpty reports whether every non-special cell of the row is nil or blank.
func (r *Row) IsEmpty(columns []Column) bool {
	for _, c := range columns {
		if c.Kind != KindNone {
			continue
		}
		if !isBlank(r.Values[c.Name]) {
			return false
		}
	}
	return true
}

// isBlank reports whether a cell value counts as empty: nil, or a string
// containing only whitespace. Zero numbers and false are not blank.
func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// clone creates a deep copy of the row.
func (r *Row) clone() *Row {
	c := &Row{
		Index:  r.Index,
		Values: make(map[string]interface{}, len(r.Values)),
		States: make(map[string]CellState, len(r.States)),
	}
	for k, v := range r.Values {
		c.Values[k] = v
	}
	for k, v := range r.States {
		c.States[k] = v
	}
	return c
}

// GetAsString returns the value as string or defaultValue if not found
func (r *Row) GetAsString(col string, defaultValue string) string {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case string:
		return val
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// GetAsInt64 returns the value as int64 or defaultValue if not found
func (r *Row) GetAsInt64(col string, defaultValue int64) int64 {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetAsFloat64 returns the value as float64 or defaultValue if not found
func (r *Row) GetAsFloat64(col string, defaultValue float64) float64 {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetAsBool returns the value as bool or defaultValue if not found
func (r *Row) GetAsBool(col string, defaultValue bool) bool {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "1"
	case int, int64:
		return val != 0
	case float64:
		return val != 0
	}
	return defaultValue
}

// GetAsTime returns the value as time.Time or defaultValue if not found
func (r *Row) GetAsTime(col string, defaultValue time.Time) time.Time {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		// Try various formats
		formats := []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, val); err == nil {
				return t
			}
		}
	}
	return defaultValue
}
