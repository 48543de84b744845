package export

import (
	"fmt"
	"time"
)

// Column is one exported column: the row key it reads and its header label.
type Column struct {
	Key   string
	Label string
}

// Table is a named set of rows sharing the same columns.
type Table struct {
	Name    string
	Columns []Column
	Rows    []map[string]any
}

func (t Table) labels() []string {
	labels := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
	}
	return labels
}

// formatValue renders a cell for the text-based formats.
func formatValue(val any, dateFormat string) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(dateFormat)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Format(dateFormat)
	case float64:
		return fmt.Sprintf("%.1f", v)
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprintf("%v", v)
	}
}
