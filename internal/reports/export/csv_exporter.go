package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter  rune
	UseCRLF    bool
	DateFormat string
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:  ',',
		DateFormat: "2006-01-02",
	}
}

// CSVExporter writes tables as CSV. Several tables are separated by a blank line,
// each preceded by its header.
type CSVExporter struct {
	buf     bytes.Buffer
	writer  *csv.Writer
	options CSVOptions
	tables  int
}

func NewCSVExporter(options CSVOptions) *CSVExporter {
	e := &CSVExporter{options: options}
	e.writer = csv.NewWriter(&e.buf)
	e.writer.Comma = options.Delimiter
	e.writer.UseCRLF = options.UseCRLF
	return e
}

func (e *CSVExporter) AddTable(table Table) error {
	if e.tables > 0 {
		if err := e.writer.Write(nil); err != nil {
			return fmt.Errorf("failed to write separator: %w", err)
		}
	}
	e.tables++

	if err := e.writer.Write(table.labels()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range table.Rows {
		record := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			record[i] = formatValue(row[col.Key], e.options.DateFormat)
		}
		if err := e.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func (e *CSVExporter) Bytes() ([]byte, error) {
	e.writer.Flush()
	if err := e.writer.Error(); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}
