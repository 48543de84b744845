package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelOptions configures workbook styling
type ExcelOptions struct {
	FreezeHeader    bool
	AutoFilter      bool
	HeaderFillColor string
	HeaderFontColor string
	DateFormat      string
	MinColumnWidth  float64
	MaxColumnWidth  float64
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		FreezeHeader:    true,
		AutoFilter:      true,
		HeaderFillColor: "4472C4",
		HeaderFontColor: "FFFFFF",
		DateFormat:      "yyyy-mm-dd",
		MinColumnWidth:  10,
		MaxColumnWidth:  50,
	}
}

// ExcelExporter builds a workbook with one sheet per table
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
	sheets  int
}

func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	return &ExcelExporter{
		file:    excelize.NewFile(),
		options: options,
	}
}

// AddTable writes a table to a new sheet. The first table reuses the default sheet.
func (e *ExcelExporter) AddTable(table Table) error {
	name := table.Name
	if e.sheets == 0 {
		if err := e.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	} else if _, err := e.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	e.sheets++

	if err := e.writeHeader(name, table.Columns); err != nil {
		return err
	}
	return e.writeRows(name, table)
}

func (e *ExcelExporter) writeHeader(sheet string, columns []Column) error {
	style, err := e.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: e.options.HeaderFontColor},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{e.options.HeaderFillColor}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(sheet, cell, col.Label); err != nil {
			return err
		}
		if err := e.file.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}

	if e.options.FreezeHeader {
		return e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

func (e *ExcelExporter) writeRows(sheet string, table Table) error {
	dateStyle, err := e.file.NewStyle(&excelize.Style{CustomNumFmt: &e.options.DateFormat})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	widths := make([]float64, len(table.Columns))
	for i, col := range table.Columns {
		widths[i] = float64(len(col.Label)) * 1.2
	}

	for r, row := range table.Rows {
		for c, col := range table.Columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			val := row[col.Key]

			switch v := val.(type) {
			case nil:
				continue
			case *time.Time:
				if v == nil {
					continue
				}
				val = *v
			}

			if err := e.file.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set %s: %w", cell, err)
			}
			if _, ok := val.(time.Time); ok {
				if err := e.file.SetCellStyle(sheet, cell, cell, dateStyle); err != nil {
					return err
				}
			}

			if w := float64(len(formatValue(val, "2006-01-02"))) * 1.2; w > widths[c] {
				widths[c] = w
			}
		}
	}

	for c, w := range widths {
		w = max(e.options.MinColumnWidth, min(w, e.options.MaxColumnWidth))
		name, _ := excelize.ColumnNumberToName(c + 1)
		if err := e.file.SetColWidth(sheet, name, name, w); err != nil {
			return err
		}
	}

	if e.options.AutoFilter && len(table.Rows) > 0 && len(table.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), len(table.Rows)+1)
		if err := e.file.AutoFilter(sheet, "A1:"+last, nil); err != nil {
			return fmt.Errorf("failed to add auto filter: %w", err)
		}
	}
	return nil
}

// Bytes renders the workbook
func (e *ExcelExporter) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close closes the Excel file
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}
