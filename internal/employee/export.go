package employee

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Employees"

// WriteXLSX writes the rows as a workbook with one header row and one row per employee.
func WriteXLSX(w io.Writer, rows []User, columns []ColumnDef) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if len(rows) == 0 {
		if err := f.SetCellValue(exportSheet, "A2", NoEmployeesMessage); err != nil {
			return fmt.Errorf("write empty marker: %w", err)
		}
	}

	for i, u := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(columns))
		for j, c := range columns {
			values[j] = Cell(u, c.ID)
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(columns))
		if err != nil {
			return err
		}
		if err := f.AutoFilter(exportSheet, "A1:"+last+"1", nil); err != nil {
			return fmt.Errorf("auto filter: %w", err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}
