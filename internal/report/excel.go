package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var headerRow = []string{"Date", "Weekday", "Check in", "Check out", "Total", "Comment"}

// ToXLSX renders a report as a spreadsheet, one sheet per month with a header
// row, one row per calendar day and a closing total row. Returns the
// serialized file contents.
func ToXLSX(r *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, group := range r.Months {
		sheet := group.Month.Date().Format("2006-01")
		if i == 0 {
			// Reuse the default sheet instead of leaving an empty one behind.
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("failed to name sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("failed to add sheet %s: %w", sheet, err)
			}
		}

		if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		for j, day := range group.Days {
			cell := fmt.Sprintf("A%d", j+2)
			row := []interface{}{day.Date, day.Weekday, day.CheckIn, day.CheckOut, day.Total, day.Comment}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write row %s: %w", cell, err)
			}
		}

		totalCell := fmt.Sprintf("A%d", len(group.Days)+3)
		totalRow := []interface{}{"Total", "", "", "", group.Total, ""}
		if err := f.SetSheetRow(sheet, totalCell, &totalRow); err != nil {
			return nil, fmt.Errorf("failed to write total row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}
