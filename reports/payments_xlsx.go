// Package reports renders ledger data as spreadsheets.
package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// PaymentRow is one guest line of the monthly payment sheet. RoomNumber is
// 0 for a guest without a room.
type PaymentRow struct {
	GuestID    uint
	Name       string
	Email      string
	Phone      string
	RoomNumber int
	Status     string
	Amount     int64
}

// PaymentHeader is the first row of the sheet.
var PaymentHeader = []string{
	"Guest ID",
	"Name",
	"Email",
	"Phone",
	"Room",
	"Status",
	"Amount (INR)",
}

var paymentColumnWidths = []float64{10, 28, 32, 14, 8, 12, 14}

// SheetName returns the worksheet name used for month.
func SheetName(month string) string {
	return "Payments " + month
}

// WritePayments writes an xlsx workbook with one sheet for month to w. The
// last row totals the amount of every paid line.
func WritePayments(w io.Writer, month string, rows []PaymentRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(month)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range PaymentHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, paymentColumnWidths[col]); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	var paid int64
	for i, r := range rows {
		var room any = "-"
		if r.RoomNumber > 0 {
			room = r.RoomNumber
		}
		values := []any{r.GuestID, r.Name, r.Email, r.Phone, room, r.Status, r.Amount}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		if r.Status == "paid" {
			paid += r.Amount
		}
	}

	totalRow := len(rows) + 2
	if err := f.SetCellValue(sheet, fmt.Sprintf("F%d", totalRow), "Collected"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("G%d", totalRow), paid); err != nil {
		return err
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
