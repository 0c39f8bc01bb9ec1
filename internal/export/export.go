package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"labmanager/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// WriteBookingsFile dumps the audit join to an xlsx file under dir and
// returns the file path. Rows keep the ledger's newest-first order.
func WriteBookingsFile(dir string, details []models.BookingDetail) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"Resource", "Student", "External ID", "Start", "End", "Created"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(sheetName, "A1", "F1", headerStyle)

	for row, d := range details {
		values := []interface{}{
			d.ResourceName,
			d.UserName,
			d.UserExternalID,
			d.Start.Format("2006-01-02 15:04"),
			d.End.Format("2006-01-02 15:04"),
			d.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "C", 20)
	_ = f.SetColWidth(sheetName, "D", "F", 18)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	filePath := filepath.Join(dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}
