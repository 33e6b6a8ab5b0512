package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"classtrack/internal/attendance"
)

const sheetName = "Attendance"

// WriteExcel renders a course report as an XLSX workbook.
func WriteExcel(w io.Writer, rep attendance.CourseReport, from, to time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("excel: create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	title := fmt.Sprintf("ATTENDANCE REPORT - %s %s", rep.Course.Code, rep.Course.Name)
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", "H1")
	f.SetCellStyle(sheetName, "A1", "H1", headerStyle)
	f.SetRowHeight(sheetName, 1, 25)

	f.SetCellValue(sheetName, "A3", "Period:")
	f.SetCellValue(sheetName, "B3", fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	f.SetCellValue(sheetName, "A4", "Classes held:")
	f.SetCellValue(sheetName, "B4", rep.ClassesHeld)
	f.SetCellValue(sheetName, "A5", "Students ≥75%:")
	f.SetCellValue(sheetName, "B5", rep.StudentsGood)
	f.SetCellValue(sheetName, "A6", "Students <75%:")
	f.SetCellValue(sheetName, "B6", rep.StudentsPoor)

	headers := []string{"Reg No", "Student", "Total", "Present", "Absent", "Late", "Percentage", "Band"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 8)
		f.SetCellValue(sheetName, cell, h)
	}
	f.SetCellStyle(sheetName, "A8", "H8", headerStyle)

	for i, row := range rep.Rows {
		r := 9 + i
		values := []interface{}{
			row.RegistrationNumber, row.FullName, row.TotalClasses,
			row.PresentCount, row.AbsentCount, row.LateCount,
			fmt.Sprintf("%.2f%%", row.Percentage), row.Band,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	f.SetColWidth(sheetName, "A", "B", 24)
	f.SetColWidth(sheetName, "C", "H", 12)
	f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("excel: write: %w", err)
	}
	return nil
}
