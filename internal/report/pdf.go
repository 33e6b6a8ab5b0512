package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"classtrack/internal/attendance"
)

// WritePDF renders a course report as a PDF document.
func WritePDF(w io.Writer, rep attendance.CourseReport, from, to time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Attendance Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s %s", rep.Course.Code, rep.Course.Name), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	summary := [][2]string{
		{"Classes held", fmt.Sprintf("%d", rep.ClassesHeld)},
		{"Students with good attendance (>=75%)", fmt.Sprintf("%d", rep.StudentsGood)},
		{"Students with poor attendance (<75%)", fmt.Sprintf("%d", rep.StudentsPoor)},
		{"Average attendance", fmt.Sprintf("%.2f%%", rep.AveragePct)},
	}
	for _, row := range summary {
		pdf.CellFormat(90, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	widths := []float64{25, 55, 18, 18, 18, 18, 22, 16}
	headers := []string{"Reg No", "Student", "Total", "Present", "Absent", "Late", "Pct", "Band"}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range rep.Rows {
		cells := []string{
			row.RegistrationNumber, row.FullName,
			fmt.Sprintf("%d", row.TotalClasses),
			fmt.Sprintf("%d", row.PresentCount),
			fmt.Sprintf("%d", row.AbsentCount),
			fmt.Sprintf("%d", row.LateCount),
			fmt.Sprintf("%.2f%%", row.Percentage),
			row.Band,
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}
