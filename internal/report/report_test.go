package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"classtrack/internal/attendance"
)

func sampleReport() attendance.CourseReport {
	return attendance.CourseReport{
		Course: attendance.Course{ID: "c1", Code: "CS101", Name: "Intro to CS"},
		Rows: []attendance.StudentReportRow{
			{
				Student: attendance.Student{ID: "s1", FullName: "Ada Lovelace", RegistrationNumber: "R1"},
				Summary: attendance.Summary{TotalClasses: 4, PresentCount: 3, LateCount: 1, Percentage: 100},
				Band:    "Good",
			},
			{
				Student: attendance.Student{ID: "s2", FullName: "Beth Harmon", RegistrationNumber: "R2"},
				Summary: attendance.Summary{TotalClasses: 4, PresentCount: 1, AbsentCount: 3, Percentage: 25},
				Band:    "Critical",
			},
		},
		StudentsGood: 1,
		StudentsPoor: 1,
		ClassesHeld:  4,
		AveragePct:   62.5,
	}
}

var (
	from = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, sampleReport(), from, to))
	require.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Attendance", "B9")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	band, err := f.GetCellValue("Attendance", "H10")
	require.NoError(t, err)
	assert.Equal(t, "Critical", band)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleReport(), from, to))
	require.NotZero(t, buf.Len())
	assert.Equal(t, "%PDF", buf.String()[:4])
}
