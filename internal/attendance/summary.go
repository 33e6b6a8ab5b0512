package attendance

import (
	"math"
	"sort"
)

// Attendance bands used on dashboards and reports. 75 is the hard cut line
// for "good" attendance; 50 separates warning from critical.
const (
	GoodThreshold    = 75.0
	WarningThreshold = 50.0
)

// Band names.
const (
	BandGood     = "Good"
	BandWarning  = "Warning"
	BandCritical = "Critical"
)

// Summary is the aggregate of a set of attendance records.
type Summary struct {
	TotalClasses int     `json:"total_classes"`
	PresentCount int     `json:"present_count"`
	AbsentCount  int     `json:"absent_count"`
	LateCount    int     `json:"late_count"`
	Percentage   float64 `json:"attendance_percentage"`
}

// Summarize counts statuses and computes the presence percentage.
// Late counts toward presence; it is tracked separately but not penalized.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		s.TotalClasses++
		switch r.Status {
		case StatusPresent:
			s.PresentCount++
		case StatusAbsent:
			s.AbsentCount++
		case StatusLate:
			s.LateCount++
		}
	}
	s.Percentage = percentage(s.PresentCount+s.LateCount, s.TotalClasses)
	return s
}

func percentage(attended, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(attended)/float64(total)*100*100) / 100
}

// Band classifies a percentage as Good, Warning or Critical.
func Band(pct float64) string {
	switch {
	case pct >= GoodThreshold:
		return BandGood
	case pct >= WarningThreshold:
		return BandWarning
	default:
		return BandCritical
	}
}

// StudentCourseKey identifies one student within one course.
type StudentCourseKey struct {
	StudentID string
	CourseID  string
}

// GroupByStudentCourse buckets a flat record list per (student, course) and
// summarizes each bucket.
func GroupByStudentCourse(records []Record) map[StudentCourseKey]Summary {
	buckets := make(map[StudentCourseKey][]Record)
	for _, r := range records {
		k := StudentCourseKey{StudentID: r.StudentID, CourseID: r.CourseID}
		buckets[k] = append(buckets[k], r)
	}
	out := make(map[StudentCourseKey]Summary, len(buckets))
	for k, recs := range buckets {
		out[k] = Summarize(recs)
	}
	return out
}

// GroupByCourse buckets records per course and summarizes each bucket.
func GroupByCourse(records []Record) map[string]Summary {
	buckets := make(map[string][]Record)
	for _, r := range records {
		buckets[r.CourseID] = append(buckets[r.CourseID], r)
	}
	out := make(map[string]Summary, len(buckets))
	for id, recs := range buckets {
		out[id] = Summarize(recs)
	}
	return out
}

// StudentReportRow is one student's line in a course report.
type StudentReportRow struct {
	Student
	Summary
	Band string `json:"band"`
}

// CourseReport is the aggregated report for one course over a date range.
type CourseReport struct {
	Course        Course             `json:"course"`
	Rows          []StudentReportRow `json:"rows"`
	StudentsGood  int                `json:"students_good"`
	StudentsPoor  int                `json:"students_poor"`
	ClassesHeld   int                `json:"classes_held"`
	AveragePct    float64            `json:"average_percentage"`
}

// BuildCourseReport joins per-student summaries with roster identity and
// computes the band counts used on dashboards.
func BuildCourseReport(course Course, roster []Student, records []Record) CourseReport {
	perStudent := make(map[string][]Record)
	dates := make(map[string]struct{})
	for _, r := range records {
		perStudent[r.StudentID] = append(perStudent[r.StudentID], r)
		dates[r.Date.Format("2006-01-02")] = struct{}{}
	}

	report := CourseReport{Course: course, ClassesHeld: len(dates)}
	var pctSum float64
	for _, st := range roster {
		sum := Summarize(perStudent[st.ID])
		row := StudentReportRow{Student: st, Summary: sum, Band: Band(sum.Percentage)}
		report.Rows = append(report.Rows, row)
		pctSum += sum.Percentage
		if sum.Percentage >= GoodThreshold {
			report.StudentsGood++
		} else {
			report.StudentsPoor++
		}
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].RegistrationNumber < report.Rows[j].RegistrationNumber
	})
	if len(report.Rows) > 0 {
		report.AveragePct = math.Round(pctSum/float64(len(report.Rows))*100) / 100
	}
	return report
}

// CourseSummary is one course's slice of a student summary.
type CourseSummary struct {
	CourseID   string   `json:"course_id"`
	CourseCode string   `json:"course_code"`
	CourseName string   `json:"course_name"`
	Summary
	Recent []Record `json:"recent,omitempty"`
}

// StudentSummary is a student's attendance across all enrolled courses.
type StudentSummary struct {
	StudentID          string          `json:"student_id"`
	StudentName        string          `json:"student_name"`
	RegistrationNumber string          `json:"registration_number"`
	Courses            []CourseSummary `json:"courses"`
	OverallPercentage  float64         `json:"overall_percentage"`
}
