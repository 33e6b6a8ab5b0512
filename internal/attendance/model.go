package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the recorded outcome for one student on one date.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusLate
}

// ClockTime is a time of day as an offset from midnight.
type ClockTime time.Duration

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockTime(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// ClockOf returns the time-of-day portion of t.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second)
}

func (c ClockTime) String() string {
	d := time.Duration(c)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// MarshalJSON renders the clock as "HH:MM".
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses an "HH:MM" string.
func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Timetable is a recurring weekly lecture slot.
type Timetable struct {
	ID        string       `json:"id"`
	CourseID  string       `json:"course_id"`
	SectionID string       `json:"section_id"`
	TeacherID string       `json:"teacher_id"`
	DayOfWeek time.Weekday `json:"day_of_week"`
	StartTime ClockTime    `json:"start_time"`
	EndTime   ClockTime    `json:"end_time"`
	Room      string       `json:"room,omitempty"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`

	// Populated by joined queries for display.
	CourseCode  string `json:"course_code,omitempty"`
	CourseName  string `json:"course_name,omitempty"`
	SectionName string `json:"section_name,omitempty"`
}

// Record is the durable fact "this student had this status in this course on this date".
type Record struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	CourseID    string     `json:"course_id"`
	TimetableID *string    `json:"timetable_id,omitempty"`
	MarkedBy    string     `json:"marked_by"`
	Date        time.Time  `json:"date"`
	Status      Status     `json:"status"`
	Remarks     *string    `json:"remarks,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Entry is one student's mark within a submitted batch.
type Entry struct {
	StudentID string  `json:"student_id"`
	Status    Status  `json:"status"`
	Remarks   *string `json:"remarks,omitempty"`
}

// Course is a taught course; deactivated courses keep their history.
type Course struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	CreditHours  int        `json:"credit_hours"`
	Semester     string     `json:"semester"`
	AcademicYear int        `json:"academic_year"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Section groups students within a course offering.
type Section struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MaxCapacity int       `json:"max_capacity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is an academic period such as "Fall 2026".
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsCurrent bool      `json:"is_current"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Enrollment is active membership of a student in a course.
type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	SectionID  *string   `json:"section_id,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	CourseCode string    `json:"course_code,omitempty"`
	CourseName string    `json:"course_name,omitempty"`
}

// Student is the roster view of a user.
type Student struct {
	ID                 string `json:"id"`
	FullName           string `json:"full_name"`
	RegistrationNumber string `json:"registration_number"`
}

// RosterItem is one row of a marking sheet, pre-filled with any existing mark.
type RosterItem struct {
	Student
	Status        Status  `json:"status"`
	Remarks       *string `json:"remarks,omitempty"`
	AlreadyMarked bool    `json:"already_marked"`
}

// MarkingSheet is everything a teacher needs to mark one slot on one date.
type MarkingSheet struct {
	Timetable Timetable    `json:"timetable"`
	Date      time.Time    `json:"date"`
	Window    Decision     `json:"window"`
	Students  []RosterItem `json:"students"`
}

// ScheduleItem is a timetable row with its live marking-window state.
type ScheduleItem struct {
	Timetable
	CanMark          bool  `json:"can_mark"`
	Phase            Phase `json:"phase"`
	MinutesRemaining int   `json:"minutes_remaining"`
}

// ExportJob tracks an asynchronous report export.
type ExportJob struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	RequestedBy string     `json:"requested_by"`
	Format      string     `json:"format"`
	FromDate    time.Time  `json:"from_date"`
	ToDate      time.Time  `json:"to_date"`
	Status      string     `json:"status"`
	FilePath    *string    `json:"file_path,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Export job states.
const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportFailed  = "failed"
)
