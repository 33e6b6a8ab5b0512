package attendance

import (
	"context"
	"fmt"
	"time"
)

const maxRemarksLen = 500

// Store is the persistence surface the service needs. *Repository implements it.
type Store interface {
	GetTimetable(ctx context.Context, id string) (Timetable, error)
	ListTeacherDay(ctx context.Context, teacherID string, day time.Weekday) ([]Timetable, error)
	IsActiveTeacher(ctx context.Context, teacherID, courseID string) (bool, error)
	SectionRoster(ctx context.Context, courseID, sectionID string) ([]Student, error)
	CourseRoster(ctx context.Context, courseID string) ([]Student, error)
	RecordsForDate(ctx context.Context, courseID string, date time.Time) ([]Record, error)
	RecordsInRange(ctx context.Context, courseID string, from, to time.Time) ([]Record, error)
	StudentCourseRecords(ctx context.Context, studentID, courseID string) ([]Record, error)
	ActiveEnrollments(ctx context.Context, studentID string) ([]Enrollment, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	UpsertBatch(ctx context.Context, records []Record) error
}

// Service coordinates eligibility checks, roster assembly and batch marking.
type Service struct {
	store         Store
	windowMinutes int
	now           func() time.Time
}

// NewService creates a service. now may be nil, in which case the wall clock
// is used; tests inject a fixed clock.
func NewService(store Store, windowMinutes int, now func() time.Time) *Service {
	if windowMinutes <= 0 {
		windowMinutes = 10
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, windowMinutes: windowMinutes, now: now}
}

// WindowMinutes returns the configured marking window length.
func (s *Service) WindowMinutes() int { return s.windowMinutes }

// TodaysSchedule lists the teacher's active slots for today's weekday, each
// with its live marking-window state.
func (s *Service) TodaysSchedule(ctx context.Context, teacherID string) ([]ScheduleItem, error) {
	now := s.now()
	slots, err := s.store.ListTeacherDay(ctx, teacherID, now.Weekday())
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}

	items := make([]ScheduleItem, 0, len(slots))
	for _, tt := range slots {
		d := Evaluate(tt.StartTime, tt.EndTime, ClockOf(now), s.windowMinutes)
		items = append(items, ScheduleItem{
			Timetable:        tt,
			CanMark:          d.CanMark,
			Phase:            d.Phase,
			MinutesRemaining: d.MinutesRemaining,
		})
	}
	return items, nil
}

// Sheet assembles the marking sheet for a slot on a date: the enrolled
// students ordered by registration number, pre-filled with existing marks and
// defaulting to present. Marking itself is still gated by MarkBatch.
func (s *Service) Sheet(ctx context.Context, teacherID, timetableID string, date time.Time) (MarkingSheet, error) {
	tt, err := s.authorizedSlot(ctx, teacherID, timetableID)
	if err != nil {
		return MarkingSheet{}, err
	}

	date = dateOnly(date)
	roster, err := s.rosterFor(ctx, tt.CourseID, tt.SectionID)
	if err != nil {
		return MarkingSheet{}, err
	}
	existing, err := s.store.RecordsForDate(ctx, tt.CourseID, date)
	if err != nil {
		return MarkingSheet{}, fmt.Errorf("load existing marks: %w", err)
	}
	marked := make(map[string]Record, len(existing))
	for _, r := range existing {
		marked[r.StudentID] = r
	}

	sheet := MarkingSheet{
		Timetable: tt,
		Date:      date,
		Window:    Evaluate(tt.StartTime, tt.EndTime, ClockOf(s.now()), s.windowMinutes),
	}
	for _, st := range roster {
		item := RosterItem{Student: st, Status: StatusPresent}
		if r, ok := marked[st.ID]; ok {
			item.Status = r.Status
			item.Remarks = r.Remarks
			item.AlreadyMarked = true
		}
		sheet.Students = append(sheet.Students, item)
	}
	return sheet, nil
}

// MarkBatch records attendance for a slot on a date. The batch is applied as
// one transaction keyed on (student, course, date): existing records are
// overwritten, so resubmitting is safe. Enrollment of each student is not
// re-validated here; the roster endpoint only offers enrolled students.
func (s *Service) MarkBatch(ctx context.Context, teacherID, timetableID string, date time.Time, entries []Entry) error {
	tt, err := s.authorizedSlot(ctx, teacherID, timetableID)
	if err != nil {
		return err
	}

	date = dateOnly(date)
	if date.Weekday() != tt.DayOfWeek {
		return &NotEligibleError{WrongDay: true, ScheduledDay: tt.DayOfWeek}
	}

	d := Evaluate(tt.StartTime, tt.EndTime, ClockOf(s.now()), s.windowMinutes)
	if !d.CanMark {
		return &NotEligibleError{Phase: d.Phase, OpensAt: tt.StartTime, WindowMinutes: s.windowMinutes}
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if e.StudentID == "" || !e.Status.Valid() {
			return fmt.Errorf("%w: student %q status %q", ErrInvalidEntry, e.StudentID, e.Status)
		}
		if e.Remarks != nil && len(*e.Remarks) > maxRemarksLen {
			return fmt.Errorf("%w: remarks too long for student %s", ErrInvalidEntry, e.StudentID)
		}
		ttID := tt.ID
		records = append(records, Record{
			StudentID:   e.StudentID,
			CourseID:    tt.CourseID,
			TimetableID: &ttID,
			MarkedBy:    teacherID,
			Date:        date,
			Status:      e.Status,
			Remarks:     e.Remarks,
		})
	}

	if err := s.store.UpsertBatch(ctx, records); err != nil {
		return fmt.Errorf("persist batch: %w", err)
	}
	return nil
}

// DailyView is one course's attendance for a single date.
type DailyView struct {
	Course  Course    `json:"course"`
	Date    time.Time `json:"date"`
	Summary Summary   `json:"summary"`
	Records []Record  `json:"records"`
}

// DailyAttendance returns the marked records and counts for a course/date.
func (s *Service) DailyAttendance(ctx context.Context, courseID string, date time.Time) (DailyView, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return DailyView{}, err
	}
	date = dateOnly(date)
	records, err := s.store.RecordsForDate(ctx, courseID, date)
	if err != nil {
		return DailyView{}, fmt.Errorf("load daily records: %w", err)
	}
	return DailyView{Course: course, Date: date, Summary: Summarize(records), Records: records}, nil
}

// RangeRecords lists a course's records within [from, to].
func (s *Service) RangeRecords(ctx context.Context, courseID string, from, to time.Time) ([]Record, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.RecordsInRange(ctx, courseID, dateOnly(from), dateOnly(to))
}

// StudentSummary aggregates one student's attendance across all active
// enrollments. Late counts as present in every percentage.
func (s *Service) StudentSummary(ctx context.Context, studentID string) (StudentSummary, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return StudentSummary{}, err
	}
	enrollments, err := s.store.ActiveEnrollments(ctx, studentID)
	if err != nil {
		return StudentSummary{}, fmt.Errorf("load enrollments: %w", err)
	}

	out := StudentSummary{
		StudentID:          student.ID,
		StudentName:        student.FullName,
		RegistrationNumber: student.RegistrationNumber,
	}
	var attended, total int
	for _, enr := range enrollments {
		records, err := s.store.StudentCourseRecords(ctx, studentID, enr.CourseID)
		if err != nil {
			return StudentSummary{}, fmt.Errorf("load records for course %s: %w", enr.CourseID, err)
		}
		sum := Summarize(records)
		attended += sum.PresentCount + sum.LateCount
		total += sum.TotalClasses

		recent := records
		if len(recent) > 5 {
			recent = recent[:5]
		}
		out.Courses = append(out.Courses, CourseSummary{
			CourseID:   enr.CourseID,
			CourseCode: enr.CourseCode,
			CourseName: enr.CourseName,
			Summary:    sum,
			Recent:     recent,
		})
	}
	out.OverallPercentage = percentage(attended, total)
	return out, nil
}

// CourseReport builds the per-student report for a course over a date range.
func (s *Service) CourseReport(ctx context.Context, courseID string, from, to time.Time) (CourseReport, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return CourseReport{}, err
	}
	roster, err := s.store.CourseRoster(ctx, courseID)
	if err != nil {
		return CourseReport{}, fmt.Errorf("load roster: %w", err)
	}
	records, err := s.store.RecordsInRange(ctx, courseID, dateOnly(from), dateOnly(to))
	if err != nil {
		return CourseReport{}, fmt.Errorf("load records: %w", err)
	}
	return BuildCourseReport(course, roster, records), nil
}

// AuthorizeCourse verifies the teacher holds an active assignment for the
// course. Course-level views and reports are assignment-scoped; owning a
// timetable slot alone only grants marking on that slot.
func (s *Service) AuthorizeCourse(ctx context.Context, teacherID, courseID string) error {
	ok, err := s.store.IsActiveTeacher(ctx, teacherID, courseID)
	if err != nil {
		return fmt.Errorf("check assignment: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// authorizedSlot loads a timetable slot and verifies the caller may mark it:
// either the slot is theirs, or they hold an active assignment for its course.
func (s *Service) authorizedSlot(ctx context.Context, teacherID, timetableID string) (Timetable, error) {
	tt, err := s.store.GetTimetable(ctx, timetableID)
	if err != nil {
		return Timetable{}, err
	}
	if !tt.IsActive {
		return Timetable{}, ErrNotFound
	}
	if tt.TeacherID != teacherID {
		ok, err := s.store.IsActiveTeacher(ctx, teacherID, tt.CourseID)
		if err != nil {
			return Timetable{}, fmt.Errorf("check assignment: %w", err)
		}
		if !ok {
			return Timetable{}, ErrUnauthorized
		}
	}
	return tt, nil
}

// rosterFor tries the section-scoped roster first and falls back to the
// course-wide roster when the section has no enrollments.
func (s *Service) rosterFor(ctx context.Context, courseID, sectionID string) ([]Student, error) {
	roster, err := s.store.SectionRoster(ctx, courseID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("load section roster: %w", err)
	}
	if len(roster) == 0 {
		roster, err = s.store.CourseRoster(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("load course roster: %w", err)
		}
	}
	return roster, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
