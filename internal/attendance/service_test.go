package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store with transactional UpsertBatch semantics.
type fakeStore struct {
	timetables  map[string]Timetable
	assignments map[string]bool // teacher+course
	sections    map[string][]Student
	rosters     map[string][]Student
	records     map[string]Record // student+course+date
	enrollments map[string][]Enrollment
	students    map[string]Student
	courses     map[string]Course
	failStudent string // upserting this student fails the whole batch
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		timetables:  map[string]Timetable{},
		assignments: map[string]bool{},
		sections:    map[string][]Student{},
		rosters:     map[string][]Student{},
		records:     map[string]Record{},
		enrollments: map[string][]Enrollment{},
		students:    map[string]Student{},
		courses:     map[string]Course{},
	}
}

func recKey(studentID, courseID string, date time.Time) string {
	return studentID + "|" + courseID + "|" + date.Format("2006-01-02")
}

func (f *fakeStore) GetTimetable(_ context.Context, id string) (Timetable, error) {
	tt, ok := f.timetables[id]
	if !ok {
		return Timetable{}, ErrNotFound
	}
	return tt, nil
}

func (f *fakeStore) ListTeacherDay(_ context.Context, teacherID string, day time.Weekday) ([]Timetable, error) {
	var out []Timetable
	for _, tt := range f.timetables {
		if tt.TeacherID == teacherID && tt.DayOfWeek == day && tt.IsActive {
			out = append(out, tt)
		}
	}
	return out, nil
}

func (f *fakeStore) IsActiveTeacher(_ context.Context, teacherID, courseID string) (bool, error) {
	return f.assignments[teacherID+"|"+courseID], nil
}

func (f *fakeStore) SectionRoster(_ context.Context, courseID, sectionID string) ([]Student, error) {
	return f.sections[courseID+"|"+sectionID], nil
}

func (f *fakeStore) CourseRoster(_ context.Context, courseID string) ([]Student, error) {
	return f.rosters[courseID], nil
}

func (f *fakeStore) RecordsForDate(_ context.Context, courseID string, date time.Time) ([]Record, error) {
	var out []Record
	for _, r := range f.records {
		if r.CourseID == courseID && r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordsInRange(_ context.Context, courseID string, from, to time.Time) ([]Record, error) {
	var out []Record
	for _, r := range f.records {
		if r.CourseID == courseID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) StudentCourseRecords(_ context.Context, studentID, courseID string) ([]Record, error) {
	var out []Record
	for _, r := range f.records {
		if r.StudentID == studentID && r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ActiveEnrollments(_ context.Context, studentID string) ([]Enrollment, error) {
	return f.enrollments[studentID], nil
}

func (f *fakeStore) GetStudent(_ context.Context, id string) (Student, error) {
	st, ok := f.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return st, nil
}

func (f *fakeStore) GetCourse(_ context.Context, id string) (Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) UpsertBatch(_ context.Context, records []Record) error {
	for _, r := range records {
		if r.StudentID == f.failStudent {
			return fmt.Errorf("constraint violation for %s", r.StudentID)
		}
	}
	for _, r := range records {
		key := recKey(r.StudentID, r.CourseID, r.Date)
		if prev, ok := f.records[key]; ok {
			now := time.Now()
			prev.Status = r.Status
			prev.Remarks = r.Remarks
			prev.MarkedBy = r.MarkedBy
			prev.UpdatedAt = &now
			f.records[key] = prev
		} else {
			r.ID = key
			r.CreatedAt = time.Now()
			f.records[key] = r
		}
	}
	return nil
}

// Monday 2026-03-02, lecture 09:00-10:30, window 10 minutes.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(t *testing.T, hhmm string) func() time.Time {
	t.Helper()
	c, err := ParseClock(hhmm)
	require.NoError(t, err)
	return func() time.Time { return monday.Add(time.Duration(c)) }
}

func setupSlot(t *testing.T) *fakeStore {
	t.Helper()
	f := newFakeStore()
	f.timetables["tt1"] = Timetable{
		ID: "tt1", CourseID: "c1", SectionID: "sec1", TeacherID: "teach1",
		DayOfWeek: time.Monday,
		StartTime: clock(t, "09:00"), EndTime: clock(t, "10:30"),
		IsActive: true,
	}
	f.courses["c1"] = Course{ID: "c1", Code: "CS101", Name: "Intro"}
	f.rosters["c1"] = []Student{
		{ID: "s1", FullName: "Ada", RegistrationNumber: "R1"},
		{ID: "s2", FullName: "Beth", RegistrationNumber: "R2"},
	}
	return f
}

func TestMarkBatchHappyPathAndResubmit(t *testing.T) {
	f := setupSlot(t)
	ctx := context.Background()
	entries := []Entry{
		{StudentID: "s1", Status: StatusPresent},
		{StudentID: "s2", Status: StatusAbsent},
	}

	svc := NewService(f, 10, at(t, "09:05"))
	require.NoError(t, svc.MarkBatch(ctx, "teach1", "tt1", monday, entries))
	assert.Len(t, f.records, 2)
	assert.Equal(t, StatusPresent, f.records[recKey("s1", "c1", monday)].Status)

	// Resubmit at 09:08 with s1 now late: still two rows, s1 updated in place.
	svc = NewService(f, 10, at(t, "09:08"))
	entries[0].Status = StatusLate
	require.NoError(t, svc.MarkBatch(ctx, "teach1", "tt1", monday, entries))
	assert.Len(t, f.records, 2)
	assert.Equal(t, StatusLate, f.records[recKey("s1", "c1", monday)].Status)
	assert.Equal(t, StatusAbsent, f.records[recKey("s2", "c1", monday)].Status)
	assert.NotNil(t, f.records[recKey("s1", "c1", monday)].UpdatedAt)
}

func TestMarkBatchIdempotent(t *testing.T) {
	f := setupSlot(t)
	ctx := context.Background()
	entries := []Entry{{StudentID: "s1", Status: StatusPresent}}

	svc := NewService(f, 10, at(t, "09:03"))
	require.NoError(t, svc.MarkBatch(ctx, "teach1", "tt1", monday, entries))
	require.NoError(t, svc.MarkBatch(ctx, "teach1", "tt1", monday, entries))
	assert.Len(t, f.records, 1)
}

func TestMarkBatchPhases(t *testing.T) {
	f := setupSlot(t)
	ctx := context.Background()
	entries := []Entry{{StudentID: "s1", Status: StatusPresent}}

	svc := NewService(f, 10, at(t, "08:59"))
	err := svc.MarkBatch(ctx, "teach1", "tt1", monday, entries)
	var ne *NotEligibleError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, PhaseUpcoming, ne.Phase)
	assert.Contains(t, ne.Error(), "09:00")

	svc = NewService(f, 10, at(t, "09:11"))
	err = svc.MarkBatch(ctx, "teach1", "tt1", monday, entries)
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, PhaseClosed, ne.Phase)
	assert.Contains(t, ne.Error(), "10 minutes")
	assert.Empty(t, f.records)
}

func TestMarkBatchWrongDay(t *testing.T) {
	f := setupSlot(t)
	tuesday := monday.AddDate(0, 0, 1)

	svc := NewService(f, 10, at(t, "09:05"))
	err := svc.MarkBatch(context.Background(), "teach1", "tt1", tuesday, []Entry{{StudentID: "s1", Status: StatusPresent}})
	var ne *NotEligibleError
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.WrongDay)
	assert.Contains(t, ne.Error(), "Monday")
}

func TestMarkBatchAuthorization(t *testing.T) {
	f := setupSlot(t)
	ctx := context.Background()
	entries := []Entry{{StudentID: "s1", Status: StatusPresent}}
	svc := NewService(f, 10, at(t, "09:05"))

	err := svc.MarkBatch(ctx, "intruder", "tt1", monday, entries)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// A co-teacher with an active assignment for the course may mark.
	f.assignments["cover|c1"] = true
	require.NoError(t, svc.MarkBatch(ctx, "cover", "tt1", monday, entries))
}

func TestAuthorizeCourse(t *testing.T) {
	f := setupSlot(t)
	svc := NewService(f, 10, at(t, "09:05"))
	ctx := context.Background()

	// Owning a slot is not enough for course-level views: teach1 owns tt1
	// but has no active assignment for c1.
	assert.ErrorIs(t, svc.AuthorizeCourse(ctx, "teach1", "c1"), ErrUnauthorized)
	assert.ErrorIs(t, svc.AuthorizeCourse(ctx, "intruder", "c1"), ErrUnauthorized)

	f.assignments["teach1|c1"] = true
	assert.NoError(t, svc.AuthorizeCourse(ctx, "teach1", "c1"))
}

func TestMarkBatchUnknownSlot(t *testing.T) {
	f := setupSlot(t)
	svc := NewService(f, 10, at(t, "09:05"))
	err := svc.MarkBatch(context.Background(), "teach1", "missing", monday, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkBatchInvalidEntry(t *testing.T) {
	f := setupSlot(t)
	svc := NewService(f, 10, at(t, "09:05"))
	err := svc.MarkBatch(context.Background(), "teach1", "tt1", monday, []Entry{{StudentID: "s1", Status: "maybe"}})
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.Empty(t, f.records)
}

func TestMarkBatchAtomicity(t *testing.T) {
	f := setupSlot(t)
	f.failStudent = "s2"
	svc := NewService(f, 10, at(t, "09:05"))

	err := svc.MarkBatch(context.Background(), "teach1", "tt1", monday, []Entry{
		{StudentID: "s1", Status: StatusPresent},
		{StudentID: "s2", Status: StatusAbsent},
	})
	require.Error(t, err)
	assert.Empty(t, f.records, "a failed batch must leave no partial state")
}

func TestSheetPrefillAndSectionFallback(t *testing.T) {
	f := setupSlot(t)
	ctx := context.Background()

	// Section roster empty: falls back to the course-wide roster.
	svc := NewService(f, 10, at(t, "09:05"))
	require.NoError(t, svc.MarkBatch(ctx, "teach1", "tt1", monday, []Entry{{StudentID: "s1", Status: StatusLate}}))

	sheet, err := svc.Sheet(ctx, "teach1", "tt1", monday)
	require.NoError(t, err)
	require.Len(t, sheet.Students, 2)
	assert.True(t, sheet.Window.CanMark)

	assert.Equal(t, "s1", sheet.Students[0].ID)
	assert.True(t, sheet.Students[0].AlreadyMarked)
	assert.Equal(t, StatusLate, sheet.Students[0].Status)
	assert.False(t, sheet.Students[1].AlreadyMarked)
	assert.Equal(t, StatusPresent, sheet.Students[1].Status, "unmarked students default to present")

	// With a section-scoped roster only that section appears.
	f.sections["c1|sec1"] = []Student{{ID: "s2", FullName: "Beth", RegistrationNumber: "R2"}}
	sheet, err = svc.Sheet(ctx, "teach1", "tt1", monday)
	require.NoError(t, err)
	require.Len(t, sheet.Students, 1)
	assert.Equal(t, "s2", sheet.Students[0].ID)
}

func TestTodaysSchedule(t *testing.T) {
	f := setupSlot(t)
	svc := NewService(f, 10, at(t, "09:05"))

	items, err := svc.TodaysSchedule(context.Background(), "teach1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].CanMark)
	assert.Equal(t, PhaseOpen, items[0].Phase)
	assert.Equal(t, 5, items[0].MinutesRemaining)

	// Slot times surface through the embedded timetable.
	body, err := json.Marshal(items[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"start_time":"09:00"`)
	assert.Contains(t, string(body), `"end_time":"10:30"`)
}

func TestStudentSummaryOverall(t *testing.T) {
	f := setupSlot(t)
	f.students["s1"] = Student{ID: "s1", FullName: "Ada", RegistrationNumber: "R1"}
	f.enrollments["s1"] = []Enrollment{
		{StudentID: "s1", CourseID: "c1", CourseCode: "CS101", CourseName: "Intro", IsActive: true},
	}
	f.records[recKey("s1", "c1", monday)] = Record{StudentID: "s1", CourseID: "c1", Date: monday, Status: StatusPresent}
	day2 := monday.AddDate(0, 0, 2)
	f.records[recKey("s1", "c1", day2)] = Record{StudentID: "s1", CourseID: "c1", Date: day2, Status: StatusAbsent}

	svc := NewService(f, 10, at(t, "12:00"))
	sum, err := svc.StudentSummary(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, sum.Courses, 1)
	assert.Equal(t, 2, sum.Courses[0].TotalClasses)
	assert.Equal(t, 50.0, sum.Courses[0].Percentage)
	assert.Equal(t, 50.0, sum.OverallPercentage)
}

func TestDailyAttendance(t *testing.T) {
	f := setupSlot(t)
	f.records[recKey("s1", "c1", monday)] = Record{StudentID: "s1", CourseID: "c1", Date: monday, Status: StatusPresent}
	f.records[recKey("s2", "c1", monday)] = Record{StudentID: "s2", CourseID: "c1", Date: monday, Status: StatusAbsent}

	svc := NewService(f, 10, at(t, "12:00"))
	view, err := svc.DailyAttendance(context.Background(), "c1", monday)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Summary.TotalClasses)
	assert.Equal(t, 1, view.Summary.PresentCount)
	assert.Equal(t, 1, view.Summary.AbsentCount)

	_, err = svc.DailyAttendance(context.Background(), "nope", monday)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistenceFailureWrapped(t *testing.T) {
	f := setupSlot(t)
	f.failStudent = "s1"
	svc := NewService(f, 10, at(t, "09:05"))
	err := svc.MarkBatch(context.Background(), "teach1", "tt1", monday, []Entry{{StudentID: "s1", Status: StatusPresent}})
	require.Error(t, err)
	var ne *NotEligibleError
	assert.False(t, errors.As(err, &ne), "a storage failure is not an eligibility failure")
}
