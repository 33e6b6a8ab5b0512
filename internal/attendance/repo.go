package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const timetableCols = `
	t.id, t.course_id, t.section_id, t.teacher_id, t.day_of_week,
	t.start_time, t.end_time, COALESCE(t.room, ''), t.is_active,
	t.created_at, t.updated_at,
	c.code, c.name, s.name`

func scanTimetable(row interface{ Scan(...any) error }) (Timetable, error) {
	var tt Timetable
	var day int
	var start, end string
	if err := row.Scan(
		&tt.ID, &tt.CourseID, &tt.SectionID, &tt.TeacherID, &day,
		&start, &end, &tt.Room, &tt.IsActive,
		&tt.CreatedAt, &tt.UpdatedAt,
		&tt.CourseCode, &tt.CourseName, &tt.SectionName,
	); err != nil {
		return Timetable{}, err
	}
	tt.DayOfWeek = time.Weekday(day)
	var err error
	if tt.StartTime, err = ParseClock(start); err != nil {
		return Timetable{}, err
	}
	if tt.EndTime, err = ParseClock(end); err != nil {
		return Timetable{}, err
	}
	return tt, nil
}

// GetTimetable returns a single timetable slot with course/section names joined.
func (r *Repository) GetTimetable(ctx context.Context, id string) (Timetable, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+timetableCols+`
		FROM timetables t
		JOIN courses c ON c.id = t.course_id
		JOIN sections s ON s.id = t.section_id
		WHERE t.id = $1
	`, id)
	tt, err := scanTimetable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Timetable{}, ErrNotFound
	}
	return tt, err
}

// ListTeacherDay returns a teacher's active slots for one weekday, earliest first.
func (r *Repository) ListTeacherDay(ctx context.Context, teacherID string, day time.Weekday) ([]Timetable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+timetableCols+`
		FROM timetables t
		JOIN courses c ON c.id = t.course_id
		JOIN sections s ON s.id = t.section_id
		WHERE t.teacher_id = $1 AND t.day_of_week = $2 AND t.is_active
		ORDER BY t.start_time
	`, teacherID, int(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Timetable
	for rows.Next() {
		tt, err := scanTimetable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

// IsActiveTeacher reports whether the teacher holds an active assignment for the course.
func (r *Repository) IsActiveTeacher(ctx context.Context, teacherID, courseID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM teacher_courses
			WHERE teacher_id = $1 AND course_id = $2 AND is_active
		)
	`, teacherID, courseID).Scan(&ok)
	return ok, err
}

// SectionRoster lists active enrollees of a course limited to one section.
func (r *Repository) SectionRoster(ctx context.Context, courseID, sectionID string) ([]Student, error) {
	return r.roster(ctx, `
		SELECT u.id, u.full_name, COALESCE(u.registration_number, '')
		FROM enrollments e
		JOIN users u ON u.id = e.student_id
		WHERE e.course_id = $1 AND e.section_id = $2 AND e.is_active AND u.is_active
		ORDER BY u.registration_number
	`, courseID, sectionID)
}

// CourseRoster lists all active enrollees of a course.
func (r *Repository) CourseRoster(ctx context.Context, courseID string) ([]Student, error) {
	return r.roster(ctx, `
		SELECT u.id, u.full_name, COALESCE(u.registration_number, '')
		FROM enrollments e
		JOIN users u ON u.id = e.student_id
		WHERE e.course_id = $1 AND e.is_active AND u.is_active
		ORDER BY u.registration_number
	`, courseID)
}

func (r *Repository) roster(ctx context.Context, query string, args ...any) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.FullName, &st.RegistrationNumber); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

const recordCols = `id, student_id, course_id, timetable_id, marked_by, attendance_date, status, remarks, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.CourseID, &rec.TimetableID,
		&rec.MarkedBy, &rec.Date, &rec.Status, &rec.Remarks, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordsForDate returns all marks for a course on one date.
func (r *Repository) RecordsForDate(ctx context.Context, courseID string, date time.Time) ([]Record, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordCols+` FROM attendance_records
		WHERE course_id = $1 AND attendance_date = $2
	`, courseID, date)
}

// RecordsInRange returns a course's marks within [from, to].
func (r *Repository) RecordsInRange(ctx context.Context, courseID string, from, to time.Time) ([]Record, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordCols+` FROM attendance_records
		WHERE course_id = $1 AND attendance_date BETWEEN $2 AND $3
		ORDER BY attendance_date
	`, courseID, from, to)
}

// StudentCourseRecords returns one student's marks in one course, newest first.
func (r *Repository) StudentCourseRecords(ctx context.Context, studentID, courseID string) ([]Record, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordCols+` FROM attendance_records
		WHERE student_id = $1 AND course_id = $2
		ORDER BY attendance_date DESC
	`, studentID, courseID)
}

// ActiveEnrollments returns a student's active enrollments with course names joined.
func (r *Repository) ActiveEnrollments(ctx context.Context, studentID string) ([]Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.student_id, e.course_id, e.section_id, e.is_active, e.created_at, c.code, c.name
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.student_id = $1 AND e.is_active
		ORDER BY c.code
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.SectionID,
			&e.IsActive, &e.CreatedAt, &e.CourseCode, &e.CourseName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetStudent returns the roster view of a user.
func (r *Repository) GetStudent(ctx context.Context, id string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, COALESCE(registration_number, '')
		FROM users WHERE id = $1
	`, id)
	var st Student
	if err := row.Scan(&st.ID, &st.FullName, &st.RegistrationNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, err
	}
	return st, nil
}

// GetCourse returns a course by id.
func (r *Repository) GetCourse(ctx context.Context, id string) (Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, COALESCE(description, ''), credit_hours, semester,
		       academic_year, is_active, created_at, updated_at
		FROM courses WHERE id = $1
	`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.CreditHours,
		&c.Semester, &c.AcademicYear, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// UpsertBatch applies a marking batch in one transaction. Each record is
// keyed on (student_id, course_id, attendance_date): re-marking overwrites
// status and remarks in place. Any failure rolls back the whole batch.
func (r *Repository) UpsertBatch(ctx context.Context, records []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records
				(id, student_id, course_id, timetable_id, marked_by, attendance_date, status, remarks)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (student_id, course_id, attendance_date) DO UPDATE SET
				status = EXCLUDED.status,
				remarks = EXCLUDED.remarks,
				marked_by = EXCLUDED.marked_by,
				timetable_id = EXCLUDED.timetable_id,
				updated_at = NOW()
		`, rec.ID, rec.StudentID, rec.CourseID, rec.TimetableID,
			rec.MarkedBy, rec.Date, rec.Status, rec.Remarks); err != nil {
			return fmt.Errorf("upsert student %s: %w", rec.StudentID, err)
		}
	}
	return tx.Commit()
}
