package attendance

import (
	"context"

	"github.com/google/uuid"
)

// Administrative CRUD. Rows are deactivated, never deleted, so history stays
// queryable after a course or user is retired.

// CreateCourse inserts a course and returns it with id and timestamps set.
func (r *Repository) CreateCourse(ctx context.Context, c Course) (Course, error) {
	c.ID = uuid.NewString()
	c.IsActive = true
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO courses (id, code, name, description, credit_hours, semester, academic_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, c.ID, c.Code, c.Name, c.Description, c.CreditHours, c.Semester, c.AcademicYear)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Course{}, err
	}
	return c, nil
}

// UpdateCourse overwrites a course's editable fields.
func (r *Repository) UpdateCourse(ctx context.Context, c Course) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses
		SET code = $2, name = $3, description = $4, credit_hours = $5,
		    semester = $6, academic_year = $7, updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Code, c.Name, c.Description, c.CreditHours, c.Semester, c.AcademicYear)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeactivateCourse soft-deletes a course.
func (r *Repository) DeactivateCourse(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListCourses returns courses, optionally only active ones.
func (r *Repository) ListCourses(ctx context.Context, activeOnly bool) ([]Course, error) {
	query := `
		SELECT id, code, name, COALESCE(description, ''), credit_hours, semester,
		       academic_year, is_active, created_at, updated_at
		FROM courses`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.CreditHours,
			&c.Semester, &c.AcademicYear, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateSection inserts a section.
func (r *Repository) CreateSection(ctx context.Context, s Section) (Section, error) {
	s.ID = uuid.NewString()
	s.IsActive = true
	if s.MaxCapacity <= 0 {
		s.MaxCapacity = 50
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sections (id, name, description, max_capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, s.ID, s.Name, s.Description, s.MaxCapacity)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return Section{}, err
	}
	return s, nil
}

// ListSections returns all sections.
func (r *Repository) ListSections(ctx context.Context) ([]Section, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), max_capacity, is_active, created_at
		FROM sections ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Section
	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.MaxCapacity, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeactivateSection soft-deletes a section.
func (r *Repository) DeactivateSection(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sections SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CreateSession inserts an academic session. Marking it current clears the
// flag on every other session.
func (r *Repository) CreateSession(ctx context.Context, s Session) (Session, error) {
	s.ID = uuid.NewString()
	s.IsActive = true
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	if s.IsCurrent {
		if _, err := tx.ExecContext(ctx, `UPDATE academic_sessions SET is_current = FALSE`); err != nil {
			return Session{}, err
		}
	}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO academic_sessions (id, name, start_date, end_date, is_current)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, s.ID, s.Name, s.StartDate, s.EndDate, s.IsCurrent)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return Session{}, err
	}
	return s, tx.Commit()
}

// ListSessions returns all academic sessions, newest first.
func (r *Repository) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, is_current, is_active, created_at
		FROM academic_sessions ORDER BY start_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.IsCurrent, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeactivateSession soft-deletes a session.
func (r *Repository) DeactivateSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE academic_sessions SET is_active = FALSE, is_current = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CreateTimetable inserts a weekly slot.
func (r *Repository) CreateTimetable(ctx context.Context, tt Timetable) (Timetable, error) {
	tt.ID = uuid.NewString()
	tt.IsActive = true
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO timetables (id, course_id, section_id, teacher_id, day_of_week, start_time, end_time, room)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, tt.ID, tt.CourseID, tt.SectionID, tt.TeacherID, int(tt.DayOfWeek),
		tt.StartTime.String(), tt.EndTime.String(), tt.Room)
	if err := row.Scan(&tt.CreatedAt); err != nil {
		return Timetable{}, err
	}
	return tt, nil
}

// ListCourseTimetables returns all slots for a course.
func (r *Repository) ListCourseTimetables(ctx context.Context, courseID string) ([]Timetable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+timetableCols+`
		FROM timetables t
		JOIN courses c ON c.id = t.course_id
		JOIN sections s ON s.id = t.section_id
		WHERE t.course_id = $1
		ORDER BY t.day_of_week, t.start_time
	`, courseID)
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

// DeactivateTimetable soft-deletes a slot.
func (r *Repository) DeactivateTimetable(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE timetables SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AssignTeacher grants (or reactivates) a teaching assignment.
func (r *Repository) AssignTeacher(ctx context.Context, teacherID, courseID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teacher_courses (id, teacher_id, course_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (teacher_id, course_id) DO UPDATE SET is_active = TRUE
	`, uuid.NewString(), teacherID, courseID)
	return err
}

// RevokeTeacher deactivates a teaching assignment.
func (r *Repository) RevokeTeacher(ctx context.Context, teacherID, courseID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE teacher_courses SET is_active = FALSE
		WHERE teacher_id = $1 AND course_id = $2
	`, teacherID, courseID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Enroll adds (or reactivates) a student's course membership.
func (r *Repository) Enroll(ctx context.Context, studentID, courseID string, sectionID *string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, student_id, course_id, section_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
			is_active = TRUE,
			section_id = COALESCE(EXCLUDED.section_id, enrollments.section_id)
	`, uuid.NewString(), studentID, courseID, sectionID)
	return err
}

// Unenroll deactivates a student's course membership.
func (r *Repository) Unenroll(ctx context.Context, studentID, courseID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE enrollments SET is_active = FALSE
		WHERE student_id = $1 AND course_id = $2
	`, studentID, courseID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
