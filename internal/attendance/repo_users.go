package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User is an account with a role claim.
type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	FullName           string     `json:"full_name"`
	RegistrationNumber *string    `json:"registration_number,omitempty"`
	Role               string     `json:"role"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

const userCols = `id, email, password_hash, full_name, registration_number, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName,
		&u.RegistrationNumber, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// CreateUser inserts a user; the caller supplies the bcrypt hash.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	u.ID = uuid.NewString()
	u.IsActive = true
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, registration_number, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, u.ID, u.Email, u.PasswordHash, u.FullName, u.RegistrationNumber, u.Role)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser returns a user by id.
func (r *Repository) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail returns an active user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1 AND is_active`, email))
}

// ListUsers returns users, optionally filtered by role.
func (r *Repository) ListUsers(ctx context.Context, role string) ([]User, error) {
	query := `SELECT ` + userCols + ` FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY full_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeactivateUser soft-deletes an account; its attendance history remains.
func (r *Repository) DeactivateUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	return err
}

// RefreshTokenValid reports whether a stored token is unrevoked and unexpired.
func (r *Repository) RefreshTokenValid(ctx context.Context, token string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE token = $1 AND NOT revoked AND expires_at > NOW()
		)
	`, token).Scan(&ok)
	return ok, err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

// CreateExportJob enqueues a report export request.
func (r *Repository) CreateExportJob(ctx context.Context, job ExportJob) (ExportJob, error) {
	job.ID = uuid.NewString()
	job.Status = ExportPending
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO export_jobs (id, course_id, requested_by, format, from_date, to_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, job.ID, job.CourseID, job.RequestedBy, job.Format, job.FromDate, job.ToDate, job.Status)
	if err := row.Scan(&job.CreatedAt); err != nil {
		return ExportJob{}, err
	}
	return job, nil
}

// GetExportJob returns a job by id.
func (r *Repository) GetExportJob(ctx context.Context, id string) (ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, requested_by, format, from_date, to_date, status, file_path, error, created_at, updated_at
		FROM export_jobs WHERE id = $1
	`, id)
	var job ExportJob
	err := row.Scan(&job.ID, &job.CourseID, &job.RequestedBy, &job.Format,
		&job.FromDate, &job.ToDate, &job.Status, &job.FilePath, &job.Error,
		&job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportJob{}, ErrNotFound
	}
	return job, err
}

// FinishExportJob records a job's terminal state.
func (r *Repository) FinishExportJob(ctx context.Context, id, status string, filePath, jobErr *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE export_jobs
		SET status = $2, file_path = COALESCE($3, file_path), error = $4, updated_at = NOW()
		WHERE id = $1
	`, id, status, filePath, jobErr)
	if err != nil {
		return err
	}
	return requireRow(res)
}
