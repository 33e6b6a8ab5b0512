package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
)

type userRequest struct {
	Email              string  `json:"email" binding:"required,email"`
	Password           string  `json:"password" binding:"required,min=8"`
	FullName           string  `json:"full_name" binding:"required"`
	RegistrationNumber *string `json:"registration_number"`
	Role               string  `json:"role" binding:"required,oneof=admin teacher student"`
}

func (a *API) createUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email, password (min 8), full_name and a valid role are required")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	user, err := a.repo.CreateUser(c.Request.Context(), attendance.User{
		Email:              req.Email,
		PasswordHash:       hash,
		FullName:           req.FullName,
		RegistrationNumber: req.RegistrationNumber,
		Role:               req.Role,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (a *API) listUsers(c *gin.Context) {
	users, err := a.repo.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a *API) deactivateUser(c *gin.Context) {
	if err := a.repo.DeactivateUser(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type courseRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	CreditHours  int    `json:"credit_hours"`
	Semester     string `json:"semester"`
	AcademicYear int    `json:"academic_year"`
}

func (a *API) createCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code and name are required")
		return
	}
	course, err := a.repo.CreateCourse(c.Request.Context(), attendance.Course{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		CreditHours:  req.CreditHours,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (a *API) updateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code and name are required")
		return
	}
	err := a.repo.UpdateCourse(c.Request.Context(), attendance.Course{
		ID:           c.Param("id"),
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		CreditHours:  req.CreditHours,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("id")})
}

func (a *API) deactivateCourse(c *gin.Context) {
	if err := a.repo.DeactivateCourse(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type sectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MaxCapacity int    `json:"max_capacity"`
}

func (a *API) createSection(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	section, err := a.repo.CreateSection(c.Request.Context(), attendance.Section{
		Name:        req.Name,
		Description: req.Description,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

func (a *API) listSections(c *gin.Context) {
	sections, err := a.repo.ListSections(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

func (a *API) deactivateSection(c *gin.Context) {
	if err := a.repo.DeactivateSection(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type sessionRequest struct {
	Name      string `json:"name" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	IsCurrent bool   `json:"is_current"`
}

func (a *API) createSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, start_date and end_date are required")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		badRequest(c, "invalid start_date: want YYYY-MM-DD")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		badRequest(c, "invalid end_date: want YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		badRequest(c, "end_date must not precede start_date")
		return
	}
	session, err := a.repo.CreateSession(c.Request.Context(), attendance.Session{
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		IsCurrent: req.IsCurrent,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (a *API) listSessions(c *gin.Context) {
	sessions, err := a.repo.ListSessions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (a *API) deactivateSession(c *gin.Context) {
	if err := a.repo.DeactivateSession(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type timetableRequest struct {
	CourseID  string `json:"course_id" binding:"required"`
	SectionID string `json:"section_id" binding:"required"`
	TeacherID string `json:"teacher_id" binding:"required"`
	DayOfWeek int    `json:"day_of_week" binding:"min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Room      string `json:"room"`
}

func (a *API) createTimetable(c *gin.Context) {
	var req timetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "course_id, section_id, teacher_id, day_of_week (0-6), start_time and end_time are required")
		return
	}
	start, err := attendance.ParseClock(req.StartTime)
	if err != nil {
		badRequest(c, "invalid start_time: want HH:MM")
		return
	}
	end, err := attendance.ParseClock(req.EndTime)
	if err != nil {
		badRequest(c, "invalid end_time: want HH:MM")
		return
	}
	if end <= start {
		badRequest(c, "end_time must be after start_time")
		return
	}
	tt, err := a.repo.CreateTimetable(c.Request.Context(), attendance.Timetable{
		CourseID:  req.CourseID,
		SectionID: req.SectionID,
		TeacherID: req.TeacherID,
		DayOfWeek: time.Weekday(req.DayOfWeek),
		StartTime: start,
		EndTime:   end,
		Room:      req.Room,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tt)
}

func (a *API) listCourseTimetables(c *gin.Context) {
	tts, err := a.repo.ListCourseTimetables(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timetables": tts})
}

func (a *API) deactivateTimetable(c *gin.Context) {
	if err := a.repo.DeactivateTimetable(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignmentRequest struct {
	TeacherID string `json:"teacher_id" binding:"required"`
	CourseID  string `json:"course_id" binding:"required"`
}

func (a *API) assignTeacher(c *gin.Context) {
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "teacher_id and course_id are required")
		return
	}
	if err := a.repo.AssignTeacher(c.Request.Context(), req.TeacherID, req.CourseID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assigned": req.CourseID})
}

func (a *API) revokeTeacher(c *gin.Context) {
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "teacher_id and course_id are required")
		return
	}
	if err := a.repo.RevokeTeacher(c.Request.Context(), req.TeacherID, req.CourseID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type enrollmentRequest struct {
	StudentID string  `json:"student_id" binding:"required"`
	CourseID  string  `json:"course_id" binding:"required"`
	SectionID *string `json:"section_id"`
}

func (a *API) adminEnroll(c *gin.Context) {
	var req enrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "student_id and course_id are required")
		return
	}
	if err := a.repo.Enroll(c.Request.Context(), req.StudentID, req.CourseID, req.SectionID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"enrolled": req.StudentID})
}

func (a *API) adminUnenroll(c *gin.Context) {
	var req enrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "student_id and course_id are required")
		return
	}
	if err := a.repo.Unenroll(c.Request.Context(), req.StudentID, req.CourseID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
