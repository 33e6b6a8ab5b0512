package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/metrics"
)

func (a *API) todaysSchedule(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	items, err := a.svc.TodaysSchedule(c.Request.Context(), claims.Subject)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": items, "window_minutes": a.svc.WindowMinutes()})
}

func (a *API) roster(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	sheet, err := a.svc.Sheet(c.Request.Context(), claims.Subject, c.Param("id"), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

type markRequest struct {
	Date    string             `json:"date" binding:"required"`
	Entries []attendance.Entry `json:"entries" binding:"required,min=1"`
}

func (a *API) markAttendance(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "date and at least one entry required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		badRequest(c, "invalid date: want YYYY-MM-DD")
		return
	}

	if err := a.svc.MarkBatch(c.Request.Context(), claims.Subject, c.Param("id"), date, req.Entries); err != nil {
		fail(c, err)
		return
	}
	for _, e := range req.Entries {
		metrics.MarksRecorded.WithLabelValues(string(e.Status)).Inc()
	}
	c.JSON(http.StatusOK, gin.H{"marked": len(req.Entries), "date": req.Date})
}

// courseAccess gates course-scoped reads: admins pass, teachers need an
// active assignment for the course. Writes the error response on failure.
func (a *API) courseAccess(c *gin.Context, courseID string) bool {
	claims, _ := auth.FromContext(c)
	if claims.Role == attendance.RoleAdmin {
		return true
	}
	if err := a.svc.AuthorizeCourse(c.Request.Context(), claims.Subject, courseID); err != nil {
		fail(c, err)
		return false
	}
	return true
}

func (a *API) dailyAttendance(c *gin.Context) {
	if !a.courseAccess(c, c.Param("id")) {
		return
	}
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	view, err := a.svc.DailyAttendance(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) rangeAttendance(c *gin.Context) {
	if !a.courseAccess(c, c.Param("id")) {
		return
	}
	from, ok := requiredDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := requiredDateParam(c, "to")
	if !ok {
		return
	}
	if to.Before(from) {
		badRequest(c, "to must not precede from")
		return
	}
	records, err := a.svc.RangeRecords(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

func (a *API) courseReport(c *gin.Context) {
	if !a.courseAccess(c, c.Param("id")) {
		return
	}
	from, ok := requiredDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := requiredDateParam(c, "to")
	if !ok {
		return
	}
	rep, err := a.svc.CourseReport(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (a *API) studentSummary(c *gin.Context) {
	summary, err := a.svc.StudentSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
