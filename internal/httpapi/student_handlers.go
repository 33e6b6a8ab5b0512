package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/auth"
)

func (a *API) mySummary(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	summary, err := a.svc.StudentSummary(c.Request.Context(), claims.Subject)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type enrollRequest struct {
	SectionID *string `json:"section_id"`
}

func (a *API) selfEnroll(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	var req enrollRequest
	_ = c.ShouldBindJSON(&req)

	courseID := c.Param("id")
	if _, err := a.repo.GetCourse(c.Request.Context(), courseID); err != nil {
		fail(c, err)
		return
	}
	if err := a.repo.Enroll(c.Request.Context(), claims.Subject, courseID, req.SectionID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"enrolled": courseID})
}

func (a *API) listCourses(c *gin.Context) {
	courses, err := a.repo.ListCourses(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}
