package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/queue"
)

type exportRequest struct {
	Format string `json:"format" binding:"required,oneof=xlsx pdf"`
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
}

// requestExport enqueues an asynchronous report export and returns the job.
func (a *API) requestExport(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	if !a.courseAccess(c, c.Param("id")) {
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "format (xlsx or pdf), from and to are required")
		return
	}
	from, err := parseDate(req.From)
	if err != nil {
		badRequest(c, "invalid from: want YYYY-MM-DD")
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		badRequest(c, "invalid to: want YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		badRequest(c, "to must not precede from")
		return
	}
	courseID := c.Param("id")
	if _, err := a.repo.GetCourse(c.Request.Context(), courseID); err != nil {
		fail(c, err)
		return
	}

	job, err := a.repo.CreateExportJob(c.Request.Context(), attendance.ExportJob{
		CourseID:    courseID,
		RequestedBy: claims.Subject,
		Format:      req.Format,
		FromDate:    from,
		ToDate:      to,
	})
	if err != nil {
		fail(c, err)
		return
	}

	body, _ := json.Marshal(gin.H{"job_id": job.ID})
	if err := a.q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeExport, Body: body}); err != nil {
		reason := "queue unavailable"
		_ = a.repo.FinishExportJob(c.Request.Context(), job.ID, attendance.ExportFailed, nil, &reason)
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (a *API) exportStatus(c *gin.Context) {
	job, err := a.loadOwnExport(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, job)
}

func (a *API) downloadExport(c *gin.Context) {
	job, err := a.loadOwnExport(c)
	if err != nil {
		return
	}
	if job.Status != attendance.ExportDone || job.FilePath == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "export not ready", "status": job.Status})
		return
	}

	// File paths are worker-generated, but reject anything that escapes the
	// export directory.
	name := filepath.Base(*job.FilePath)
	if strings.Contains(name, "..") {
		fail(c, attendance.ErrNotFound)
		return
	}
	c.FileAttachment(filepath.Join(a.cfg.ExportDir, name), name)
}

// loadOwnExport fetches a job and enforces that only the requester or an
// admin may see it. On failure the response is already written.
func (a *API) loadOwnExport(c *gin.Context) (attendance.ExportJob, error) {
	claims, _ := auth.FromContext(c)
	job, err := a.repo.GetExportJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return attendance.ExportJob{}, err
	}
	if job.RequestedBy != claims.Subject && claims.Role != attendance.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your export"})
		return attendance.ExportJob{}, attendance.ErrUnauthorized
	}
	return job, nil
}
