package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/config"
	"classtrack/internal/httpmiddleware"
	"classtrack/internal/queue"
	"classtrack/internal/store"
)

// API wires handlers to their collaborators.
type API struct {
	cfg  config.App
	repo *attendance.Repository
	svc  *attendance.Service
	q    queue.Queue
	db   *store.DB
	rdb  *store.Redis
}

// New creates the API.
func New(cfg config.App, repo *attendance.Repository, svc *attendance.Service, q queue.Queue, db *store.DB, rdb *store.Redis) *API {
	return &API{cfg: cfg, repo: repo, svc: svc, q: q, db: db, rdb: rdb}
}

// Router builds the gin engine with the full middleware chain and routes.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())

	var limiter httpmiddleware.Limiter
	if a.cfg.QueueBackend == "memory" {
		limiter = httpmiddleware.NewTokenBucket(a.cfg.RateLimitPerMin, a.cfg.RateLimitPerMin)
	} else {
		limiter = httpmiddleware.NewRedisWindow(a.rdb.Client, a.cfg.RateLimitPerMin)
	}
	r.Use(httpmiddleware.RateLimit(limiter))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", a.health)

	r.POST("/v1/auth/login", a.login)
	r.POST("/v1/auth/refresh", a.refresh)

	authed := r.Group("/v1", auth.Middleware(a.cfg.JWTSigningKey, a.cfg.JWTIssuer))

	teachers := authed.Group("", auth.RequireRole(attendance.RoleTeacher, attendance.RoleAdmin))
	{
		teachers.GET("/schedule/today", a.todaysSchedule)
		teachers.GET("/timetables/:id/roster", a.roster)
		teachers.POST("/timetables/:id/attendance", a.markAttendance)
		teachers.GET("/courses/:id/attendance", a.dailyAttendance)
		teachers.GET("/courses/:id/attendance/range", a.rangeAttendance)
		teachers.GET("/courses/:id/report", a.courseReport)
		teachers.POST("/courses/:id/report/export", a.requestExport)
		teachers.GET("/exports/:id", a.exportStatus)
		teachers.GET("/exports/:id/download", a.downloadExport)
		teachers.GET("/students/:id/summary", a.studentSummary)
	}

	students := authed.Group("", auth.RequireRole(attendance.RoleStudent))
	{
		students.GET("/me/summary", a.mySummary)
		students.POST("/courses/:id/enroll", a.selfEnroll)
	}

	authed.GET("/courses", a.listCourses)

	admin := authed.Group("/admin", auth.RequireRole(attendance.RoleAdmin))
	{
		admin.POST("/users", a.createUser)
		admin.GET("/users", a.listUsers)
		admin.DELETE("/users/:id", a.deactivateUser)

		admin.POST("/courses", a.createCourse)
		admin.PUT("/courses/:id", a.updateCourse)
		admin.DELETE("/courses/:id", a.deactivateCourse)

		admin.POST("/sections", a.createSection)
		admin.GET("/sections", a.listSections)
		admin.DELETE("/sections/:id", a.deactivateSection)

		admin.POST("/sessions", a.createSession)
		admin.GET("/sessions", a.listSessions)
		admin.DELETE("/sessions/:id", a.deactivateSession)

		admin.POST("/timetables", a.createTimetable)
		admin.GET("/courses/:id/timetables", a.listCourseTimetables)
		admin.DELETE("/timetables/:id", a.deactivateTimetable)

		admin.POST("/assignments", a.assignTeacher)
		admin.DELETE("/assignments", a.revokeTeacher)

		admin.POST("/enrollments", a.adminEnroll)
		admin.DELETE("/enrollments", a.adminUnenroll)
	}

	return r
}

func (a *API) health(c *gin.Context) {
	redisHealthy := a.rdb.Healthy(c.Request.Context())
	dbHealthy := a.db != nil && a.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// CORS middleware for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
