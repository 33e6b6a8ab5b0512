package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarksRecorded counts attendance records written, labeled by status.
	MarksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_marks_recorded_total",
		Help: "Attendance records written, by status.",
	}, []string{"status"})

	// MarkRejections counts denied marking attempts, labeled by reason.
	MarkRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_mark_rejections_total",
		Help: "Marking attempts denied, by reason.",
	}, []string{"reason"})

	// ExportJobs counts report export jobs, labeled by format and outcome.
	ExportJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_export_jobs_total",
		Help: "Report export jobs processed, by format and outcome.",
	}, []string{"format", "outcome"})
)
