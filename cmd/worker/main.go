package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"classtrack/internal/attendance"
	"classtrack/internal/config"
	"classtrack/internal/metrics"
	"classtrack/internal/notify"
	"classtrack/internal/queue"
	"classtrack/internal/report"
	"classtrack/internal/store"
)

// Worker consumes export jobs, renders report files, and sends low-attendance
// alerts for the students flagged by the report.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classtrack:exports")
	}

	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo, cfg.MarkingWindowMin, nil)
	alerts := notify.New(cfg.NotifyURL, cfg.NotifySkip)

	if !cfg.NotifySkip {
		if err := alerts.Health(ctx); err != nil {
			log.Printf("WARNING: notify service not available: %v", err)
			log.Println("Worker will retry alerts when exports arrive")
		} else {
			log.Println("Notify service connected")
		}
	}

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		log.Fatalf("create export dir: %v", err)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeExport {
			continue
		}

		var payload struct {
			JobID string `json:"job_id"`
		}
		if err := json.Unmarshal(msg.Body, &payload); err != nil || payload.JobID == "" {
			log.Printf("malformed export message: %q", msg.Body)
			continue
		}
		processExport(ctx, repo, svc, alerts, cfg.ExportDir, payload.JobID)
	}

	log.Println("worker stopped")
}

func processExport(ctx context.Context, repo *attendance.Repository, svc *attendance.Service, alerts *notify.Client, exportDir, jobID string) {
	log.Printf("processing export %s", jobID)

	job, err := repo.GetExportJob(ctx, jobID)
	if err != nil {
		log.Printf("fetch export %s failed: %v", jobID, err)
		return
	}
	if job.Status != attendance.ExportPending {
		log.Printf("export %s already %s, skipping", jobID, job.Status)
		return
	}

	rep, err := svc.CourseReport(ctx, job.CourseID, job.FromDate, job.ToDate)
	if err != nil {
		failJob(ctx, repo, job, err)
		return
	}

	name := fmt.Sprintf("report-%s-%s.%s", rep.Course.Code, job.ID[:8], job.Format)
	path := filepath.Join(exportDir, name)
	f, err := os.Create(path)
	if err != nil {
		failJob(ctx, repo, job, err)
		return
	}

	switch job.Format {
	case "pdf":
		err = report.WritePDF(f, rep, job.FromDate, job.ToDate)
	default:
		err = report.WriteExcel(f, rep, job.FromDate, job.ToDate)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		failJob(ctx, repo, job, err)
		return
	}

	if err := repo.FinishExportJob(ctx, job.ID, attendance.ExportDone, &name, nil); err != nil {
		log.Printf("finish export %s failed: %v", job.ID, err)
		return
	}
	metrics.ExportJobs.WithLabelValues(job.Format, "done").Inc()
	log.Printf("export %s written to %s", job.ID, path)

	for _, row := range rep.Rows {
		if row.Band != attendance.BandCritical {
			continue
		}
		err := alerts.Send(ctx, notify.Alert{
			StudentID:   row.ID,
			StudentName: row.FullName,
			CourseCode:  rep.Course.Code,
			Percentage:  row.Percentage,
			Band:        row.Band,
		})
		if err != nil {
			log.Printf("alert for student %s failed: %v", row.ID, err)
		}
	}
}

func failJob(ctx context.Context, repo *attendance.Repository, job attendance.ExportJob, cause error) {
	log.Printf("export %s failed: %v", job.ID, cause)
	msg := cause.Error()
	if err := repo.FinishExportJob(ctx, job.ID, attendance.ExportFailed, nil, &msg); err != nil {
		log.Printf("mark export %s failed: %v", job.ID, err)
	}
	metrics.ExportJobs.WithLabelValues(job.Format, "failed").Inc()
}
