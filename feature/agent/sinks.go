package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"inventory-agent/core/database"
	"inventory-agent/core/logger"
	"inventory-agent/core/reconcile"
	"inventory-agent/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LogSink writes a one-entry summary of every report.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs through l.
func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{logger: l}
}

func (s *LogSink) Name() string {
	return "log"
}

func (s *LogSink) Write(_ context.Context, r *Report) error {
	degraded := make([]string, 0)
	for _, a := range r.Adapters {
		if a.Degraded() {
			degraded = append(degraded, a.Name+"="+string(a.Status))
		}
	}
	fields := []zap.Field{
		zap.String("identity", r.Identity),
		zap.String("status", string(r.Status)),
		zap.String("state", string(r.State)),
		zap.Strings("degraded_adapters", degraded),
		zap.Int("operations", r.Summary.Total),
		zap.Int("applied", r.Count(reconcile.StatusApplied)),
		zap.Int("failed", r.Count(reconcile.StatusFailed)),
		zap.Int("skipped", r.Count(reconcile.StatusSkipped)),
		zap.Int("untouched", len(r.Untouched)),
		zap.Int64("duration_ms", r.DurationMS),
	}
	l := logger.WithRunID(s.logger, r.RunID)
	if r.Status == StatusCompleted {
		l.Info("Reconciliation run finished", fields...)
	} else {
		l.Warn("Reconciliation run finished", fields...)
	}
	return nil
}

// ReportRecord is an archived report row.
type ReportRecord struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string    `gorm:"column:run_id;type:varchar(36);uniqueIndex"`
	Identity   string    `gorm:"column:identity;type:varchar(191);index"`
	Status     string    `gorm:"column:status;type:varchar(32)"`
	Operations int       `gorm:"column:operations"`
	Failed     int       `gorm:"column:failed"`
	StartedAt  time.Time `gorm:"column:started_at"`
	FinishedAt time.Time `gorm:"column:finished_at"`
	Body       string    `gorm:"column:body;type:longtext"`
}

// TableName overrides the table name used by ReportRecord.
func (ReportRecord) TableName() string {
	return "agent_reports"
}

// archiveColumns are the columns the archive writes.
var archiveColumns = []string{"id", "run_id", "identity", "status", "operations", "failed", "started_at", "finished_at", "body"}

// ArchiveSink stores reports in the database.
type ArchiveSink struct {
	db *gorm.DB
}

// NewArchiveSink prepares the archive table. With migrate the table is
// created or updated; otherwise the existing table must already carry
// every archive column.
func NewArchiveSink(db *gorm.DB, migrate bool) (*ArchiveSink, error) {
	if db == nil {
		return nil, fmt.Errorf("archive requires a database connection")
	}
	if migrate {
		if err := db.AutoMigrate(&ReportRecord{}); err != nil {
			return nil, fmt.Errorf("failed to migrate report archive: %w", err)
		}
	} else {
		missing, err := database.MissingColumns(db, ReportRecord{}.TableName(), archiveColumns)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("report archive table is missing columns: %s", strings.Join(missing, ", "))
		}
	}
	return &ArchiveSink{db: db}, nil
}

func (s *ArchiveSink) Name() string {
	return "archive"
}

func (s *ArchiveSink) Write(ctx context.Context, r *Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	rec := ReportRecord{
		RunID:      r.RunID,
		Identity:   r.Identity,
		Status:     string(r.Status),
		Operations: r.Summary.Total,
		Failed:     r.Count(reconcile.StatusFailed) + r.Count(reconcile.StatusSkipped),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Body:       string(body),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to archive report %s: %w", r.RunID, err)
	}
	return nil
}

// UploadSink stores reports as JSON objects under
// <prefix>/<identity>/<timestamp>-<run id>.json and prunes old ones.
type UploadSink struct {
	client storage.Client
	bucket string
	prefix string
	keep   int
}

// NewUploadSink creates an upload sink. keep bounds the stored reports per
// device; zero keeps everything.
func NewUploadSink(client storage.Client, bucket, prefix string, keep int) *UploadSink {
	return &UploadSink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), keep: keep}
}

func (s *UploadSink) Name() string {
	return "upload"
}

// EnsureBucket creates the bucket when it does not exist.
func (s *UploadSink) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// ObjectName returns the key a report is stored under.
func (s *UploadSink) ObjectName(r *Report) string {
	identity := r.Identity
	if identity == "" {
		identity = "unresolved"
	}
	name := r.StartedAt.UTC().Format("20060102T150405Z") + "-" + r.RunID + ".json"
	return path.Join(s.prefix, identity, name)
}

func (s *UploadSink) Write(ctx context.Context, r *Report) error {
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	name := s.ObjectName(r)
	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload report %s: %w", name, err)
	}
	return s.prune(ctx, path.Dir(name)+"/")
}

// prune removes the oldest reports under dir beyond the keep limit.
// Object names sort chronologically.
func (s *UploadSink) prune(ctx context.Context, dir string) error {
	if s.keep <= 0 {
		return nil
	}
	var names []string
	var listErr error
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: dir}) {
		if obj.Err != nil {
			listErr = obj.Err
			continue
		}
		names = append(names, obj.Key)
	}
	if listErr != nil {
		return fmt.Errorf("failed to list reports: %w", listErr)
	}
	if len(names) <= s.keep {
		return nil
	}
	sort.Strings(names)

	stale := names[:len(names)-s.keep]
	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, name := range stale {
		objectsCh <- minio.ObjectInfo{Key: name}
	}
	close(objectsCh)

	var firstErr error
	for rErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to remove report %s: %w", rErr.ObjectName, rErr.Err)
		}
	}
	return firstErr
}
