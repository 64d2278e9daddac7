package queue

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/pkg/logger"
)

// FailedJob is a job that ran out of attempts.
type FailedJob struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	JobType  string    `gorm:"size:255;not null;index" json:"job_type"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"not null;index" json:"failed_at"`
}

func (FailedJob) TableName() string { return "failed_jobs" }

func (m *Manager) recordFailure(ctx context.Context, jobType string, payload []byte, cause error, attempts int) {
	if m.failed == nil {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	rec := FailedJob{
		JobType:  jobType,
		Payload:  string(payload),
		Error:    msg,
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	}
	if err := m.failed.WithContext(ctx).Create(&rec).Error; err != nil {
		logger.WithCtx(ctx).Error("queue: persist failed job", "type", jobType, "error", err)
	}
}

// ListFailed returns the most recent failures first.
func ListFailed(ctx context.Context, db *gorm.DB, limit int) ([]FailedJob, error) {
	var out []FailedJob
	err := db.WithContext(ctx).Order("failed_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// PruneFailed deletes failures older than ttl and reports how many went.
func PruneFailed(ctx context.Context, db *gorm.DB, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	res := db.WithContext(ctx).Where("failed_at < ?", cutoff).Delete(&FailedJob{})
	return res.RowsAffected, res.Error
}
