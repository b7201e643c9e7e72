package repository

import (
	"time"

	"interview_coach_backend/internal/model"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

func (r *FeedbackRepository) Create(record *model.FeedbackRecord) error {
	return r.DB.Create(record).Error
}

func (r *FeedbackRepository) FindByAttemptID(attemptID uint) (*model.FeedbackRecord, error) {
	var record model.FeedbackRecord
	err := r.DB.Where("attempt_id = ?", attemptID).First(&record).Error
	return &record, err
}

func (r *FeedbackRepository) Save(record *model.FeedbackRecord) error {
	return r.DB.Save(record).Error
}

// ListStaleAnalyzing 查找已过截止时间仍停留在analyzing的记录，供后台回收
func (r *FeedbackRepository) ListStaleAnalyzing(now time.Time, limit int) ([]model.FeedbackRecord, error) {
	var records []model.FeedbackRecord
	err := r.DB.Where("status = ? AND deadline IS NOT NULL AND deadline < ?", model.FeedbackAnalyzing, now).
		Limit(limit).
		Find(&records).Error
	return records, err
}

// MarkFailed 把记录置为失败终态并递增版本号
func (r *FeedbackRepository) MarkFailed(id uint, reason string, deadline *time.Time) error {
	updates := map[string]interface{}{
		"status":         model.FeedbackFailed,
		"failure_reason": reason,
		"version":        gorm.Expr("version + 1"),
		"deadline":       deadline,
	}
	return r.DB.Model(&model.FeedbackRecord{}).Where("id = ?", id).Updates(updates).Error
}
