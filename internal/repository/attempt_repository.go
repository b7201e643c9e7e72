package repository

import (
	"interview_coach_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.AnswerAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.AnswerAttempt, error) {
	var attempt model.AnswerAttempt
	err := r.DB.First(&attempt, id).Error
	return &attempt, err
}

func (r *AttemptRepository) FindByIDWithMedia(id uint) (*model.AnswerAttempt, error) {
	var attempt model.AnswerAttempt
	err := r.DB.Preload("Media").First(&attempt, id).Error
	return &attempt, err
}

func (r *AttemptRepository) ListBySession(sessionID uint) ([]model.AnswerAttempt, error) {
	var attempts []model.AnswerAttempt
	err := r.DB.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) Update(attempt *model.AnswerAttempt) error {
	return r.DB.Save(attempt).Error
}
