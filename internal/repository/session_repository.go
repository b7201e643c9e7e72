package repository

import (
	"interview_coach_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(session *model.InterviewSession) error {
	return r.DB.Create(session).Error
}

func (r *SessionRepository) FindByID(id uint) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.DB.First(&session, id).Error
	return &session, err
}

func (r *SessionRepository) FindByIDWithAttempts(id uint) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.DB.Preload("Attempts").First(&session, id).Error
	return &session, err
}

func (r *SessionRepository) ListByUser(userID uint, page, limit int) ([]model.InterviewSession, int64, error) {
	var sessions []model.InterviewSession
	var total int64

	q := r.DB.Model(&model.InterviewSession{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func (r *SessionRepository) Update(session *model.InterviewSession) error {
	return r.DB.Save(session).Error
}
