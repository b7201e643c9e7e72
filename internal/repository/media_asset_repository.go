package repository

import (
	"interview_coach_backend/internal/model"

	"gorm.io/gorm"
)

type MediaAssetRepository struct {
	DB *gorm.DB
}

func NewMediaAssetRepository(db *gorm.DB) *MediaAssetRepository {
	return &MediaAssetRepository{DB: db}
}

func (r *MediaAssetRepository) Create(asset *model.MediaAsset) error {
	return r.DB.Create(asset).Error
}

func (r *MediaAssetRepository) FindByID(id string) (*model.MediaAsset, error) {
	var asset model.MediaAsset
	err := r.DB.Where("id = ?", id).First(&asset).Error
	return &asset, err
}

func (r *MediaAssetRepository) ListByAttempt(attemptID uint) ([]model.MediaAsset, error) {
	var assets []model.MediaAsset
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&assets).Error
	return assets, err
}

// FindByAttemptAndKind 取某次作答指定类型的最新一份媒体
func (r *MediaAssetRepository) FindByAttemptAndKind(attemptID uint, kind model.MediaKind) (*model.MediaAsset, error) {
	var asset model.MediaAsset
	err := r.DB.Where("attempt_id = ? AND kind = ?", attemptID, kind).
		Order("created_at DESC").
		First(&asset).Error
	return &asset, err
}

func (r *MediaAssetRepository) Delete(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.MediaAsset{}).Error
}
