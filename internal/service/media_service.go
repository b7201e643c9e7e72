package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"interview_coach_backend/internal/analysis"
	"interview_coach_backend/internal/extractor"
	"interview_coach_backend/internal/model"
	"interview_coach_backend/internal/repository"
	"interview_coach_backend/internal/util"
	"interview_coach_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MediaService 负责把某次作答的媒体定位并落地为本地文件，供特征提取使用
type MediaService struct {
	MediaRepo *repository.MediaAssetRepository
	Storage   *StorageService
	WorkDir   string
}

func NewMediaService(mediaRepo *repository.MediaAssetRepository, storage *StorageService, workDir string) *MediaService {
	return &MediaService{MediaRepo: mediaRepo, Storage: storage, WorkDir: workDir}
}

// LocateForModality 取该模态需要的媒体并下载到临时路径。
// 语音优先使用独立音频文件，缺省回退到视频抽音轨
func (s *MediaService) LocateForModality(ctx context.Context, attemptID uint, m analysis.Modality) (extractor.MediaHandle, error) {
	var asset *model.MediaAsset
	var err error

	if m == analysis.ModalityVoice {
		asset, err = s.MediaRepo.FindByAttemptAndKind(attemptID, model.MediaAudio)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			asset, err = s.MediaRepo.FindByAttemptAndKind(attemptID, model.MediaVideo)
		}
	} else {
		asset, err = s.MediaRepo.FindByAttemptAndKind(attemptID, model.MediaVideo)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return extractor.MediaHandle{}, fmt.Errorf("%w: attempt %d modality %s", util.ErrMediaNotFound, attemptID, m)
		}
		return extractor.MediaHandle{}, fmt.Errorf("%w: %v", util.ErrMediaUnavailable, err)
	}

	localPath := filepath.Join(s.WorkDir, uuid.New().String()+filepath.Ext(asset.ObjectKey))
	if err := s.Storage.Download(ctx, asset.ObjectKey, localPath); err != nil {
		logger.Log.Warn("媒体下载失败",
			zap.Uint("attemptID", attemptID),
			zap.String("objectKey", asset.ObjectKey),
			zap.Error(err))
		return extractor.MediaHandle{}, classifyStorageError(err, asset.ObjectKey)
	}

	return extractor.MediaHandle{
		Path:    localPath,
		Cleanup: func() { os.Remove(localPath) },
	}, nil
}

// classifyStorageError 区分对象不存在与存储后端故障
func classifyStorageError(err error, objectKey string) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", util.ErrMediaNotFound, objectKey)
	}
	if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return fmt.Errorf("%w: %s", util.ErrMediaNotFound, objectKey)
	}
	var ossErr oss.ServiceError
	if errors.As(err, &ossErr) && ossErr.StatusCode == 404 {
		return fmt.Errorf("%w: %s", util.ErrMediaNotFound, objectKey)
	}
	return fmt.Errorf("%w: %v", util.ErrMediaUnavailable, err)
}
