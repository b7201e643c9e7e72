package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"interview_coach_backend/internal/model"
	"interview_coach_backend/internal/repository"
	"interview_coach_backend/internal/util"
	"interview_coach_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InterviewService 面试会话与作答的业务逻辑
type InterviewService struct {
	SessionRepo *repository.SessionRepository
	AttemptRepo *repository.AttemptRepository
	MediaRepo   *repository.MediaAssetRepository
	Storage     *StorageService
	WorkDir     string
}

func NewInterviewService(
	sessionRepo *repository.SessionRepository,
	attemptRepo *repository.AttemptRepository,
	mediaRepo *repository.MediaAssetRepository,
	storage *StorageService,
	workDir string,
) *InterviewService {
	return &InterviewService{
		SessionRepo: sessionRepo,
		AttemptRepo: attemptRepo,
		MediaRepo:   mediaRepo,
		Storage:     storage,
		WorkDir:     workDir,
	}
}

func (s *InterviewService) CreateSession(userID uint, title, position string) (*model.InterviewSession, error) {
	session := &model.InterviewSession{
		UserID:   userID,
		Title:    title,
		Position: position,
		Status:   model.SessionActive,
	}
	if err := s.SessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *InterviewService) ListSessions(userID uint, page, limit int) ([]model.InterviewSession, int64, error) {
	return s.SessionRepo.ListByUser(userID, page, limit)
}

func (s *InterviewService) GetSession(userID, sessionID uint) (*model.InterviewSession, error) {
	session, err := s.SessionRepo.FindByIDWithAttempts(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return session, nil
}

func (s *InterviewService) FinishSession(userID, sessionID uint) error {
	session, err := s.GetSession(userID, sessionID)
	if err != nil {
		return err
	}
	session.Status = model.SessionFinished
	return s.SessionRepo.Update(session)
}

func (s *InterviewService) CreateAttempt(userID, sessionID uint, question string) (*model.AnswerAttempt, error) {
	session, err := s.GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	attempt := &model.AnswerAttempt{
		SessionID: session.ID,
		UserID:    userID,
		Question:  question,
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *InterviewService) GetAttempt(userID, attemptID uint) (*model.AnswerAttempt, error) {
	attempt, err := s.AttemptRepo.FindByIDWithMedia(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}

func (s *InterviewService) UpdateSttText(userID, attemptID uint, text string) error {
	attempt, err := s.GetAttempt(userID, attemptID)
	if err != nil {
		return err
	}
	attempt.SttText = text
	return s.AttemptRepo.Update(attempt)
}

// UploadMedia 接收作答录制文件：先落临时盘并计算sha256，
// 探测媒体元数据后再转存到对象存储
func (s *InterviewService) UploadMedia(
	ctx context.Context,
	userID, attemptID uint,
	kind model.MediaKind,
	fileName, mimeType string,
	src io.Reader,
) (*model.MediaAsset, error) {
	attempt, err := s.GetAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.WorkDir, 0755); err != nil {
		return nil, err
	}
	tmpPath := filepath.Join(s.WorkDir, uuid.New().String()+filepath.Ext(fileName))
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	tmp.Close()
	if err != nil {
		return nil, err
	}

	asset := &model.MediaAsset{
		AttemptID: attempt.ID,
		Kind:      kind,
		FileName:  fileName,
		MimeType:  mimeType,
		Size:      size,
		Sha256:    hex.EncodeToString(hasher.Sum(nil)),
	}

	// 视频/音频探测元数据，顺带校验文件本身可解
	if kind == model.MediaVideo || kind == model.MediaAudio {
		info, err := util.GetMediaInfo(tmpPath)
		if err != nil {
			return nil, fmt.Errorf("无法解析媒体文件: %v", err)
		}
		asset.Duration = info.Duration
		asset.Width = info.Width
		asset.Height = info.Height
		if attempt.Duration == 0 && info.Duration > 0 {
			attempt.Duration = info.Duration
			if err := s.AttemptRepo.Update(attempt); err != nil {
				logger.Log.Warn("作答时长回写失败", zap.Uint("attemptID", attempt.ID), zap.Error(err))
			}
		}
	}

	objectKey := fmt.Sprintf("attempts/%d/%s%s", attempt.ID, uuid.New().String(), filepath.Ext(fileName))
	if _, err := s.Storage.UploadFile(ctx, objectKey, tmpPath, mimeType); err != nil {
		return nil, err
	}
	asset.ObjectKey = objectKey

	if err := s.MediaRepo.Create(asset); err != nil {
		return nil, err
	}

	logger.Log.Info("作答媒体已上传",
		zap.Uint("attemptID", attempt.ID),
		zap.Int("kind", int(kind)),
		zap.Int64("size", size),
		zap.String("objectKey", objectKey))
	return asset, nil
}
