package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"interview_coach_backend/internal/analysis"
	"interview_coach_backend/internal/config"
	"interview_coach_backend/internal/extractor"
	"interview_coach_backend/internal/model"
	"interview_coach_backend/internal/util"
	"interview_coach_backend/pkg/logger"
	"interview_coach_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TriggerOutcome 触发分析的受理结果
type TriggerOutcome string

const (
	TriggerAccepted   TriggerOutcome = "accepted"    // 已受理，开始新一轮分析
	TriggerCached     TriggerOutcome = "cached"      // 已有就绪结果，直接复用
	TriggerInProgress TriggerOutcome = "in_progress" // 已有分析在跑，不重复受理
)

// FeedbackStore 反馈记录的持久化依赖
type FeedbackStore interface {
	FindByAttemptID(attemptID uint) (*model.FeedbackRecord, error)
	Create(record *model.FeedbackRecord) error
	Save(record *model.FeedbackRecord) error
	ListStaleAnalyzing(now time.Time, limit int) ([]model.FeedbackRecord, error)
	MarkFailed(id uint, reason string, deadline *time.Time) error
}

// AttemptStore 作答记录的查询依赖
type AttemptStore interface {
	FindByID(id uint) (*model.AnswerAttempt, error)
}

// MediaSource 把作答媒体落地为本地文件
type MediaSource interface {
	LocateForModality(ctx context.Context, attemptID uint, m analysis.Modality) (extractor.MediaHandle, error)
}

// AnswerCommenter 基于转写文本生成作答点评，失败不影响分析结果
type AnswerCommenter interface {
	CommentAnswer(ctx context.Context, question, sttText string) (string, error)
}

// FeedbackCache 就绪结果的读缓存，*redis.Client 即实现
type FeedbackCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// modalityOutcome 单模态分析的结果或失败原因
type modalityOutcome struct {
	result *analysis.ModalityResult
	err    error
}

// AnalysisService 多模态分析的聚合编排。
// 每个attempt同一时刻至多一轮分析在跑，锁由进程内inflight表保证；
// 分析在独立goroutine中执行，受RunTimeout约束，结果写回数据库并缓存
type AnalysisService struct {
	Store    FeedbackStore
	Attempts AttemptStore
	Media    MediaSource

	Extractors map[analysis.Modality]extractor.Extractor
	Commenter  AnswerCommenter
	Cache      FeedbackCache

	mu      sync.RWMutex
	cfg     config.AnalysisConfig
	scorers map[analysis.Modality]analysis.Scorer

	inflight sync.Map // attemptID -> struct{}
}

func NewAnalysisService(
	cfg config.AnalysisConfig,
	store FeedbackStore,
	attempts AttemptStore,
	media MediaSource,
	extractors map[analysis.Modality]extractor.Extractor,
	commenter AnswerCommenter,
	cache FeedbackCache,
) *AnalysisService {
	return &AnalysisService{
		Store:      store,
		Attempts:   attempts,
		Media:      media,
		Extractors: extractors,
		Commenter:  commenter,
		Cache:      cache,
		cfg:        cfg,
		scorers:    buildScorers(cfg),
	}
}

func buildScorers(cfg config.AnalysisConfig) map[analysis.Modality]analysis.Scorer {
	detector := analysis.IntervalDetector{
		MinDuration: cfg.MinIntervalSec,
		MergeGap:    cfg.MergeGapSec,
	}
	rater := analysis.NewRatingMapper([]analysis.RatingBand{
		{Min: cfg.RatingGood, Label: "good"},
		{Min: cfg.RatingAverage, Label: "average"},
		{Min: 0, Label: "poor"},
	})
	return map[analysis.Modality]analysis.Scorer{
		analysis.ModalityPose:  analysis.NewPoseScorer(cfg.Pose, cfg.MinFrames, detector, rater),
		analysis.ModalityVoice: analysis.NewVocalScorer(cfg.Vocal, cfg.MinFrames, detector, rater),
		analysis.ModalityFace:  analysis.NewExpressionScorer(cfg.Expression, cfg.MinFrames, detector, rater),
	}
}

// Reload 配置热更新回调，重建打分器。正在跑的分析沿用旧参数
func (s *AnalysisService) Reload(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Analysis
	s.scorers = buildScorers(cfg.Analysis)
	logger.Log.Info("分析参数已热更新")
}

func (s *AnalysisService) snapshot() (config.AnalysisConfig, map[analysis.Modality]analysis.Scorer) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.scorers
}

// Trigger 受理一次分析请求。
// 已有就绪结果且未强制时直接复用；同一attempt的并发触发只受理一次
func (s *AnalysisService) Trigger(ctx context.Context, attemptID uint, force bool) (TriggerOutcome, *model.FeedbackRecord, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrAttemptNotFound
		}
		return "", nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}

	record, err := s.Store.FindByAttemptID(attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = &model.FeedbackRecord{
			AttemptID: attemptID,
			Status:    model.FeedbackPending,
		}
		if err := s.Store.Create(record); err != nil {
			// 并发创建撞唯一索引时重读即可
			record, err = s.Store.FindByAttemptID(attemptID)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
			}
		}
	} else if err != nil {
		return "", nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}

	if record.Status == model.FeedbackReady && !force {
		return TriggerCached, record, nil
	}

	if _, loaded := s.inflight.LoadOrStore(attemptID, struct{}{}); loaded {
		return TriggerInProgress, record, nil
	}

	// 数据库里还挂着analyzing且未过期，说明别的实例在跑
	if record.Status == model.FeedbackAnalyzing && record.Deadline != nil && record.Deadline.After(time.Now()) {
		s.inflight.Delete(attemptID)
		return TriggerInProgress, record, nil
	}

	cfg, scorers := s.snapshot()

	deadline := time.Now().Add(cfg.RunTimeout + 30*time.Second)
	record.Status = model.FeedbackAnalyzing
	record.Deadline = &deadline
	if err := s.Store.Save(record); err != nil {
		s.inflight.Delete(attemptID)
		return "", nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	// 旧的就绪结果此刻已失效，先清缓存，避免轮询端读到过期版本
	s.invalidateCache(attemptID)

	// 返回副本，后台goroutine会继续写record
	accepted := *record
	go s.runAnalysis(attempt, record, cfg, scorers)

	logger.Log.Info("分析已受理",
		zap.Uint("attemptID", attemptID),
		zap.Bool("force", force))
	return TriggerAccepted, &accepted, nil
}

// runAnalysis 执行一轮完整分析。与请求生命周期解耦，只受RunTimeout约束
func (s *AnalysisService) runAnalysis(
	attempt *model.AnswerAttempt,
	record *model.FeedbackRecord,
	cfg config.AnalysisConfig,
	scorers map[analysis.Modality]analysis.Scorer,
) {
	defer s.inflight.Delete(attempt.ID)

	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	outcomes := make(map[analysis.Modality]modalityOutcome)
	var outMu sync.Mutex
	var wg sync.WaitGroup

	for m, ext := range s.Extractors {
		scorer, ok := scorers[m]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(m analysis.Modality, ext extractor.Extractor, scorer analysis.Scorer) {
			defer wg.Done()
			result, err := s.runModality(ctx, attempt.ID, m, ext, scorer, cfg)

			status := "ok"
			if err != nil {
				status = "error"
			}
			monitoring.AnalysisRuns.WithLabelValues(string(m), status).Inc()

			outMu.Lock()
			outcomes[m] = modalityOutcome{result: result, err: err}
			outMu.Unlock()
		}(m, ext, scorer)
	}
	wg.Wait()

	s.finishRun(attempt, record, outcomes, started)
}

// runModality 单模态：定位媒体、提取特征、打分
func (s *AnalysisService) runModality(
	ctx context.Context,
	attemptID uint,
	m analysis.Modality,
	ext extractor.Extractor,
	scorer analysis.Scorer,
	cfg config.AnalysisConfig,
) (*analysis.ModalityResult, error) {
	media, err := s.Media.LocateForModality(ctx, attemptID, m)
	if err != nil {
		return nil, err
	}
	defer media.Close()

	extractCtx, cancel := context.WithTimeout(ctx, cfg.ExtractTimeout)
	defer cancel()

	frames, err := ext.Extract(extractCtx, media)
	if err != nil {
		return nil, err
	}

	result, err := scorer.Score(frames)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("单模态分析完成",
		zap.Uint("attemptID", attemptID),
		zap.String("modality", string(m)),
		zap.Float64("score", result.OverallScore),
		zap.Int("intervals", len(result.ProblemIntervals)))
	return result, nil
}

// finishRun 聚合各模态结果并落库。部分成功按成功模态给出综合分；
// 全部失败置为failed。版本号无论成败都恰好加一
func (s *AnalysisService) finishRun(
	attempt *model.AnswerAttempt,
	record *model.FeedbackRecord,
	outcomes map[analysis.Modality]modalityOutcome,
	started time.Time,
) {
	var (
		sum      float64
		okCount  int
		failures []string
	)

	// 整体覆盖上一轮的结果，失败模态不保留旧数据
	record.Pose, record.Voice, record.Face = nil, nil, nil

	// 固定模态顺序，保证失败原因串稳定
	keys := make([]string, 0, len(outcomes))
	for m := range outcomes {
		keys = append(keys, string(m))
	}
	sort.Strings(keys)

	for _, k := range keys {
		m := analysis.Modality(k)
		o := outcomes[m]
		if o.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", m, o.err))
			continue
		}
		wrapped := model.ModalityResultJSON(*o.result)
		switch m {
		case analysis.ModalityPose:
			record.Pose = &wrapped
		case analysis.ModalityVoice:
			record.Voice = &wrapped
		case analysis.ModalityFace:
			record.Face = &wrapped
		}
		sum += o.result.OverallScore
		okCount++
	}

	record.FailureReason = strings.Join(failures, "; ")
	if okCount > 0 {
		composite := sum / float64(okCount)
		record.CompositeScore = &composite
		record.Status = model.FeedbackReady
	} else {
		record.CompositeScore = nil
		record.Status = model.FeedbackFailed
	}
	record.Version++
	record.Deadline = nil

	// 作答点评是附加项，失败只记日志
	if record.Status == model.FeedbackReady && s.Commenter != nil && attempt.SttText != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		comment, err := s.Commenter.CommentAnswer(ctx, attempt.Question, attempt.SttText)
		cancel()
		if err != nil {
			logger.Log.Warn("作答点评生成失败", zap.Uint("attemptID", attempt.ID), zap.Error(err))
		} else {
			record.Comment = comment
		}
	}

	if err := s.Store.Save(record); err != nil {
		logger.Log.Error("分析结果落库失败",
			zap.Uint("attemptID", attempt.ID),
			zap.Error(err))
		monitoring.AnalysisDuration.WithLabelValues("store_error").Observe(time.Since(started).Seconds())
		return
	}

	s.invalidateCache(attempt.ID)
	if record.Status == model.FeedbackReady {
		s.cacheRecord(record)
	}

	monitoring.AnalysisDuration.WithLabelValues(string(record.Status)).Observe(time.Since(started).Seconds())
	logger.Log.Info("分析完成",
		zap.Uint("attemptID", attempt.ID),
		zap.String("status", string(record.Status)),
		zap.Int("version", record.Version),
		zap.Int("okModalities", okCount),
		zap.Duration("elapsed", time.Since(started)))
}

// Fetch 查询某次作答的反馈记录，就绪结果优先走缓存
func (s *AnalysisService) Fetch(ctx context.Context, attemptID uint) (*model.FeedbackRecord, error) {
	if cached := s.loadCached(ctx, attemptID); cached != nil {
		return cached, nil
	}

	record, err := s.Store.FindByAttemptID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if _, aerr := s.Attempts.FindByID(attemptID); errors.Is(aerr, gorm.ErrRecordNotFound) {
				return nil, util.ErrAttemptNotFound
			}
			return nil, util.ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	return record, nil
}

// ReapStale 回收进程崩溃后滞留在analyzing的记录，由后台定时任务驱动
func (s *AnalysisService) ReapStale(ctx context.Context) {
	records, err := s.Store.ListStaleAnalyzing(time.Now(), 100)
	if err != nil {
		logger.Log.Warn("过期分析记录查询失败", zap.Error(err))
		return
	}
	for i := range records {
		r := &records[i]
		// 本进程还在跑的不回收
		if _, running := s.inflight.Load(r.AttemptID); running {
			continue
		}
		if err := s.Store.MarkFailed(r.ID, util.ErrAnalysisTimeout.Error(), nil); err != nil {
			logger.Log.Warn("过期分析记录回收失败",
				zap.Uint("attemptID", r.AttemptID),
				zap.Error(err))
			continue
		}
		s.invalidateCache(r.AttemptID)
		monitoring.AnalysisRuns.WithLabelValues("all", "reaped").Inc()
		logger.Log.Warn("已回收过期分析", zap.Uint("attemptID", r.AttemptID))
	}
}

func cacheKey(attemptID uint) string {
	return fmt.Sprintf("feedback:attempt:%d", attemptID)
}

func (s *AnalysisService) cacheRecord(record *model.FeedbackRecord) {
	if s.Cache == nil {
		return
	}
	cfg, _ := s.snapshot()
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Cache.Set(ctx, cacheKey(record.AttemptID), data, cfg.CacheTTL).Err(); err != nil {
		logger.Log.Debug("反馈缓存写入失败", zap.Error(err))
	}
}

func (s *AnalysisService) loadCached(ctx context.Context, attemptID uint) *model.FeedbackRecord {
	if s.Cache == nil {
		return nil
	}
	data, err := s.Cache.Get(ctx, cacheKey(attemptID)).Bytes()
	if err != nil {
		return nil
	}
	var record model.FeedbackRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}
	return &record
}

func (s *AnalysisService) invalidateCache(attemptID uint) {
	if s.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Cache.Del(ctx, cacheKey(attemptID))
}
