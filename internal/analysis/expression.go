package analysis

import (
	"fmt"

	"interview_coach_backend/internal/config"
)

// 表情特征键，由人脸提取器输出（基线由提取器在前2秒标定）
const (
	KeyGazeOff    = "gaze_off"    // 视线相对画面中心的水平偏移（绝对值）
	KeyEAR        = "ear"         // 眼睛纵横比
	KeyEARBase    = "ear_base"    // 该帧对应的EAR基线
	KeyMouthDelta = "mouth_delta" // 嘴角相对基线的垂直位移
)

const (
	ReasonGazeAway      = "gaze-away"
	ReasonEyesClosed    = "eyes-closed"
	ReasonMouthDownturn = "mouth-downturn"
)

// ExpressionScorer 表情打分：视线接触、眨眼频率、嘴部状态三个分项
type ExpressionScorer struct {
	cfg       config.ExpressionConfig
	minFrames int
	detector  IntervalDetector
	rater     *RatingMapper
}

func NewExpressionScorer(cfg config.ExpressionConfig, minFrames int, detector IntervalDetector, rater *RatingMapper) *ExpressionScorer {
	return &ExpressionScorer{cfg: cfg, minFrames: minFrames, detector: detector, rater: rater}
}

func (s *ExpressionScorer) Modality() Modality { return ModalityFace }

func (s *ExpressionScorer) eyesClosed(f FeatureFrame) bool {
	ear, ok1 := f.Get(KeyEAR)
	base, ok2 := f.Get(KeyEARBase)
	return ok1 && ok2 && base > 0 && ear < base*s.cfg.BlinkRatio
}

func (s *ExpressionScorer) Score(frames []FeatureFrame) (*ModalityResult, error) {
	if len(frames) < s.minFrames {
		return nil, fmt.Errorf("%w: face frames %d < %d", ErrInsufficientSignal, len(frames), s.minFrames)
	}

	var gazeOK, mouthOK, blinks int
	prevClosed := false
	for _, f := range frames {
		if g, ok := f.Get(KeyGazeOff); ok && g <= s.cfg.GazeOffAbs {
			gazeOK++
		}
		if m, ok := f.Get(KeyMouthDelta); ok && m <= s.cfg.MouthDelta {
			mouthOK++
		}
		closed := s.eyesClosed(f)
		if closed && !prevClosed {
			blinks++
		}
		prevClosed = closed
	}

	n := float64(len(frames))
	gazeScore := clampScore(float64(gazeOK) / n * 100)
	mouthScore := clampScore(float64(mouthOK) / n * 100)

	// 眨眼频率换算到每分钟，超限后线性扣减
	duration := frames[len(frames)-1].Timestamp - frames[0].Timestamp
	blinkScore := 100.0
	if duration > 0 {
		rate := float64(blinks) / duration * 60
		if rate > s.cfg.BlinkLimit {
			blinkScore = clampScore((1 - (rate-s.cfg.BlinkLimit)/s.cfg.BlinkLimit) * 100)
		}
	}

	overall := clampScore(gazeScore*s.cfg.GazeWeight + blinkScore*s.cfg.BlinkWeight + mouthScore*s.cfg.MouthWeight)

	intervals := s.detector.Detect(frames, ReasonGazeAway, func(_ int, f FeatureFrame) (bool, float64) {
		g, ok := f.Get(KeyGazeOff)
		return ok && g > s.cfg.GazeOffAbs, g - s.cfg.GazeOffAbs
	})
	// 持续闭眼（而非正常眨眼）由最短时长过滤保证
	intervals = append(intervals, s.detector.Detect(frames, ReasonEyesClosed, func(_ int, f FeatureFrame) (bool, float64) {
		return s.eyesClosed(f), 1
	})...)
	intervals = append(intervals, s.detector.Detect(frames, ReasonMouthDownturn, func(_ int, f FeatureFrame) (bool, float64) {
		m, ok := f.Get(KeyMouthDelta)
		return ok && m > s.cfg.MouthDelta, m - s.cfg.MouthDelta
	})...)

	return &ModalityResult{
		OverallScore: overall,
		Rating:       s.rater.Map(overall),
		CategoryScores: map[string]CategoryScore{
			"gaze":  {Value: gazeScore, Rating: s.rater.Map(gazeScore)},
			"blink": {Value: blinkScore, Rating: s.rater.Map(blinkScore)},
			"mouth": {Value: mouthScore, Rating: s.rater.Map(mouthScore)},
		},
		ProblemIntervals: intervals,
	}, nil
}
