package analysis

import (
	"fmt"
	"math"

	"interview_coach_backend/internal/config"
)

// 姿态特征键，由姿态提取器约定（归一化图像坐标，y向下增大）
const (
	KeyShoulderLX = "shoulder_l_x"
	KeyShoulderLY = "shoulder_l_y"
	KeyShoulderLV = "shoulder_l_v"
	KeyShoulderRX = "shoulder_r_x"
	KeyShoulderRY = "shoulder_r_y"
	KeyShoulderRV = "shoulder_r_v"
	KeyNoseX      = "nose_x"
	KeyNoseV      = "nose_v"
	KeyWristLY    = "wrist_l_y"
	KeyWristLV    = "wrist_l_v"
	KeyWristRY    = "wrist_r_y"
	KeyWristRV    = "wrist_r_v"
)

// 问题区间reason码
const (
	ReasonShoulderTension = "shoulder-tension"
	ReasonHeadTilt        = "head-tilt"
	ReasonHandPosition    = "hand-position"
)

// 单帧得分低于此值才计入问题区间
const problemScoreFloor = 0.9

// PoseScorer 姿态打分：肩部水平、头部偏移、手部位置三个分项
type PoseScorer struct {
	cfg       config.PoseConfig
	minFrames int
	detector  IntervalDetector
	rater     *RatingMapper
}

func NewPoseScorer(cfg config.PoseConfig, minFrames int, detector IntervalDetector, rater *RatingMapper) *PoseScorer {
	return &PoseScorer{cfg: cfg, minFrames: minFrames, detector: detector, rater: rater}
}

func (s *PoseScorer) Modality() Modality { return ModalityPose }

// 单帧扣分：偏差不超过阈值得满分，超出部分按斜率线性扣减
func scoreFromDiff(diff, threshold, slope float64) float64 {
	if diff <= threshold {
		return 1.0
	}
	return math.Max(1.0-(diff-threshold)*slope, 0)
}

func (s *PoseScorer) Score(frames []FeatureFrame) (*ModalityResult, error) {
	if len(frames) < s.minFrames {
		return nil, fmt.Errorf("%w: pose frames %d < %d", ErrInsufficientSignal, len(frames), s.minFrames)
	}

	visible := func(f FeatureFrame, vKey string) bool {
		v, ok := f.Get(vKey)
		return ok && v >= s.cfg.VisibilityMin
	}

	var shoulderSum, headSum, handSum float64
	shoulderDiffs := make([]float64, len(frames))
	headDiffs := make([]float64, len(frames))
	handDiffs := make([]float64, len(frames))

	for i, f := range frames {
		// 肩部：左右肩y差。不可见时回退到阈值本身（不扣分也不加分）
		shoulderDiff := s.cfg.ShoulderThreshold
		if visible(f, KeyShoulderLV) && visible(f, KeyShoulderRV) {
			ly, _ := f.Get(KeyShoulderLY)
			ry, _ := f.Get(KeyShoulderRY)
			shoulderDiff = math.Abs(ly - ry)
		}
		shoulderSum += scoreFromDiff(shoulderDiff, s.cfg.ShoulderThreshold, s.cfg.Slope)
		shoulderDiffs[i] = shoulderDiff

		// 头部：鼻尖相对双肩中点的水平偏移
		headDiff := s.cfg.HeadThreshold
		if visible(f, KeyNoseV) && visible(f, KeyShoulderLV) && visible(f, KeyShoulderRV) {
			nx, _ := f.Get(KeyNoseX)
			lx, _ := f.Get(KeyShoulderLX)
			rx, _ := f.Get(KeyShoulderRX)
			headDiff = math.Abs(nx - (lx+rx)/2)
		}
		headSum += scoreFromDiff(headDiff, s.cfg.HeadThreshold, s.cfg.Slope)
		headDiffs[i] = headDiff

		// 手部：手腕高于肩（y更小）视为偏差
		handDiff := 0.0
		if visible(f, KeyWristLV) && visible(f, KeyWristRV) && visible(f, KeyShoulderLV) && visible(f, KeyShoulderRV) {
			ly, _ := f.Get(KeyShoulderLY)
			ry, _ := f.Get(KeyShoulderRY)
			lw, _ := f.Get(KeyWristLY)
			rw, _ := f.Get(KeyWristRY)
			handDiff = math.Max(ly-lw, ry-rw)
			if handDiff < 0 {
				handDiff = 0
			}
		}
		handScore := 1.0
		if handDiff > 0 {
			handScore = math.Max(1.0-handDiff*s.cfg.Slope, 0)
		}
		handSum += handScore
		handDiffs[i] = handDiff
	}

	n := float64(len(frames))
	shoulderScore := clampScore(shoulderSum / n * 100)
	headScore := clampScore(headSum / n * 100)
	handScore := clampScore(handSum / n * 100)

	overall := clampScore(shoulderScore*s.cfg.ShoulderWeight + headScore*s.cfg.HeadWeight + handScore*s.cfg.HandWeight)

	// 只有单帧得分跌破下限的帧才算问题帧，刚过阈值的轻微偏差不标记
	overLimit := func(diffs []float64, threshold float64) func(int, FeatureFrame) (bool, float64) {
		limit := threshold + (1-problemScoreFloor)/s.cfg.Slope
		return func(i int, _ FeatureFrame) (bool, float64) {
			return diffs[i] > limit, diffs[i] - limit
		}
	}
	intervals := s.detector.Detect(frames, ReasonShoulderTension, overLimit(shoulderDiffs, s.cfg.ShoulderThreshold))
	intervals = append(intervals, s.detector.Detect(frames, ReasonHeadTilt, overLimit(headDiffs, s.cfg.HeadThreshold))...)
	intervals = append(intervals, s.detector.Detect(frames, ReasonHandPosition, overLimit(handDiffs, 0))...)

	return &ModalityResult{
		OverallScore: overall,
		Rating:       s.rater.Map(overall),
		CategoryScores: map[string]CategoryScore{
			"shoulder":  {Value: shoulderScore, Rating: s.rater.Map(shoulderScore)},
			"head_tilt": {Value: headScore, Rating: s.rater.Map(headScore)},
			"hand":      {Value: handScore, Rating: s.rater.Map(handScore)},
		},
		ProblemIntervals: intervals,
	}, nil
}
