package analysis

import (
	"errors"
	"testing"

	"interview_coach_backend/internal/config"
)

func testExpressionScorer() *ExpressionScorer {
	cfg := config.ExpressionConfig{
		GazeOffAbs: 0.12, BlinkRatio: 0.75, BlinkLimit: 30, MouthDelta: 0.02,
		GazeWeight: 0.7, BlinkWeight: 0.2, MouthWeight: 0.1,
	}
	return NewExpressionScorer(cfg, 10, IntervalDetector{MinDuration: 1.0, MergeGap: 1.0}, DefaultRatingMapper())
}

func faceFrame(ts, gazeOff, ear, mouthDelta float64) FeatureFrame {
	return frameAt(ts, map[string]float64{
		KeyGazeOff: gazeOff, KeyEAR: ear, KeyEARBase: 0.3, KeyMouthDelta: mouthDelta,
	})
}

func TestExpressionScorerInsufficientSignal(t *testing.T) {
	s := testExpressionScorer()
	_, err := s.Score([]FeatureFrame{faceFrame(0, 0, 0.3, 0)})
	if !errors.Is(err, ErrInsufficientSignal) {
		t.Fatalf("err = %v, 期望 ErrInsufficientSignal", err)
	}
}

// 视线居中、正常眨眼、嘴部平稳得满分
func TestExpressionScorerSteadyFace(t *testing.T) {
	s := testExpressionScorer()
	var frames []FeatureFrame
	i := 0
	for ts := 0.0; ts < 12.0; ts += 0.1 {
		ear := 0.3
		// 每3秒一次单帧眨眼，折合20次/分钟
		if i%30 == 29 {
			ear = 0.1
		}
		frames = append(frames, faceFrame(ts, 0.02, ear, 0.005))
		i++
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	if got.OverallScore != 100 {
		t.Errorf("OverallScore = %v, 期望 100", got.OverallScore)
	}
	if len(got.ProblemIntervals) != 0 {
		t.Errorf("问题区间 = %+v, 期望为空", got.ProblemIntervals)
	}
	if got.CategoryScores["blink"].Value != 100 {
		t.Errorf("blink = %v, 期望 100", got.CategoryScores["blink"].Value)
	}
}

// 持续看向别处应产出gaze-away区间并拉低gaze分项
func TestExpressionScorerGazeAway(t *testing.T) {
	s := testExpressionScorer()
	var frames []FeatureFrame
	for ts := 0.0; ts < 10.0; ts += 0.1 {
		gaze := 0.02
		if ts >= 3.0 && ts < 6.0 {
			gaze = 0.25
		}
		frames = append(frames, faceFrame(ts, gaze, 0.3, 0.005))
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	var gazeIvs []ProblemInterval
	for _, iv := range got.ProblemIntervals {
		if iv.Reason == ReasonGazeAway {
			gazeIvs = append(gazeIvs, iv)
		}
	}
	if len(gazeIvs) != 1 {
		t.Fatalf("gaze-away区间数 = %d, 期望 1: %+v", len(gazeIvs), got.ProblemIntervals)
	}
	if got.CategoryScores["gaze"].Value >= 100 {
		t.Errorf("gaze = %v, 期望低于100", got.CategoryScores["gaze"].Value)
	}
	if got.OverallScore >= 100 {
		t.Errorf("OverallScore = %v, 期望低于100", got.OverallScore)
	}
}

// 频繁眨眼超出上限应拉低blink分项；单帧眨眼不构成闭眼区间
func TestExpressionScorerExcessiveBlinking(t *testing.T) {
	s := testExpressionScorer()
	var frames []FeatureFrame
	i := 0
	for ts := 0.0; ts < 12.0; ts += 0.1 {
		ear := 0.3
		// 每秒一次眨眼，折合60次/分钟，超出上限
		if i%10 == 9 {
			ear = 0.1
		}
		frames = append(frames, faceFrame(ts, 0.02, ear, 0.005))
		i++
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	if got.CategoryScores["blink"].Value >= 100 {
		t.Errorf("blink = %v, 期望低于100", got.CategoryScores["blink"].Value)
	}
	for _, iv := range got.ProblemIntervals {
		if iv.Reason == ReasonEyesClosed {
			t.Errorf("单帧眨眼不应产出eyes-closed区间: %+v", iv)
		}
	}
}
