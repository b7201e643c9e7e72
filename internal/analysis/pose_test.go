package analysis

import (
	"errors"
	"math"
	"testing"

	"interview_coach_backend/internal/config"
)

func testPoseScorer() *PoseScorer {
	cfg := config.PoseConfig{
		ShoulderThreshold: 0.04399,
		HeadThreshold:     0.01017,
		Slope:             5.0,
		VisibilityMin:     0.5,
		ShoulderWeight:    0.34,
		HeadWeight:        0.33,
		HandWeight:        0.33,
	}
	return NewPoseScorer(cfg, 10, IntervalDetector{MinDuration: 1.0, MergeGap: 1.0}, DefaultRatingMapper())
}

// shoulderDiff 为左右肩y差，其余关键点摆成标准姿态
func poseFrame(ts, shoulderDiff float64) FeatureFrame {
	ly := 0.5 + shoulderDiff
	return frameAt(ts, map[string]float64{
		KeyShoulderLX: 0.4, KeyShoulderLY: ly, KeyShoulderLV: 0.9,
		KeyShoulderRX: 0.6, KeyShoulderRY: 0.5, KeyShoulderRV: 0.9,
		KeyNoseX: 0.5, KeyNoseV: 0.9,
		KeyWristLY: 0.8, KeyWristLV: 0.9,
		KeyWristRY: 0.8, KeyWristRV: 0.9,
	})
}

// 帧数不足时返回信号不足错误，不给分
func TestPoseScorerInsufficientSignal(t *testing.T) {
	s := testPoseScorer()
	_, err := s.Score([]FeatureFrame{poseFrame(0, 0), poseFrame(0.1, 0)})
	if !errors.Is(err, ErrInsufficientSignal) {
		t.Fatalf("err = %v, 期望 ErrInsufficientSignal", err)
	}
}

// 标准姿态得满分，无问题区间
func TestPoseScorerPerfectPosture(t *testing.T) {
	s := testPoseScorer()
	var frames []FeatureFrame
	for ts := 0.0; ts < 10.0; ts += 0.1 {
		frames = append(frames, poseFrame(ts, 0))
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	if got.OverallScore != 100 {
		t.Errorf("OverallScore = %v, 期望 100", got.OverallScore)
	}
	if got.Rating != "good" {
		t.Errorf("Rating = %q, 期望 good", got.Rating)
	}
	if len(got.ProblemIntervals) != 0 {
		t.Errorf("问题区间 = %+v, 期望为空", got.ProblemIntervals)
	}
	for name, cs := range got.CategoryScores {
		if cs.Value != 100 {
			t.Errorf("分项 %s = %v, 期望 100", name, cs.Value)
		}
	}
}

// 两段耸肩间隙0.3秒，应合并为一个shoulder-tension区间
func TestPoseScorerShoulderTensionIntervals(t *testing.T) {
	s := testPoseScorer()
	var frames []FeatureFrame
	for ts := 0.0; ts <= 20.0+1e-9; ts += 0.1 {
		diff := 0.0
		if (ts >= 5.0-1e-9 && ts <= 12.0+1e-9) || (ts >= 12.3-1e-9 && ts <= 15.0+1e-9) {
			diff = 0.1
		}
		frames = append(frames, poseFrame(ts, diff))
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	if len(got.ProblemIntervals) != 1 {
		t.Fatalf("问题区间数 = %d, 期望 1: %+v", len(got.ProblemIntervals), got.ProblemIntervals)
	}
	iv := got.ProblemIntervals[0]
	if iv.Reason != ReasonShoulderTension {
		t.Errorf("Reason = %q, 期望 %q", iv.Reason, ReasonShoulderTension)
	}
	if math.Abs(iv.Start-5.0) > 1e-6 || math.Abs(iv.End-15.0) > 1e-6 {
		t.Errorf("区间 = [%v, %v), 期望 [5.0, 15.0)", iv.Start, iv.End)
	}
	if got.OverallScore >= 100 {
		t.Errorf("OverallScore = %v, 耸肩时段应扣分", got.OverallScore)
	}
	if got.CategoryScores["shoulder"].Value >= got.CategoryScores["head_tilt"].Value {
		t.Errorf("shoulder分项应低于head_tilt: %+v", got.CategoryScores)
	}
}

// 刚过阈值的轻微偏差扣分但不标记问题区间
func TestPoseScorerMarginalFramesNotFlagged(t *testing.T) {
	s := testPoseScorer()
	var frames []FeatureFrame
	for ts := 0.0; ts < 10.0; ts += 0.1 {
		// 单帧得分0.95，高于问题帧下限
		frames = append(frames, poseFrame(ts, s.cfg.ShoulderThreshold+0.01))
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	if len(got.ProblemIntervals) != 0 {
		t.Errorf("问题区间 = %+v, 轻微偏差不应标记", got.ProblemIntervals)
	}
	if v := got.CategoryScores["shoulder"].Value; v >= 100 || v < 90 {
		t.Errorf("shoulder = %v, 期望在 [90, 100) 区间内扣分", v)
	}
}

// 关键点不可见的帧不扣分
func TestPoseScorerIgnoresInvisibleLandmarks(t *testing.T) {
	s := testPoseScorer()
	var frames []FeatureFrame
	for ts := 0.0; ts < 5.0; ts += 0.1 {
		f := poseFrame(ts, 0.2)
		f.Values[KeyShoulderLV] = 0.1 // 左肩不可见，肩部偏差无法测量
		frames = append(frames, f)
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	if got.CategoryScores["shoulder"].Value != 100 {
		t.Errorf("shoulder = %v, 不可见帧应回退为满分", got.CategoryScores["shoulder"].Value)
	}
}
