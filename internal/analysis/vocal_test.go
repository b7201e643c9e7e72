package analysis

import (
	"errors"
	"testing"

	"interview_coach_backend/internal/config"
)

func testVocalScorer() *VocalScorer {
	cfg := config.VocalConfig{
		PitchVarLo: 1.2, PitchVarHi: 4.0,
		SpeechLo: 3.5, SpeechHi: 5.0,
		SpeechFast: 6.1, SpeechSlow: 2.6,
		PauseLo: 0.15, PauseHi: 0.35, PauseHigh: 0.5,
		TremorLimit: 0.6,
		ToneWeight: 0.4, PaceWeight: 0.3, PauseWeight: 0.3,
	}
	return NewVocalScorer(cfg, 10, IntervalDetector{MinDuration: 1.0, MergeGap: 1.0}, DefaultRatingMapper())
}

func voicedFrame(ts, pitch, rate float64) FeatureFrame {
	return frameAt(ts, map[string]float64{
		KeyVoiced: 1, KeyPause: 0, KeyPitchSt: pitch, KeySyllableRate: rate,
	})
}

func pauseFrame(ts float64) FeatureFrame {
	return frameAt(ts, map[string]float64{KeyVoiced: 0, KeyPause: 1})
}

func TestVocalScorerInsufficientSignal(t *testing.T) {
	s := testVocalScorer()
	_, err := s.Score([]FeatureFrame{voicedFrame(0, 60, 4)})
	if !errors.Is(err, ErrInsufficientSignal) {
		t.Fatalf("err = %v, 期望 ErrInsufficientSignal", err)
	}
}

// 语速、停顿、音高变化都落在目标区间内得满分
func TestVocalScorerBalancedDelivery(t *testing.T) {
	s := testVocalScorer()
	var frames []FeatureFrame
	ts := 0.0
	pitch := 57.0
	// 9帧发声+3帧短停顿为一个周期，停顿占比0.25；音高缓慢爬升避免抖动
	for cycle := 0; cycle < 8; cycle++ {
		for i := 0; i < 9; i++ {
			frames = append(frames, voicedFrame(ts, pitch, 4.2))
			pitch += 0.08
			ts += 0.2
		}
		for i := 0; i < 3; i++ {
			frames = append(frames, pauseFrame(ts))
			ts += 0.2
		}
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
}

// 持续2秒的静默应产出long-pause区间
func TestVocalScorerLongPauseInterval(t *testing.T) {
	s := testVocalScorer()
	var frames []FeatureFrame
	ts := 0.0
	pitch := 58.0
	add := func(n int, pause bool) {
		for i := 0; i < n; i++ {
			if pause {
				frames = append(frames, pauseFrame(ts))
			} else {
				frames = append(frames, voicedFrame(ts, pitch, 4.0))
				pitch += 0.1
			}
			ts += 0.2
		}
	}
	add(30, false)
	add(11, true) // 2.0秒静默
	add(30, false)

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	var pauses []ProblemInterval
	for _, iv := range got.ProblemIntervals {
		if iv.Reason == ReasonLongPause {
			pauses = append(pauses, iv)
		}
	}
	if len(pauses) != 1 {
		t.Fatalf("long-pause区间数 = %d, 期望 1: %+v", len(pauses), got.ProblemIntervals)
	}
	if pauses[0].End-pauses[0].Start < 1.5 {
		t.Errorf("long-pause时长 = %v, 期望约2秒", pauses[0].End-pauses[0].Start)
	}
}

// 停顿占比超过冷场上限时停顿分项直接归零，而不是按带宽缓慢衰减
func TestVocalScorerExcessivePause(t *testing.T) {
	s := testVocalScorer()
	var frames []FeatureFrame
	ts := 0.0
	pitch := 58.0
	// 23帧发声 + 25帧静默，停顿占比约0.52，略超上限0.5
	for i := 0; i < 23; i++ {
		frames = append(frames, voicedFrame(ts, pitch, 4.0))
		pitch += 0.15
		ts += 0.2
	}
	for i := 0; i < 25; i++ {
		frames = append(frames, pauseFrame(ts))
		ts += 0.2
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	if got.CategoryScores["pause"].Value != 0 {
		t.Errorf("pause = %v, 冷场过半应为 0", got.CategoryScores["pause"].Value)
	}
	if got.CategoryScores["pause"].Rating != "poor" {
		t.Errorf("pause评级 = %q, 期望 poor", got.CategoryScores["pause"].Rating)
	}
}

// 语速持续超过上限应产出speech-too-fast区间并拉低pace分项
func TestVocalScorerFastSpeech(t *testing.T) {
	s := testVocalScorer()
	var frames []FeatureFrame
	pitch := 58.0
	for ts := 0.0; ts < 12.0; ts += 0.2 {
		rate := 4.0
		if ts >= 4.0 && ts < 8.0 {
			rate = 7.5
		}
		frames = append(frames, voicedFrame(ts, pitch, rate))
		pitch += 0.05
	}

	got, err := s.Score(frames)
	if err != nil {
		t.Fatalf("Score 失败: %v", err)
	}
	found := false
	for _, iv := range got.ProblemIntervals {
		if iv.Reason == ReasonSpeechFast {
			found = true
		}
	}
	if !found {
		t.Errorf("未检出speech-too-fast区间: %+v", got.ProblemIntervals)
	}
	if got.CategoryScores["pace"].Value >= 100 {
		t.Errorf("pace = %v, 期望低于100", got.CategoryScores["pace"].Value)
	}
}
