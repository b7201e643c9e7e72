package analysis

import (
	"fmt"
	"math"

	"interview_coach_backend/internal/config"
)

// 语音特征键，由语音提取器按分析窗输出
const (
	KeyPitchSt      = "pitch_st"      // 音高（半音，未发声时为0）
	KeyVoiced       = "voiced"        // 是否发声 0/1
	KeyPause        = "pause"         // 是否静默 0/1
	KeySyllableRate = "syllable_rate" // 局部语速（音节/秒）
)

const (
	ReasonSpeechFast  = "speech-too-fast"
	ReasonSpeechSlow  = "speech-too-slow"
	ReasonLongPause   = "long-pause"
	ReasonVocalTremor = "vocal-tremor"
)

// VocalScorer 语音打分：语调变化、语速、停顿占比三个分项
type VocalScorer struct {
	cfg       config.VocalConfig
	minFrames int
	detector  IntervalDetector
	rater     *RatingMapper
}

func NewVocalScorer(cfg config.VocalConfig, minFrames int, detector IntervalDetector, rater *RatingMapper) *VocalScorer {
	return &VocalScorer{cfg: cfg, minFrames: minFrames, detector: detector, rater: rater}
}

func (s *VocalScorer) Modality() Modality { return ModalityVoice }

func (s *VocalScorer) Score(frames []FeatureFrame) (*ModalityResult, error) {
	if len(frames) < s.minFrames {
		return nil, fmt.Errorf("%w: voice frames %d < %d", ErrInsufficientSignal, len(frames), s.minFrames)
	}

	var (
		pitches   []float64
		rateSum   float64
		voicedCnt int
		pauseCnt  int
	)
	// 相邻发声帧的音高抖动，用于颤音区间检测
	jitter := make([]float64, len(frames))
	lastPitch := math.NaN()

	for i, f := range frames {
		voiced, _ := f.Get(KeyVoiced)
		if voiced >= 0.5 {
			voicedCnt++
			if p, ok := f.Get(KeyPitchSt); ok {
				pitches = append(pitches, p)
				if !math.IsNaN(lastPitch) {
					jitter[i] = math.Abs(p - lastPitch)
				}
				lastPitch = p
			}
			if r, ok := f.Get(KeySyllableRate); ok {
				rateSum += r
			}
		} else {
			lastPitch = math.NaN()
		}
		if p, _ := f.Get(KeyPause); p >= 0.5 {
			pauseCnt++
		}
	}

	pitchVar := stddev(pitches)
	speechRate := 0.0
	if voicedCnt > 0 {
		speechRate = rateSum / float64(voicedCnt)
	}
	pauseRatio := float64(pauseCnt) / float64(len(frames))

	toneScore := clampScore(bandScore(pitchVar, s.cfg.PitchVarLo, s.cfg.PitchVarHi) * 100)
	paceScore := clampScore(bandScore(speechRate, s.cfg.SpeechLo, s.cfg.SpeechHi) * 100)
	pauseScore := clampScore(bandScore(pauseRatio, s.cfg.PauseLo, s.cfg.PauseHi) * 100)
	// 冷场过半不再按带宽衰减，停顿分项直接归零
	if pauseRatio > s.cfg.PauseHigh {
		pauseScore = 0
	}

	overall := clampScore(toneScore*s.cfg.ToneWeight + paceScore*s.cfg.PaceWeight + pauseScore*s.cfg.PauseWeight)

	intervals := s.detector.Detect(frames, ReasonSpeechFast, func(i int, f FeatureFrame) (bool, float64) {
		v, _ := f.Get(KeyVoiced)
		r, _ := f.Get(KeySyllableRate)
		return v >= 0.5 && r > s.cfg.SpeechFast, r - s.cfg.SpeechFast
	})
	intervals = append(intervals, s.detector.Detect(frames, ReasonSpeechSlow, func(i int, f FeatureFrame) (bool, float64) {
		v, _ := f.Get(KeyVoiced)
		r, _ := f.Get(KeySyllableRate)
		return v >= 0.5 && r > 0 && r < s.cfg.SpeechSlow, s.cfg.SpeechSlow - r
	})...)
	intervals = append(intervals, s.detector.Detect(frames, ReasonLongPause, func(i int, f FeatureFrame) (bool, float64) {
		p, _ := f.Get(KeyPause)
		return p >= 0.5, 1
	})...)
	intervals = append(intervals, s.detector.Detect(frames, ReasonVocalTremor, func(i int, _ FeatureFrame) (bool, float64) {
		return jitter[i] > s.cfg.TremorLimit, jitter[i] - s.cfg.TremorLimit
	})...)

	return &ModalityResult{
		OverallScore: overall,
		Rating:       s.rater.Map(overall),
		CategoryScores: map[string]CategoryScore{
			"tone":  {Value: toneScore, Rating: s.rater.Map(toneScore)},
			"pace":  {Value: paceScore, Rating: s.rater.Map(paceScore)},
			"pause": {Value: pauseScore, Rating: s.rater.Map(pauseScore)},
		},
		ProblemIntervals: intervals,
	}, nil
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}
