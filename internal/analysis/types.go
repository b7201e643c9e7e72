package analysis

import "errors"

// Modality 标识一个分析维度：姿态、语音、表情
type Modality string

const (
	ModalityPose  Modality = "pose"
	ModalityVoice Modality = "voice"
	ModalityFace  Modality = "face"
)

func AllModalities() []Modality {
	return []Modality{ModalityPose, ModalityVoice, ModalityFace}
}

func ParseModality(s string) (Modality, bool) {
	switch Modality(s) {
	case ModalityPose, ModalityVoice, ModalityFace:
		return Modality(s), true
	}
	return "", false
}

// ErrInsufficientSignal 特征帧数不足，无法给出可信分数
var ErrInsufficientSignal = errors.New("insufficient signal")

// FeatureFrame 某一时间戳上的模态特征采样，键名由各模态提取器约定
type FeatureFrame struct {
	Timestamp float64
	Values    map[string]float64
}

func (f FeatureFrame) Get(key string) (float64, bool) {
	v, ok := f.Values[key]
	return v, ok
}

// ProblemInterval 标记的问题时间区间 [start, end)，单位秒
type ProblemInterval struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Reason   string  `json:"reason"`
	Severity float64 `json:"severity,omitempty"`
}

// CategoryScore 分项得分及其等级
type CategoryScore struct {
	Value  float64 `json:"value"`
	Rating string  `json:"rating"`
}

// ModalityResult 单模态的完整打分结果，产出后不可变
type ModalityResult struct {
	OverallScore     float64                  `json:"overallScore"`
	Rating           string                   `json:"rating"`
	CategoryScores   map[string]CategoryScore `json:"categoryScores"`
	ProblemIntervals []ProblemInterval        `json:"problemIntervals"`
}

// Scorer 消费单模态特征帧序列并同步产出结果，不做任何I/O
type Scorer interface {
	Modality() Modality
	Score(frames []FeatureFrame) (*ModalityResult, error)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// bandScore 区间打分：落在 [lo, hi] 内得1，区间外按跨度线性衰减
func bandScore(x, lo, hi float64) float64 {
	if lo <= x && x <= hi {
		return 1.0
	}
	span := hi - lo
	if span < 1e-6 {
		span = 1e-6
	}
	var s float64
	if x < lo {
		s = 1.0 - (lo-x)/span
	} else {
		s = 1.0 - (x-hi)/span
	}
	return clamp01(s)
}
