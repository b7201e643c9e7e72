package analysis

import (
	"math"
	"testing"
)

func frameAt(ts float64, values map[string]float64) FeatureFrame {
	return FeatureFrame{Timestamp: ts, Values: values}
}

// 按固定采样率生成帧，badRanges内的帧判为越界
func detectOnGrid(d IntervalDetector, fps float64, total float64, badRanges [][2]float64) []ProblemInterval {
	var frames []FeatureFrame
	step := 1.0 / fps
	for ts := 0.0; ts <= total+1e-9; ts += step {
		frames = append(frames, frameAt(ts, nil))
	}
	inBad := func(ts float64) bool {
		for _, r := range badRanges {
			if ts >= r[0]-1e-9 && ts <= r[1]+1e-9 {
				return true
			}
		}
		return false
	}
	return d.Detect(frames, "test", func(_ int, f FeatureFrame) (bool, float64) {
		return inBad(f.Timestamp), 1
	})
}

// 两段相邻问题区间，间隙小于合并容差时应合并为一段
func TestIntervalDetectorMergesCloseRuns(t *testing.T) {
	d := IntervalDetector{MinDuration: 1.0, MergeGap: 1.0}

	got := detectOnGrid(d, 10, 20, [][2]float64{{5.0, 12.0}, {12.3, 15.0}})
	if len(got) != 1 {
		t.Fatalf("区间数 = %d, 期望 1: %+v", len(got), got)
	}
	if math.Abs(got[0].Start-5.0) > 1e-6 || math.Abs(got[0].End-15.0) > 1e-6 {
		t.Errorf("区间 = [%v, %v), 期望 [5.0, 15.0)", got[0].Start, got[0].End)
	}
}

// 时长不足的run应被丢弃，不参与合并
func TestIntervalDetectorDropsShortRuns(t *testing.T) {
	d := IntervalDetector{MinDuration: 1.0, MergeGap: 1.0}

	got := detectOnGrid(d, 10, 20, [][2]float64{{3.0, 3.3}, {8.0, 10.0}})
	if len(got) != 1 {
		t.Fatalf("区间数 = %d, 期望 1: %+v", len(got), got)
	}
	if math.Abs(got[0].Start-8.0) > 1e-6 {
		t.Errorf("区间起点 = %v, 期望 8.0", got[0].Start)
	}
}

// 间隙达到容差的区间保持独立
func TestIntervalDetectorKeepsSeparateRuns(t *testing.T) {
	d := IntervalDetector{MinDuration: 1.0, MergeGap: 1.0}

	got := detectOnGrid(d, 10, 20, [][2]float64{{2.0, 4.0}, {8.0, 10.0}})
	if len(got) != 2 {
		t.Fatalf("区间数 = %d, 期望 2: %+v", len(got), got)
	}
}

// 无越界帧时返回空
func TestIntervalDetectorEmpty(t *testing.T) {
	d := IntervalDetector{MinDuration: 1.0, MergeGap: 1.0}
	got := detectOnGrid(d, 10, 5, nil)
	if len(got) != 0 {
		t.Errorf("区间数 = %d, 期望 0", len(got))
	}
}
