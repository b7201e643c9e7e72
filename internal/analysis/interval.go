package analysis

// IntervalDetector 在特征帧序列上检测问题区间。
// 连续越界帧构成一个run；时长不足 MinDuration 的run被丢弃；
// 相邻run之间的间隙小于 MergeGap 时合并为一个区间（滞回，避免抖动）。
type IntervalDetector struct {
	MinDuration float64
	MergeGap    float64
}

// Detect 对每帧调用 bad 判定，返回区间 [firstBad.Timestamp, lastBad.Timestamp)。
// bad 的第二个返回值为越界幅度，区间 Severity 取run内最大值。
func (d IntervalDetector) Detect(frames []FeatureFrame, reason string, bad func(i int, f FeatureFrame) (bool, float64)) []ProblemInterval {
	var runs []ProblemInterval
	inRun := false
	var cur ProblemInterval

	for i, f := range frames {
		isBad, magnitude := bad(i, f)
		if isBad {
			if !inRun {
				inRun = true
				cur = ProblemInterval{Start: f.Timestamp, End: f.Timestamp, Reason: reason, Severity: magnitude}
			} else {
				cur.End = f.Timestamp
				if magnitude > cur.Severity {
					cur.Severity = magnitude
				}
			}
			continue
		}
		if inRun {
			runs = append(runs, cur)
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, cur)
	}

	// 先按最短时长过滤，再做间隙合并
	qualified := runs[:0]
	for _, r := range runs {
		if r.End-r.Start >= d.MinDuration {
			qualified = append(qualified, r)
		}
	}

	var merged []ProblemInterval
	for _, r := range qualified {
		if n := len(merged); n > 0 && r.Start-merged[n-1].End < d.MergeGap {
			merged[n-1].End = r.End
			if r.Severity > merged[n-1].Severity {
				merged[n-1].Severity = r.Severity
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
