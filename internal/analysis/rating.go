package analysis

import "sort"

// RatingBand 一个评级档位，Min 为进入该档的最低分
type RatingBand struct {
	Min   float64
	Label string
}

// RatingMapper 把 0–100 分数映射为固定档位的等级标签。
// 映射对 [0,100] 全定义且单调：分数越高等级只升不降。
type RatingMapper struct {
	bands []RatingBand
}

func NewRatingMapper(bands []RatingBand) *RatingMapper {
	sorted := make([]RatingBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	// 保底档覆盖到0，保证全定义
	if n := len(sorted); n > 0 && sorted[n-1].Min > 0 {
		sorted[n-1].Min = 0
	}
	return &RatingMapper{bands: sorted}
}

// DefaultRatingMapper 与线上标定一致：>=90 good，>=70 average，其余 poor
func DefaultRatingMapper() *RatingMapper {
	return NewRatingMapper([]RatingBand{
		{Min: 90, Label: "good"},
		{Min: 70, Label: "average"},
		{Min: 0, Label: "poor"},
	})
}

func (m *RatingMapper) Map(score float64) string {
	score = clampScore(score)
	for _, b := range m.bands {
		if score >= b.Min {
			return b.Label
		}
	}
	// bands 非空时不可达；空mapper视为无评级
	return ""
}
