package analysis

import "testing"

// 测试默认评级档位
func TestDefaultRatingMapper(t *testing.T) {
	m := DefaultRatingMapper()

	cases := []struct {
		score float64
		want  string
	}{
		{100, "good"},
		{90, "good"},
		{89.9, "average"},
		{70, "average"},
		{69.9, "poor"},
		{0, "poor"},
	}
	for _, c := range cases {
		if got := m.Map(c.score); got != c.want {
			t.Errorf("Map(%v) = %q, 期望 %q", c.score, got, c.want)
		}
	}
}

// 越界分数先截断再映射
func TestRatingMapperClamps(t *testing.T) {
	m := DefaultRatingMapper()
	if got := m.Map(-5); got != "poor" {
		t.Errorf("Map(-5) = %q, 期望 poor", got)
	}
	if got := m.Map(150); got != "good" {
		t.Errorf("Map(150) = %q, 期望 good", got)
	}
}

// 映射对 [0,100] 全定义且单调不降
func TestRatingMapperMonotonic(t *testing.T) {
	m := NewRatingMapper([]RatingBand{
		{Min: 85, Label: "good"},
		{Min: 60, Label: "average"},
		{Min: 30, Label: "poor"},
	})
	rank := map[string]int{"poor": 0, "average": 1, "good": 2}

	prev := -1
	for s := 0.0; s <= 100; s += 0.5 {
		label := m.Map(s)
		r, ok := rank[label]
		if !ok {
			t.Fatalf("Map(%v) 返回未知等级 %q", s, label)
		}
		if r < prev {
			t.Fatalf("等级在 %v 处回退", s)
		}
		prev = r
	}
}
