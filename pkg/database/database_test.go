package database

import (
	"testing"

	"interview_coach_backend/internal/config"
)

// release 模式默认不迁移，-migrate 参数可强制；其他模式始终迁移
func TestShouldMigrate(t *testing.T) {
	cases := []struct {
		name  string
		mode  string
		force bool
		want  bool
	}{
		{"debug模式默认迁移", "debug", false, true},
		{"test模式默认迁移", "test", false, true},
		{"release模式默认跳过", "release", false, false},
		{"release模式强制迁移", "release", true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{ForceMigrate: tc.force}
			cfg.Server.Mode = tc.mode
			if got := shouldMigrate(cfg); got != tc.want {
				t.Fatalf("shouldMigrate = %v, 期望 %v", got, tc.want)
			}
		})
	}
}
