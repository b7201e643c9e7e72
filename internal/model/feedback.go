package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"interview_coach_backend/internal/analysis"
)

// FeedbackStatus 反馈记录的生命周期状态
type FeedbackStatus string

const (
	FeedbackPending   FeedbackStatus = "pending"
	FeedbackAnalyzing FeedbackStatus = "analyzing"
	FeedbackReady     FeedbackStatus = "ready"
	FeedbackFailed    FeedbackStatus = "failed"
)

// ModalityResultJSON 单模态结果的json列包装
type ModalityResultJSON analysis.ModalityResult

func (m ModalityResultJSON) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *ModalityResultJSON) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("无法将 %T 解析为 ModalityResultJSON", value)
}

// FeedbackRecord 一次作答的多模态分析结果，每个attempt至多一条。
// Version在每次分析完成（无论成败）时加一；Deadline用于回收中途崩溃的分析。
// swagger:model FeedbackRecord
type FeedbackRecord struct {
	BaseModel
	AttemptID uint           `gorm:"uniqueIndex;not null" json:"attemptId"`
	Status    FeedbackStatus `gorm:"type:enum('pending','analyzing','ready','failed');default:'pending'" json:"status"`
	Version   int            `gorm:"default:0" json:"version"`

	CompositeScore *float64 `json:"compositeScore,omitempty"`

	Pose  *ModalityResultJSON `gorm:"type:json" json:"pose,omitempty"`
	Voice *ModalityResultJSON `gorm:"type:json" json:"voice,omitempty"`
	Face  *ModalityResultJSON `gorm:"type:json" json:"face,omitempty"`

	FailureReason string `gorm:"type:text" json:"failureReason,omitempty"`
	Comment       string `gorm:"type:text" json:"comment,omitempty"` // LLM生成的作答点评

	Deadline *time.Time `gorm:"index" json:"-"`

	Attempt AnswerAttempt `gorm:"foreignKey:AttemptID" json:"-"`
}

func (FeedbackRecord) TableName() string {
	return "feedback_records"
}

// Modality 按模态名取结果，供查询接口过滤使用
func (r *FeedbackRecord) Modality(m analysis.Modality) *ModalityResultJSON {
	switch m {
	case analysis.ModalityPose:
		return r.Pose
	case analysis.ModalityVoice:
		return r.Voice
	case analysis.ModalityFace:
		return r.Face
	}
	return nil
}

// Terminal 是否已到达终态
func (r *FeedbackRecord) Terminal() bool {
	return r.Status == FeedbackReady || r.Status == FeedbackFailed
}
