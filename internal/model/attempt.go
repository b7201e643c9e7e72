package model

// AnswerAttempt 候选人对某道题的一次作答录制
// swagger:model AnswerAttempt
type AnswerAttempt struct {
	BaseModel
	SessionID uint    `gorm:"index;not null" json:"sessionId"`
	UserID    uint    `gorm:"index;not null" json:"userId"`
	Question  string  `gorm:"type:text" json:"question"`
	SttText   string  `gorm:"type:text" json:"sttText"` // 作答的语音转写文本
	Duration  float64 `json:"duration"`                 // 录制时长（秒）

	Session InterviewSession `gorm:"foreignKey:SessionID" json:"-"`
	Media   []MediaAsset     `gorm:"foreignKey:AttemptID" json:"media,omitempty"`
}

func (AnswerAttempt) TableName() string {
	return "answer_attempts"
}
