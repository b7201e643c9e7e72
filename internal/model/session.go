package model

// SessionStatus 面试会话状态
type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionFinished SessionStatus = "finished"
)

// InterviewSession 一次模拟面试会话，包含若干道题目的作答
// swagger:model InterviewSession
type InterviewSession struct {
	BaseModel
	UserID   uint          `gorm:"index;not null" json:"userId"`
	Title    string        `gorm:"size:200" json:"title"`
	Position string        `gorm:"size:100" json:"position"` // 目标岗位
	Status   SessionStatus `gorm:"type:enum('active','finished');default:'active'" json:"status"`

	User     User            `gorm:"foreignKey:UserID" json:"-"`
	Attempts []AnswerAttempt `gorm:"foreignKey:SessionID" json:"attempts,omitempty"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}
