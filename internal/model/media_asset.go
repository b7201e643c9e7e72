package model

// MediaKind 媒体类型
type MediaKind int

const (
	MediaVideo MediaKind = 1
	MediaImage MediaKind = 2
	MediaAudio MediaKind = 3
)

// MediaAsset 一次作答上传的媒体文件，ObjectKey指向存储后端。
// 媒体ID会出现在外部URL里，用UUID避免暴露自增序号
// swagger:model MediaAsset
type MediaAsset struct {
	UUIDBase
	AttemptID uint      `gorm:"index;not null" json:"attemptId"`
	Kind      MediaKind `gorm:"not null" json:"kind"`
	ObjectKey string    `gorm:"size:512;not null" json:"objectKey"`
	FileName  string    `gorm:"size:255" json:"fileName"`
	MimeType  string    `gorm:"size:100" json:"mimeType"`
	Size      int64     `json:"size"`
	Sha256    string    `gorm:"size:64;index" json:"sha256"`
	Duration  float64   `json:"duration"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`

	Attempt AnswerAttempt `gorm:"foreignKey:AttemptID" json:"-"`
}

func (MediaAsset) TableName() string {
	return "media_assets"
}
