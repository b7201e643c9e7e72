package model

import (
	"time"
)

type UserRole string

const (
	Candidate UserRole = "candidate"
	Coach     UserRole = "coach"
	Admin     UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"Name"`
	Email     string    `gorm:"size:100;unique;not null" json:"Email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('candidate','coach','admin');default:'candidate'" json:"Role"`
	Language  string    `gorm:"size:10;default:'en'" json:"Language"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Disabled  bool      `gorm:"default:false" json:"Disabled"`
	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"LastLogin"`
}

func (User) TableName() string {
	return "users"
}
