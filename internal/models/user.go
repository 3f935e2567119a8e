package models

import (
	"time"
)

type User struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	Email       string        `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string        `gorm:"not null" json:"-"` // Hash
	Roles       []Role        `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	Permissions []Permission  `gorm:"many2many:user_permissions;" json:"permissions,omitempty"` // 直接授予的权限
	Tokens      []AccessToken `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
