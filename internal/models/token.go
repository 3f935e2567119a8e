package models

import (
	"time"
)

// AccessToken 一次登录会话，只保存密钥部分的 sha256
type AccessToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Name       string     `gorm:"size:100;not null" json:"name"`
	TokenHash  string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PasswordReset 邮箱当前有效的重置令牌
type PasswordReset struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	TokenHash string    `gorm:"size:64;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
