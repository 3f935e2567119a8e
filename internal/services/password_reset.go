package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"inkpress/internal/apperr"
	"inkpress/internal/auth"
	"inkpress/internal/models"
	"inkpress/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const resetTokenLength = 64

const (
	msgUnknownEmail = "We can't find a user with that email address."
	msgInvalidReset = "This password reset token is invalid."
)

// PasswordResetService 签发并核销密码重置令牌
type PasswordResetService struct {
	db     *gorm.DB
	users  *store.Users
	tokens *auth.TokenService
	mailer Mailer
	appURL string
	ttl    time.Duration
	now    func() time.Time
}

func NewPasswordResetService(db *gorm.DB, users *store.Users, tokens *auth.TokenService, mailer Mailer, appURL string, ttl time.Duration) *PasswordResetService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PasswordResetService{
		db:     db,
		users:  users,
		tokens: tokens,
		mailer: mailer,
		appURL: strings.TrimRight(appURL, "/"),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SendResetLink 替换该邮箱未使用的令牌并发送新的重置链接
func (s *PasswordResetService) SendResetLink(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid("email", msgUnknownEmail)
	}
	if err != nil {
		return err
	}

	token, err := auth.RandomString(resetTokenLength)
	if err != nil {
		return fmt.Errorf("reset: generate token: %w", err)
	}
	row := models.PasswordReset{
		Email:     user.Email,
		TokenHash: auth.HashToken(token),
		CreatedAt: s.now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "created_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("reset: store token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", s.appURL, url.QueryEscape(token), url.QueryEscape(user.Email))
	return s.mailer.SendPasswordReset(user.Email, user.Name, link, int(s.ttl/time.Minute))
}

// Reset 校验令牌后设置新密码并注销该用户所有会话，令牌只能使用一次
func (s *PasswordResetService) Reset(ctx context.Context, email, token, password string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid("email", msgUnknownEmail)
	}
	if err != nil {
		return err
	}

	var row models.PasswordReset
	err = s.db.WithContext(ctx).Where("email = ?", user.Email).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Invalid("email", msgInvalidReset)
	}
	if err != nil {
		return fmt.Errorf("reset: load token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(row.TokenHash), []byte(auth.HashToken(token))) != 1 {
		return apperr.Invalid("email", msgInvalidReset)
	}
	if s.now().After(row.CreatedAt.Add(s.ttl)) {
		if err := s.db.WithContext(ctx).Delete(&row).Error; err != nil {
			log.Printf("Failed to delete expired reset token for %s: %v", user.Email, err)
		}
		return apperr.Invalid("email", msgInvalidReset)
	}

	// 改密码、作废重置令牌、注销所有会话，要么全部成功要么全部回滚
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).SetPassword(ctx, user.ID, password); err != nil {
			return err
		}
		if err := tx.Delete(&row).Error; err != nil {
			return fmt.Errorf("reset: consume token: %w", err)
		}
		return s.tokens.WithTx(tx).RevokeAll(ctx, user.ID)
	})
}
