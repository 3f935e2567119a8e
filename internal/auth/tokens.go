package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inkpress/internal/apperr"
	"inkpress/internal/models"

	"gorm.io/gorm"
)

const (
	tokenSecretLength = 40
	tokenAlphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// TokenService issues and validates opaque "<id>|<secret>" bearer tokens.
type TokenService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTokenService constructs a TokenService backed by db.
func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{db: db, now: time.Now}
}

// WithTx returns a TokenService sharing the clock but bound to tx.
func (s *TokenService) WithTx(tx *gorm.DB) *TokenService {
	return &TokenService{db: tx, now: s.now}
}

// WithClock overrides time source (useful for tests).
func (s *TokenService) WithClock(fn func() time.Time) *TokenService {
	if fn != nil {
		s.now = fn
	}
	return s
}

// Issue creates a new token for userID and returns its plaintext form. The
// plaintext is never stored and cannot be recovered later.
func (s *TokenService) Issue(ctx context.Context, userID uint, name string) (string, *models.AccessToken, error) {
	secret, err := RandomString(tokenSecretLength)
	if err != nil {
		return "", nil, fmt.Errorf("auth: generate token: %w", err)
	}
	token := &models.AccessToken{
		UserID:    userID,
		Name:      name,
		TokenHash: HashToken(secret),
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return "", nil, fmt.Errorf("auth: store token: %w", err)
	}
	return fmt.Sprintf("%d|%s", token.ID, secret), token, nil
}

// Validate resolves plainText to its token row and stamps last_used_at.
// Every failure is reported as apperr.ErrUnauthenticated.
func (s *TokenService) Validate(ctx context.Context, plainText string) (*models.AccessToken, error) {
	id, secret, ok := splitToken(plainText)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	var token models.AccessToken
	err := s.db.WithContext(ctx).First(&token, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(HashToken(secret))) != 1 {
		return nil, apperr.ErrUnauthenticated
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&token).UpdateColumn("last_used_at", now).Error; err != nil {
		return nil, fmt.Errorf("auth: touch token: %w", err)
	}
	token.LastUsedAt = &now
	return &token, nil
}

// Revoke deletes exactly one token. Other tokens of the same user stay valid.
func (s *TokenService) Revoke(ctx context.Context, tokenID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.AccessToken{}, tokenID)
	if res.Error != nil {
		return fmt.Errorf("auth: revoke token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("token")
	}
	return nil
}

// RevokeAll deletes every token of userID.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.AccessToken{}).Error; err != nil {
		return fmt.Errorf("auth: revoke tokens: %w", err)
	}
	return nil
}

// HashToken returns the hex sha256 digest stored for a secret.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// RandomString returns n characters drawn uniformly from [a-zA-Z0-9].
func RandomString(n int) (string, error) {
	const limit = 256 - 256%len(tokenAlphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

func splitToken(plainText string) (uint, string, bool) {
	idPart, secret, found := strings.Cut(strings.TrimSpace(plainText), "|")
	if !found || secret == "" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return uint(id), secret, true
}
