package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"inkpress/internal/apperr"
	"inkpress/internal/auth"
	"inkpress/internal/models"
	"inkpress/internal/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *fakeMailer) SendPasswordReset(email, name, link string, minutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *fakeMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		t.Fatal("no mail sent")
	}
	u, err := url.Parse(m.links[len(m.links)-1])
	if err != nil {
		t.Fatal(err)
	}
	return u.Query().Get("token")
}

func newResetFixture(t *testing.T) (*PasswordResetService, *fakeMailer, *store.Users, *auth.TokenService) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := conn.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatal(err)
	}
	users := store.NewUsers(conn)
	tokens := auth.NewTokenService(conn)
	mailer := &fakeMailer{}
	svc := NewPasswordResetService(conn, users, tokens, mailer, "http://app.test/", time.Hour)
	return svc, mailer, users, tokens
}

func TestPasswordResetFlow(t *testing.T) {
	svc, mailer, users, tokens := newResetFixture(t)
	ctx := context.Background()
	u, err := users.Create(ctx, "Jane", "jane@example.com", "password1")
	if err != nil {
		t.Fatal(err)
	}
	session, _, err := tokens.Issue(ctx, u.ID, "auth_token")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.SendResetLink(ctx, "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	token := mailer.lastToken(t)
	if len(token) != resetTokenLength {
		t.Fatalf("unexpected token %q", token)
	}

	if err := svc.Reset(ctx, "jane@example.com", "wrong", "password2"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for wrong token, got %v", err)
	}
	if err := svc.Reset(ctx, "jane@example.com", token, "password2"); err != nil {
		t.Fatal(err)
	}
	stored, _ := users.FindByEmail(ctx, "jane@example.com")
	if auth.VerifyPassword(stored.Password, "password2") != nil {
		t.Fatal("password not changed")
	}
	if _, err := tokens.Validate(ctx, session); err == nil {
		t.Fatal("existing sessions should be revoked")
	}
	if err := svc.Reset(ctx, "jane@example.com", token, "password3"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("token must be single use, got %v", err)
	}
}

func TestPasswordResetUnknownEmailAndExpiry(t *testing.T) {
	svc, mailer, users, _ := newResetFixture(t)
	ctx := context.Background()
	if err := svc.SendResetLink(ctx, "nobody@example.com"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := users.Create(ctx, "Jane", "jane@example.com", "password1"); err != nil {
		t.Fatal(err)
	}

	issued := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	if err := svc.SendResetLink(ctx, "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	// 第二次请求会替换第一个令牌
	if err := svc.SendResetLink(ctx, "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	token := mailer.lastToken(t)

	svc.now = func() time.Time { return issued.Add(61 * time.Minute) }
	if err := svc.Reset(ctx, "jane@example.com", token, "password2"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
	var left int64
	svc.db.Model(&models.PasswordReset{}).Count(&left)
	if left != 0 {
		t.Fatalf("expired token should be removed, got %d rows", left)
	}
}

func TestPasswordResetRollsBackOnFailure(t *testing.T) {
	svc, mailer, users, _ := newResetFixture(t)
	ctx := context.Background()
	if _, err := users.Create(ctx, "Jane", "jane@example.com", "password1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.SendResetLink(ctx, "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	token := mailer.lastToken(t)

	// 让最后一步（注销会话）失败
	if err := svc.db.Migrator().DropTable(&models.AccessToken{}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reset(ctx, "jane@example.com", token, "password2"); err == nil {
		t.Fatal("expected reset to fail")
	}

	stored, _ := users.FindByEmail(ctx, "jane@example.com")
	if auth.VerifyPassword(stored.Password, "password1") != nil {
		t.Fatal("password change should be rolled back")
	}
	var pending int64
	svc.db.Model(&models.PasswordReset{}).Where("email = ?", "jane@example.com").Count(&pending)
	if pending != 1 {
		t.Fatalf("reset token should survive a failed reset, got %d rows", pending)
	}
}
