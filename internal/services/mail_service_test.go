package services

import (
	"strings"
	"testing"
)

func TestRenderResetTemplate(t *testing.T) {
	m, err := NewMailService("", 0, "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if m.Enabled {
		t.Fatal("mail service should be disabled without SMTP host")
	}
	body, err := m.render("reset.html", map[string]interface{}{
		"Name":    "Jane",
		"Link":    "http://localhost/reset-password?token=abc&email=jane%40example.com",
		"Minutes": 60,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Hello Jane") || !strings.Contains(body, "60 minutes") {
		t.Fatalf("unexpected body: %s", body)
	}
	if !strings.Contains(body, "token=abc") {
		t.Fatalf("link missing: %s", body)
	}
	if err := m.SendPasswordReset("jane@example.com", "Jane", "http://x", 60); err != nil {
		t.Fatalf("disabled send should not fail: %v", err)
	}
}
