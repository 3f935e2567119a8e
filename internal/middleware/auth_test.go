package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkpress/internal/apperr"
	"inkpress/internal/auth"
	"inkpress/internal/models"

	"github.com/gin-gonic/gin"
)

type stubTokens map[string]uint

func (s stubTokens) Validate(ctx context.Context, plain string) (*models.AccessToken, error) {
	id, ok := s[plain]
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	return &models.AccessToken{ID: 1, UserID: id}, nil
}

type stubRegistry map[uint]*models.User

func (s stubRegistry) Principal(ctx context.Context, userID uint) (auth.Principal, error) {
	u, ok := s[userID]
	if !ok {
		return auth.Principal{}, apperr.NotFound("user")
	}
	return auth.NewPrincipal(u), nil
}

func newGateRouter(policy auth.Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := stubTokens{"1|reader": 1, "2|author": 2, "3|admin": 3, "4|ghost": 4}
	reg := stubRegistry{
		1: {ID: 1, Roles: []models.Role{{Name: auth.RoleReader}}},
		2: {ID: 2, Roles: []models.Role{{Name: auth.RoleAuthor, Permissions: []models.Permission{{Name: auth.PermPublishPosts}}}}},
		3: {ID: 3, Roles: []models.Role{{Name: auth.RoleAdmin}}, Permissions: []models.Permission{{Name: auth.PermPublishPosts}}},
	}
	r := gin.New()
	r.Use(LoadPrincipal(tokens, reg))
	r.GET("/x", Gate(policy), func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"user": p.User.ID})
	})
	return r
}

func doGet(r http.Handler, token string) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, body
}

func TestGateDecisions(t *testing.T) {
	cases := []struct {
		name   string
		policy auth.Policy
		token  string
		want   int
	}{
		{"no token", auth.RequireAuth(), "", http.StatusUnauthorized},
		{"bad token", auth.RequireAuth(), "9|nope", http.StatusUnauthorized},
		{"deleted user", auth.RequireAuth(), "4|ghost", http.StatusUnauthorized},
		{"any user", auth.RequireAuth(), "1|reader", http.StatusOK},
		{"role missing", auth.RequireRole(auth.RoleAdmin), "2|author", http.StatusForbidden},
		{"role held", auth.RequireRole(auth.RoleAdmin), "3|admin", http.StatusOK},
		{"perm via role", auth.RequirePermission(auth.PermPublishPosts), "2|author", http.StatusOK},
		{"perm direct", auth.RequirePermission(auth.PermPublishPosts), "3|admin", http.StatusOK},
		{"perm missing", auth.RequirePermission(auth.PermPublishPosts), "1|reader", http.StatusForbidden},
		{"perm anonymous", auth.RequirePermission(auth.PermPublishPosts), "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := doGet(newGateRouter(tc.policy), tc.token)
			if code != tc.want {
				t.Fatalf("expected %d, got %d (%v)", tc.want, code, body)
			}
			if code == http.StatusUnauthorized && body["message"] != "Unauthenticated." {
				t.Fatalf("unexpected body %v", body)
			}
		})
	}
}

func TestGateForbiddenMessages(t *testing.T) {
	_, body := doGet(newGateRouter(auth.RequireRole(auth.RoleAdmin)), "1|reader")
	if body["message"] != "User does not have the right roles." {
		t.Fatalf("unexpected role message %v", body)
	}
	_, body = doGet(newGateRouter(auth.RequirePermission(auth.PermManageUsers)), "1|reader")
	if body["message"] != "User does not have the right permissions." {
		t.Fatalf("unexpected permission message %v", body)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer ":      "",
		"":             "",
	}
	for in, want := range cases {
		got, _ := extractBearerToken(in)
		if got != want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
