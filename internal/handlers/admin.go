package handlers

import (
	"net/http"

	"inkpress/internal/models"
	"inkpress/internal/store"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	users      *store.Users
	posts      *store.Posts
	categories *store.Categories
	tags       *store.Tags
}

func NewAdminHandler(users *store.Users, posts *store.Posts, categories *store.Categories, tags *store.Tags) *AdminHandler {
	return &AdminHandler{users: users, posts: posts, categories: categories, tags: tags}
}

// Dashboard GET /admin-dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	stats := gin.H{}

	counts := []struct {
		key string
		fn  func() (int64, error)
	}{
		{"users", func() (int64, error) { return h.users.Count(ctx) }},
		{"posts", func() (int64, error) { return h.posts.Count(ctx, "") }},
		{"drafts", func() (int64, error) { return h.posts.Count(ctx, models.PostStatusDraft) }},
		{"published", func() (int64, error) { return h.posts.Count(ctx, models.PostStatusPublished) }},
		{"categories", func() (int64, error) { return h.categories.Count(ctx) }},
		{"tags", func() (int64, error) { return h.tags.Count(ctx) }},
	}
	for _, item := range counts {
		n, err := item.fn()
		if err != nil {
			respondError(c, err)
			return
		}
		stats[item.key] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "admin dashboard",
		"stats":   stats,
	})
}
