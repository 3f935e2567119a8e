package handlers

import (
	"errors"
	"net/http"

	"inkpress/internal/apperr"
	"inkpress/internal/auth"
	"inkpress/internal/middleware"
	"inkpress/internal/services"
	"inkpress/internal/store"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users  *store.Users
	tokens *auth.TokenService
	resets *services.PasswordResetService
}

func NewAuthHandler(users *store.Users, tokens *auth.TokenService, resets *services.PasswordResetService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, resets: resets}
}

type registerRequest struct {
	Name                 string `json:"name" form:"name" binding:"required,max=255"`
	Email                string `json:"email" form:"email" binding:"required,email,max=255"`
	Password             string `json:"password" form:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" binding:"eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token                string `json:"token" form:"token" binding:"required"`
	Email                string `json:"email" form:"email" binding:"required,email"`
	Password             string `json:"password" form:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" binding:"eqfield=Password"`
}

// Register POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := requireText("name", req.Name); err != nil {
		respondError(c, err)
		return
	}

	taken, err := h.users.EmailTaken(c.Request.Context(), req.Email, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	if taken {
		respondError(c, apperr.Invalid("email", "The email has already been taken."))
		return
	}

	if _, err := h.users.Create(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		// 并发注册时被抢先
		if errors.Is(err, apperr.ErrConflict) {
			err = apperr.Invalid("email", "The email has already been taken.")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!"})
}

// Login POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		respondError(c, err)
		return
	}
	if user == nil || auth.VerifyPassword(user.Password, req.Password) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	plain, _, err := h.tokens.Issue(c.Request.Context(), user.ID, "auth_token")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": plain,
		"token_type":   "Bearer",
	})
}

// Logout POST /logout 仅作废本次请求携带的令牌
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok || p.Token == nil {
		respondError(c, apperr.ErrUnauthenticated)
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), p.Token.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully!"})
}

// Me GET /user
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok || p.User == nil {
		respondError(c, apperr.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          p.User.ID,
		"name":        p.User.Name,
		"email":       p.User.Email,
		"created_at":  p.User.CreatedAt,
		"updated_at":  p.User.UpdatedAt,
		"roles":       p.RoleNames(),
		"permissions": p.PermissionNames(),
	})
}

// SendResetLink POST /forgot-password
func (h *AuthHandler) SendResetLink(c *gin.Context) {
	var req forgotPasswordRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.resets.SendResetLink(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "We have emailed your password reset link."})
}

// ResetPassword POST /reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.resets.Reset(c.Request.Context(), req.Email, req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your password has been reset."})
}
