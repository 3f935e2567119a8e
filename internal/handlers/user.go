package handlers

import (
	"net/http"

	"inkpress/internal/auth"
	"inkpress/internal/store"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users    *store.Users
	registry *auth.Registry
}

func NewUserHandler(users *store.Users, registry *auth.Registry) *UserHandler {
	return &UserHandler{users: users, registry: registry}
}

type createUserRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=255"`
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=8"`
}

type updateUserRequest struct {
	Name     *string `json:"name" form:"name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" form:"password" binding:"omitempty,min=8"`
}

type assignRoleRequest struct {
	Role string `json:"role" form:"role" binding:"required"`
}

type assignPermissionRequest struct {
	Permission string `json:"permission" form:"permission" binding:"required"`
}

// List GET /users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Create POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := requireText("name", req.Name); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.Create(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Show GET /users/:id
func (h *UserHandler) Show(c *gin.Context) {
	id, err := pathID(c, "user")
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := pathID(c, "user")
	if err != nil {
		respondError(c, err)
		return
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if req.Name != nil {
		if err := requireText("name", *req.Name); err != nil {
			respondError(c, err)
			return
		}
	}
	user, err := h.users.Update(c.Request.Context(), id, store.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "user")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// AssignRole POST /users/:id/roles
func (h *UserHandler) AssignRole(c *gin.Context) {
	id, err := pathID(c, "user")
	if err != nil {
		respondError(c, err)
		return
	}
	var req assignRoleRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.registry.AssignRole(c.Request.Context(), id, req.Role); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role assigned successfully"})
}

// AssignPermission POST /users/:id/permissions
func (h *UserHandler) AssignPermission(c *gin.Context) {
	id, err := pathID(c, "user")
	if err != nil {
		respondError(c, err)
		return
	}
	var req assignPermissionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.registry.AssignPermission(c.Request.Context(), id, req.Permission); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Permission assigned successfully"})
}
