package handlers

import (
	"context"
	"net/http"

	"inkpress/internal/models"
	"inkpress/internal/store"

	"github.com/gin-gonic/gin"
)

type namedStore[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, name string) (*T, error)
	Rename(ctx context.Context, id uint, name string) (*T, error)
	Delete(ctx context.Context, id uint) error
}

type nameRequest struct {
	Name string `json:"name" form:"name" binding:"required,max=255"`
}

// taxonomyHandler 分类与标签共用的增删改查
type taxonomyHandler[T any] struct {
	store    namedStore[T]
	resource string // 小写单数，用于 404 消息
	label    string // 用于删除成功消息
}

func (h *taxonomyHandler[T]) List(c *gin.Context) {
	rows, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *taxonomyHandler[T]) Create(c *gin.Context) {
	var req nameRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := requireText("name", req.Name); err != nil {
		respondError(c, err)
		return
	}
	row, err := h.store.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (h *taxonomyHandler[T]) Show(c *gin.Context) {
	id, err := pathID(c, h.resource)
	if err != nil {
		respondError(c, err)
		return
	}
	row, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *taxonomyHandler[T]) Update(c *gin.Context) {
	id, err := pathID(c, h.resource)
	if err != nil {
		respondError(c, err)
		return
	}
	var req nameRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := requireText("name", req.Name); err != nil {
		respondError(c, err)
		return
	}
	row, err := h.store.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *taxonomyHandler[T]) Delete(c *gin.Context) {
	id, err := pathID(c, h.resource)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.label + " deleted successfully"})
}

type CategoryHandler struct {
	taxonomyHandler[models.Category]
}

func NewCategoryHandler(categories *store.Categories) *CategoryHandler {
	return &CategoryHandler{taxonomyHandler[models.Category]{store: categories, resource: "category", label: "Category"}}
}

type TagHandler struct {
	taxonomyHandler[models.Tag]
}

func NewTagHandler(tags *store.Tags) *TagHandler {
	return &TagHandler{taxonomyHandler[models.Tag]{store: tags, resource: "tag", label: "Tag"}}
}
