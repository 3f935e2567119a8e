package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"inkpress/internal/apperr"
	"inkpress/internal/models"
	"inkpress/internal/services"
	"inkpress/internal/store"
	"inkpress/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type PostHandler struct {
	posts  *store.Posts
	images services.ImageStore
}

func NewPostHandler(posts *store.Posts, images services.ImageStore) *PostHandler {
	return &PostHandler{posts: posts, images: images}
}

// postRequest 创建与更新共用，nil 表示未提交该字段
type postRequest struct {
	Title      *string `json:"title" binding:"omitempty,max=255"`
	Content    *string `json:"content"`
	Status     *string `json:"status" binding:"omitempty,oneof=draft published"`
	Categories *[]uint `json:"categories"`
	Tags       *[]uint `json:"tags"`
}

type publishRequest struct {
	Status string `json:"status" form:"status" binding:"omitempty,oneof=draft published"`
}

func isFormRequest(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == binding.MIMEMultipartPOSTForm || ct == binding.MIMEPOSTForm
}

// readPostRequest 解析 JSON 或表单请求体
// 表单可用重复的 "categories[]" 或 "categories" 字段提交 ID，并可附带 cover_image
func readPostRequest(c *gin.Context) (postRequest, *multipart.FileHeader, error) {
	useJSONFieldNames()
	var req postRequest
	var cover *multipart.FileHeader

	if isFormRequest(c) {
		if v, ok := c.GetPostForm("title"); ok {
			req.Title = &v
		}
		if v, ok := c.GetPostForm("content"); ok {
			req.Content = &v
		}
		if v, ok := c.GetPostForm("status"); ok {
			req.Status = &v
		}
		var err error
		if req.Categories, err = formIDs(c, "categories"); err != nil {
			return req, nil, err
		}
		if req.Tags, err = formIDs(c, "tags"); err != nil {
			return req, nil, err
		}
		if c.ContentType() == binding.MIMEMultipartPOSTForm {
			fh, err := c.FormFile("cover_image")
			switch {
			case err == nil:
				cover = fh
			case !errors.Is(err, http.ErrMissingFile):
				return req, nil, apperr.Invalid("cover_image", "The cover image failed to upload.")
			}
		}
		if err := binding.Validator.ValidateStruct(&req); err != nil {
			return req, nil, bindError(err)
		}
		return req, cover, nil
	}

	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, nil, bindError(err)
	}
	return req, nil, nil
}

func formIDs(c *gin.Context, field string) (*[]uint, error) {
	values, ok := c.GetPostFormArray(field + "[]")
	if !ok {
		values, ok = c.GetPostFormArray(field)
	}
	if !ok {
		return nil, nil
	}
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, ok := utils.ParseID(v)
		if !ok {
			return nil, apperr.Invalid(field, "The "+field+" field must contain only ids.")
		}
		ids = append(ids, id)
	}
	return &ids, nil
}

func (r postRequest) validate(creating bool) error {
	ve := &apperr.ValidationError{}
	if creating || r.Title != nil {
		if r.Title == nil || strings.TrimSpace(*r.Title) == "" {
			ve.Add("title", "The title field is required.")
		}
	}
	if creating || r.Content != nil {
		if r.Content == nil || strings.TrimSpace(*r.Content) == "" {
			ve.Add("content", "The content field is required.")
		}
	}
	// 发布走 /publish，由 publish posts 权限控制
	if r.Status != nil && models.PostStatus(*r.Status) == models.PostStatusPublished {
		ve.Add("status", "Posts can only be published through the publish endpoint.")
	}
	if ve.Empty() {
		return nil
	}
	return ve
}

func (r postRequest) status() *models.PostStatus {
	if r.Status == nil {
		return nil
	}
	s := models.PostStatus(*r.Status)
	return &s
}

// saveCover 保存封面图，校验失败报告在 cover_image 字段上
func (h *PostHandler) saveCover(fh *multipart.FileHeader) (*string, error) {
	if fh == nil {
		return nil, nil
	}
	path, err := h.images.Save(fh)
	switch {
	case errors.Is(err, services.ErrImageTooLarge):
		return nil, apperr.Invalid("cover_image", "The cover image must not be greater than 10240 kilobytes.")
	case errors.Is(err, services.ErrNotAnImage):
		return nil, apperr.Invalid("cover_image", "The cover image must be an image.")
	case err != nil:
		return nil, err
	}
	return &path, nil
}

func (h *PostHandler) dropCover(path *string) {
	if path == nil || *path == "" {
		return
	}
	if err := h.images.Delete(*path); err != nil {
		log.Printf("Failed to delete cover image %s: %v", *path, err)
	}
}

// List GET /posts
func (h *PostHandler) List(c *gin.Context) {
	var filter store.PostFilter
	if s := c.Query("status"); s != "" {
		status := models.PostStatus(s)
		if !status.Valid() {
			respondError(c, apperr.Invalid("status", "The selected status is invalid."))
			return
		}
		filter.Status = status
	}
	if a := c.Query("author_id"); a != "" {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			respondError(c, apperr.Invalid("author_id", "The author id field must be an integer."))
			return
		}
		filter.AuthorID = uint(id)
	}

	posts, err := h.posts.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Create POST /posts
func (h *PostHandler) Create(c *gin.Context) {
	authorID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	req, cover, err := readPostRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := req.validate(true); err != nil {
		respondError(c, err)
		return
	}
	coverPath, err := h.saveCover(cover)
	if err != nil {
		respondError(c, err)
		return
	}

	in := store.NewPost{
		Title:      *req.Title,
		Content:    *req.Content,
		CoverImage: coverPath,
		AuthorID:   authorID,
	}
	if s := req.status(); s != nil {
		in.Status = *s
	}
	if req.Categories != nil {
		in.CategoryIDs = *req.Categories
	}
	if req.Tags != nil {
		in.TagIDs = *req.Tags
	}

	post, err := h.posts.Create(c.Request.Context(), in)
	if err != nil {
		h.dropCover(coverPath)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Show GET /posts/:id
func (h *PostHandler) Show(c *gin.Context) {
	id, err := pathID(c, "post")
	if err != nil {
		respondError(c, err)
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Update PUT /posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, err := pathID(c, "post")
	if err != nil {
		respondError(c, err)
		return
	}
	existing, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	req, cover, err := readPostRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := req.validate(false); err != nil {
		respondError(c, err)
		return
	}
	coverPath, err := h.saveCover(cover)
	if err != nil {
		respondError(c, err)
		return
	}

	post, err := h.posts.Update(c.Request.Context(), id, store.PostUpdate{
		Title:       req.Title,
		Content:     req.Content,
		CoverImage:  coverPath,
		Status:      req.status(),
		CategoryIDs: req.Categories,
		TagIDs:      req.Tags,
	})
	if err != nil {
		h.dropCover(coverPath)
		respondError(c, err)
		return
	}
	if coverPath != nil {
		h.dropCover(existing.CoverImage)
	}
	c.JSON(http.StatusOK, post)
}

// Delete DELETE /posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "post")
	if err != nil {
		respondError(c, err)
		return
	}
	post, err := h.posts.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.dropCover(post.CoverImage)
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// Publish POST /posts/:id/publish 设置状态，未指定时为 published
func (h *PostHandler) Publish(c *gin.Context) {
	id, err := pathID(c, "post")
	if err != nil {
		respondError(c, err)
		return
	}
	var req publishRequest
	if err := bindOptional(c, &req); err != nil {
		respondError(c, err)
		return
	}
	status := models.PostStatusPublished
	if req.Status != "" {
		status = models.PostStatus(req.Status)
	}
	post, err := h.posts.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}
