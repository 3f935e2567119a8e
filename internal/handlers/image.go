package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// 盗链提醒 SVG 图片
const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    Image hotlinking is not allowed
  </text>
</svg>`

// ImageHandler 提供已上传的封面图
type ImageHandler struct {
	root string
}

func NewImageHandler(root string) *ImageHandler {
	return &ImageHandler{root: root}
}

// Serve GET /storage/*filepath
func (h *ImageHandler) Serve(c *gin.Context) {
	rel := filepath.Clean("/" + c.Param("filepath"))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		c.JSON(http.StatusNotFound, gin.H{"message": "Image not found."})
		return
	}

	// 防盗链检测：使用 Sec-Fetch-* 头部
	if !isAllowedRequest(c) {
		c.Header("Content-Type", "image/svg+xml")
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.String(http.StatusOK, hotlinkSVG)
		return
	}

	full := filepath.Join(h.root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"message": "Image not found."})
		return
	}

	// 缓存控制：缓存 7 天，文件名带 ULID 不会复用
	c.Header("Cache-Control", "public, max-age=604800")
	c.Header("Vary", "Sec-Fetch-Site, Sec-Fetch-Mode")
	c.File(full)
}

// isAllowedRequest 使用 Sec-Fetch-* 头部检测是否为合法请求
func isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	case "", "same-origin", "same-site", "none":
		return true
	}
	// 允许在新标签页打开图片
	return c.GetHeader("Sec-Fetch-Mode") == "navigate"
}
