package models

import (
	"time"

	"inkpress/internal/utils"

	"gorm.io/gorm"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid 判断状态是否合法
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	CoverImage *string    `json:"cover_image"` // 相对存储目录的路径
	Status     PostStatus `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`
	AuthorID   uint       `gorm:"not null;index" json:"author_id"`
	Author     User       `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Categories []Category `gorm:"many2many:category_post;" json:"categories"`
	Tags       []Tag      `gorm:"many2many:post_tag;" json:"tags"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// 非数据库字段，查询后由 Content 渲染
	ContentHTML string `gorm:"-" json:"content_html"`
}

func (p *Post) AfterFind(tx *gorm.DB) error {
	p.ContentHTML = utils.RenderMarkdown(p.Content)
	return nil
}
