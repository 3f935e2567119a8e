package handlers

import (
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"inkpress/internal/models"
	"inkpress/internal/store"

	"github.com/gin-gonic/gin"
)

const feedSize = 20

var (
	blockPattern = regexp.MustCompile(`(?s)(<(?:p|div|h[1-6]|ul|ol|blockquote|pre)[^>]*>.*?</(?:p|div|h[1-6]|ul|ol|blockquote|pre)>)`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
)

// FeedHandler 输出已发布文章的 RSS
type FeedHandler struct {
	posts   *store.Posts
	siteURL string
	title   string
}

func NewFeedHandler(posts *store.Posts, siteURL, title string) *FeedHandler {
	return &FeedHandler{posts: posts, siteURL: strings.TrimRight(siteURL, "/"), title: title}
}

// RSS GET /feed.xml 生成 RSS 2.0 feed，仅包含已发布文章
func (h *FeedHandler) RSS(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context(), store.PostFilter{
		Status: models.PostStatusPublished,
		Limit:  feedSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>` + escapeXML(h.title) + `</title>
    <link>` + h.siteURL + `</link>
    <description>Latest published posts</description>
    <lastBuildDate>` + time.Now().Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + h.siteURL + `/feed.xml" rel="self" type="application/rss+xml"/>
`)

	for _, post := range posts {
		link := fmt.Sprintf("%s/posts/%d", h.siteURL, post.ID)
		// 按段落截取（前3个块级元素）
		content := truncateByParagraph(post.ContentHTML, 3)

		b.WriteString(`    <item>
      <title>` + escapeXML(post.Title) + `</title>
      <link>` + link + `</link>
      <description><![CDATA[` + content + `]]></description>
      <author>` + escapeXML(post.Author.Email+" ("+post.Author.Name+")") + `</author>
`)
		for _, category := range post.Categories {
			b.WriteString(`      <category>` + escapeXML(category.Name) + `</category>
`)
		}
		b.WriteString(`      <pubDate>` + post.CreatedAt.Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + link + `</guid>
    </item>
`)
	}
	b.WriteString(`  </channel>
</rss>`)

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}

// truncateByParagraph 按段落截取HTML，保留前几个完整块级元素
func truncateByParagraph(content string, maxBlocks int) string {
	matches := blockPattern.FindAllString(content, maxBlocks)
	if len(matches) == 0 {
		runes := []rune(tagPattern.ReplaceAllString(content, ""))
		if len(runes) > 300 {
			return string(runes[:300]) + "..."
		}
		return content
	}
	return strings.Join(matches, "\n")
}
