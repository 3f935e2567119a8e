package store

import (
	"context"
	"fmt"
	"strings"

	"inkpress/internal/apperr"
	"inkpress/internal/models"
	"inkpress/internal/utils"

	"gorm.io/gorm"
)

const msgPublishSeparately = "Posts can only be published through the publish endpoint."

type Posts struct {
	db *gorm.DB
}

func NewPosts(db *gorm.DB) *Posts {
	return &Posts{db: db}
}

// PostFilter narrows List. Zero values match everything.
type PostFilter struct {
	Status   models.PostStatus
	AuthorID uint
	Limit    int
}

// NewPost is the input of Create. AuthorID always comes from the caller.
type NewPost struct {
	Title       string
	Content     string
	CoverImage  *string
	Status      models.PostStatus
	AuthorID    uint
	CategoryIDs []uint
	TagIDs      []uint
}

// PostUpdate carries the optional fields of an update. Nil means unchanged;
// a non-nil id slice replaces the current links, an empty one clears them.
type PostUpdate struct {
	Title       *string
	Content     *string
	CoverImage  *string
	Status      *models.PostStatus
	CategoryIDs *[]uint
	TagIDs      *[]uint
}

func (s *Posts) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Categories").Preload("Tags")
}

func (s *Posts) List(ctx context.Context, f PostFilter) ([]models.Post, error) {
	q := s.preload(s.db.WithContext(ctx))
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var posts []models.Post
	if err := q.Order("created_at desc, id desc").Find(&posts).Error; err != nil {
		return nil, translate(err, "posts", "")
	}
	return posts, nil
}

func (s *Posts) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *Posts) get(db *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.preload(db).First(&post, id).Error; err != nil {
		return nil, translate(err, "post", "")
	}
	return &post, nil
}

func (s *Posts) Create(ctx context.Context, in NewPost) (*models.Post, error) {
	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if err := checkStatus(status, false); err != nil {
		return nil, err
	}
	post := &models.Post{
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		CoverImage: in.CoverImage,
		Status:     status,
		AuthorID:   in.AuthorID,
	}

	var out *models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkIDs[models.Category](tx, "categories", in.CategoryIDs); err != nil {
			return err
		}
		if err := checkIDs[models.Tag](tx, "tags", in.TagIDs); err != nil {
			return err
		}
		if err := tx.Omit("Author", "Categories", "Tags").Create(post).Error; err != nil {
			return translate(err, "post", "")
		}
		if err := syncCategories(tx, post, in.CategoryIDs); err != nil {
			return err
		}
		if err := syncTags(tx, post, in.TagIDs); err != nil {
			return err
		}
		var err error
		out, err = s.get(tx, post.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies upd. Publishing is reserved to SetStatus.
func (s *Posts) Update(ctx context.Context, id uint, upd PostUpdate) (*models.Post, error) {
	return s.update(ctx, id, upd, false)
}

func (s *Posts) update(ctx context.Context, id uint, upd PostUpdate, allowPublish bool) (*models.Post, error) {
	var out *models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return translate(err, "post", "")
		}
		if upd.CategoryIDs != nil {
			if err := checkIDs[models.Category](tx, "categories", *upd.CategoryIDs); err != nil {
				return err
			}
		}
		if upd.TagIDs != nil {
			if err := checkIDs[models.Tag](tx, "tags", *upd.TagIDs); err != nil {
				return err
			}
		}

		changes := map[string]interface{}{}
		if upd.Title != nil {
			changes["title"] = strings.TrimSpace(*upd.Title)
		}
		if upd.Content != nil {
			changes["content"] = *upd.Content
		}
		if upd.CoverImage != nil {
			changes["cover_image"] = *upd.CoverImage
		}
		if upd.Status != nil {
			if err := checkStatus(*upd.Status, allowPublish); err != nil {
				return err
			}
			changes["status"] = *upd.Status
		}
		if len(changes) > 0 {
			if err := tx.Model(&post).Updates(changes).Error; err != nil {
				return translate(err, "post", "")
			}
		}
		if upd.CategoryIDs != nil {
			if err := syncCategories(tx, &post, *upd.CategoryIDs); err != nil {
				return err
			}
		}
		if upd.TagIDs != nil {
			if err := syncTags(tx, &post, *upd.TagIDs); err != nil {
				return err
			}
		}
		var err error
		out, err = s.get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus changes only the status of a post. It is the only way to publish.
func (s *Posts) SetStatus(ctx context.Context, id uint, status models.PostStatus) (*models.Post, error) {
	return s.update(ctx, id, PostUpdate{Status: &status}, true)
}

func checkStatus(status models.PostStatus, allowPublish bool) error {
	if !status.Valid() {
		return apperr.Invalid("status", "The selected status is invalid.")
	}
	if status == models.PostStatusPublished && !allowPublish {
		return apperr.Invalid("status", msgPublishSeparately)
	}
	return nil
}

// Delete removes the post and its association rows and returns what was deleted.
func (s *Posts) Delete(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return translate(err, "post", "")
		}
		if err := tx.Select("Categories", "Tags").Delete(&post).Error; err != nil {
			return translate(err, "post", "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Posts) Count(ctx context.Context, status models.PostStatus) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&models.Post{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, translate(err, "posts", "")
}

// checkIDs fails with a validation error listing every id with no row.
func checkIDs[T any](tx *gorm.DB, field string, ids []uint) error {
	ids = utils.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	var found []uint
	if err := tx.Model(new(T)).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("store: check %s: %w", field, err)
	}
	have := make(map[uint]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []uint
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperr.UnknownIDs(field, missing)
	}
	return nil
}

// diffIDs returns the ids to unlink and to link so that current becomes want.
func diffIDs(current, want []uint) (remove, add []uint) {
	wantSet := make(map[uint]struct{}, len(want))
	for _, id := range want {
		wantSet[id] = struct{}{}
	}
	curSet := make(map[uint]struct{}, len(current))
	for _, id := range current {
		curSet[id] = struct{}{}
		if _, ok := wantSet[id]; !ok {
			remove = append(remove, id)
		}
	}
	for _, id := range want {
		if _, ok := curSet[id]; !ok {
			add = append(add, id)
		}
	}
	return remove, add
}

func syncCategories(tx *gorm.DB, post *models.Post, ids []uint) error {
	var current []models.Category
	if err := tx.Model(post).Association("Categories").Find(&current); err != nil {
		return fmt.Errorf("store: load categories: %w", err)
	}
	curIDs := make([]uint, len(current))
	for i, c := range current {
		curIDs[i] = c.ID
	}
	remove, add := diffIDs(curIDs, utils.UniqueIDs(ids))
	if len(remove) > 0 {
		rows := make([]models.Category, len(remove))
		for i, id := range remove {
			rows[i] = models.Category{ID: id}
		}
		if err := tx.Model(post).Association("Categories").Delete(rows); err != nil {
			return fmt.Errorf("store: unlink categories: %w", err)
		}
	}
	if len(add) > 0 {
		var rows []models.Category
		if err := tx.Where("id IN ?", add).Find(&rows).Error; err != nil {
			return fmt.Errorf("store: load categories: %w", err)
		}
		if err := tx.Model(post).Association("Categories").Append(rows); err != nil {
			return fmt.Errorf("store: link categories: %w", err)
		}
	}
	return nil
}

func syncTags(tx *gorm.DB, post *models.Post, ids []uint) error {
	var current []models.Tag
	if err := tx.Model(post).Association("Tags").Find(&current); err != nil {
		return fmt.Errorf("store: load tags: %w", err)
	}
	curIDs := make([]uint, len(current))
	for i, t := range current {
		curIDs[i] = t.ID
	}
	remove, add := diffIDs(curIDs, utils.UniqueIDs(ids))
	if len(remove) > 0 {
		rows := make([]models.Tag, len(remove))
		for i, id := range remove {
			rows[i] = models.Tag{ID: id}
		}
		if err := tx.Model(post).Association("Tags").Delete(rows); err != nil {
			return fmt.Errorf("store: unlink tags: %w", err)
		}
	}
	if len(add) > 0 {
		var rows []models.Tag
		if err := tx.Where("id IN ?", add).Find(&rows).Error; err != nil {
			return fmt.Errorf("store: load tags: %w", err)
		}
		if err := tx.Model(post).Association("Tags").Append(rows); err != nil {
			return fmt.Errorf("store: link tags: %w", err)
		}
	}
	return nil
}
