package store

import (
	"context"
	"strings"
	"time"

	"inkpress/internal/apperr"
	"inkpress/internal/models"
	"inkpress/internal/utils"

	"gorm.io/gorm"
)

const taxonomyTTL = 5 * time.Minute

// Taxonomy stores uniquely named rows that link to posts, with a cached list.
type Taxonomy[T any] struct {
	db       *gorm.DB
	cache    *utils.Cache
	ttl      time.Duration
	resource string
	listKey  string
	build    func(name string) *T
}

type (
	Categories = Taxonomy[models.Category]
	Tags       = Taxonomy[models.Tag]
)

// NewCategories builds the category store. cache may be nil.
func NewCategories(db *gorm.DB, cache *utils.Cache) *Categories {
	return &Categories{
		db: db, cache: cache, ttl: taxonomyTTL,
		resource: "category",
		listKey:  "category:list",
		build:    func(name string) *models.Category { return &models.Category{Name: name} },
	}
}

// NewTags builds the tag store. cache may be nil.
func NewTags(db *gorm.DB, cache *utils.Cache) *Tags {
	return &Tags{
		db: db, cache: cache, ttl: taxonomyTTL,
		resource: "tag",
		listKey:  "tag:list",
		build:    func(name string) *models.Tag { return &models.Tag{Name: name} },
	}
}

func (s *Taxonomy[T]) List(ctx context.Context) ([]T, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(s.listKey).([]T); ok {
			return cached, nil
		}
	}
	var rows []T
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, s.resource, "")
	}
	if s.cache != nil {
		s.cache.Set(s.listKey, rows, s.ttl)
	}
	return rows, nil
}

func (s *Taxonomy[T]) Get(ctx context.Context, id uint) (*T, error) {
	row := new(T)
	if err := s.db.WithContext(ctx).First(row, id).Error; err != nil {
		return nil, translate(err, s.resource, "")
	}
	return row, nil
}

func (s *Taxonomy[T]) Create(ctx context.Context, name string) (*T, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	row := s.build(name)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, translate(err, s.resource, nameTaken)
	}
	s.invalidate()
	return row, nil
}

func (s *Taxonomy[T]) Rename(ctx context.Context, id uint, name string) (*T, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(row).Update("name", name).Error; err != nil {
		return nil, translate(err, s.resource, nameTaken)
	}
	s.invalidate()
	return s.Get(ctx, id)
}

// Delete removes the row and its post links.
func (s *Taxonomy[T]) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := new(T)
		if err := tx.First(row, id).Error; err != nil {
			return translate(err, s.resource, "")
		}
		if err := tx.Select("Posts").Delete(row).Error; err != nil {
			return translate(err, s.resource, "")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Taxonomy[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, translate(err, s.resource, "")
}

func (s *Taxonomy[T]) invalidate() {
	if s.cache != nil {
		s.cache.Delete(s.listKey)
	}
}

// cleanName trims name and rejects what is left when empty.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("name", "The name field is required.")
	}
	return name, nil
}
