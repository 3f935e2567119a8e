package store

import (
	"context"
	"errors"
	"testing"

	"inkpress/internal/apperr"
	"inkpress/internal/utils"
)

func TestCategoryConflictsAndRename(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	cats := NewCategories(conn, nil)

	tech, err := cats.Create(ctx, "Technology")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cats.Create(ctx, "Technology"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	health, err := cats.Create(ctx, "Health")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cats.Rename(ctx, health.ID, "Technology"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on rename, got %v", err)
	}
	renamed, err := cats.Rename(ctx, tech.ID, "Tech")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.Name != "Tech" {
		t.Fatalf("expected Tech, got %q", renamed.Name)
	}
	if _, err := cats.Rename(ctx, 999, "Nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCategoryDeleteUnlinksPosts(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	cats := NewCategories(conn, nil)
	c, err := cats.Create(ctx, "Technology")
	if err != nil {
		t.Fatal(err)
	}
	post, err := NewPosts(conn).Create(ctx, NewPost{Title: "A", Content: "b", AuthorID: 1, CategoryIDs: []uint{c.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if err := cats.Delete(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if n := linkCount(t, conn, "category_post", post.ID); n != 0 {
		t.Fatalf("expected join rows removed, got %d", n)
	}
	if err := cats.Delete(ctx, c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTagListCacheInvalidatedOnWrite(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	cache, err := utils.NewCache(16)
	if err != nil {
		t.Fatal(err)
	}
	tags := NewTags(conn, cache)

	if _, err := tags.Create(ctx, "Go"); err != nil {
		t.Fatal(err)
	}
	list, err := tags.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if _, err := tags.Create(ctx, "Rust"); err != nil {
		t.Fatal(err)
	}
	list, err = tags.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected cache invalidation, got %v %v", list, err)
	}
}

func TestBlankNamesAreRejected(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	cats := NewCategories(conn, nil)
	tags := NewTags(conn, nil)

	if _, err := cats.Create(ctx, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank category: expected validation error, got %v", err)
	}
	if _, err := tags.Create(ctx, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty tag: expected validation error, got %v", err)
	}
	tag, err := tags.Create(ctx, "  Go  ")
	if err != nil {
		t.Fatal(err)
	}
	if tag.Name != "Go" {
		t.Fatalf("expected trimmed name, got %q", tag.Name)
	}
	if _, err := tags.Rename(ctx, tag.ID, "\t "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank rename: expected validation error, got %v", err)
	}
	if n, _ := cats.Count(ctx); n != 0 {
		t.Fatalf("expected no categories, got %d", n)
	}
}
