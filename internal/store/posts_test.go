package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"inkpress/internal/apperr"
	"inkpress/internal/models"
)

func categoryIDs(p *models.Post) []uint {
	ids := make([]uint, len(p.Categories))
	for i, c := range p.Categories {
		ids[i] = c.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestCreatePostLinksAndDefaults(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	users := NewUsers(conn)
	author, err := users.Create(ctx, "Author", "author@example.com", "password1")
	if err != nil {
		t.Fatal(err)
	}
	cats := seedTaxonomy(t, conn, "Technology", "Health")
	tag := models.Tag{Name: "Go"}
	conn.Create(&tag)

	posts := NewPosts(conn)
	post, err := posts.Create(ctx, NewPost{
		Title:       "Hello",
		Content:     "**bold**",
		AuthorID:    author.ID,
		CategoryIDs: []uint{cats[0].ID, cats[1].ID, cats[0].ID},
		TagIDs:      []uint{tag.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if post.Status != models.PostStatusDraft {
		t.Fatalf("expected draft status, got %q", post.Status)
	}
	if post.AuthorID != author.ID || post.Author.Email != "author@example.com" {
		t.Fatalf("author not attached: %+v", post.Author)
	}
	if len(post.Categories) != 2 || len(post.Tags) != 1 {
		t.Fatalf("unexpected links: %d categories, %d tags", len(post.Categories), len(post.Tags))
	}
	if post.ContentHTML == "" {
		t.Fatal("expected rendered content")
	}
}

func TestCreatePostRejectsUnknownIDs(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	cats := seedTaxonomy(t, conn, "Technology")

	_, err := NewPosts(conn).Create(ctx, NewPost{
		Title:       "Hello",
		Content:     "body",
		AuthorID:    1,
		CategoryIDs: []uint{cats[0].ID, 77, 42},
	})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Message != "The selected categories are invalid: 42, 77." {
		t.Fatalf("unexpected message %q", ve.Message)
	}
	var count int64
	conn.Model(&models.Post{}).Count(&count)
	if count != 0 {
		t.Fatalf("no post should be stored, got %d", count)
	}
}

func TestUpdateSyncReplacesLinks(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	cats := seedTaxonomy(t, conn, "One", "Two", "Three")
	posts := NewPosts(conn)

	post, err := posts.Create(ctx, NewPost{
		Title: "Sync", Content: "body", AuthorID: 1,
		CategoryIDs: []uint{cats[0].ID, cats[1].ID},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []uint{cats[1].ID, cats[2].ID}
	updated, err := posts.Update(ctx, post.ID, PostUpdate{CategoryIDs: &want})
	if err != nil {
		t.Fatal(err)
	}
	got := categoryIDs(updated)
	if len(got) != 2 || got[0] != cats[1].ID || got[1] != cats[2].ID {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if n := linkCount(t, conn, "category_post", post.ID); n != 2 {
		t.Fatalf("expected 2 join rows, got %d", n)
	}

	// omitted field leaves links alone
	title := "Renamed"
	updated, err = posts.Update(ctx, post.ID, PostUpdate{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Renamed" || len(updated.Categories) != 2 {
		t.Fatalf("unexpected post after title update: %+v", updated)
	}

	// empty set clears
	empty := []uint{}
	updated, err = posts.Update(ctx, post.ID, PostUpdate{CategoryIDs: &empty})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Categories) != 0 {
		t.Fatalf("expected no categories, got %d", len(updated.Categories))
	}
}

func TestUpdateUnknownIDsKeepsPost(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	cats := seedTaxonomy(t, conn, "One")
	posts := NewPosts(conn)
	post, err := posts.Create(ctx, NewPost{Title: "A", Content: "b", AuthorID: 1, CategoryIDs: []uint{cats[0].ID}})
	if err != nil {
		t.Fatal(err)
	}
	title := "B"
	bad := []uint{cats[0].ID, 500}
	if _, err := posts.Update(ctx, post.ID, PostUpdate{Title: &title, CategoryIDs: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, err := posts.Get(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "A" {
		t.Fatalf("update must not be partially applied, title=%q", got.Title)
	}
}

func TestSetStatusAndFilter(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	posts := NewPosts(conn)
	a, _ := posts.Create(ctx, NewPost{Title: "A", Content: "x", AuthorID: 1})
	if _, err := posts.Create(ctx, NewPost{Title: "B", Content: "x", AuthorID: 2}); err != nil {
		t.Fatal(err)
	}

	published, err := posts.SetStatus(ctx, a.ID, models.PostStatusPublished)
	if err != nil {
		t.Fatal(err)
	}
	if published.Status != models.PostStatusPublished {
		t.Fatalf("expected published, got %q", published.Status)
	}
	if _, err := posts.SetStatus(ctx, a.ID, "archived"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}

	list, err := posts.List(ctx, PostFilter{Status: models.PostStatusPublished})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("unexpected published list %+v", list)
	}
	list, err = posts.List(ctx, PostFilter{AuthorID: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Title != "B" {
		t.Fatalf("unexpected author list %+v", list)
	}
	if n, _ := posts.Count(ctx, ""); n != 2 {
		t.Fatalf("expected 2 posts, got %d", n)
	}
}

func TestPublishOnlyThroughSetStatus(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	posts := NewPosts(conn)

	if _, err := posts.Create(ctx, NewPost{Title: "A", Content: "x", AuthorID: 1, Status: models.PostStatusPublished}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("create published: expected validation error, got %v", err)
	}
	post, err := posts.Create(ctx, NewPost{Title: "A", Content: "x", AuthorID: 1, Status: models.PostStatusDraft})
	if err != nil {
		t.Fatal(err)
	}
	status := models.PostStatusPublished
	if _, err := posts.Update(ctx, post.ID, PostUpdate{Status: &status}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("update to published: expected validation error, got %v", err)
	}
	got, _ := posts.Get(ctx, post.ID)
	if got.Status != models.PostStatusDraft {
		t.Fatalf("status changed to %q", got.Status)
	}

	if _, err := posts.SetStatus(ctx, post.ID, models.PostStatusPublished); err != nil {
		t.Fatal(err)
	}
	draft := models.PostStatusDraft
	got, err = posts.Update(ctx, post.ID, PostUpdate{Status: &draft})
	if err != nil || got.Status != models.PostStatusDraft {
		t.Fatalf("unpublish through update: %v %v", got, err)
	}
}

func TestDeletePostRemovesLinks(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	cats := seedTaxonomy(t, conn, "One")
	posts := NewPosts(conn)
	post, err := posts.Create(ctx, NewPost{Title: "A", Content: "b", AuthorID: 1, CategoryIDs: []uint{cats[0].ID}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := posts.Delete(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	if n := linkCount(t, conn, "category_post", post.ID); n != 0 {
		t.Fatalf("expected join rows removed, got %d", n)
	}
	if _, err := posts.Get(ctx, post.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := posts.Delete(ctx, post.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDiffIDs(t *testing.T) {
	remove, add := diffIDs([]uint{1, 2}, []uint{2, 3})
	if len(remove) != 1 || remove[0] != 1 || len(add) != 1 || add[0] != 3 {
		t.Fatalf("remove=%v add=%v", remove, add)
	}
}
