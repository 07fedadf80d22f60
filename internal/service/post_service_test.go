package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wanderlog/internal/db"
	"github.com/wanderlog/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:wanderlog-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func setupPostService(t *testing.T) (*PostService, *storage.MemoryStore, *gorm.DB) {
	t.Helper()
	gdb := setupServiceTestDB(t)
	store := storage.NewMemoryStore("/media")
	return NewPostService(gdb, store), store, gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, username string) db.User {
	t.Helper()
	user := db.User{Username: username, Email: username + "@example.com", Password: "x"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestPostService_CreateAssignsDensePositions(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	user := createTestUser(t, gdb, "author")

	post, err := svc.Create(context.Background(), user.ID, PostInput{
		Title:        "Bali Trip",
		LocationName: "Bali, Indonesia",
		Continent:    "Asia",
		Blocks: []BlockDescriptor{
			{Type: "text", Content: "First day"},
			{Type: "image"},
			{Type: "text", Content: "Second day"},
		},
		BlockUploads: map[int]*Upload{
			1: {Filename: "beach.jpg", Data: []byte("jpeg-bytes")},
		},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if len(post.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(post.Blocks))
	}
	for i, block := range post.Blocks {
		if block.Position != i {
			t.Fatalf("expected dense positions, block %d has position %d", i, block.Position)
		}
	}
	if post.Blocks[1].Type != db.BlockTypeImage || post.Blocks[1].ImageURL == "" {
		t.Fatalf("expected stored image block at position 1, got %+v", post.Blocks[1])
	}
}

func TestPostService_CreateSkipsInvalidDescriptors(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	user := createTestUser(t, gdb, "author")

	post, err := svc.Create(context.Background(), user.ID, PostInput{
		Title: "Sparse",
		Blocks: []BlockDescriptor{
			{Type: "text", Content: "   "},
			{Type: "image"},
			{Type: "text", Content: "kept"},
		},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if len(post.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(post.Blocks))
	}
	// 跳过的描述不会被压缩，保留提交序号带来的空洞。
	if post.Blocks[0].Position != 2 {
		t.Fatalf("expected surviving block at position 2, got %d", post.Blocks[0].Position)
	}
	if post.Blocks[0].TextContent != "kept" {
		t.Fatalf("unexpected content %q", post.Blocks[0].TextContent)
	}
}

func TestPostService_CreateSanitizesText(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	user := createTestUser(t, gdb, "author")

	post, err := svc.Create(context.Background(), user.ID, PostInput{
		Title: "Clean",
		Blocks: []BlockDescriptor{
			{Type: "text", Content: `<p style="color:red">Hi&nbsp;there</p>`},
		},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if got := post.Blocks[0].TextContent; got != "<p>Hi there</p>" {
		t.Fatalf("expected sanitized content, got %q", got)
	}
}

func TestPostService_SlugDerivedAndUnique(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	user := createTestUser(t, gdb, "author")

	first, err := svc.Create(context.Background(), user.ID, PostInput{Title: "My Trip!"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(context.Background(), user.ID, PostInput{Title: "My Trip!"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if !strings.HasPrefix(first.Slug, "my-trip-") {
		t.Fatalf("unexpected slug %q", first.Slug)
	}
	if first.Slug == second.Slug {
		t.Fatalf("expected unique slugs, both %q", first.Slug)
	}

	// slug 创建后不可变
	updated, err := svc.Update(context.Background(), first.Slug, user.ID, PostInput{Title: "Renamed Trip"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Slug != first.Slug {
		t.Fatalf("slug changed on update: %q -> %q", first.Slug, updated.Slug)
	}
	if updated.Title != "Renamed Trip" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
}

func TestPostService_UpdateReattachesCarriedOverImage(t *testing.T) {
	svc, store, gdb := setupPostService(t)
	user := createTestUser(t, gdb, "author")

	post, err := svc.Create(context.Background(), user.ID, PostInput{
		Title:  "Photos",
		Blocks: []BlockDescriptor{{Type: "image"}},
		BlockUploads: map[int]*Upload{
			0: {Filename: "a.jpg", Data: []byte("bytes-a")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	imageURL := post.Blocks[0].ImageURL
	savesAfterCreate := store.SaveCount()

	updated, err := svc.Update(context.Background(), post.Slug, user.ID, PostInput{
		Title: "Photos",
		Blocks: []BlockDescriptor{
			{Type: "image", ExistingURL: imageURL},
			{Type: "text", Content: "New"},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(updated.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(updated.Blocks))
	}
	if updated.Blocks[0].Type != db.BlockTypeImage || updated.Blocks[0].ImageURL != imageURL {
		t.Fatalf("expected carried-over image %q, got %+v", imageURL, updated.Blocks[0])
	}
	if updated.Blocks[0].Position != 0 || updated.Blocks[1].Position != 1 {
		t.Fatalf("unexpected positions: %d, %d", updated.Blocks[0].Position, updated.Blocks[1].Position)
	}
	// 沿用图片不触发新的对象存储写入
	if store.SaveCount() != savesAfterCreate {
		t.Fatalf("expected no new blob writes, had %d now %d", savesAfterCreate, store.SaveCount())
	}
}

func TestPostService_UpdateDropsUnresolvableReference(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	user := createTestUser(t, gdb, "author")

	post, err := svc.Create(context.Background(), user.ID, PostInput{
		Title:  "Photos",
		Blocks: []BlockDescriptor{{Type: "text", Content: "intro"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), post.Slug, user.ID, PostInput{
		Title: "Photos",
		Blocks: []BlockDescriptor{
			{Type: "image", ExistingURL: "garbage"},
			{Type: "text", Content: "kept"},
		},
	})
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}

	if len(updated.Blocks) != 1 {
		t.Fatalf("expected unresolvable image dropped, got %d blocks", len(updated.Blocks))
	}
	if updated.Blocks[0].TextContent != "kept" || updated.Blocks[0].Position != 1 {
		t.Fatalf("unexpected surviving block: %+v", updated.Blocks[0])
	}
}

func TestPostService_UpdateForbiddenForNonAuthor(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	author := createTestUser(t, gdb, "author")
	intruder := createTestUser(t, gdb, "intruder")

	post, err := svc.Create(context.Background(), author.ID, PostInput{
		Title:  "Mine",
		Blocks: []BlockDescriptor{{Type: "text", Content: "original"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(context.Background(), post.Slug, intruder.ID, PostInput{
		Title:  "Stolen",
		Blocks: []BlockDescriptor{{Type: "text", Content: "overwritten"}},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// 失败的尝试不得改变已提交状态
	reloaded, err := svc.GetBySlug(post.Slug, author.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Title != "Mine" {
		t.Fatalf("title mutated by forbidden update: %q", reloaded.Title)
	}
	if len(reloaded.Blocks) != 1 || reloaded.Blocks[0].TextContent != "original" {
		t.Fatalf("blocks mutated by forbidden update: %+v", reloaded.Blocks)
	}
}

func TestPostService_DeleteCascadesAndChecksAuthor(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	author := createTestUser(t, gdb, "author")
	intruder := createTestUser(t, gdb, "intruder")

	post, err := svc.Create(context.Background(), author.ID, PostInput{
		Title:  "Short lived",
		Blocks: []BlockDescriptor{{Type: "text", Content: "bye"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(post.Slug, intruder.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := svc.Delete(post.Slug, author.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.GetBySlug(post.Slug, author.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound after delete, got %v", err)
	}

	var blockCount int64
	if err := gdb.Model(&db.PostBlock{}).Where("post_id = ?", post.ID).Count(&blockCount).Error; err != nil {
		t.Fatalf("count blocks: %v", err)
	}
	if blockCount != 0 {
		t.Fatalf("expected blocks cascaded, %d left", blockCount)
	}
}

func TestPostService_UnpublishedVisibleOnlyToAuthor(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	author := createTestUser(t, gdb, "author")
	other := createTestUser(t, gdb, "other")

	post, err := svc.Create(context.Background(), author.ID, PostInput{Title: "Hidden"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !post.IsPublished {
		t.Fatal("expected posts to be created published")
	}

	if err := gdb.Model(&db.Post{}).Where("id = ?", post.ID).Update("is_published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := svc.GetBySlug(post.Slug, author.ID); err != nil {
		t.Fatalf("author should see own unpublished post: %v", err)
	}
	if _, err := svc.GetBySlug(post.Slug, other.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for non-author, got %v", err)
	}
	if _, err := svc.GetBySlug(post.Slug, 0); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for anonymous, got %v", err)
	}
}

func TestPostService_ListPublishedFilters(t *testing.T) {
	svc, _, gdb := setupPostService(t)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	mustCreate := func(userID uint, title, continent string) *db.Post {
		post, err := svc.Create(context.Background(), userID, PostInput{Title: title, Continent: continent})
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		return post
	}

	mustCreate(alice.ID, "Asia One", "Asia")
	hidden := mustCreate(alice.ID, "Asia Hidden", "Asia")
	mustCreate(bob.ID, "Europe One", "Europe")

	if err := gdb.Model(&db.Post{}).Where("id = ?", hidden.ID).Update("is_published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	all, err := svc.ListPublished(PostFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 published posts, got %d", len(all))
	}

	asia, err := svc.ListPublished(PostFilter{Continent: "Asia"})
	if err != nil {
		t.Fatalf("list asia: %v", err)
	}
	if len(asia) != 1 || asia[0].Title != "Asia One" {
		t.Fatalf("unexpected asia result: %+v", asia)
	}

	ignored, err := svc.ListPublished(PostFilter{Continent: "All"})
	if err != nil {
		t.Fatalf("list all-continent: %v", err)
	}
	if len(ignored) != 2 {
		t.Fatalf("expected All to be ignored, got %d", len(ignored))
	}

	byBob, err := svc.ListPublished(PostFilter{Author: "bob"})
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(byBob) != 1 || byBob[0].User.Username != "bob" {
		t.Fatalf("unexpected author result: %+v", byBob)
	}

	mine, err := svc.ListByAuthor(alice.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected owner to see unpublished too, got %d", len(mine))
	}

	count, err := svc.CountPublished(alice.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 published story, got %d", count)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Bali Trip", "bali-trip"},
		{"  My   Trip!  ", "my-trip"},
		{"Уюни", "post"},
		{"", "post"},
		{"already-slugged", "already-slugged"},
	}

	for _, tc := range cases {
		if got := slugify(tc.input); got != tc.want {
			t.Fatalf("slugify(%q): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}
