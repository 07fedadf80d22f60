package service

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/wanderlog/internal/db"
	"github.com/wanderlog/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("forbidden")
)

// PostService wraps post related database operations.
type PostService struct {
	db    *gorm.DB
	store storage.BlobStore
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB, store storage.BlobStore) *PostService {
	return &PostService{db: gdb, store: store}
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title        string
	LocationName string
	Continent    string
	Cover        *Upload
	Blocks       []BlockDescriptor
	BlockUploads map[int]*Upload
}

// PostFilter describes filters for listing published posts.
type PostFilter struct {
	Continent string
	Author    string
}

// Create persists a new post together with its block collection.
// 新建路径等价于对空的既有区块集合执行一次重建。
func (s *PostService) Create(ctx context.Context, authorID uint, input PostInput) (*db.Post, error) {
	post := db.Post{
		Title:        strings.TrimSpace(input.Title),
		Slug:         newSlug(input.Title),
		UserID:       authorID,
		LocationName: strings.TrimSpace(input.LocationName),
		Continent:    strings.TrimSpace(input.Continent),
		IsPublished:  true,
	}

	if input.Cover != nil {
		if err := s.attachCover(ctx, &post, input.Cover); err != nil {
			return nil, err
		}
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return s.rebuildBlocks(ctx, tx, &post, input, nil)
	}); err != nil {
		return nil, err
	}

	return s.load(post.ID)
}

// Update applies metadata changes and rebuilds the block collection.
// 非作者调用返回 ErrForbidden，已提交的状态保持不变。
func (s *PostService) Update(ctx context.Context, slug string, authorID uint, input PostInput) (*db.Post, error) {
	post, err := s.findBySlug(slug)
	if err != nil {
		return nil, err
	}
	if post.UserID != authorID {
		return nil, ErrForbidden
	}

	// 旧区块集合销毁前捕获既有图片标识，供沿用引用解析。
	existing := captureExistingImages(post.Blocks)

	post.Title = strings.TrimSpace(input.Title)
	post.LocationName = strings.TrimSpace(input.LocationName)
	post.Continent = strings.TrimSpace(input.Continent)

	if input.Cover != nil {
		if err := s.attachCover(ctx, post, input.Cover); err != nil {
			return nil, err
		}
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":         post.Title,
			"location_name": post.LocationName,
			"continent":     post.Continent,
			"cover_url":     post.CoverURL,
			"cover_width":   post.CoverWidth,
			"cover_height":  post.CoverHeight,
		}
		if err := tx.Model(&db.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
			return err
		}
		return s.rebuildBlocks(ctx, tx, post, input, existing)
	}); err != nil {
		return nil, err
	}

	return s.load(post.ID)
}

// Delete removes a post and cascades to its blocks.
func (s *PostService) Delete(slug string, authorID uint) error {
	post, err := s.findBySlug(slug)
	if err != nil {
		return err
	}
	if post.UserID != authorID {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("post_id = ?", post.ID).Delete(&db.PostBlock{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&db.Post{}, post.ID).Error
	})
}

// GetBySlug returns a post for reading.
// 未发布的游记仅作者可见，其他访问者得到与不存在相同的 ErrPostNotFound。
func (s *PostService) GetBySlug(slug string, viewerID uint) (*db.Post, error) {
	post, err := s.findBySlug(slug)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished && post.UserID != viewerID {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// ListPublished returns published posts, newest first, with optional filters.
func (s *PostService) ListPublished(filter PostFilter) ([]db.Post, error) {
	query := s.db.Model(&db.Post{}).
		Preload("User").
		Where("posts.is_published = ?", true)

	continent := strings.TrimSpace(filter.Continent)
	if continent != "" && continent != "All" {
		query = query.Where("posts.continent = ?", continent)
	}

	if author := strings.TrimSpace(filter.Author); author != "" {
		query = query.
			Joins("JOIN users ON users.id = posts.user_id").
			Where("users.username = ?", author)
	}

	var posts []db.Post
	if err := query.Order("posts.created_at desc, posts.id desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByAuthor returns all posts of one author regardless of published state.
func (s *PostService) ListByAuthor(authorID uint) ([]db.Post, error) {
	var posts []db.Post
	if err := s.db.Preload("User").
		Where("user_id = ?", authorID).
		Order("created_at desc, id desc").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// CountPublished returns the number of published posts of one author.
func (s *PostService) CountPublished(authorID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.Post{}).
		Where("user_id = ? AND is_published = ?", authorID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// attachCover stores fresh cover bytes and records the URL plus probed dimensions.
func (s *PostService) attachCover(ctx context.Context, post *db.Post, cover *Upload) error {
	coverURL, err := s.store.Save(ctx, storage.CoverBucket, cover.Filename, bytes.NewReader(cover.Data))
	if err != nil {
		return err
	}
	post.CoverURL = coverURL
	post.CoverWidth, post.CoverHeight = probeImageSize(cover.Data)
	return nil
}

func (s *PostService) findBySlug(slug string) (*db.Post, error) {
	var post db.Post
	if err := s.postQuery().Where("slug = ?", strings.TrimSpace(slug)).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostService) load(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.postQuery().First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostService) postQuery() *gorm.DB {
	return s.db.
		Preload("Blocks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("post_blocks.position ASC")
		}).
		Preload("User").
		Preload("User.Profile")
}

// newSlug 由标题派生唯一 slug：slug 化标题加随机后缀，
// 随机位足够多，无需查库重试即可忽略碰撞概率。slug 此后不可变。
func newSlug(title string) string {
	return slugify(title) + "-" + uuid.New().String()[:8]
}

// slugify 将标题压缩为 URL 安全的小写短横线形式。
func slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	if b.Len() == 0 {
		return "post"
	}
	return b.String()
}
