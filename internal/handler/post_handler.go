package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wanderlog/internal/db"
	"github.com/wanderlog/internal/service"
)

const postDateLayout = "02 January 2006"

// blockView 是区块在响应中的展示形态。
type blockView struct {
	Type         string `json:"type"`
	Position     int    `json:"position"`
	TextContent  string `json:"text_content,omitempty"`
	HTML         string `json:"html,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ImageCaption string `json:"image_caption,omitempty"`
}

// postListView 是游记在列表响应中的展示形态。
type postListView struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Author        string `json:"author"`
	LocationName  string `json:"location_name"`
	Continent     string `json:"continent"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	IsPublished   bool   `json:"is_published"`
	CreatedAt     string `json:"created_at"`
}

// postDetailView 在列表形态之上追加有序区块与作者头像。
// 作者资料由仓储层统一预加载进聚合，这里不做任何类型探测分支。
type postDetailView struct {
	postListView
	AuthorAvatarURL string      `json:"author_avatar_url,omitempty"`
	Blocks          []blockView `json:"blocks"`
}

func newPostListView(post db.Post) postListView {
	return postListView{
		ID:            post.ID,
		Title:         post.Title,
		Slug:          post.Slug,
		Author:        post.User.Username,
		LocationName:  post.LocationName,
		Continent:     post.Continent,
		CoverImageURL: post.CoverURL,
		IsPublished:   post.IsPublished,
		CreatedAt:     post.CreatedAt.Format(postDateLayout),
	}
}

func newPostDetailView(post db.Post) postDetailView {
	view := postDetailView{
		postListView: newPostListView(post),
		Blocks:       make([]blockView, 0, len(post.Blocks)),
	}
	if post.User.Profile != nil {
		view.AuthorAvatarURL = post.User.Profile.AvatarURL
	}

	for _, block := range post.Blocks {
		item := blockView{
			Type:         block.Type,
			Position:     block.Position,
			TextContent:  block.TextContent,
			ImageURL:     block.ImageURL,
			ImageCaption: block.ImageCaption,
		}
		if block.Type == db.BlockTypeText {
			item.HTML = renderTextBlock(block.TextContent)
		}
		view.Blocks = append(view.Blocks, item)
	}
	return view
}

// parsePostForm 解析创建/更新共用的 multipart 请求形态。
// blocks_data 在任何变更发生前解析，畸形 JSON 直接 400 且无副作用。
func (a *API) parsePostForm(c *gin.Context) (service.PostInput, bool) {
	var input service.PostInput

	input.Title = strings.TrimSpace(c.PostForm("title"))
	if input.Title == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return input, false
	}
	input.LocationName = c.PostForm("location_name")
	input.Continent = c.PostForm("continent")

	if err := json.Unmarshal([]byte(c.PostForm("blocks_data")), &input.Blocks); err != nil {
		respondError(c, http.StatusBadRequest, "invalid blocks data")
		return input, false
	}

	if header, err := c.FormFile("cover"); err == nil {
		cover, err := readUpload(header)
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read cover image")
			return input, false
		}
		input.Cover = cover
	}

	input.BlockUploads = make(map[int]*service.Upload)
	for index := range input.Blocks {
		header, err := c.FormFile(fmt.Sprintf("block_image_%d", index))
		if err != nil {
			continue
		}
		upload, err := readUpload(header)
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read block image")
			return input, false
		}
		input.BlockUploads[index] = upload
	}

	return input, true
}

// CreatePost 创建游记
func (a *API) CreatePost(c *gin.Context) {
	input, ok := a.parsePostForm(c)
	if !ok {
		return
	}

	post, err := a.posts.Create(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"slug": post.Slug, "message": "Story published!"})
}

// UpdatePost 更新游记，仅作者可操作
func (a *API) UpdatePost(c *gin.Context) {
	input, ok := a.parsePostForm(c)
	if !ok {
		return
	}

	post, err := a.posts.Update(c.Request.Context(), c.Param("slug"), currentUserID(c), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "forbidden")
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "post not found")
		default:
			respondError(c, http.StatusInternalServerError, "failed to update post")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"slug": post.Slug, "message": "Story updated!"})
}

// DeletePost 删除游记及其全部区块，仅作者可操作
func (a *API) DeletePost(c *gin.Context) {
	if err := a.posts.Delete(c.Param("slug"), currentUserID(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "forbidden")
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "post not found")
		default:
			respondError(c, http.StatusInternalServerError, "failed to delete post")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetPost 获取单篇游记详情。
// 未发布的游记对非作者返回与不存在完全相同的 404，避免枚举。
func (a *API) GetPost(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"), currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load post")
		return
	}

	c.JSON(http.StatusOK, newPostDetailView(*post))
}

// ListPosts 获取已发布游记列表，支持大洲与作者筛选
func (a *API) ListPosts(c *gin.Context) {
	posts, err := a.posts.ListPublished(service.PostFilter{
		Continent: c.Query("continent"),
		Author:    c.Query("author"),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}

	views := make([]postListView, 0, len(posts))
	for _, post := range posts {
		views = append(views, newPostListView(post))
	}
	c.JSON(http.StatusOK, views)
}

// MyPosts 返回当前用户的全部游记，包含未发布的
func (a *API) MyPosts(c *gin.Context) {
	posts, err := a.posts.ListByAuthor(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}

	views := make([]postListView, 0, len(posts))
	for _, post := range posts {
		views = append(views, newPostListView(post))
	}
	c.JSON(http.StatusOK, views)
}
