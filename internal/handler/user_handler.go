package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wanderlog/internal/db"
	"github.com/wanderlog/internal/service"
)

// userProfileView 是用户资料在响应中的统一展示形态。
type userProfileView struct {
	ID               uint     `json:"id,omitempty"`
	Username         string   `json:"username"`
	Email            string   `json:"email,omitempty"`
	AvatarURL        string   `json:"avatar_url,omitempty"`
	Bio              string   `json:"bio"`
	StoriesCount     int64    `json:"stories_count"`
	CountriesCount   int      `json:"countries_count"`
	VisitedCountries []string `json:"visited_countries"`
}

// Register 注册新用户
func (a *API) Register(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &payload, "username, email and password are required") {
		return
	}

	user, err := a.users.Register(payload.Username, payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			respondError(c, http.StatusConflict, "username already taken")
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, http.StatusConflict, "email already registered")
		default:
			respondError(c, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"message":  "User created successfully",
	})
}

// Me 返回当前用户的完整资料，资料不存在时惰性创建
func (a *API) Me(c *gin.Context) {
	userID := currentUserID(c)

	user, err := a.users.GetByID(userID)
	if err != nil {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}

	profile, err := a.profiles.GetOrCreate(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	view, err := a.buildProfileView(user, profile, true)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateProfile 更新签名与头像后返回最新资料
func (a *API) UpdateProfile(c *gin.Context) {
	userID := currentUserID(c)

	var input service.ProfileInput
	if bio, ok := c.GetPostForm("bio"); ok {
		input.Bio = &bio
	}
	if header, err := c.FormFile("avatar"); err == nil {
		avatar, err := readUpload(header)
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read avatar")
			return
		}
		input.Avatar = avatar
	}

	if _, err := a.profiles.Update(c.Request.Context(), userID, input); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	a.Me(c)
}

// PublicProfile 返回任意用户的公开资料
func (a *API) PublicProfile(c *gin.Context) {
	user, err := a.users.GetByUsername(c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	view, err := a.buildProfileView(user, user.Profile, false)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, view)
}

// buildProfileView 由用户、资料与统计数据组装统一的资料视图。
func (a *API) buildProfileView(user *db.User, profile *db.Profile, includePrivate bool) (userProfileView, error) {
	view := userProfileView{Username: user.Username}
	if includePrivate {
		view.ID = user.ID
		view.Email = user.Email
	}
	if profile != nil {
		view.AvatarURL = profile.AvatarURL
		view.Bio = profile.Bio
	}

	storiesCount, err := a.posts.CountPublished(user.ID)
	if err != nil {
		return view, err
	}
	view.StoriesCount = storiesCount

	countries, err := a.countries.List(user.ID)
	if err != nil {
		return view, err
	}
	view.VisitedCountries = countries
	view.CountriesCount = len(countries)

	return view, nil
}
