package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wanderlog/internal/db"
	"github.com/wanderlog/internal/service"
)

const (
	identityContextKey = "user_id"
	accessTokenTTL     = 24 * time.Hour
)

// Login 校验凭证并签发访问令牌。
func (a *API) Login(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &payload, "username and password are required") {
		return
	}

	user, err := a.users.Authenticate(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := a.issueAccessToken(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": token, "username": user.Username})
}

// AuthRequired 校验 Bearer 令牌并把用户 ID 写入请求上下文。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := a.identityFromRequest(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Set(identityContextKey, userID)
		c.Next()
	}
}

// AuthOptional 尽力解析 Bearer 令牌；缺失或非法时继续以匿名身份处理。
func (a *API) AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := a.identityFromRequest(c); ok {
			c.Set(identityContextKey, userID)
		}
		c.Next()
	}
}

func (a *API) identityFromRequest(c *gin.Context) (uint, bool) {
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		return 0, false
	}

	userID, err := a.parseAccessToken(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return userID, true
}

func (a *API) issueAccessToken(user *db.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

func (a *API) parseAccessToken(raw string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, jwt.ErrTokenInvalidClaims
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(userID), nil
}
