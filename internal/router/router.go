package router

import (
	"github.com/gin-gonic/gin"
	"github.com/wanderlog/internal/config"
	"github.com/wanderlog/internal/handler"
)

// New 配置 Gin 引擎和路由
func New(api *handler.API, cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 使用本地磁盘存储时静态托管上传目录
	if cfg.UploadURLPath != "" && cfg.UploadDir != "" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/register", api.Register)
		apiGroup.POST("/auth/login", api.Login)
		apiGroup.GET("/users/:username", api.PublicProfile)

		// 需要认证的用户路由
		me := apiGroup.Group("")
		me.Use(api.AuthRequired())
		{
			me.GET("/me", api.Me)
			me.POST("/me/update", api.UpdateProfile)
			me.POST("/countries", api.ToggleCountry)
		}

		posts := apiGroup.Group("/posts")
		{
			posts.GET("", api.ListPosts)
			posts.GET("/:slug", api.AuthOptional(), api.GetPost)

			// 需要认证的游记路由
			auth := posts.Group("")
			auth.Use(api.AuthRequired())
			{
				auth.POST("/create", api.CreatePost)
				auth.GET("/my-posts", api.MyPosts)
				auth.POST("/:slug/update", api.UpdatePost)
				auth.DELETE("/:slug", api.DeletePost)
			}
		}
	}

	return r
}
