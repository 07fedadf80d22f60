package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/wanderlog/internal/config"
	"github.com/wanderlog/internal/db"
	"github.com/wanderlog/internal/handler"
	"github.com/wanderlog/internal/logger"
	"github.com/wanderlog/internal/router"
	"github.com/wanderlog/internal/storage"
)

func main() {
	// .env 仅在存在时加载，环境变量优先
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	// 配置了 S3 凭证时使用对象存储，否则落到本地磁盘
	var store storage.BlobStore
	if cfg.S3.AccessKeyID != "" {
		s3Store, err := storage.NewS3Store(
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.Endpoint,
			cfg.S3.Bucket,
			cfg.S3.PublicBaseURL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize s3 store")
		}
		store = s3Store
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("using s3 blob store")
	} else {
		store = storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath)
		log.Info().Str("dir", cfg.UploadDir).Msg("using local blob store")
	}

	api := handler.NewAPI(db.DB, store, cfg.JWTSecret)
	r := router.New(api, cfg)

	log.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("failed to run server")
	}
}
