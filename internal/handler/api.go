package handler

import (
	"github.com/wanderlog/internal/service"
	"github.com/wanderlog/internal/storage"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	posts     *service.PostService
	users     *service.UserService
	profiles  *service.ProfileService
	countries *service.CountryService
	jwtSecret []byte
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, store storage.BlobStore, jwtSecret string) *API {
	return &API{
		db:        gdb,
		posts:     service.NewPostService(gdb, store),
		users:     service.NewUserService(gdb),
		profiles:  service.NewProfileService(gdb, store),
		countries: service.NewCountryService(gdb),
		jwtSecret: []byte(jwtSecret),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
