package service

import (
	"bytes"
	"context"

	"github.com/wanderlog/internal/db"
	"github.com/wanderlog/internal/storage"
	"gorm.io/gorm"
)

// ProfileService 维护用户资料（签名与头像）。
// 资料在首次访问时惰性创建，注册流程对它没有硬依赖。
type ProfileService struct {
	db    *gorm.DB
	store storage.BlobStore
}

// NewProfileService 构造 ProfileService。
func NewProfileService(gdb *gorm.DB, store storage.BlobStore) *ProfileService {
	return &ProfileService{db: gdb, store: store}
}

// ProfileInput 描述更新资料时可设置的字段。
// Bio 使用指针判断是否显式传入。
type ProfileInput struct {
	Bio    *string
	Avatar *Upload
}

// GetOrCreate 返回用户资料，不存在时创建空资料。
func (s *ProfileService) GetOrCreate(userID uint) (*db.Profile, error) {
	var profile db.Profile
	if err := s.db.Where(db.Profile{UserID: userID}).FirstOrCreate(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update 应用资料变更，新头像写入对象存储后记录其 URL。
func (s *ProfileService) Update(ctx context.Context, userID uint, input ProfileInput) (*db.Profile, error) {
	profile, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	if input.Bio != nil {
		profile.Bio = *input.Bio
	}

	if input.Avatar != nil {
		avatarURL, err := s.store.Save(ctx, storage.AvatarBucket, input.Avatar.Filename, bytes.NewReader(input.Avatar.Data))
		if err != nil {
			return nil, err
		}
		profile.AvatarURL = avatarURL
	}

	if err := s.db.Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}
