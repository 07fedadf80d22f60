package db

import "gorm.io/gorm"

// User 定义了用户模型
type User struct {
	gorm.Model
	Username string   `gorm:"uniqueIndex;not null" json:"username"`
	Email    string   `gorm:"uniqueIndex;not null" json:"email"`
	Password string   `gorm:"not null" json:"-"`
	Profile  *Profile `json:"profile,omitempty"`
}

// Profile 保存用户的扩展资料，首次访问时惰性创建。
type Profile struct {
	gorm.Model
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}
