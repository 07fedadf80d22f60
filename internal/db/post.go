package db

import "gorm.io/gorm"

// 区块类型，Post 正文是二者的有序混合序列。
const (
	BlockTypeText  = "text"
	BlockTypeImage = "image"
)

// Post 定义了游记模型，正文由其拥有的有序区块组成。
type Post struct {
	gorm.Model
	Title        string      `gorm:"not null" json:"title"`
	Slug         string      `gorm:"uniqueIndex;not null" json:"slug"`
	UserID       uint        `gorm:"index;not null" json:"user_id"`
	User         User        `json:"user"`
	LocationName string      `json:"location_name"`
	Continent    string      `json:"continent"`
	CoverURL     string      `json:"cover_url"`
	CoverWidth   int         `json:"cover_width"`
	CoverHeight  int         `json:"cover_height"`
	IsPublished  bool        `json:"is_published"`
	Blocks       []PostBlock `gorm:"constraint:OnDelete:CASCADE" json:"blocks"`
}

// PostBlock 定义了游记正文中的单个内容区块。
// 区块没有跨编辑的独立身份：每次更新都会整体重建集合，
// position 始终按提交顺序重新赋值。
type PostBlock struct {
	gorm.Model
	PostID       uint   `gorm:"index;not null" json:"post_id"`
	Type         string `gorm:"size:10;not null" json:"type"`
	Position     int    `gorm:"not null" json:"position"`
	TextContent  string `json:"text_content"`
	ImageURL     string `json:"image_url"`
	ImageCaption string `json:"image_caption"`
}

// VisitedCountry 记录用户标记的到访国家，(user, country_code) 唯一。
type VisitedCountry struct {
	gorm.Model
	UserID      uint   `gorm:"not null;uniqueIndex:idx_user_country" json:"user_id"`
	CountryCode string `gorm:"size:8;not null;uniqueIndex:idx_user_country" json:"country_code"`
}
