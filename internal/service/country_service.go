package service

import (
	"errors"
	"strings"

	"github.com/wanderlog/internal/db"
	"gorm.io/gorm"
)

// ErrInvalidCountryCode 在提交的国家代码为空时返回
var ErrInvalidCountryCode = errors.New("invalid country code")

// CountryService 维护用户的到访国家清单。
type CountryService struct {
	db *gorm.DB
}

// NewCountryService 构造 CountryService。
func NewCountryService(gdb *gorm.DB) *CountryService {
	return &CountryService{db: gdb}
}

// Toggle 切换一个国家的到访标记，返回切换后是否为已到访。
func (s *CountryService) Toggle(userID uint, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, ErrInvalidCountryCode
	}

	var existing db.VisitedCountry
	err := s.db.Where("user_id = ? AND country_code = ?", userID, code).First(&existing).Error
	if err == nil {
		if err := s.db.Unscoped().Delete(&existing).Error; err != nil {
			return false, err
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := s.db.Create(&db.VisitedCountry{UserID: userID, CountryCode: code}).Error; err != nil {
		return false, err
	}
	return true, nil
}

// List 返回用户到访国家代码集合。
func (s *CountryService) List(userID uint) ([]string, error) {
	var codes []string
	if err := s.db.Model(&db.VisitedCountry{}).
		Where("user_id = ?", userID).
		Order("id asc").
		Pluck("country_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
