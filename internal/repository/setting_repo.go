package repository

import (
	"Teamline/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type SettingRepo interface {
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	UpsertSetting(ctx context.Context, setting *model.Setting) error
}

type SettingRepoImpl struct {
	db *gorm.DB
}

func NewSettingRepo(db *gorm.DB) SettingRepo {
	return &SettingRepoImpl{db: db}
}

func (s *SettingRepoImpl) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	setting := &model.Setting{}
	result := s.db.WithContext(ctx).
		Where("`key` = ?", key).
		First(setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return setting, nil
}

func (s *SettingRepoImpl) UpsertSetting(ctx context.Context, setting *model.Setting) error {
	return s.db.WithContext(ctx).Save(setting).Error
}
