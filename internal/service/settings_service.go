package service

import (
	"Teamline/internal/model"
	"Teamline/internal/pkg/consts"
	"Teamline/internal/pkg/redis"
	"Teamline/internal/repository"
	"context"
	log "log/slog"
	"time"
)

// SettingsService 运行时功能开关查询，带 Redis 短缓存
type SettingsService interface {
	GetBool(ctx context.Context, key string) bool
	SetBool(ctx context.Context, key string, value bool) error
}

type settingsServiceImpl struct {
	settingRepo repository.SettingRepo
}

func NewSettingsService(settingRepo repository.SettingRepo) SettingsService {
	return &settingsServiceImpl{settingRepo: settingRepo}
}

// GetBool 查询布尔开关；未配置或查询失败一律按关闭处理
func (s *settingsServiceImpl) GetBool(ctx context.Context, key string) bool {
	cacheKey := consts.SettingCacheKey + key
	cached, err := redis.GetValue(ctx, cacheKey)
	if err == nil && cached != "" {
		return cached == "true"
	}

	setting, err := s.settingRepo.GetSetting(ctx, key)
	if err != nil {
		log.ErrorContext(ctx, "setting lookup failed", "key", key, "err", err)
		return false
	}

	value := setting != nil && (setting.Value == "true" || setting.Value == "1")

	str := "false"
	if value {
		str = "true"
	}
	_ = redis.SetWithExpiration(ctx, cacheKey, str, consts.SettingCacheTTLSeconds*time.Second)

	return value
}

// SetBool 写入开关并失效缓存
func (s *settingsServiceImpl) SetBool(ctx context.Context, key string, value bool) error {
	str := "false"
	if value {
		str = "true"
	}
	err := s.settingRepo.UpsertSetting(ctx, &model.Setting{
		Key:   key,
		Value: str,
		Type:  "boolean",
	})
	if err != nil {
		return err
	}
	return redis.DeleteKey(ctx, consts.SettingCacheKey+key)
}
