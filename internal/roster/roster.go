package roster

import (
	"context"
	"encoding/json"
	"time"

	"pulsegrid-client/internal/models"
	"pulsegrid-client/internal/store"

	"go.uber.org/zap"
)

const cacheKey = "pulsegrid:practitioner-roster"

// RosterAPI 医师名册所需的远端能力
type RosterAPI interface {
	Practitioners(ctx context.Context) ([]models.Practitioner, error)
}

// Loader 医师名册加载器
// 名册很少变化，带 TTL 缓存减少重复拉取；缓存任何异常都退化为直接回源，
// 不阻塞跟诊模式下的老师选择。
type Loader struct {
	api    RosterAPI
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger
}

// NewLoader 创建名册加载器
func NewLoader(apiClient RosterAPI, kv store.KV, ttl time.Duration, logger *zap.Logger) *Loader {
	return &Loader{
		api:    apiClient,
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

// Get 获取医师名册（优先缓存，miss 或损坏时回源并回填）
func (l *Loader) Get(ctx context.Context) ([]models.Practitioner, error) {
	if raw, err := l.kv.Get(ctx, cacheKey); err == nil {
		var cached []models.Practitioner
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		}
		l.logger.Warn("roster cache corrupted, refetching")
	} else if err != store.ErrMiss {
		l.logger.Warn("roster cache read failed", zap.Error(err))
	}

	list, err := l.api.Practitioners(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(list); err == nil {
		if err := l.kv.Set(ctx, cacheKey, string(data), l.ttl); err != nil {
			l.logger.Warn("roster cache write failed", zap.Error(err))
		}
	}

	l.logger.Debug("practitioner roster fetched", zap.Int("count", len(list)))
	return list, nil
}

// Teachers 名册中的带教老师（跟诊模式的老师下拉选项）
func (l *Loader) Teachers(ctx context.Context) ([]models.Practitioner, error) {
	list, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	teachers := make([]models.Practitioner, 0, len(list))
	for _, p := range list {
		if p.Role == "teacher" {
			teachers = append(teachers, p)
		}
	}
	return teachers, nil
}
