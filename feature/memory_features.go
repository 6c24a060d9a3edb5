package feature

import (
	"context"
	"sync"

	"github.com/bibliotrack/recommender/core"
)

// MemoryFeatureService 是内存实现的用户偏好特征服务，用于测试/开发/原型。
// 生产环境使用 feast.FeatureAdapter 对接在线 Feature Store。
type MemoryFeatureService struct {
	mu    sync.RWMutex
	prefs map[string]map[string]float64
}

func NewMemoryFeatureService() *MemoryFeatureService {
	return &MemoryFeatureService{
		prefs: make(map[string]map[string]float64),
	}
}

func (s *MemoryFeatureService) Name() string { return "memory" }

// SetUserPreferences 写入用户偏好（覆盖）。
func (s *MemoryFeatureService) SetUserPreferences(userID string, prefs map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]float64, len(prefs))
	for k, v := range prefs {
		cp[k] = v
	}
	s.prefs[userID] = cp
}

// GetUserPreferences 实现 core.FeatureService；无画像用户返回空 map。
func (s *MemoryFeatureService) GetUserPreferences(ctx context.Context, userID string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.prefs[userID]
	if !ok {
		return map[string]float64{}, nil
	}
	cp := make(map[string]float64, len(prefs))
	for k, v := range prefs {
		cp[k] = v
	}
	return cp, nil
}

var _ core.FeatureService = (*MemoryFeatureService)(nil)
