package core

import "context"

// FeatureService 是用户偏好特征服务的统一接口。
// 为偏好加权节点（rank.PreferenceBoost）提供用户的长期偏好信号，
// 例如收藏的体裁权重 {"fantasy": 0.8, "mystery": 0.3}。
//
// 实现：
//   - feature.MemoryFeatureService（测试/开发/原型）
//   - feast.FeatureAdapter（在线 Feature Store，生产）
type FeatureService interface {
	// Name 返回特征服务名称（用于日志/监控）
	Name() string

	// GetUserPreferences 获取用户的体裁/类目偏好权重。
	// 用户无画像时返回空 map，不返回错误。
	GetUserPreferences(ctx context.Context, userID string) (map[string]float64, error)
}

// ErrFeatureUnavailable 表示特征服务不可用
var ErrFeatureUnavailable = NewDomainError(ModuleFeature, ErrorCodeUnavailable, "feature: service unavailable")
