package core

import "time"

// RecommendConfig 是推荐引擎的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultTopNeighbors 协同打分考虑的相似用户数
	DefaultTopNeighbors() int

	// DefaultCorrelationThreshold 纳入加权的最小相关系数
	DefaultCorrelationThreshold() float64

	// DefaultSimilarityThreshold 内容相似候选的最小相似度
	DefaultSimilarityThreshold() float64

	// DefaultMaxVocabulary TF-IDF 词表上限
	DefaultMaxVocabulary() int

	// DefaultBundleTTL 矩阵束缓存的有效期
	DefaultBundleTTL() time.Duration

	// DefaultQueryTTL 按查询维度结果缓存的有效期
	DefaultQueryTTL() time.Duration
}

// DefaultRecommendConfig 是默认配置实现。
// 阈值与 TTL 沿用线上验证过的取值：10 个近邻、0.1 双阈值、30 分钟缓存。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultTopNeighbors() int { return 10 }

func (c *DefaultRecommendConfig) DefaultCorrelationThreshold() float64 { return 0.1 }

func (c *DefaultRecommendConfig) DefaultSimilarityThreshold() float64 { return 0.1 }

func (c *DefaultRecommendConfig) DefaultMaxVocabulary() int { return 5000 }

func (c *DefaultRecommendConfig) DefaultBundleTTL() time.Duration { return 30 * time.Minute }

func (c *DefaultRecommendConfig) DefaultQueryTTL() time.Duration { return 30 * time.Minute }
