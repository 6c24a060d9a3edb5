package core

import "github.com/bibliotrack/recommender/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/种子/场景信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// UserID 目标用户；为空表示匿名请求（协同半边直接跳过）
	UserID string

	// SeedItemKey 内容推荐的种子物品合成键（例如详情页当前书目）；
	// 为空表示无种子，内容半边跳过
	SeedItemKey string

	// TopN 期望返回的结果数量上限
	TopN int

	// Scene 调用场景（详情页 / 首页 / 聊天助手），仅用于观测
	Scene string

	// Labels 请求级标签，可驱动 Pipeline 行为（例如新用户）
	Labels map[string]utils.Label

	// Params 请求级上下文参数，供规则过滤等节点读取
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
