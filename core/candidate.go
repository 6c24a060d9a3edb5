package core

import "github.com/bibliotrack/recommender/pkg/utils"

// Candidate 是推荐链路中的统一承载结构：合成键、分数、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// 物品属性在链路末端由 CatalogStore 解析，链路中间只携带键。
type Candidate struct {
	Key    string
	Score  float64
	Labels map[string]utils.Label
}

func NewCandidate(key string) *Candidate {
	return &Candidate{
		Key:    key,
		Score:  0,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}
