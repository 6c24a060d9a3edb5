package filter

import (
	"context"

	"github.com/bibliotrack/recommender/core"
)

// ExcludeKeysFilter 按合成键排除候选。
// 用于排除种子物品自身、用户已购物品等明确不再推荐的键。
type ExcludeKeysFilter struct {
	Keys map[string]struct{}
}

// NewExcludeKeysFilter 创建按键排除过滤器。
func NewExcludeKeysFilter(keys ...string) *ExcludeKeysFilter {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return &ExcludeKeysFilter{Keys: set}
}

func (f *ExcludeKeysFilter) Name() string {
	return "filter.exclude_keys"
}

func (f *ExcludeKeysFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	cand *core.Candidate,
) (bool, error) {
	if cand == nil {
		return true, nil
	}
	_, ok := f.Keys[cand.Key]
	return ok, nil
}

var _ Filter = (*ExcludeKeysFilter)(nil)
