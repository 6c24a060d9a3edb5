package filter

import (
	"context"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/pkg/dsl"
)

// RuleFilter 是 CEL 表达式驱动的业务规则过滤器。
// 表达式对"应保留"的候选求值为 true；求值为 false 的候选被过滤。
//
// 物品属性从当前一代矩阵束的特征行解析，供表达式按
// item.genre / item.price / item.rating 访问。
//
// 示例：
//   - `item.price <= 200.0` → 只保留价格不超过 200 的候选
//   - `item.genre != "horror"` → 按场景排除某体裁
type RuleFilter struct {
	// Expr CEL 表达式；为空时不过滤
	Expr string

	// Cache 用于解析候选的物品属性
	Cache *bundle.Cache
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	cand *core.Candidate,
) (bool, error) {
	if cand == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}

	var attrs core.Attrs
	var typ core.ItemType
	if f.Cache != nil {
		if b, err := f.Cache.Get(ctx); err == nil {
			if rec, ok := b.RecordByKey(cand.Key); ok {
				attrs = core.Attrs{
					Title:       rec.Title,
					Author:      rec.Author,
					Genre:       rec.Genre,
					Category:    rec.Category,
					Description: rec.Description,
					Rating:      rec.Rating,
					Price:       rec.Price,
				}
				typ = rec.Type
			}
		}
	}

	keep, err := dsl.NewEval(cand, attrs, typ, rctx).Evaluate(f.Expr)
	if err != nil {
		// 表达式错误不拦截候选，交给 FilterNode 跳过本过滤器
		return false, err
	}
	return !keep, nil
}

var _ Filter = (*RuleFilter)(nil)
