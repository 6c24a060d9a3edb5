package filter

import (
	"context"

	"github.com/bibliotrack/recommender/core"
)

// AvailabilityFilter 过滤当前不可上架的用户书目。
// 矩阵束构建时已排除不可上架条目，但一代缓存最长存活 30 分钟，
// 期间下架的条目仍可能出现在候选里，这里按实时目录状态兜底剔除。
type AvailabilityFilter struct {
	Catalog core.CatalogStore
}

func (f *AvailabilityFilter) Name() string {
	return "filter.availability"
}

func (f *AvailabilityFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	cand *core.Candidate,
) (bool, error) {
	if cand == nil {
		return true, nil
	}
	if f.Catalog == nil {
		return false, nil
	}

	ref, err := core.ParseItemKey(cand.Key)
	if err != nil {
		return true, nil
	}
	// 平台目录书目不走上架状态
	if ref.Type != core.ItemTypeUserBook {
		return false, nil
	}

	it, err := f.Catalog.GetItem(ctx, ref)
	if err != nil {
		if core.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	listing, ok := it.(*core.UserListedItem)
	if !ok {
		return false, nil
	}
	return !listing.Available, nil
}

var _ Filter = (*AvailabilityFilter)(nil)
