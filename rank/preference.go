package rank

import (
	"context"
	"sort"
	"strings"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/pipeline"
	"github.com/bibliotrack/recommender/pkg/utils"
)

// PreferenceBoost 是偏好调权节点：按用户的体裁/类目偏好对候选分数乘性加权。
//
// 偏好来自 core.FeatureService（内存实现或 Feast 在线特征），
// 形如 {"fantasy": 0.8, "mystery": 0.3}。候选物品体裁命中偏好时：
//
//	score *= 1 + Strength * weight
//
// 命中任一候选后按分数稳定降序重排，调权结果才能体现到最终名次；
// 无命中时保持上游顺序不动。
// 特征服务不可用、用户无画像、候选无体裁信息时一律原样放行，调权只增不减。
// 不在严格的混合排序路径上；未注入 Features 时该节点是空操作。
type PreferenceBoost struct {
	// Features 用户偏好特征服务；nil 时节点为空操作
	Features core.FeatureService

	// Cache 用于解析候选的体裁/类目
	Cache *bundle.Cache

	// Strength 调权强度；<= 0 时取 0.5
	Strength float64
}

func (n *PreferenceBoost) Name() string {
	return "rank.preference_boost"
}

func (n *PreferenceBoost) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *PreferenceBoost) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.Features == nil || n.Cache == nil || rctx == nil || rctx.UserID == "" || len(candidates) == 0 {
		return candidates, nil
	}

	prefs, err := n.Features.GetUserPreferences(ctx, rctx.UserID)
	if err != nil || len(prefs) == 0 {
		// 特征不可用时直接放行，不影响主链路
		return candidates, nil
	}

	b, err := n.Cache.Get(ctx)
	if err != nil {
		return candidates, nil
	}

	strength := n.Strength
	if strength <= 0 {
		strength = 0.5
	}

	boosted := false
	for _, cand := range candidates {
		if cand == nil {
			continue
		}
		rec, ok := b.RecordByKey(cand.Key)
		if !ok {
			continue
		}
		weight := matchPreference(prefs, rec.Genre, rec.Category)
		if weight <= 0 {
			continue
		}
		cand.Score *= 1 + strength*weight
		cand.PutLabel("preference_boost", utils.Label{Value: "hit", Source: "rank"})
		boosted = true
	}

	// 调权后按分数稳定降序重排；无命中时不动上游顺序
	if boosted {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i] == nil || candidates[j] == nil {
				return candidates[j] == nil
			}
			return candidates[i].Score > candidates[j].Score
		})
	}
	return candidates, nil
}

// matchPreference 返回体裁/类目命中的最大偏好权重；大小写不敏感。
func matchPreference(prefs map[string]float64, genre, category string) float64 {
	var best float64
	for key, w := range prefs {
		if w <= 0 {
			continue
		}
		lk := strings.ToLower(key)
		if lk == strings.ToLower(genre) || lk == strings.ToLower(category) {
			if w > best {
				best = w
			}
		}
	}
	return best
}
