package feast

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/pkg/conv"
)

// FeatureAdapter 把 Feast 在线特征适配为 core.FeatureService。
//
// 约定特征命名为 <feature_view>:pref_<体裁或类目>，例如
// "reader_profile:pref_fantasy"。取值即偏好权重（0 表示无偏好）。
//
// 示例：
//
//	client, _ := feast.NewGrpcClient("localhost", 6565, "bookstore")
//	svc := feast.NewFeatureAdapter(client,
//		"reader_profile:pref_fantasy",
//		"reader_profile:pref_mystery",
//	)
type FeatureAdapter struct {
	// Client Feast 客户端
	Client Client

	// FeatureRefs 要拉取的偏好特征列表
	FeatureRefs []string

	// EntityKey 实体主键名，默认 "user_id"
	EntityKey string

	// Logger 结构化日志
	Logger zerolog.Logger
}

func NewFeatureAdapter(client Client, featureRefs ...string) *FeatureAdapter {
	return &FeatureAdapter{
		Client:      client,
		FeatureRefs: featureRefs,
		EntityKey:   "user_id",
		Logger:      zerolog.Nop(),
	}
}

func (a *FeatureAdapter) Name() string { return "feast" }

// GetUserPreferences 拉取用户的偏好权重并归一化命名：
// 特征名去掉 feature_view 前缀和 pref_ 前缀后作为偏好 key。
// 权重为 0 的特征不计入结果。
func (a *FeatureAdapter) GetUserPreferences(ctx context.Context, userID string) (map[string]float64, error) {
	if a.Client == nil {
		return nil, core.ErrFeatureUnavailable
	}
	if userID == "" || len(a.FeatureRefs) == 0 {
		return map[string]float64{}, nil
	}

	entityKey := a.EntityKey
	if entityKey == "" {
		entityKey = "user_id"
	}

	resp, err := a.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   a.FeatureRefs,
		EntityRows: []map[string]interface{}{{entityKey: userID}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrFeatureUnavailable, err)
	}
	if len(resp.FeatureVectors) == 0 {
		return map[string]float64{}, nil
	}

	prefs := make(map[string]float64)
	for name, raw := range resp.FeatureVectors[0].Values {
		weight, ok := conv.ToFloat64(raw)
		if !ok {
			a.Logger.Debug().Str("feature", name).Msg("feast: non-numeric preference value, skipped")
			continue
		}
		if weight == 0 {
			continue
		}
		prefs[preferenceKey(name)] = weight
	}
	return prefs, nil
}

// preferenceKey 把特征名转为偏好 key："reader_profile:pref_fantasy" -> "fantasy"
func preferenceKey(featureRef string) string {
	name := featureRef
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimPrefix(name, "pref_")
	return name
}

// 确保 FeatureAdapter 实现了 core.FeatureService 接口
var _ core.FeatureService = (*FeatureAdapter)(nil)
