package recall

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/pkg/utils"
)

// ScoredKey 是 (合成键, 分数) 对。
type ScoredKey struct {
	Key   string
	Score float64
}

// UserCF 是基于用户的协同过滤打分器（User-based Collaborative Filtering）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 算法流程：
//  1. 目标用户行 vs 其余每个用户行，在全列并集上算 Pearson 相关（缺失视为 0）
//  2. 零方差行的相关系数无定义，跳过该邻居
//  3. 取相关度最高的 TopNeighbors 个邻居
//  4. 对相关度 > MinCorrelation 的邻居，其已购而目标未购的物品累加 相关度 × 权重
//  5. 按累计分降序排列，分数并列按合成键升序，保证确定性
//
// 冷启动（用户不在矩阵里 / 矩阵为空）返回空列表，由调用方降级到内容或热门。
type UserCF struct {
	// TopNeighbors 参与加权的相似用户数；<= 0 时取 10
	TopNeighbors int

	// MinCorrelation 纳入加权的最小相关系数；<= 0 时取 0.1
	MinCorrelation float64

	// Logger 记录被跳过的邻居；零值时不输出
	Logger zerolog.Logger
}

// ScoreCandidates 对矩阵中的目标用户打分，返回按分数降序的候选键列表。
// 单个邻居的相关计算失败只跳过该邻居，不中断整轮打分。
func (r *UserCF) ScoreCandidates(userID string, matrix map[string]map[string]float64) []ScoredKey {
	if len(matrix) == 0 {
		return nil
	}
	target, ok := matrix[userID]
	if !ok || len(target) == 0 {
		return nil
	}

	// 全列并集：Pearson 在所有物品列上计算，缺失条目视为 0
	columns := make([]string, 0)
	seen := make(map[string]struct{})
	for _, row := range matrix {
		for key := range row {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}

	type neighbor struct {
		userID string
		corr   float64
	}
	neighbors := make([]neighbor, 0, len(matrix)-1)
	for otherID, row := range matrix {
		if otherID == userID || len(row) == 0 {
			continue
		}
		corr, ok := pearsonOverColumns(target, row, columns)
		if !ok {
			// 零方差行，相关系数无定义
			r.Logger.Debug().Str("neighbor", otherID).Msg("skip neighbor with undefined correlation")
			continue
		}
		neighbors = append(neighbors, neighbor{userID: otherID, corr: corr})
	}

	// 相关度降序，并列按用户 ID 升序，保证确定性
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].corr != neighbors[j].corr {
			return neighbors[i].corr > neighbors[j].corr
		}
		return neighbors[i].userID < neighbors[j].userID
	})

	topK := r.TopNeighbors
	if topK <= 0 {
		topK = 10
	}
	if len(neighbors) > topK {
		neighbors = neighbors[:topK]
	}

	minCorr := r.MinCorrelation
	if minCorr <= 0 {
		minCorr = 0.1
	}

	// score[item] += corr * weight，只累加目标用户未购的物品
	scores := make(map[string]float64)
	for _, nb := range neighbors {
		if nb.corr <= minCorr {
			continue
		}
		for key, weight := range matrix[nb.userID] {
			if weight <= 0 {
				continue
			}
			if target[key] > 0 {
				continue
			}
			scores[key] += nb.corr * weight
		}
	}

	out := make([]ScoredKey, 0, len(scores))
	for key, score := range scores {
		out = append(out, ScoredKey{Key: key, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// pearsonOverColumns 在给定列集上计算两行的 Pearson 相关系数。
// 任一侧零方差时相关系数无定义，返回 (0, false)。
func pearsonOverColumns(a, b map[string]float64, columns []string) (float64, bool) {
	n := float64(len(columns))
	if n == 0 {
		return 0, false
	}

	var meanA, meanB float64
	for _, col := range columns {
		meanA += a[col]
		meanB += b[col]
	}
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for _, col := range columns {
		da := a[col] - meanA
		db := b[col] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0, false
	}
	corr := cov / math.Sqrt(varA*varB)
	if math.IsNaN(corr) {
		return 0, false
	}
	return corr, true
}

// CollaborativeSource 把 UserCF 封装成召回源：从矩阵束缓存取当前一代矩阵。
type CollaborativeSource struct {
	Cache *bundle.Cache
	CF    UserCF

	// TopK 返回的候选数上限；<= 0 不截断
	TopK int
}

func (s *CollaborativeSource) Name() string { return "recall.collaborative" }

func (s *CollaborativeSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	if s.Cache == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	b, err := s.Cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	scored := s.CF.ScoreCandidates(rctx.UserID, b.UserItem)
	if s.TopK > 0 && len(scored) > s.TopK {
		scored = scored[:s.TopK]
	}

	out := make([]*core.Candidate, 0, len(scored))
	for _, sk := range scored {
		c := core.NewCandidate(sk.Key)
		c.Score = sk.Score
		c.PutLabel("recall_source", utils.Label{Value: "collaborative", Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}

var _ Source = (*CollaborativeSource)(nil)
