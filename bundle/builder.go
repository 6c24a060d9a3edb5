package bundle

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/feature"
)

// Builder 从目录/交易存储构建矩阵束。
// 构建是从零重建：TF-IDF 与余弦相似度的增量更新正确性无法保证，刻意不做。
type Builder struct {
	Catalog core.CatalogStore

	// CountedStatuses 计入矩阵的交易状态集；为空时取 {confirmed, delivered}
	CountedStatuses map[string]struct{}

	// MaxVocabulary TF-IDF 词表上限；<= 0 时取 5000
	MaxVocabulary int

	// Logger 记录被跳过的畸形记录；零值时不输出
	Logger zerolog.Logger
}

// DefaultCountedStatuses 返回默认的计入状态集。
func DefaultCountedStatuses() map[string]struct{} {
	return map[string]struct{}{
		core.TxStatusConfirmed: {},
		core.TxStatusDelivered: {},
	}
}

// Build 整体构建一代矩阵束。任一环节失败则整代失败，不产出部分数据。
func (b *Builder) Build(ctx context.Context) (*Bundle, error) {
	if b.Catalog == nil {
		return nil, core.NewDomainError(core.ModuleBundle, core.ErrorCodeInvalidInput, "bundle: catalog store is required")
	}

	items, err := b.Catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("bundle: list items: %w", err)
	}

	// 快照内的全部合成键（含不可上架的用户书目），用于交易引用校验
	snapshot := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it != nil {
			snapshot[it.Key()] = struct{}{}
		}
	}

	records, err := feature.BuildRecords(ctx, b.Catalog)
	if err != nil {
		return nil, fmt.Errorf("bundle: build content features: %w", err)
	}

	userItem, err := b.buildUserItemMatrix(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("bundle: build user-item matrix: %w", err)
	}

	docs := make([]string, len(records))
	keys := make([]string, len(records))
	for i, r := range records {
		docs[i] = r.CombinedText()
		keys[i] = r.Key
	}

	vectorizer := &feature.Vectorizer{MaxFeatures: b.MaxVocabulary}
	vectors := vectorizer.FitTransform(docs)
	similarity := feature.SimilarityMatrix(vectors)

	keyIndex := make(map[string]int, len(keys))
	for i, k := range keys {
		keyIndex[k] = i
	}

	return &Bundle{
		UserItem:   userItem,
		Records:    records,
		Similarity: similarity,
		ItemKeys:   keys,
		BuiltAt:    time.Now(),
		keyIndex:   keyIndex,
	}, nil
}

// buildUserItemMatrix 把计入状态的交易转成稀疏隐式反馈矩阵。
// 权重固定 1.0：购买是存在信号而非频次信号，复购取 max 不累加。
// 畸形记录（双引用/无引用/引用不在快照内）记日志跳过，绝不中断。
func (b *Builder) buildUserItemMatrix(ctx context.Context, snapshot map[string]struct{}) (map[string]map[string]float64, error) {
	txs, err := b.Catalog.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	counted := b.CountedStatuses
	if len(counted) == 0 {
		counted = DefaultCountedStatuses()
	}

	matrix := make(map[string]map[string]float64)
	for _, tx := range txs {
		if _, ok := counted[tx.Status]; !ok {
			continue
		}
		ref, ok := tx.ItemRef()
		if !ok {
			b.Logger.Warn().
				Str("user_id", tx.UserID).
				Str("status", tx.Status).
				Msg("skip transaction with malformed item reference")
			continue
		}
		key := ref.Key()
		if _, ok := snapshot[key]; !ok {
			b.Logger.Warn().
				Str("user_id", tx.UserID).
				Str("item_key", key).
				Msg("skip transaction referencing item outside catalog snapshot")
			continue
		}
		row := matrix[tx.UserID]
		if row == nil {
			row = make(map[string]float64)
			matrix[tx.UserID] = row
		}
		if row[key] < 1.0 {
			row[key] = 1.0
		}
	}
	return matrix, nil
}
