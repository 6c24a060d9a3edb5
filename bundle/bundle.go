package bundle

import (
	"time"

	"github.com/bibliotrack/recommender/feature"
)

// Bundle 是一代推荐矩阵束：用户-物品交互矩阵、内容特征行、内容相似度矩阵。
// 三者从同一份目录/交易快照整体构建、整体缓存，杜绝下标错位。
//
// 不变式：
//   - Similarity 的下标与 ItemKeys / Records 一一对应，仅在本代内有效；
//     重建产生新下标，两代之间绝不混用
//   - 构建完成后不可变：重建整体替换，从不增量修补
type Bundle struct {
	// UserItem 稀疏用户-物品矩阵：user_id -> (合成键 -> 权重)；缺失条目即权重 0
	UserItem map[string]map[string]float64

	// Records 内容特征行，按合成键升序
	Records []feature.Record

	// Similarity 稠密对称相似度矩阵，下标对应 ItemKeys
	Similarity [][]float64

	// ItemKeys 本代的有序物品键列表（与 Records 同序）
	ItemKeys []string

	// BuiltAt 构建完成时间，缓存层据此判定新鲜度
	BuiltAt time.Time

	keyIndex map[string]int
}

// IndexOf 返回合成键在本代相似度矩阵中的下标。
func (b *Bundle) IndexOf(key string) (int, bool) {
	idx, ok := b.keyIndex[key]
	return idx, ok
}

// RecordByKey 返回合成键对应的内容特征行。
func (b *Bundle) RecordByKey(key string) (feature.Record, bool) {
	idx, ok := b.keyIndex[key]
	if !ok {
		return feature.Record{}, false
	}
	return b.Records[idx], true
}

// UserCount 返回矩阵中的用户行数。
func (b *Bundle) UserCount() int { return len(b.UserItem) }
