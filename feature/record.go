package feature

import (
	"context"
	"sort"
	"strings"

	"github.com/bibliotrack/recommender/core"
)

// Record 是单个物品的内容特征行：文本特征拼成一个 blob 供向量化，
// 数值侧特征（Rating/Price）供上层加权使用。
type Record struct {
	Key         string
	Type        core.ItemType
	Title       string
	Author      string
	Genre       string
	Category    string
	Description string
	Rating      float64
	Price       float64
}

// CombinedText 返回用于 TF-IDF 向量化的拼接文本。
func (r Record) CombinedText() string {
	return strings.Join([]string{r.Title, r.Author, r.Genre, r.Category, r.Description}, " ")
}

// BuildRecords 从目录构建内容特征：全部目录书目 + 可上架的用户书目。
// 不可上架（Available=false）的用户书目被排除。
// 无副作用；按合成键稳定排序，保证同一份目录快照下矩阵下标可复现。
func BuildRecords(ctx context.Context, store core.CatalogStore) ([]Record, error) {
	items, err := store.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if listing, ok := it.(*core.UserListedItem); ok && !listing.Available {
			continue
		}
		a := it.Attrs()
		records = append(records, Record{
			Key:         it.Key(),
			Type:        it.Type(),
			Title:       a.Title,
			Author:      a.Author,
			Genre:       a.Genre,
			Category:    a.Category,
			Description: a.Description,
			Rating:      a.Rating,
			Price:       a.Price,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Key < records[j].Key
	})
	return records, nil
}
