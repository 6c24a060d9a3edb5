package catalog

import (
	"context"
	"sync"

	"github.com/bibliotrack/recommender/core"
)

// MemoryCatalog 是内存实现的目录与交易存储，用于测试/开发/原型。
// 应用方生产环境基于自身数据库实现 core.CatalogStore。
type MemoryCatalog struct {
	mu           sync.RWMutex
	items        map[string]core.Item // 合成键 -> 物品
	keys         []string             // 插入顺序（ListItems 不承诺稳定排序）
	transactions []core.Transaction
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		items: make(map[string]core.Item),
	}
}

func (c *MemoryCatalog) Name() string { return "memory" }

// AddItem 加入一个物品（目录书目或用户上架书目），同键覆盖。
func (c *MemoryCatalog) AddItem(it core.Item) {
	if it == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := it.Key()
	if _, ok := c.items[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.items[key] = it
}

// AddTransaction 追加一条交易记录。记录只增不改，复购产生新记录。
func (c *MemoryCatalog) AddTransaction(tx core.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions = append(c.transactions, tx)
}

func (c *MemoryCatalog) ListItems(ctx context.Context) ([]core.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Item, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out, nil
}

func (c *MemoryCatalog) GetItem(ctx context.Context, ref core.ItemRef) (core.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[ref.Key()]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	return it, nil
}

func (c *MemoryCatalog) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Transaction, len(c.transactions))
	copy(out, c.transactions)
	return out, nil
}

var _ core.CatalogStore = (*MemoryCatalog)(nil)
