package core

import (
	"context"
	"time"
)

// 交易状态。只有"已确认/已送达"的交易计入隐式反馈矩阵。
const (
	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusShipped   = "shipped"
	TxStatusDelivered = "delivered"
	TxStatusCancelled = "cancelled"
)

// Transaction 是一条历史交易记录（隐式反馈来源）。
// BookID 与 ListingID 恰好一个非 nil；两者都设置或都缺失属于数据完整性问题，
// 矩阵构建时记日志并跳过，绝不中断。
type Transaction struct {
	UserID    string
	BookID    *int64 // 指向平台目录书目
	ListingID *int64 // 指向用户上架书目
	Status    string
	At        time.Time
}

// ItemRef 从交易记录解析出物品引用。
// 返回 (ref, true) 表示引用有效；(_, false) 表示记录畸形（两者都有或都没有）。
func (t *Transaction) ItemRef() (ItemRef, bool) {
	switch {
	case t.BookID != nil && t.ListingID == nil:
		return ItemRef{Type: ItemTypeBook, ID: *t.BookID}, true
	case t.BookID == nil && t.ListingID != nil:
		return ItemRef{Type: ItemTypeUserBook, ID: *t.ListingID}, true
	default:
		return ItemRef{}, false
	}
}

// CatalogStore 是目录与交易历史存储的领域接口（外部协作方）。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（catalog 包或应用方）实现
//   - 推荐子系统只读，绝不写回
//   - ListItems 的返回顺序不要求稳定，特征构建时统一按合成键排序
//
// 实现：
//   - catalog.MemoryCatalog 实现此接口（测试/开发/原型）
//   - 应用方可基于自身数据库实现此接口
type CatalogStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// ListItems 返回全部物品：目录书目 + 用户上架书目（含不可上架的）
	ListItems(ctx context.Context) ([]Item, error)

	// GetItem 按引用查找单个物品；不存在时返回 NOT_FOUND
	GetItem(ctx context.Context, ref ItemRef) (Item, error)

	// ListTransactions 返回全部历史交易（各状态）；
	// 计入矩阵的状态集由调用方（bundle.Builder）控制
	ListTransactions(ctx context.Context) ([]Transaction, error)
}

// ErrItemNotFound 表示物品不存在
var ErrItemNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: item not found")
