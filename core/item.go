package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemType 标记物品的来源变体：平台目录书目 / 用户上架的二手书。
// 两种变体统一通过合成键 "{type}_{id}" 在推荐链路中流转。
type ItemType string

const (
	// ItemTypeBook 平台目录中的书目
	ItemTypeBook ItemType = "book"
	// ItemTypeUserBook 用户自行上架的书目（无平台评分）
	ItemTypeUserBook ItemType = "user_book"
)

// Attrs 是两种物品变体共享的只读属性集。
// 推荐子系统只读取这些字段，从不回写。
type Attrs struct {
	Title       string
	Author      string
	Genre       string
	Category    string
	Description string
	Rating      float64 // 平台书目为评分聚合值；用户上架书目恒为 0
	Price       float64
}

// Item 是物品的 sum type：*CatalogItem 或 *UserListedItem。
// 通过 Type 标签做模式匹配，不做运行时字段探测。
type Item interface {
	// Key 返回合成键，例如 "book_42" / "user_book_7"
	Key() string
	// Type 返回变体标签
	Type() ItemType
	// Attrs 返回共享属性集
	Attrs() Attrs
}

// CatalogItem 是平台目录中的书目。
type CatalogItem struct {
	ID         int64
	Attributes Attrs
}

func (b *CatalogItem) Key() string    { return fmt.Sprintf("%s_%d", ItemTypeBook, b.ID) }
func (b *CatalogItem) Type() ItemType { return ItemTypeBook }
func (b *CatalogItem) Attrs() Attrs   { return b.Attributes }

// UserListedItem 是用户上架的二手书目。
// Available 为 false 的条目不进入内容特征，也不出现在推荐结果中。
type UserListedItem struct {
	ID         int64
	Attributes Attrs
	Available  bool
}

func (u *UserListedItem) Key() string    { return fmt.Sprintf("%s_%d", ItemTypeUserBook, u.ID) }
func (u *UserListedItem) Type() ItemType { return ItemTypeUserBook }

// Attrs 返回共享属性集；用户上架书目没有平台评分聚合，Rating 恒为 0。
func (u *UserListedItem) Attrs() Attrs {
	a := u.Attributes
	a.Rating = 0
	return a
}

var (
	_ Item = (*CatalogItem)(nil)
	_ Item = (*UserListedItem)(nil)
)

// ItemRef 是从合成键还原出的 (变体, ID) 引用。
type ItemRef struct {
	Type ItemType
	ID   int64
}

// Key 返回引用的合成键。
func (r ItemRef) Key() string { return fmt.Sprintf("%s_%d", r.Type, r.ID) }

// ParseItemKey 解析合成键 "{type}_{id}"。
// 注意先匹配 "user_book_" 前缀，"book_" 是它的后缀子串。
func ParseItemKey(key string) (ItemRef, error) {
	var (
		typ ItemType
		raw string
	)
	switch {
	case strings.HasPrefix(key, string(ItemTypeUserBook)+"_"):
		typ = ItemTypeUserBook
		raw = key[len(ItemTypeUserBook)+1:]
	case strings.HasPrefix(key, string(ItemTypeBook)+"_"):
		typ = ItemTypeBook
		raw = key[len(ItemTypeBook)+1:]
	default:
		return ItemRef{}, NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, "catalog: malformed item key "+key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ItemRef{}, NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, "catalog: malformed item key "+key)
	}
	return ItemRef{Type: typ, ID: id}, nil
}
