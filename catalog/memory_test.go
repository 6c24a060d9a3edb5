package catalog

import (
	"context"
	"testing"

	"github.com/bibliotrack/recommender/core"
)

func TestMemoryCatalog(t *testing.T) {
	cat := NewMemoryCatalog()
	ctx := context.Background()

	cat.AddItem(&core.CatalogItem{ID: 1, Attributes: core.Attrs{Title: "A"}})
	cat.AddItem(&core.UserListedItem{ID: 1, Available: true, Attributes: core.Attrs{Title: "Listed A"}})

	// book_1 与 user_book_1 是不同的物品
	items, err := cat.ListItems(ctx)
	if err != nil || len(items) != 2 {
		t.Fatalf("ListItems = %v, %v", items, err)
	}

	it, err := cat.GetItem(ctx, core.ItemRef{Type: core.ItemTypeBook, ID: 1})
	if err != nil || it.Attrs().Title != "A" {
		t.Errorf("GetItem(book_1) = %v, %v", it, err)
	}

	if _, err := cat.GetItem(ctx, core.ItemRef{Type: core.ItemTypeBook, ID: 99}); !core.IsNotFound(err) {
		t.Errorf("GetItem(missing) err = %v", err)
	}

	// 同键覆盖不产生重复
	cat.AddItem(&core.CatalogItem{ID: 1, Attributes: core.Attrs{Title: "A2"}})
	items, _ = cat.ListItems(ctx)
	if len(items) != 2 {
		t.Errorf("overwrite duplicated items: %d", len(items))
	}

	id := int64(1)
	cat.AddTransaction(core.Transaction{UserID: "u", BookID: &id, Status: core.TxStatusDelivered})
	txs, err := cat.ListTransactions(ctx)
	if err != nil || len(txs) != 1 {
		t.Errorf("ListTransactions = %v, %v", txs, err)
	}
}
