package core

import "testing"

func TestParseItemKey(t *testing.T) {
	tests := []struct {
		key     string
		want    ItemRef
		wantErr bool
	}{
		{key: "book_42", want: ItemRef{Type: ItemTypeBook, ID: 42}},
		// "user_book_" 前缀包含 "book_"，必须先匹配长前缀
		{key: "user_book_7", want: ItemRef{Type: ItemTypeUserBook, ID: 7}},
		{key: "book_", wantErr: true},
		{key: "book_abc", wantErr: true},
		{key: "magazine_1", wantErr: true},
		{key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseItemKey(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseItemKey(%q) = %v, want error", tt.key, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseItemKey(%q): %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("ParseItemKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestItemKeyRoundTrip(t *testing.T) {
	book := &CatalogItem{ID: 5}
	listing := &UserListedItem{ID: 5}
	if book.Key() == listing.Key() {
		t.Errorf("key collision between item types: %s", book.Key())
	}
	for _, it := range []Item{book, listing} {
		ref, err := ParseItemKey(it.Key())
		if err != nil {
			t.Fatalf("ParseItemKey(%s): %v", it.Key(), err)
		}
		if ref.Key() != it.Key() {
			t.Errorf("round trip %s -> %s", it.Key(), ref.Key())
		}
	}
}

func TestUserListedItem_AttrsDropRating(t *testing.T) {
	listing := &UserListedItem{ID: 1, Attributes: Attrs{Title: "Used", Rating: 4.5}}
	if got := listing.Attrs().Rating; got != 0 {
		t.Errorf("listing rating = %v, want 0 (no platform rating)", got)
	}
	if listing.Attrs().Title != "Used" {
		t.Error("other attrs lost")
	}
}

func TestTransaction_ItemRef(t *testing.T) {
	ptr := func(v int64) *int64 { return &v }
	tests := []struct {
		name string
		tx   Transaction
		want ItemRef
		ok   bool
	}{
		{"book ref", Transaction{BookID: ptr(1)}, ItemRef{Type: ItemTypeBook, ID: 1}, true},
		{"listing ref", Transaction{ListingID: ptr(2)}, ItemRef{Type: ItemTypeUserBook, ID: 2}, true},
		{"both set", Transaction{BookID: ptr(1), ListingID: ptr(2)}, ItemRef{}, false},
		{"neither set", Transaction{}, ItemRef{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.tx.ItemRef()
			if ok != tt.ok || got != tt.want {
				t.Errorf("ItemRef() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
