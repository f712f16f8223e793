package host

import "testing"

func TestMemMetadataTable_BorrowIncrementsRefCount(t *testing.T) {
	table := NewMemMetadataTable()
	table.Put(1, &DocMeta{KeyPtr: "doc-1"})

	if got := table.RefCount(1); got != 0 {
		t.Fatalf("expected refcount 0 before any borrow, got %d", got)
	}

	dmd, ok := table.Borrow(1)
	if !ok || dmd.KeyPtr != "doc-1" {
		t.Fatalf("expected to borrow doc-1, got %v (ok=%v)", dmd, ok)
	}
	if got := table.RefCount(1); got != 1 {
		t.Fatalf("expected refcount 1 after one borrow, got %d", got)
	}

	table.Return(dmd)
	if got := table.RefCount(1); got != 0 {
		t.Fatalf("expected refcount 0 after return, got %d", got)
	}
}

func TestMemMetadataTable_BorrowMissingDocReturnsFalse(t *testing.T) {
	table := NewMemMetadataTable()
	dmd, ok := table.Borrow(99)
	if ok || dmd != nil {
		t.Fatalf("expected no entry for doc 99, got %v (ok=%v)", dmd, ok)
	}
}

func TestMemMetadataTable_MarkDeletedSetsFlag(t *testing.T) {
	table := NewMemMetadataTable()
	table.Put(1, &DocMeta{KeyPtr: "doc-1"})

	dmd, _ := table.Borrow(1)
	if dmd.IsDeleted() {
		t.Fatal("expected doc-1 to start undeleted")
	}

	table.MarkDeleted(1)
	if !dmd.IsDeleted() {
		t.Fatal("expected doc-1 to be deleted after MarkDeleted")
	}
}

func TestMemMetadataTable_MultipleBorrowsStack(t *testing.T) {
	table := NewMemMetadataTable()
	table.Put(1, &DocMeta{KeyPtr: "doc-1"})

	dmd1, _ := table.Borrow(1)
	dmd2, _ := table.Borrow(1)
	if table.RefCount(1) != 2 {
		t.Fatalf("expected refcount 2, got %d", table.RefCount(1))
	}

	table.Return(dmd1)
	if table.RefCount(1) != 1 {
		t.Fatalf("expected refcount 1 after one return, got %d", table.RefCount(1))
	}
	table.Return(dmd2)
	if table.RefCount(1) != 0 {
		t.Fatalf("expected refcount 0 after both returns, got %d", table.RefCount(1))
	}
}

func TestMemMetadataTable_ReturnNilIsNoOp(t *testing.T) {
	table := NewMemMetadataTable()
	table.Return(nil) // must not panic
}
