package ir

import "testing"

func TestTableRejectsDuplicateKeys(t *testing.T) {
	tbl := NewSymbolTable()
	n := NewNode(KindId)
	if err := tbl.Add("x", n); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	err := tbl.Add("x", NewNode(KindId))
	if err == nil {
		t.Fatal("expected duplicate key to fail")
	}
	if _, ok := err.(*DuplicateKeyError); !ok {
		t.Fatalf("expected *DuplicateKeyError, got %T", err)
	}
}

func TestTablePreservesInsertionOrder(t *testing.T) {
	tbl := NewDeclTable()
	for _, k := range []string{"c", "a", "b"} {
		if err := tbl.Add(k, NewNode(KindVarDecl)); err != nil {
			t.Fatalf("add %q: %v", k, err)
		}
	}
	got := tbl.Keys()
	want := []string{"c", "a", "b"}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestGenerateFunctionTypeHashIsUnique(t *testing.T) {
	types := NewTypeTable()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		h := types.GenerateFunctionTypeHash()
		if seen[h] {
			t.Fatalf("duplicate hash generated: %s", h)
		}
		seen[h] = true
		_ = types.Add(h, NewNode(KindFunctionType))
	}
}
