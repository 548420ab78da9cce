package ir

import (
	"strings"

	"github.com/google/uuid"
)

// Table is the ordered, unique-keyed mapping shared by TypeTable, SymbolTable
// and DeclTable: insertion order is preserved for document-order
// iteration, lookup is O(1).
type Table struct {
	kind    Kind
	order   []string
	entries map[string]*Node
}

func newTable(kind Kind) *Table {
	return &Table{kind: kind, entries: map[string]*Node{}}
}

// Lookup returns the entry for key, if present.
func (t *Table) Lookup(key string) (*Node, bool) {
	n, ok := t.entries[key]
	return n, ok
}

// Add inserts a new entry, failing if the key already exists.
func (t *Table) Add(key string, n *Node) error {
	if _, exists := t.entries[key]; exists {
		return errDuplicateKey(t.kind, key)
	}
	t.entries[key] = n
	t.order = append(t.order, key)
	return nil
}

// Remove deletes an entry by key. It is not an error to remove an absent key.
func (t *Table) Remove(key string) {
	if _, ok := t.entries[key]; !ok {
		return
	}
	delete(t.entries, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Keys returns the entry keys in insertion order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len reports the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// TypeTable indexes a program's BasicType/FunctionType entries by their
// generated hash key.
type TypeTable struct{ *Table }

// NewTypeTable constructs an empty type table.
func NewTypeTable() *TypeTable { return &TypeTable{newTable(KindTypeTable)} }

// GenerateFunctionTypeHash returns a fresh key guaranteed unique within this
// table. Cloning a function must call this *before* inserting the clone so
// later transformations observe a consistent table.
func (t *TypeTable) GenerateFunctionTypeHash() string {
	for {
		key := "F" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		if _, exists := t.Lookup(key); !exists {
			return key
		}
	}
}

// SymbolTable indexes a scope's Id entries by symbol name.
type SymbolTable struct{ *Table }

// NewSymbolTable constructs an empty symbol table.
func NewSymbolTable() *SymbolTable { return &SymbolTable{newTable(KindSymbolTable)} }

// DeclTable indexes a scope's VarDecl entries by symbol name.
type DeclTable struct{ *Table }

// NewDeclTable constructs an empty declaration table.
func NewDeclTable() *DeclTable { return &DeclTable{newTable(KindDeclTable)} }

func errDuplicateKey(kind Kind, key string) error {
	return &DuplicateKeyError{Kind: kind, Key: key}
}

// DuplicateKeyError is returned by Table.Add when the key already exists.
type DuplicateKeyError struct {
	Kind Kind
	Key  string
}

func (e *DuplicateKeyError) Error() string {
	return "ir: duplicate key " + e.Key + " in " + string(e.Kind)
}
