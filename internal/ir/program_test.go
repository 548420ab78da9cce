package ir

import "testing"

func TestNewProgramIndexesExistingTypeTable(t *testing.T) {
	typeTable := NewNode(KindTypeTable)
	entry := NewNode(KindBasicType)
	entry.SetAttr(AttrType, "t1")
	entry.SetAttr(AttrDims, "2")
	typeTable.AddChild(entry)

	ref := NewNode(KindVarRef)
	ref.SetAttr(AttrType, "t1")

	root := NewNode(KindProgram)
	root.AddChild(typeTable)
	root.AddChild(ref)

	prog := NewProgram(root)

	got, ok := prog.Types.Lookup("t1")
	if !ok {
		t.Fatal("expected t1 indexed from the document's own typeTable")
	}
	if got != entry {
		t.Fatal("expected the indexed entry to be the tree node itself, not a copy")
	}
}

func TestNewProgramIndexesGlobalSymbolsAndDeclarations(t *testing.T) {
	symbols := NewNode(KindSymbolTable)
	id := NewNode(KindId)
	id.Text = "n"
	symbols.AddChild(id)

	decls := NewNode(KindDeclTable)
	decl := NewNode(KindVarDecl)
	decl.SetAttr(AttrName, "n")
	decls.AddChild(decl)

	root := NewNode(KindProgram)
	root.AddChild(symbols)
	root.AddChild(decls)

	prog := NewProgram(root)

	if _, ok := prog.GlobalSymbols.Lookup("n"); !ok {
		t.Fatal("expected n indexed from the document's own globalSymbols")
	}
	if got, ok := prog.GlobalDecls.Lookup("n"); !ok || got != decl {
		t.Fatal("expected n indexed from the document's own globalDeclarations")
	}
}

func TestNewProgramWithoutTableNodesStartsEmpty(t *testing.T) {
	root := NewNode(KindBody)
	prog := NewProgram(root)

	if prog.Types.Len() != 0 || prog.GlobalSymbols.Len() != 0 || prog.GlobalDecls.Len() != 0 {
		t.Fatal("expected empty tables for a document with no table container nodes")
	}
}
