package ir

import "github.com/loopweave/xform/internal/diagnostics"

// Program is the root of an owned IR document: it
// exclusively owns every node reachable from Root, and carries the two
// ordered diagnostic lists exposed at the engine boundary.
type Program struct {
	Root           *Node
	Types          *TypeTable
	GlobalSymbols  *SymbolTable
	GlobalDecls    *DeclTable
	Errors         []*diagnostics.Diagnostic
	Warnings       []*diagnostics.Diagnostic
}

// NewProgram wraps a deserialized root node, indexing any typeTable,
// globalSymbols, and globalDeclarations container children it finds into
// fast-lookup tables over the nodes already present in the tree. The tables
// are indexes, not separate storage: a document with no such children (a
// tree built entirely by directive-driven transformations, with no front
// end behind it) simply gets empty tables.
func NewProgram(root *Node) *Program {
	p := &Program{
		Root:          root,
		Types:         NewTypeTable(),
		GlobalSymbols: NewSymbolTable(),
		GlobalDecls:   NewDeclTable(),
	}
	for _, c := range root.Children {
		switch c.Kind {
		case KindTypeTable:
			for _, entry := range c.Children {
				if key, ok := entry.Attr(AttrType); ok {
					_ = p.Types.Add(key, entry)
				}
			}
		case KindSymbolTable:
			for _, entry := range c.Children {
				if key := entryKey(entry); key != "" {
					_ = p.GlobalSymbols.Add(key, entry)
				}
			}
		case KindDeclTable:
			for _, entry := range c.Children {
				if key := entryKey(entry); key != "" {
					_ = p.GlobalDecls.Add(key, entry)
				}
			}
		}
	}
	return p
}

// entryKey returns the name a symbol- or declaration-table entry is keyed
// by: its "name" attribute if set, falling back to its literal text.
func entryKey(n *Node) string {
	if v, ok := n.Attr(AttrName); ok {
		return v
	}
	return n.Text
}

// AddError records a diagnostic in the program's error list. Empty or nil
// diagnostics are silently dropped.
func (p *Program) AddError(d *diagnostics.Diagnostic) {
	if d.IsEmpty() {
		return
	}
	p.Errors = append(p.Errors, d)
}

// AddWarning records a diagnostic in the program's warning list, subject to
// the same emptiness filter as AddError.
func (p *Program) AddWarning(d *diagnostics.Diagnostic) {
	if d.IsEmpty() {
		return
	}
	p.Warnings = append(p.Warnings, d)
}

// FindFunction returns the FunctionDefinition whose Name child matches name,
// searching the whole program.
func (p *Program) FindFunction(name string) *Node {
	return findFunction(p.Root, name)
}

func findFunction(n *Node, name string) *Node {
	if n.Kind == KindFunctionDefinition {
		if nameNode := n.FirstChildOfKind(KindName); nameNode != nil {
			if nameNode.Text == name {
				return n
			}
		}
	}
	for _, c := range n.Children {
		if found := findFunction(c, name); found != nil {
			return found
		}
	}
	return nil
}
