package rules

import "github.com/loopweave/xform/internal/ir"

// nextSibling returns the node immediately following n among its parent's
// children, or nil at the end of the list or if n is detached.
func nextSibling(n *ir.Node) *ir.Node {
	p := n.Parent
	if p == nil {
		return nil
	}
	for i, c := range p.Children {
		if c == n {
			if i+1 < len(p.Children) {
				return p.Children[i+1]
			}
			return nil
		}
	}
	return nil
}

// writesTo reports whether any ArrayRef/VarRef under n assigns to name. The
// IR carries no separate "assignment" node kind distinct from a call or
// expression statement in this representation, so the conservative rule
// used here is: any VarRef or ArrayRef to name appearing as the first child
// of an exprStatement (i.e. in assignment position) counts as a write.
func writesTo(n *ir.Node, name string) bool {
	if n.Kind == ir.KindExprStatement && len(n.Children) > 0 {
		if refName(n.Children[0]) == name {
			return true
		}
	}
	for _, c := range n.Children {
		if writesTo(c, name) {
			return true
		}
	}
	return false
}

// reads collects every variable name referenced anywhere under n.
func reads(n *ir.Node, into map[string]bool) {
	if n.Kind == ir.KindVarRef || n.Kind == ir.KindArrayRef {
		if name := refName(n); name != "" {
			into[name] = true
		}
	}
	for _, c := range n.Children {
		reads(c, into)
	}
}

func refName(n *ir.Node) string {
	if n == nil {
		return ""
	}
	if v, ok := n.Attr(ir.AttrName); ok {
		return v
	}
	return n.Text
}
