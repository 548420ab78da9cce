package ir

// IterationRange describes a do-statement's (or a directive range clause's)
// iteration space: induction variable plus lower/upper/step expression text.
// Equality is structural over the four textual components.
type IterationRange struct {
	Var   string
	Lower string
	Upper string
	Step  string
}

// Equal is reflexive, symmetric, and transitive, because it is plain struct
// equality over strings.
func (r IterationRange) Equal(other IterationRange) bool {
	return r.Var == other.Var && r.Lower == other.Lower && r.Upper == other.Upper && r.Step == other.Step
}

// defaultStep is used when a range omits its step clause.
const defaultStep = "1"

// IterationRangeOf extracts the IterationRange described by a do-statement
// node. A do-statement is shaped as:
//
//	FdoStatement{var: name}
//	  ├─ lower expression
//	  ├─ upper expression
//	  ├─ step expression (defaults to IntConstant "1" if absent)
//	  └─ body
func IterationRangeOf(doStatement *Node) IterationRange {
	v, _ := doStatement.Attr(AttrVar)
	exprs := make([]*Node, 0, 3)
	for _, c := range doStatement.Children {
		if c.Kind == KindBody {
			continue
		}
		exprs = append(exprs, c)
	}
	r := IterationRange{Var: v, Step: defaultStep}
	if len(exprs) > 0 {
		r.Lower = ExprText(exprs[0])
	}
	if len(exprs) > 1 {
		r.Upper = ExprText(exprs[1])
	}
	if len(exprs) > 2 {
		r.Step = ExprText(exprs[2])
	}
	return r
}

// ExprText renders an expression subtree to a canonical, deterministic
// string used for structural range/text comparisons and for fusion's conservative side-effect check. It is not meant
// to be valid input-language syntax — only stable and content-addressed.
func ExprText(n *Node) string {
	if n == nil {
		return ""
	}
	if len(n.Children) == 0 {
		if n.Text != "" {
			return n.Text
		}
		if v, ok := n.Attr(AttrName); ok {
			return v
		}
		return ""
	}
	s := string(n.Kind) + "("
	for i, c := range n.Children {
		if i > 0 {
			s += ","
		}
		s += ExprText(c)
	}
	return s + ")"
}

// NewRawExpr wraps directive-supplied expression text (a Range or Mapping
// bound that the directive parser only ever sees as source text) in a leaf
// IR node suitable for insertion into a do-statement or index range.
func NewRawExpr(text string) *Node {
	n := NewNode(KindRawExpr)
	n.Text = text
	return n
}
