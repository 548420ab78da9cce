package rules

import (
	"github.com/loopweave/xform/internal/diagnostics"
	"github.com/loopweave/xform/internal/directive"
	"github.com/loopweave/xform/internal/ir"
	"github.com/loopweave/xform/internal/transform"
)

// Block represents a region delimited by a start pragma and a matching
// "end" pragma of the same directive kind, nested consistently with any
// other block transformations of that kind in the same body. Group labels
// are not compared.
type Block struct {
	transform.Base
	directive *directive.Directive
	end       *ir.Node
}

func newBlock(pragma *ir.Node, group string, d *directive.Directive) transform.Transformation {
	return &Block{Base: transform.NewBase(pragma, group), directive: d}
}

// Analyze verifies the delimiter pair is balanced: scanning forward from the
// pragma within the same body, a matching end-marker pragma of the same kind
// must be found before any unmatched nesting violation.
func (b *Block) Analyze(ctx *transform.Context) bool {
	parent := b.Pragma().Parent
	if parent == nil {
		ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeUnbalancedBlock, b.Pragma().Line(), b.Pragma().File(), b.directive.Kind))
		return false
	}

	depth := 0
	idx := indexOf(parent, b.Pragma())
	for _, sib := range parent.Children[idx+1:] {
		if sib.Kind != ir.KindPragma {
			continue
		}
		raw, _ := sib.Attr(ir.AttrRaw)
		body, ok := stripPrefixLocal(raw)
		if !ok {
			continue
		}
		d, diag := directive.Parse(body, sib.Line(), sib.File())
		if diag != nil || d.Kind != b.directive.Kind {
			continue
		}
		if d.HasClause("end") {
			if depth == 0 {
				b.end = sib
				return true
			}
			depth--
			continue
		}
		depth++
	}

	ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeUnbalancedBlock, b.Pragma().Line(), b.Pragma().File(), b.directive.Kind))
	return false
}

// Transform deletes the opening and closing pragma markers, leaving the
// delimited region's statements in place (the region itself carries no
// transformation of its own at this class — concrete block bodies are
// handled by whatever class the configuration pairs with the delimiter
// kind; this class's job is exactly the balance check plus marker removal).
func (b *Block) Transform(ctx *transform.Context) error {
	ir.Delete(b.end)
	ir.Delete(b.Pragma())
	return nil
}

func indexOf(parent, child *ir.Node) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func stripPrefixLocal(raw string) (string, bool) {
	for _, p := range []string{"xfm", acceleratorPrefix} {
		if len(raw) >= len(p) && raw[:len(p)] == p {
			rest := raw[len(p):]
			for len(rest) > 0 && rest[0] == ' ' {
				rest = rest[1:]
			}
			return rest, true
		}
	}
	return "", false
}
