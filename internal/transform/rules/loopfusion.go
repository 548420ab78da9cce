package rules

import (
	"errors"

	"github.com/loopweave/xform/internal/diagnostics"
	"github.com/loopweave/xform/internal/directive"
	"github.com/loopweave/xform/internal/ir"
	"github.com/loopweave/xform/internal/transform"
)

// LoopFusion joins two or more do-statements with equal iteration ranges
// into one, deleting the consumed loops and their pragmas.
type LoopFusion struct {
	transform.Base
	loop *ir.Node
}

func newLoopFusion(pragma *ir.Node, group string, d *directive.Directive) transform.Transformation {
	return &LoopFusion{Base: transform.NewBase(pragma, group)}
}

// Analyze succeeds when the pragma is immediately followed by a do-statement
// in the same body.
func (f *LoopFusion) Analyze(ctx *transform.Context) bool {
	loop := nextSibling(f.Pragma())
	if loop == nil || loop.Kind != ir.KindDoStatement {
		ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeNoMatchingLoop, f.Pragma().Line(), f.Pragma().File(), "loop-fusion pragma"))
		return false
	}
	f.loop = loop
	return true
}

// CheckPairing validates every partner in the chain: each partner's
// iteration range must compare equal to the driver's, and no statement
// between a loop and its successor may write a variable the successor's
// body reads.
func (f *LoopFusion) CheckPairing(ctx *transform.Context) bool {
	partners, err := loopFusionPartners(f)
	if err != nil {
		return false
	}

	ra := ir.IterationRangeOf(f.loop)
	prev := f
	for _, partner := range partners {
		if !ra.Equal(ir.IterationRangeOf(partner.loop)) {
			ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeNoMatchingLoop, f.Pragma().Line(), f.Pragma().File(), "fusion pair: iteration ranges differ"))
			return false
		}

		partnerReads := map[string]bool{}
		reads(partner.loop, partnerReads)
		for between := nextSibling(prev.loop); between != nil && between != partner.Pragma(); between = nextSibling(between) {
			for name := range partnerReads {
				if writesTo(between, name) {
					ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeUnsafeFusionGap, between.Line(), between.File(), name))
					return false
				}
			}
		}
		prev = partner
	}
	return true
}

// Transform folds every partner's body, in document order, onto the end of
// the driver's, deleting each consumed loop and all of the chain's pragmas.
func (f *LoopFusion) Transform(ctx *transform.Context) error {
	partners, err := loopFusionPartners(f)
	if err != nil {
		return err
	}

	firstBody := f.loop.FirstChildOfKind(ir.KindBody)
	for _, partner := range partners {
		body := partner.loop.FirstChildOfKind(ir.KindBody)
		for _, c := range append([]*ir.Node(nil), body.Children...) {
			ir.Delete(c)
			if err := ir.Append(firstBody, c); err != nil {
				return err
			}
		}
		ir.Delete(partner.loop)
		ir.Delete(partner.Pragma())
	}
	ir.Delete(f.Pragma())
	return nil
}

func loopFusionPartners(f *LoopFusion) ([]*LoopFusion, error) {
	out := make([]*LoopFusion, 0, len(f.Partners()))
	for _, p := range f.Partners() {
		lf, ok := p.(*LoopFusion)
		if !ok {
			return nil, errNotLoopFusion
		}
		out = append(out, lf)
	}
	return out, nil
}

var errNotLoopFusion = errors.New("rules: partner is not a *LoopFusion")
