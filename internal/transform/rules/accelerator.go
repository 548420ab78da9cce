package rules

import (
	"github.com/loopweave/xform/internal/diagnostics"
	"github.com/loopweave/xform/internal/directive"
	"github.com/loopweave/xform/internal/ir"
	"github.com/loopweave/xform/internal/transform"
)

// acceleratorPrefix matches the engine's own pragma-prefix recognition so
// pragmas this rule synthesizes are picked up by later passes the same way
// source-written ones are.
const acceleratorPrefix = "acc"

// Accelerator wraps the statement immediately following its pragma in a
// matching pair of accelerator start/end pragmas. Pure IR surgery; the only
// analysis is locating that statement. No clause of the directive is
// consulted, so the region is always exactly one statement.
type Accelerator struct {
	transform.Base
	directive *directive.Directive
	region    *ir.Node
}

func newAccelerator(pragma *ir.Node, group string, d *directive.Directive) transform.Transformation {
	return &Accelerator{Base: transform.NewBase(pragma, group), directive: d}
}

// Analyze locates the region to wrap: the single statement immediately
// after the pragma. It fails when the pragma is the last statement in its
// body.
func (a *Accelerator) Analyze(ctx *transform.Context) bool {
	region := nextSibling(a.Pragma())
	if region == nil {
		ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeNoMatchingLoop, a.Pragma().Line(), a.Pragma().File(), "accelerator target region"))
		return false
	}
	a.region = region
	return true
}

// Transform inserts the start pragma immediately before the region and the
// end pragma immediately after it.
func (a *Accelerator) Transform(ctx *transform.Context) error {
	start := ir.NewNode(ir.KindPragma)
	start.SetAttr(ir.AttrRaw, acceleratorPrefix+" start")
	end := ir.NewNode(ir.KindPragma)
	end.SetAttr(ir.AttrRaw, acceleratorPrefix+" end")

	if err := ir.InsertBefore(a.region, start); err != nil {
		return err
	}
	if err := ir.InsertAfter(a.region, end); err != nil {
		return err
	}
	ir.Delete(a.Pragma())
	return nil
}
