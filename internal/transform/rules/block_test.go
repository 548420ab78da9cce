package rules

import (
	"context"
	"testing"

	"github.com/loopweave/xform/internal/config"
	"github.com/loopweave/xform/internal/ir"
	"github.com/loopweave/xform/internal/transform"
)

func blockConfig() *config.Root {
	return &config.Root{
		Version: "0.9.0",
		Groups: []config.GroupSpec{
			{Name: "region", Class: ClassBlock, Type: config.Independent, Trigger: config.TriggerDirective, Block: true},
		},
	}
}

// TestBlockRemovesBalancedMarkers: a start/end marker pair delimiting a
// region is removed, leaving the region's statements in place.
func TestBlockRemovesBalancedMarkers(t *testing.T) {
	outer := ir.NewNode(ir.KindBody)
	start := pragma("xfm region")
	body := printStmt("inside")
	end := pragma("xfm region end")
	after := printStmt("after")
	for _, n := range []*ir.Node{start, body, end, after} {
		outer.AddChild(n)
	}

	prog := ir.NewProgram(outer)
	engine := transform.NewEngine(blockConfig(), Registry())
	engine.ScanProgram(prog)

	ctx := &transform.Context{Program: prog, Engine: engine}
	if err := engine.Run(context.Background(), ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(prog.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", prog.Errors)
	}

	if len(outer.Children) != 2 || outer.Children[0] != body || outer.Children[1] != after {
		t.Fatalf("expected markers removed and statements preserved in order, got %v", outer.Children)
	}
}

// TestBlockHandlesNesting covers the nested-region case: an inner
// start/end pair between an outer pair must not be mistaken for the
// outer's own closing marker.
func TestBlockHandlesNesting(t *testing.T) {
	outer := ir.NewNode(ir.KindBody)
	outerStart := pragma("xfm region")
	innerStart := pragma("xfm region")
	inner := printStmt("inner")
	innerEnd := pragma("xfm region end")
	outerEnd := pragma("xfm region end")
	for _, n := range []*ir.Node{outerStart, innerStart, inner, innerEnd, outerEnd} {
		outer.AddChild(n)
	}

	prog := ir.NewProgram(outer)
	engine := transform.NewEngine(blockConfig(), Registry())
	engine.ScanProgram(prog)

	ctx := &transform.Context{Program: prog, Engine: engine}
	if err := engine.Run(context.Background(), ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(prog.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", prog.Errors)
	}
	if len(outer.Children) != 1 || outer.Children[0] != inner {
		t.Fatalf("expected all four markers removed, only inner statement left, got %v", outer.Children)
	}
}

// TestBlockMissingEndFails covers the unbalanced case: a start marker with
// no matching end is reported and left untouched.
func TestBlockMissingEndFails(t *testing.T) {
	outer := ir.NewNode(ir.KindBody)
	start := pragma("xfm region")
	body := printStmt("inside")
	outer.AddChild(start)
	outer.AddChild(body)

	prog := ir.NewProgram(outer)
	engine := transform.NewEngine(blockConfig(), Registry())
	engine.ScanProgram(prog)

	ctx := &transform.Context{Program: prog, Engine: engine}
	if err := engine.Run(context.Background(), ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(prog.Errors) != 1 || prog.Errors[0].Code != "X-T002" {
		t.Fatalf("expected single unbalanced-block diagnostic, got %v", prog.Errors)
	}
	if len(outer.Children) != 2 {
		t.Fatalf("expected marker left in place after failed analysis, got %d children", len(outer.Children))
	}
}
