package rules

import (
	"context"
	"testing"

	"github.com/loopweave/xform/internal/config"
	"github.com/loopweave/xform/internal/ir"
	"github.com/loopweave/xform/internal/transform"
)

func printStmt(tag string) *ir.Node {
	stmt := ir.NewNode(ir.KindExprStatement)
	call := ir.NewNode(ir.KindFunctionCall)
	call.SetAttr(ir.AttrName, "print")
	args := ir.NewNode(ir.KindArguments)
	lit := ir.NewNode(ir.KindVarRef)
	lit.SetAttr(ir.AttrName, tag)
	args.AddChild(lit)
	call.AddChild(args)
	stmt.AddChild(call)
	return stmt
}

func doLoop(v, lower, upper, step string, stmts ...*ir.Node) *ir.Node {
	loop := ir.NewNode(ir.KindDoStatement)
	loop.SetAttr(ir.AttrVar, v)
	loop.AddChild(ir.NewRawExpr(lower))
	loop.AddChild(ir.NewRawExpr(upper))
	loop.AddChild(ir.NewRawExpr(step))
	body := ir.NewNode(ir.KindBody)
	for _, s := range stmts {
		body.AddChild(s)
	}
	loop.AddChild(body)
	return loop
}

func pragma(raw string) *ir.Node {
	p := ir.NewNode(ir.KindPragma)
	p.SetAttr(ir.AttrRaw, raw)
	return p
}

func fusionConfig() *config.Root {
	return &config.Root{
		Version: "0.9.0",
		Groups: []config.GroupSpec{
			{Name: "loop-fusion", Class: ClassLoopFusion, Type: config.Dependent, Trigger: config.TriggerDirective},
		},
	}
}

// TestThreeLoopFusionProducesSingleLoop covers an end-to-end scenario:
// three contiguous loop-fusion pragmas over the same range collapse into
// one loop whose body concatenates the three original bodies in order.
func TestThreeLoopFusionProducesSingleLoop(t *testing.T) {
	outer := ir.NewNode(ir.KindBody)

	p1, p2, p3 := pragma("xfm loop-fusion group(g1)"), pragma("xfm loop-fusion group(g1)"), pragma("xfm loop-fusion group(g1)")
	l1 := doLoop("i", "1", "2", "1", printStmt("A"))
	l2 := doLoop("i", "1", "2", "1", printStmt("B"))
	l3 := doLoop("i", "1", "2", "1", printStmt("C"))

	for _, n := range []*ir.Node{p1, l1, p2, l2, p3, l3} {
		outer.AddChild(n)
	}

	prog := ir.NewProgram(outer)
	engine := transform.NewEngine(fusionConfig(), Registry())
	engine.ScanProgram(prog)

	ctx := &transform.Context{Program: prog, Engine: engine}
	if err := engine.Run(context.Background(), ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(prog.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", prog.Errors)
	}

	loops := outer.ChildrenOfKind(ir.KindDoStatement)
	if len(loops) != 1 {
		t.Fatalf("expected exactly one surviving loop, got %d", len(loops))
	}
	body := loops[0].FirstChildOfKind(ir.KindBody)
	if len(body.Children) != 3 {
		t.Fatalf("expected 3 statements in fused body, got %d", len(body.Children))
	}
	wantTags := []string{"A", "B", "C"}
	for i, stmt := range body.Children {
		call := stmt.FirstChildOfKind(ir.KindFunctionCall)
		args := call.FirstChildOfKind(ir.KindArguments)
		tag, _ := args.Children[0].Attr(ir.AttrName)
		if tag != wantTags[i] {
			t.Fatalf("statement %d: got tag %q, want %q", i, tag, wantTags[i])
		}
	}
}

// TestOddFusionCountDiscardsLeftover ensures an unpaired dependent instance
// is discarded with a diagnostic rather than silently dropped or merged
// incorrectly.
func TestOddFusionCountDiscardsLeftover(t *testing.T) {
	outer := ir.NewNode(ir.KindBody)
	p1, l1 := pragma("xfm loop-fusion group(g1)"), doLoop("i", "1", "2", "1", printStmt("A"))
	outer.AddChild(p1)
	outer.AddChild(l1)

	prog := ir.NewProgram(outer)
	engine := transform.NewEngine(fusionConfig(), Registry())
	engine.ScanProgram(prog)

	ctx := &transform.Context{Program: prog, Engine: engine}
	if err := engine.Run(context.Background(), ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(prog.Errors) != 1 || prog.Errors[0].Code != "X-A005" {
		t.Fatalf("expected single unpaired-fusion diagnostic, got %v", prog.Errors)
	}
	loops := outer.ChildrenOfKind(ir.KindDoStatement)
	if len(loops) != 1 {
		t.Fatalf("unpaired loop should remain untouched, got %d loops", len(loops))
	}
}
