package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/loopweave/xform/internal/config"
	"github.com/loopweave/xform/internal/directive"
	"github.com/loopweave/xform/internal/ir"
)

// noopTransform is a minimal Transformation used only to exercise the
// engine's scheduling, independent of any concrete rule.
type noopTransform struct {
	Base
}

func (n *noopTransform) Analyze(ctx *Context) bool    { return true }
func (n *noopTransform) Transform(ctx *Context) error { return nil }

func newNoop(pragma *ir.Node, group string, d *directive.Directive) Transformation {
	return &noopTransform{Base: NewBase(pragma, group)}
}

func noopConfig() *config.Root {
	return &config.Root{
		Version: "0.9.0",
		Groups: []config.GroupSpec{
			{Name: "noop", Class: "test.Noop", Type: config.Independent, Trigger: config.TriggerDirective},
		},
	}
}

// TestRunStopsOnCanceledContext confirms a caller-initiated cancellation
// aborts the pipeline between queued items instead of running to completion.
func TestRunStopsOnCanceledContext(t *testing.T) {
	root := ir.NewNode(ir.KindBody)
	p := ir.NewNode(ir.KindPragma)
	p.SetAttr(ir.AttrRaw, "xfm noop")
	root.AddChild(p)

	prog := ir.NewProgram(root)
	engine := NewEngine(noopConfig(), map[string]Factory{"test.Noop": newNoop})

	// Register the pragma manually since "noop" isn't a real directive kind
	// the parser's grammar table recognizes.
	engine.queue = append(engine.queue, &item{
		group: noopConfig().Groups[0],
		t:     newNoop(p, "", nil),
	})

	gctx, cancel := context.WithCancel(context.Background())
	cancel()

	tctx := &Context{Program: prog, Engine: engine}
	err := engine.Run(gctx, tctx)
	if err == nil {
		t.Fatal("expected Run to fail on a canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}

// TestRunSucceedsOnLiveContext is the converse check: a non-canceled
// context never blocks or fails the pipeline on its own.
func TestRunSucceedsOnLiveContext(t *testing.T) {
	root := ir.NewNode(ir.KindBody)
	prog := ir.NewProgram(root)
	engine := NewEngine(noopConfig(), map[string]Factory{"test.Noop": newNoop})
	tctx := &Context{Program: prog, Engine: engine}

	if err := engine.Run(context.Background(), tctx); err != nil {
		t.Fatalf("Run failed on a live context: %v", err)
	}
}
