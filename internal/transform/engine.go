package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/loopweave/xform/internal/config"
	"github.com/loopweave/xform/internal/diagnostics"
	"github.com/loopweave/xform/internal/directive"
	"github.com/loopweave/xform/internal/ir"
)

// Prefixes a pragma's raw text must begin with to be recognized as one of
// ours; anything else is a pragma belonging to some other tool and is left
// alone.
const (
	directivePrefix   = "xfm"
	acceleratorPrefix = "acc"
)

func stripPrefix(raw string) (string, bool) {
	for _, p := range []string{directivePrefix, acceleratorPrefix} {
		if strings.HasPrefix(raw, p) {
			rest := strings.TrimSpace(raw[len(p):])
			return rest, true
		}
	}
	return "", false
}

// item is one queued Transformation plus the configuration group it was
// constructed from.
type item struct {
	group config.GroupSpec
	t     Transformation
}

// Engine is the scheduler: it owns the registry of known transformation
// classes, the document-ordered queue of pending work, and drives the
// Analyze → Pair → Transform lifecycle group by group, in the order the
// configuration lists groups.
type Engine struct {
	cfg      *config.Root
	registry map[string]Factory
	queue    []*item
}

// NewEngine builds an Engine bound to a resolved configuration and a
// registry of class-path → Factory (normally rules.Registry()).
func NewEngine(cfg *config.Root, registry map[string]Factory) *Engine {
	return &Engine{cfg: cfg, registry: registry}
}

// KnownClasses reports the set of class paths this engine can construct, for
// config.Validate to check group declarations against.
func (e *Engine) KnownClasses() map[string]bool {
	out := make(map[string]bool, len(e.registry))
	for k := range e.registry {
		out[k] = true
	}
	return out
}

func (e *Engine) groupFor(name string) (config.GroupSpec, bool) {
	for _, g := range e.cfg.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return config.GroupSpec{}, false
}

// ScanProgram walks prog in document order, registering one Transformation
// per recognized pragma, plus one per translation-unit-triggered group.
func (e *Engine) ScanProgram(prog *ir.Program) {
	e.scanNode(prog.Root, prog)
	for _, g := range e.cfg.Groups {
		if g.Trigger != config.TriggerTranslationUnit {
			continue
		}
		factory, ok := e.registry[g.Class]
		if !ok {
			continue // config.Validate already reported CodeMissingClass
		}
		e.queue = append(e.queue, &item{group: g, t: factory(nil, g.Name, nil)})
	}
}

func (e *Engine) scanNode(n *ir.Node, prog *ir.Program) {
	if n.Kind == ir.KindPragma {
		e.registerPragma(n, prog)
	}
	for _, c := range n.Children {
		e.scanNode(c, prog)
	}
}

func (e *Engine) registerPragma(pragma *ir.Node, prog *ir.Program) {
	raw, _ := pragma.Attr(ir.AttrRaw)
	body, ok := stripPrefix(raw)
	if !ok {
		return
	}

	d, diag := directive.Parse(body, pragma.Line(), pragma.File())
	if diag != nil {
		prog.AddError(diag)
		return
	}

	group, ok := e.groupFor(d.Kind)
	if !ok {
		return
	}
	if group.Block && d.HasClause("end") {
		// End markers aren't transformation starting points; the class's own
		// Analyze locates them by scanning forward from the start.
		return
	}
	factory, ok := e.registry[group.Class]
	if !ok {
		return // config.Validate already reported CodeMissingClass
	}

	groupLabel := ""
	if c, ok := d.Clause("group"); ok {
		groupLabel = c.Scalar
	}

	e.queue = append(e.queue, &item{group: group, t: factory(pragma, groupLabel, d)})
}

// Enqueue adds a transformation directly to the queue under an existing
// configuration group, bypassing pragma scanning. Used by loop-extract's
// fusion-chaining step to schedule a follow-on loop-fusion
// instance on the loop it just wrapped.
func (e *Engine) Enqueue(groupName string, t Transformation) error {
	g, ok := e.groupFor(groupName)
	if !ok {
		return fmt.Errorf("transform: no configured group named %q", groupName)
	}
	e.queue = append(e.queue, &item{group: g, t: t})
	return nil
}

// Run executes the full lifecycle over every queued transformation, group by
// group in configuration order, document order within a group. A non-nil
// error means a Transform call failed or gctx was canceled; either is fatal
// to the whole pipeline and the caller must not emit the program.
//
// gctx carries caller-initiated cancellation: the engine never starts a
// goroutine and has no suspension points of its own, so gctx.Err() is
// checked once per queued item rather than selected on — a cancellation
// between transformations surfaces as promptly as between any two
// statements in a normal sequential program.
func (e *Engine) Run(gctx context.Context, ctx *Context) error {
	for _, g := range e.cfg.Groups {
		if err := e.runGroup(gctx, ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runGroup(gctx context.Context, ctx *Context, g config.GroupSpec) error {
	pending := e.itemsPending(g.Name)
	for _, it := range pending {
		if err := gctx.Err(); err != nil {
			return fmt.Errorf("transform: group %q: %w", g.Name, err)
		}
		if it.t.Analyze(ctx) {
			it.t.SetState(AnalyzedOK)
		} else {
			it.t.SetState(AnalyzedFailed)
		}
	}

	var ready []*item
	for _, it := range e.itemsInState(g.Name, AnalyzedOK) {
		ready = append(ready, it)
	}

	if g.Type == config.Dependent {
		pairDependent(ctx.Program, ready)
		for _, it := range ready {
			if it.t.State() != AnalyzedOK || len(it.t.Partners()) == 0 {
				continue
			}
			if checker, ok := it.t.(PairChecker); ok && !checker.CheckPairing(ctx) {
				it.t.SetState(Discarded)
				for _, p := range it.t.Partners() {
					p.SetState(Discarded)
				}
			}
		}
	}

	for _, it := range ready {
		if err := gctx.Err(); err != nil {
			return fmt.Errorf("transform: group %q: %w", g.Name, err)
		}
		if it.t.State() != AnalyzedOK {
			continue // became Paired or Discarded above
		}
		if err := it.t.Transform(ctx); err != nil {
			return fmt.Errorf("transform: group %q: %w", g.Name, err)
		}
		it.t.SetState(Transformed)

		// A dependent driver's partners, if any, are consumed alongside it.
		for _, p := range it.t.Partners() {
			p.SetState(Transformed)
		}
	}

	// A chained Transform call may have enqueued more work
	// under this same group; run it before moving on.
	if len(e.itemsPending(g.Name)) > 0 {
		return e.runGroup(gctx, ctx, g)
	}
	return nil
}

func (e *Engine) itemsPending(group string) []*item {
	var out []*item
	for _, it := range e.queue {
		if it.group.Name == group && it.t.State() == Pending {
			out = append(out, it)
		}
	}
	return out
}

func (e *Engine) itemsInState(group string, s State) []*item {
	var out []*item
	for _, it := range e.queue {
		if it.group.Name == group && it.t.State() == s {
			out = append(out, it)
		}
	}
	return out
}

// pairDependent matches dependent transformations in document order. A non-empty group label means "fuse all of
// these together": every instance sharing that label pairs with the first
// (document-order) instance of the bucket, which drives the merge. An empty
// label falls back to strict positional pairing, two at a time, since there
// is no label to scope an open-ended chain to. An item left over at the end
// of its bucket is discarded with CodeUnpairedFusion and never reaches
// Transform.
func pairDependent(prog *ir.Program, items []*item) {
	buckets := map[string][]*item{}
	for _, it := range items {
		buckets[it.t.GroupLabel()] = append(buckets[it.t.GroupLabel()], it)
	}
	for label, bucket := range buckets {
		if label != "" {
			if len(bucket) < 2 {
				for _, it := range bucket {
					discardUnpaired(prog, it)
				}
				continue
			}
			chainPair(bucket)
			continue
		}
		i := 0
		for ; i+1 < len(bucket); i += 2 {
			a, b := bucket[i], bucket[i+1]
			a.t.AddPartner(b.t)
			b.t.AddPartner(a.t)
			b.t.SetState(Paired)
		}
		if i < len(bucket) {
			discardUnpaired(prog, bucket[i])
		}
	}
}

// chainPair designates the first item in document order as the driver and
// pairs every other item in the bucket with it, so Transform can fold them
// in one pass. Callers must ensure len(bucket) >= 2.
func chainPair(bucket []*item) {
	primary := bucket[0]
	for _, it := range bucket[1:] {
		primary.t.AddPartner(it.t)
		it.t.AddPartner(primary.t)
		it.t.SetState(Paired)
	}
}

func discardUnpaired(prog *ir.Program, it *item) {
	it.t.SetState(Discarded)
	line, file := 0, ""
	if pragma := it.t.Pragma(); pragma != nil {
		line, file = pragma.Line(), pragma.File()
	}
	prog.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeUnpairedFusion, line, file, it.t.GroupLabel()))
}
