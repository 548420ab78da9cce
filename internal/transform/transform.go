// Package transform implements the transformation framework: the
// Pending → Analyzed → Transformed/Discarded lifecycle, document-order
// and group-order scheduling, and dependent-pair matching. The individual
// transformations (loop-fusion, loop-extract, …) live in the
// transform/rules subpackage and are wired in through a registry keyed by
// the configuration's class paths.
package transform

import (
	"github.com/loopweave/xform/internal/directive"
	"github.com/loopweave/xform/internal/ir"
)

// State is a transformation's position in the Analyze/Transform lifecycle.
type State int

const (
	Pending State = iota
	AnalyzedOK
	AnalyzedFailed
	Paired    // consumed as the non-driving half of a dependent pair
	Transformed
	Discarded
)

// Transformation is one queued unit of work. Concrete
// rules embed Base and implement Analyze/Transform.
type Transformation interface {
	Pragma() *ir.Node
	GroupLabel() string
	State() State
	SetState(State)
	// Partners returns the other instances this one was paired with — a
	// single element for an ordinary two-instance pair, more for an N-ary
	// same-label chain, nil if never paired.
	Partners() []Transformation
	AddPartner(Transformation)

	// Analyze checks the transformation's prerequisites against the
	// program, populating whatever internal slots Transform will need.
	// Diagnostics for failure are recorded by the implementation via
	// ctx.Program before returning false.
	Analyze(ctx *Context) bool

	// Transform mutates the program. A non-nil error is always fatal to
	// the whole pipeline — callers must not attempt to
	// continue or roll back.
	Transform(ctx *Context) error
}

// Base supplies the bookkeeping every Transformation needs, leaving only
// Analyze/Transform to concrete rules.
type Base struct {
	pragma   *ir.Node
	group    string
	state    State
	partners []Transformation
}

// NewBase constructs the common fields for a directive-triggered
// transformation; group is the directive's "group" clause value, or "".
func NewBase(pragma *ir.Node, group string) Base {
	return Base{pragma: pragma, group: group, state: Pending}
}

func (b *Base) Pragma() *ir.Node           { return b.pragma }
func (b *Base) GroupLabel() string         { return b.group }
func (b *Base) State() State               { return b.state }
func (b *Base) SetState(s State)           { b.state = s }
func (b *Base) Partners() []Transformation { return b.partners }
func (b *Base) AddPartner(t Transformation) { b.partners = append(b.partners, t) }

// Factory constructs a Transformation for a directive occurrence. d is nil
// for translation-unit-triggered classes.
type Factory func(pragma *ir.Node, group string, d *directive.Directive) Transformation

// PairChecker is implemented by dependent classes that need to validate
// criteria beyond label equality once a pair has been formed, such as range
// equality and side-effect safety between fused loops. The engine calls
// CheckPairing on the pair's primary right after pairing, before either half
// reaches Transform; a false result discards both halves with whatever
// diagnostic CheckPairing recorded.
type PairChecker interface {
	CheckPairing(ctx *Context) bool
}
