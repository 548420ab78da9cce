package transform

import (
	"strconv"

	"github.com/loopweave/xform/internal/ir"
)

// Context is threaded through Analyze and Transform calls: the program being
// rewritten, the active engine (so a rule can chain a new transformation
// into the queue, as loop-extract does to fuse the loop it just wrapped),
// and a counter rules use to name generated identifiers deterministically
// within one run.
type Context struct {
	Program *ir.Program
	Engine  *Engine

	genCounter int
}

// NextGeneratedName returns a fresh, run-unique suffix for synthesized
// identifiers, e.g. an extracted function's name.
func (c *Context) NextGeneratedName(prefix string) string {
	c.genCounter++
	return prefix + "_" + strconv.Itoa(c.genCounter)
}
