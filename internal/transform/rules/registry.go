// Package rules implements the concrete transformations on top of the
// transform package's scheduling framework: loop fusion, loop extraction,
// accelerator directive insertion, and block transformations.
package rules

import "github.com/loopweave/xform/internal/transform"

// Class paths matched against a configuration group's "class" field.
const (
	ClassLoopFusion      = "rules.LoopFusion"
	ClassLoopExtract     = "rules.LoopExtract"
	ClassAccelerator     = "rules.Accelerator"
	ClassBlock           = "rules.Block"
)

// Registry returns the Factory table every built-in class constructs from,
// keyed the way a configuration document names them.
func Registry() map[string]transform.Factory {
	return map[string]transform.Factory{
		ClassLoopFusion:  newLoopFusion,
		ClassLoopExtract: newLoopExtract,
		ClassAccelerator: newAccelerator,
		ClassBlock:       newBlock,
	}
}
