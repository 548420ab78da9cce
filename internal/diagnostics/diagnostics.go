// Package diagnostics provides the structured, coded errors shared by every
// layer of the transformation engine (directive parsing, analysis,
// transformation, configuration loading). A *Diagnostic always carries a
// stable Code, the Phase it was raised in, and a source location, so callers
// can filter, deduplicate, and render them uniformly.
package diagnostics

import (
	"fmt"

	"github.com/loopweave/xform/internal/token"
)

// Phase identifies which stage of the pipeline raised a diagnostic.
type Phase string

const (
	PhaseDirective Phase = "directive"
	PhaseAnalyze   Phase = "analyze"
	PhaseTransform Phase = "transform"
	PhaseConfig    Phase = "config"
	PhaseInternal  Phase = "internal"
)

// Severity distinguishes fatal problems from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Code is a stable, greppable identifier for a specific failure template.
type Code string

const (
	// Directive parser
	CodeUnexpectedToken  Code = "X-P001"
	CodeMissingClause    Code = "X-P002"
	CodeUnknownClause    Code = "X-P003"
	CodeDuplicateMapping Code = "X-P004"
	CodeMalformedRange   Code = "X-P005"

	// Transformation analyze phase
	CodeNoCall          Code = "X-A001"
	CodeUnknownCallee   Code = "X-A002"
	CodeNoMatchingLoop  Code = "X-A003"
	CodeMappingMismatch Code = "X-A004"
	CodeUnpairedFusion  Code = "X-A005"
	CodeUnsafeFusionGap Code = "X-A006"

	// Transform phase, fatal
	CodeIllegalMapping    Code = "X-T001"
	CodeUnbalancedBlock   Code = "X-T002"
	CodeUnsupported       Code = "X-T003"
	CodeUnresolvableType  Code = "X-T004"
	CodeReducedRankOpen   Code = "X-T005" // warning: rank-reduction policy left undetermined (see DESIGN.md)

	// Configuration
	CodeDuplicateGroup    Code = "X-C001"
	CodeMissingClass      Code = "X-C002"
	CodeBlockOnUnit       Code = "X-C003"
	CodeConfigVersion     Code = "X-C004"
	CodeConfigMalformed   Code = "X-C005"

	// Internal invariant violations
	CodeAlreadyOwned   Code = "X-I001"
	CodeDuplicateType  Code = "X-I002"
	CodeDanglingRef    Code = "X-I003"
)

var templates = map[Code]string{
	CodeUnexpectedToken:  "unexpected token: expected %s, got %q",
	CodeMissingClause:    "missing mandatory clause %q for directive %q",
	CodeUnknownClause:    "unknown clause %q for directive %q",
	CodeDuplicateMapping: "variable %q appears more than once in mapping clause",
	CodeMalformedRange:   "malformed range clause: %s",

	CodeNoCall:          "pragma is not followed by a function call statement",
	CodeUnknownCallee:   "callee %q is not defined in this program",
	CodeNoMatchingLoop:  "no loop in %q matches the requested iteration range",
	CodeMappingMismatch: "mapping references unknown argument %q",
	CodeUnpairedFusion:  "loop-fusion instance with group %q has no partner to pair with",
	CodeUnsafeFusionGap: "statement between fused loops writes %q, read by the second loop",

	CodeIllegalMapping:   "argument %q has dimensionality %d, less than mapping count %d",
	CodeUnbalancedBlock:  "block directive %q has no matching end marker",
	CodeUnsupported:      "%s is not supported by this implementation",
	CodeUnresolvableType: "type key %q does not resolve in the type table",
	CodeReducedRankOpen:  "parameter %q needs a reduced-rank type (dimensionality %d > mapping count %d); policy is open, leaving declaration unchanged",

	CodeDuplicateGroup:  "duplicate transformation group name %q",
	CodeMissingClass:    "no registered transformation class %q",
	CodeBlockOnUnit:     "group %q: block transformations cannot use the translation-unit trigger",
	CodeConfigVersion:   "configuration version %[2]s is below engine version %[1]s",
	CodeConfigMalformed: "malformed configuration: %s",

	CodeAlreadyOwned:  "node %d is already attached to a parent; refusing double insertion",
	CodeDuplicateType: "type table already contains key %q",
	CodeDanglingRef:   "reference to node %d used after its owning transformation completed",
}

// Diagnostic is a single recorded problem, always attributable to a phase,
// a code and (when known) a source location.
type Diagnostic struct {
	Code     Code
	Phase    Phase
	Severity Severity
	Args     []interface{}
	Line     int
	File     string
}

// Error renders the diagnostic the way the CLI driver and test golden files
// expect: "file: [phase] severity at line N [CODE]: message".
func (d *Diagnostic) Error() string {
	msg := d.message()

	prefix := ""
	if d.File != "" {
		prefix = d.File + ": "
	}

	phase := ""
	if d.Phase != "" {
		phase = fmt.Sprintf("[%s] ", d.Phase)
	}

	if d.Line > 0 {
		return fmt.Sprintf("%s%s%s at line %d [%s]: %s", prefix, phase, d.Severity, d.Line, d.Code, msg)
	}
	return fmt.Sprintf("%s%s%s [%s]: %s", prefix, phase, d.Severity, d.Code, msg)
}

func (d *Diagnostic) message() string {
	tmpl, ok := templates[d.Code]
	if !ok {
		return fmt.Sprintf("unknown diagnostic code: %s", d.Code)
	}
	return fmt.Sprintf(tmpl, d.Args...)
}

// IsEmpty reports whether the diagnostic carries no usable message — the
// engine's diagnostic sink must silently drop these rather than record
// them.
func (d *Diagnostic) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.Code == "" && len(d.Args) == 0
}

// New builds an error-severity diagnostic for the given phase and code.
func New(phase Phase, code Code, line int, file string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Phase: phase, Severity: SeverityError, Line: line, File: file, Args: args}
}

// NewWarning builds a warning-severity diagnostic.
func NewWarning(phase Phase, code Code, line int, file string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Phase: phase, Severity: SeverityWarning, Line: line, File: file, Args: args}
}

// AtToken builds a diagnostic located at a directive-lexer token, used by the
// directive parser before any IR node is available to hang the location off.
func AtToken(phase Phase, code Code, tok token.Token, file string, args ...interface{}) *Diagnostic {
	return New(phase, code, tok.Line, file, args...)
}

// Internal builds a fatal Internal-kind diagnostic: an invariant
// violation that should never happen during normal operation.
func Internal(code Code, line int, file string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Phase: PhaseInternal, Severity: SeverityError, Line: line, File: file, Args: args}
}
