package directive

import "github.com/loopweave/xform/internal/token"

// ClauseKind distinguishes the shapes a clause's argument list can take.
type ClauseKind int

const (
	// ClauseFlag is a bare clause with no argument list, e.g. "parallel".
	ClauseFlag ClauseKind = iota
	// ClauseScalar is a single name or number, e.g. "group(g1)".
	ClauseScalar
	// ClauseList is a comma-separated name list, e.g. "data(a,b,c)".
	ClauseList
	// ClauseRangeKind is an induction-variable range, e.g. "range(j=1,n)".
	ClauseRangeKind
	// ClauseMappingKind is a var_list:var_list mapping, e.g. "map(a:j)".
	ClauseMappingKind
)

// Range is a (induction var, lower, upper, step) tuple parsed from a range
// clause. Bounds are kept as opaque expression text; the step
// defaults to "1" when omitted.
type Range struct {
	Var   string
	Lower string
	Upper string
	Step  string
}

// defaultStep is the step a range clause gets when it omits one.
const defaultStep = "1"

// MappingVar is one element of a var_list, optionally paired with a
// fct-param-name via "/".
type MappingVar struct {
	Name      string
	ParamName string // set only when "name/paramName" was used
}

// Mapping is a correspondence between call-site arguments and callee
// subscript variables.
type Mapping struct {
	MappedVars  []MappingVar // left-hand var_list (call-site argument names)
	MappingVars []MappingVar // right-hand var_list (callee subscript names)
}

// Dims is the mapped-dimensions count used by loop-extract's dimensionality
// checks: the number of mapping variables.
func (m Mapping) Dims() int { return len(m.MappingVars) }

// Clause is one named parameter of a Directive, shaped according to Kind.
type Clause struct {
	Name    string
	Kind    ClauseKind
	Scalar  string
	List    []string
	Range   Range
	Mapping Mapping
}

// Directive is the parsed form of one pragma's text.
// Clauses are keyed by name; a clause name may repeat (e.g. multiple "map"
// clauses on one loop-extract), so each name maps to a slice in document
// order.
type Directive struct {
	Kind    string
	Token   token.Token
	Clauses map[string][]*Clause
}

// HasClause reports whether name was supplied at least once.
func (d *Directive) HasClause(name string) bool {
	return len(d.Clauses[name]) > 0
}

// Clause returns the first occurrence of a named clause, if any.
func (d *Directive) Clause(name string) (*Clause, bool) {
	cs := d.Clauses[name]
	if len(cs) == 0 {
		return nil, false
	}
	return cs[0], true
}

// AllClauses returns every occurrence of a named clause, in document order.
func (d *Directive) AllClauses(name string) []*Clause {
	return d.Clauses[name]
}
