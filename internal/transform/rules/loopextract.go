package rules

import (
	"strconv"

	"github.com/loopweave/xform/internal/diagnostics"
	"github.com/loopweave/xform/internal/directive"
	"github.com/loopweave/xform/internal/ir"
	"github.com/loopweave/xform/internal/transform"
)

// LoopExtract clones the callee of a pragma-marked call, hoists a matching
// inner loop out of the clone, and wraps the call in a caller-side loop
// over the same range.
type LoopExtract struct {
	transform.Base
	directive *directive.Directive

	call   *ir.Node // the functionCall node inside the following exprStatement
	callee *ir.Node // the original FunctionDefinition the call resolves to
}

func newLoopExtract(pragma *ir.Node, group string, d *directive.Directive) transform.Transformation {
	return &LoopExtract{Base: transform.NewBase(pragma, group), directive: d}
}

// Analyze locates the pragma's following call and resolves its callee
//. The
// remaining steps run in Transform since they mutate the tree.
func (x *LoopExtract) Analyze(ctx *transform.Context) bool {
	stmt := nextSibling(x.Pragma())
	if stmt == nil || stmt.Kind != ir.KindExprStatement {
		ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeNoCall, x.Pragma().Line(), x.Pragma().File()))
		return false
	}
	call := stmt.FirstChildOfKind(ir.KindFunctionCall)
	if call == nil {
		ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeNoCall, x.Pragma().Line(), x.Pragma().File()))
		return false
	}
	name, _ := call.Attr(ir.AttrName)
	callee := ctx.Program.FindFunction(name)
	if callee == nil {
		ctx.Program.AddError(diagnostics.New(diagnostics.PhaseAnalyze, diagnostics.CodeUnknownCallee, x.Pragma().Line(), x.Pragma().File(), name))
		return false
	}
	x.call = call
	x.callee = callee
	return true
}

// Transform performs the clone/hoist/wrap/retarget sequence. A failure past
// this point is always fatal to the pipeline, not a discardable analysis
// failure, since by this point the tree is already being mutated.
func (x *LoopExtract) Transform(ctx *transform.Context) error {
	clone := x.cloneCallee(ctx)

	rangeClause, _ := x.directive.Clause("range")
	wantRange := ir.IterationRange{
		Var:   rangeClause.Range.Var,
		Lower: rangeClause.Range.Lower,
		Upper: rangeClause.Range.Upper,
		Step:  rangeClause.Range.Step,
	}

	if _, err := x.hoistMatchingLoop(clone, wantRange); err != nil {
		return err
	}

	wrapped, err := x.wrapCall(ctx, wantRange)
	if err != nil {
		return err
	}

	if err := x.retarget(ctx, clone); err != nil {
		return err
	}

	if x.directive.HasClause("parallel") || x.directive.HasClause("acc") {
		x.wrapAccelerator(wrapped)
	}

	if x.directive.HasClause("fusion") {
		fusion := newLoopFusion(nil, x.GroupLabel(), nil).(*LoopFusion)
		fusion.loop = wrapped
		fusion.SetState(transform.Pending)
		if err := ctx.Engine.Enqueue(x.GroupLabel(), fusion); err != nil {
			// No group configured for chained fusion under this label is a
			// configuration gap, not a tree-corruption bug; report it but
			// leave the already-wrapped loop in place rather than abort.
			ctx.Program.AddWarning(diagnostics.NewWarning(diagnostics.PhaseTransform, diagnostics.CodeUnsupported, wrapped.Line(), wrapped.File(), "fusion chaining: "+err.Error()))
		}
	}

	ir.Delete(x.Pragma())
	return nil
}

// cloneCallee implements step 1: deep-clone, fresh type hash, renamed Id.
func (x *LoopExtract) cloneCallee(ctx *transform.Context) *ir.Node {
	clone := ir.Clone(x.callee)

	nameNode := clone.FirstChildOfKind(ir.KindName)
	suffix := ctx.NextGeneratedName("extracted")
	newName := ""
	if nameNode != nil {
		newName = nameNode.Text + "_" + suffix
		nameNode.Text = newName
	}

	hash := ctx.Program.Types.GenerateFunctionTypeHash()
	clone.SetAttr(ir.AttrType, hash)
	funcType := ir.NewNode(ir.KindFunctionType)
	funcType.SetAttr(ir.AttrType, hash)
	_ = ctx.Program.Types.Add(hash, funcType)
	if tt := ctx.Program.Root.FirstChildOfKind(ir.KindTypeTable); tt != nil {
		_ = ir.Append(tt, funcType)
	}

	if idNode := clone.FirstChildOfKind(ir.KindId); idNode != nil {
		idNode.Text = newName
	}
	if newName != "" {
		_ = ctx.Program.GlobalSymbols.Add(newName, clone)
	}

	// The clone is a new top-level sibling of the original function.
	_ = ir.InsertAfter(x.callee, clone)
	return clone
}

// hoistMatchingLoop implements step 2: find the first do-statement in
// clone's body matching wantRange (scanning siblings if the first doesn't
// match), splice its body up, and delete the loop header.
func (x *LoopExtract) hoistMatchingLoop(clone *ir.Node, wantRange ir.IterationRange) (*ir.Node, error) {
	body := clone.FirstChildOfKind(ir.KindBody)
	if body == nil {
		return nil, &noMatchingLoopError{}
	}
	var match *ir.Node
	for _, c := range body.Children {
		if c.Kind != ir.KindDoStatement {
			continue
		}
		if ir.IterationRangeOf(c).Equal(wantRange) {
			match = c
			break
		}
	}
	if match == nil {
		return nil, &noMatchingLoopError{}
	}
	if err := ir.ExtractBody(match); err != nil {
		return nil, err
	}
	return match, nil
}

type noMatchingLoopError struct{}

func (e *noMatchingLoopError) Error() string { return "loop-extract: no matching loop found in callee" }

// wrapCall implements step 3: a new do-statement over wantRange, with the
// call moved into its body immediately after the pragma. The induction
// variable and any variable-valued bound or step are injected into both the
// caller's global symbol table and declaration table, the declaration
// copied from the callee's own when the callee declares one.
func (x *LoopExtract) wrapCall(ctx *transform.Context, r ir.IterationRange) (*ir.Node, error) {
	loop := ir.NewNode(ir.KindDoStatement)
	loop.SetAttr(ir.AttrVar, r.Var)
	loop.AddChild(ir.NewRawExpr(r.Lower))
	loop.AddChild(ir.NewRawExpr(r.Upper))
	loop.AddChild(ir.NewRawExpr(r.Step))
	body := ir.NewNode(ir.KindBody)
	loop.AddChild(body)

	stmt := x.call.Parent // the exprStatement holding the call
	ir.Delete(stmt)
	if err := ir.Append(body, stmt); err != nil {
		return nil, err
	}
	if err := ir.InsertAfter(x.Pragma(), loop); err != nil {
		return nil, err
	}

	for _, name := range rangeVarNames(r) {
		x.registerCalleeVar(ctx, name)
	}
	return loop, nil
}

// rangeVarNames returns the induction variable plus whichever of the
// range's bounds and step are themselves bare variable names, as opposed
// to literal constants or compound expressions.
func rangeVarNames(r ir.IterationRange) []string {
	names := []string{r.Var}
	for _, expr := range []string{r.Lower, r.Upper, r.Step} {
		if isBareIdent(expr) {
			names = append(names, expr)
		}
	}
	return names
}

func isBareIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// registerCalleeVar ensures name is present in both the caller's global
// symbol table and declaration table. The symbol table always gets a bare
// Id marker, since the callee has no separate per-variable symbol entries
// to copy; the declaration table gets a deep copy of the callee's own
// VarDecl when the callee declares one, carrying its type (and so its
// dimensionality) across.
func (x *LoopExtract) registerCalleeVar(ctx *transform.Context, name string) {
	if _, ok := ctx.Program.GlobalSymbols.Lookup(name); !ok {
		id := ir.NewNode(ir.KindId)
		id.Text = name
		_ = ctx.Program.GlobalSymbols.Add(name, id)
	}
	if _, ok := ctx.Program.GlobalDecls.Lookup(name); !ok {
		if decl := findVarDecl(x.callee, name); decl != nil {
			_ = ctx.Program.GlobalDecls.Add(name, ir.Clone(decl))
		}
	}
}

// retarget implements step 4: repoint the call at the clone and adapt each
// mapped argument and the clone's matching parameter declarations.
func (x *LoopExtract) retarget(ctx *transform.Context, clone *ir.Node) error {
	cloneName := ""
	if nameNode := clone.FirstChildOfKind(ir.KindName); nameNode != nil {
		cloneName = nameNode.Text
	}
	x.call.SetAttr(ir.AttrName, cloneName)

	args := x.call.FirstChildOfKind(ir.KindArguments)

	for _, mc := range x.directive.AllClauses("map") {
		mapping := mc.Mapping
		dims := mapping.Dims()

		for _, mapped := range mapping.MappedVars {
			argNode := findArgByName(args, mapped.Name)
			if argNode == nil {
				return diagnostics.New(diagnostics.PhaseTransform, diagnostics.CodeMappingMismatch, x.call.Line(), x.call.File(), mapped.Name)
			}
			argDims := dimsOf(ctx.Program.Types, argNode)
			if argDims < dims {
				return illegalMappingErr(x.Pragma(), argNode, argDims, dims)
			}
			switch argNode.Kind {
			case ir.KindVarRef:
				promoteToArrayRef(argNode, mapping.MappingVars)
			case ir.KindArrayRef:
				return diagnostics.New(diagnostics.PhaseTransform, diagnostics.CodeUnsupported, argNode.Line(), argNode.File(), "mapping an already-indexed argument ("+mapped.Name+")")
			}
		}

		for _, param := range mapping.MappedVars {
			demoteParamRefs(clone, param.Name, mapping.MappingVars)
			adaptParamDecl(ctx, clone, param.Name, dims)
		}
	}
	return nil
}

func findArgByName(args *ir.Node, name string) *ir.Node {
	if args == nil {
		return nil
	}
	for _, a := range args.Children {
		if refName(a) == name {
			return a
		}
	}
	return nil
}

// dimsOf resolves n's array dimensionality through the type table, the way
// the spec's element shapes carry it: n's "type" attribute names a basic-type
// entry, and that entry's own "dimensions" attribute is the answer. A node
// with no "type" attribute, or one naming an entry that isn't a basic type,
// reads as dimensionless rather than erroring — a scalar's "type" may well
// point at something else entirely (a function type, say).
func dimsOf(types *ir.TypeTable, n *ir.Node) int {
	entry := basicTypeOf(types, n)
	if entry == nil {
		return 0
	}
	return intAttr(entry, ir.AttrDims)
}

// basicTypeOf resolves n's "type" attribute to its basic-type entry in
// types, or nil if n has none or the entry isn't a basic type.
func basicTypeOf(types *ir.TypeTable, n *ir.Node) *ir.Node {
	typeKey, ok := n.Attr(ir.AttrType)
	if !ok {
		return nil
	}
	entry, ok := types.Lookup(typeKey)
	if !ok || entry.Kind != ir.KindBasicType {
		return nil
	}
	return entry
}

func intAttr(n *ir.Node, key string) int {
	v, ok := n.Attr(key)
	if !ok {
		return 0
	}
	d, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return d
}

// illegalMappingErr reports argNode's dimensionality shortfall, located at
// the triggering pragma.
func illegalMappingErr(pragma, argNode *ir.Node, have, want int) error {
	return diagnostics.New(diagnostics.PhaseTransform, diagnostics.CodeIllegalMapping, pragma.Line(), pragma.File(), refName(argNode), have, want)
}

// promoteToArrayRef turns a scalar Var reference into an ArrayRef indexed by
// the mapping's index variables, in declaration order.
func promoteToArrayRef(argNode *ir.Node, indexVars []directive.MappingVar) {
	argNode.Kind = ir.KindArrayRef
	idx := ir.NewNode(ir.KindArrayIndex)
	for _, v := range indexVars {
		ref := ir.NewNode(ir.KindVarRef)
		ref.SetAttr(ir.AttrName, v.Name)
		idx.AddChild(ref)
	}
	argNode.AddChild(idx)
}

// demoteParamRefs replaces, within clone's body, every ArrayRef whose base is
// paramName and whose leading indices are exactly indexVars in order with a
// plain reference to paramName.
func demoteParamRefs(clone *ir.Node, paramName string, indexVars []directive.MappingVar) {
	for _, c := range clone.Children {
		if c.Kind == ir.KindArrayRef && refName(c) == paramName && indicesMatch(c, indexVars) {
			c.Kind = ir.KindVarRef
			c.Children = nil
			c.SetAttr(ir.AttrName, paramName)
			continue
		}
		demoteParamRefs(c, paramName, indexVars)
	}
}

func indicesMatch(arrayRef *ir.Node, indexVars []directive.MappingVar) bool {
	idxNode := arrayRef.FirstChildOfKind(ir.KindArrayIndex)
	if idxNode == nil || len(idxNode.Children) < len(indexVars) {
		return false
	}
	for i, v := range indexVars {
		if refName(idxNode.Children[i]) != v.Name {
			return false
		}
	}
	return true
}

// adaptParamDecl implements the declaration half of step 4: a mapped
// parameter whose dimensionality equals the mapping count is redeclared at
// its basic type's element (ref) type; a genuinely higher-rank parameter
// would need a reduced-rank type synthesized from the element type plus the
// residual dimensions, which this implementation leaves undetermined (see
// DESIGN.md's Open Question resolution) and instead flags with a warning.
func adaptParamDecl(ctx *transform.Context, clone *ir.Node, paramName string, mappedDims int) {
	decl := findVarDecl(clone, paramName)
	if decl == nil {
		return
	}
	entry := basicTypeOf(ctx.Program.Types, decl)
	if entry == nil {
		return
	}
	declDims := intAttr(entry, ir.AttrDims)
	if declDims == mappedDims {
		if elementType, ok := entry.Attr(ir.AttrRef); ok {
			decl.SetAttr(ir.AttrType, elementType)
		}
		return
	}
	ctx.Program.AddWarning(diagnostics.NewWarning(diagnostics.PhaseTransform, diagnostics.CodeReducedRankOpen, decl.Line(), decl.File(), paramName, declDims, mappedDims))
}

func findVarDecl(n *ir.Node, name string) *ir.Node {
	if n.Kind == ir.KindVarDecl && refName(n) == name {
		return n
	}
	for _, c := range n.Children {
		if found := findVarDecl(c, name); found != nil {
			return found
		}
	}
	return nil
}

// wrapAccelerator implements step 5: with "parallel", the loop is enclosed in
// "acc parallel" / "acc end parallel" pragmas; an "acc" option string becomes
// its own pragma right after the start marker, or right after the original
// pragma when there is no parallel wrap.
func (x *LoopExtract) wrapAccelerator(loop *ir.Node) {
	anchor := x.Pragma()
	if x.directive.HasClause("parallel") {
		start := ir.NewNode(ir.KindPragma)
		start.SetAttr(ir.AttrRaw, acceleratorPrefix+" parallel")
		end := ir.NewNode(ir.KindPragma)
		end.SetAttr(ir.AttrRaw, acceleratorPrefix+" end parallel")

		_ = ir.InsertBefore(loop, start)
		_ = ir.InsertAfter(loop, end)
		anchor = start
	}

	if c, ok := x.directive.Clause("acc"); ok && c.Scalar != "" {
		opt := ir.NewNode(ir.KindPragma)
		opt.SetAttr(ir.AttrRaw, acceleratorPrefix+" "+c.Scalar)
		_ = ir.InsertAfter(anchor, opt)
	}
}
