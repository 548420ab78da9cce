package directive

import (
	"strings"

	"github.com/loopweave/xform/internal/diagnostics"
	"github.com/loopweave/xform/internal/token"
)

// Parser is a small recursive-descent parser over the directive grammar,
// fed by a two-token lookahead buffer the same way the rest of the
// toolchain's hand-written parsers are structured.
type Parser struct {
	lex  *Lexer
	file string

	cur  token.Token
	peek token.Token
}

// NewParser returns a Parser ready to read tokens from lex. file is used only
// to attribute diagnostics.
func NewParser(lex *Lexer, file string) *Parser {
	p := &Parser{lex: lex, file: file}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

// Parse lexes and parses one full pragma body (the directive keyword plus
// its clauses) and returns the resulting Directive. Any grammar violation is
// returned as a Parse-phase diagnostic; Parse stops at the first error
// rather than attempting multi-error recovery, mirroring the engine's
// "Parse errors discard the transformation" policy.
func Parse(body string, line int, file string) (*Directive, *diagnostics.Diagnostic) {
	lex := NewLexer(body, line)
	p := NewParser(lex, file)
	return p.parseDirective()
}

func (p *Parser) parseDirective() (*Directive, *diagnostics.Diagnostic) {
	if p.cur.Type != token.IDENT {
		return nil, diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeUnexpectedToken, p.cur, p.file, "a directive keyword", p.cur.Lexeme)
	}

	d := &Directive{Kind: p.cur.Lexeme, Token: p.cur, Clauses: map[string][]*Clause{}}
	p.next()

	for p.cur.Type == token.IDENT {
		name := p.cur.Lexeme
		tok := p.cur
		p.next()

		var clause *Clause
		if p.cur.Type == token.LPAREN {
			p.next()
			var diag *diagnostics.Diagnostic
			clause, diag = p.parseArgs(name, tok)
			if diag != nil {
				return nil, diag
			}
			if p.cur.Type != token.RPAREN {
				return nil, diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeUnexpectedToken, p.cur, p.file, "')'", p.cur.Lexeme)
			}
			p.next()
		} else {
			clause = &Clause{Name: name, Kind: ClauseFlag}
		}

		d.Clauses[name] = append(d.Clauses[name], clause)
	}

	if p.cur.Type != token.EOF {
		return nil, diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeUnexpectedToken, p.cur, p.file, "a clause name or end of directive", p.cur.Lexeme)
	}

	if diag := validate(d, p.file); diag != nil {
		return nil, diag
	}

	return d, nil
}

// parseArgs implements the "args" production. It disambiguates range,
// mapping, and plain name lists purely structurally: a range clause is the
// only shape where an identifier is immediately followed by "=". A quoted
// string (e.g. an accelerator option passed through verbatim, as in
// `acc("loop independent")`) is always a bare scalar — it never
// participates in a range or mapping.
func (p *Parser) parseArgs(name string, tok token.Token) (*Clause, *diagnostics.Diagnostic) {
	if p.cur.Type == token.IDENT && p.peek.Type == token.EQ {
		return p.parseRange(name)
	}

	if p.cur.Type == token.STRING {
		lexeme := p.cur.Lexeme
		p.next()
		return &Clause{Name: name, Kind: ClauseScalar, Scalar: lexeme}, nil
	}

	first, diag := p.parseVarList()
	if diag != nil {
		return nil, diag
	}

	if p.cur.Type == token.COLON {
		p.next()
		second, diag := p.parseVarList()
		if diag != nil {
			return nil, diag
		}
		if diag := checkDuplicateMapping(first, tok, p.file); diag != nil {
			return nil, diag
		}
		return &Clause{Name: name, Kind: ClauseMappingKind, Mapping: Mapping{MappedVars: first, MappingVars: second}}, nil
	}

	if len(first) == 1 && first[0].ParamName == "" {
		return &Clause{Name: name, Kind: ClauseScalar, Scalar: first[0].Name}, nil
	}
	names := make([]string, len(first))
	for i, v := range first {
		names[i] = v.Name
	}
	return &Clause{Name: name, Kind: ClauseList, List: names}, nil
}

func (p *Parser) parseRange(name string) (*Clause, *diagnostics.Diagnostic) {
	induction := p.cur.Lexeme
	p.next() // identifier
	p.next() // '='

	lower := p.readExprText()
	if p.cur.Type != token.COLON && p.cur.Type != token.COMMA {
		return nil, diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeMalformedRange, p.cur, p.file, "missing ':' or ',' before upper bound")
	}
	p.next()

	upper := p.readExprText()
	step := defaultStep
	if p.cur.Type == token.COLON || p.cur.Type == token.COMMA {
		p.next()
		step = p.readExprText()
	}

	return &Clause{Name: name, Kind: ClauseRangeKind, Range: Range{Var: induction, Lower: lower, Upper: upper, Step: step}}, nil
}

// readExprText accumulates tokens up to the next structural delimiter
// (':', ',', ')', EOF) into a single opaque expression string.
func (p *Parser) readExprText() string {
	var parts []string
	for p.cur.Type != token.COLON && p.cur.Type != token.COMMA && p.cur.Type != token.RPAREN && p.cur.Type != token.EOF {
		parts = append(parts, p.cur.Lexeme)
		p.next()
	}
	return strings.Join(parts, " ")
}

func (p *Parser) parseVarList() ([]MappingVar, *diagnostics.Diagnostic) {
	var vars []MappingVar
	for {
		if p.cur.Type != token.IDENT {
			return nil, diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeUnexpectedToken, p.cur, p.file, "a name", p.cur.Lexeme)
		}
		name := p.cur.Lexeme
		p.next()

		var paramName string
		if p.cur.Type == token.SLASH {
			p.next()
			if p.cur.Type != token.IDENT {
				return nil, diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeUnexpectedToken, p.cur, p.file, "a parameter name", p.cur.Lexeme)
			}
			paramName = p.cur.Lexeme
			p.next()
		}

		vars = append(vars, MappingVar{Name: name, ParamName: paramName})

		if p.cur.Type == token.COMMA {
			p.next()
			continue
		}
		break
	}
	return vars, nil
}

func checkDuplicateMapping(vars []MappingVar, tok token.Token, file string) *diagnostics.Diagnostic {
	seen := map[string]bool{}
	for _, v := range vars {
		if seen[v.Name] {
			return diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeDuplicateMapping, tok, file, v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

// grammar describes which clauses a directive kind accepts, and which are
// mandatory. Directive kinds absent from
// this table are accepted permissively — the configuration layer, not
// the grammar, is the authority on which kinds exist at all.
type grammar struct {
	mandatory []string
	known     map[string]bool
}

var directiveGrammars = map[string]grammar{
	"loop-fusion": {known: set("group")},
	"loop-extract": {
		mandatory: []string{"range"},
		known:     set("range", "map", "parallel", "acc", "fusion", "group"),
	},
	"loop-interchange": {known: set("indexes")},
	"array-transform":  {known: set("end", "target")},
	"parallelize":      {known: set("data", "end")},
	"remove":           {known: set()},
	"kcache":           {known: set("data", "offset")},
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func validate(d *Directive, file string) *diagnostics.Diagnostic {
	g, ok := directiveGrammars[d.Kind]
	if !ok {
		return nil
	}
	for name := range d.Clauses {
		if !g.known[name] {
			return diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeUnknownClause, d.Token, file, name, d.Kind)
		}
	}
	for _, m := range g.mandatory {
		if !d.HasClause(m) {
			return diagnostics.AtToken(diagnostics.PhaseDirective, diagnostics.CodeMissingClause, d.Token, file, m, d.Kind)
		}
	}
	return nil
}
