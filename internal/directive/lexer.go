// Package directive implements the pragma grammar: a small hand-written
// lexer and recursive-descent parser that turn the text of one pragma
// (prefix already stripped by the caller) into a structured Directive.
package directive

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/loopweave/xform/internal/token"
)

// Lexer scans directive text rune-at-a-time, the same style used for the
// rest of the toolchain's hand-written textual scanners.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int
}

// NewLexer returns a Lexer positioned at the start of input. line is the
// source line the pragma originated from, so tokens carry a usable location
// even though the directive text itself is single-line.
func NewLexer(input string, line int) *Lexer {
	l := &Lexer{input: input, line: line, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

// isIdentRune reports whether r can appear inside a bare word token: a
// directive keyword, a clause name, a plain identifier, or an opaque
// expression atom like "n-1" or "i+offset". The lexer deliberately does not
// tokenize arithmetic — expression bounds are carried as opaque text and
// interpreted only by the back-end.
func isIdentRune(r rune) bool {
	switch r {
	case '(', ')', ',', ':', '/', '=', '"', 0:
		return false
	}
	return !unicode.IsSpace(r)
}

// NextToken returns the next token in the stream.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	line, col := l.line, l.column
	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Line: line, Column: col}
	case '(':
		l.readChar()
		return token.Token{Type: token.LPAREN, Lexeme: "(", Line: line, Column: col}
	case ')':
		l.readChar()
		return token.Token{Type: token.RPAREN, Lexeme: ")", Line: line, Column: col}
	case ',':
		l.readChar()
		return token.Token{Type: token.COMMA, Lexeme: ",", Line: line, Column: col}
	case ':':
		l.readChar()
		return token.Token{Type: token.COLON, Lexeme: ":", Line: line, Column: col}
	case '/':
		l.readChar()
		return token.Token{Type: token.SLASH, Lexeme: "/", Line: line, Column: col}
	case '=':
		l.readChar()
		return token.Token{Type: token.EQ, Lexeme: "=", Line: line, Column: col}
	case '"':
		return l.readString(line, col)
	}

	if isIdentRune(l.ch) {
		return l.readIdent(line, col)
	}

	ch := l.ch
	l.readChar()
	return token.Token{Type: token.ILLEGAL, Lexeme: string(ch), Line: line, Column: col}
}

func (l *Lexer) readIdent(line, col int) token.Token {
	var sb strings.Builder
	for isIdentRune(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	lexeme := sb.String()
	if isAllDigits(lexeme) {
		return token.Token{Type: token.INT, Lexeme: lexeme, Line: line, Column: col}
	}
	return token.Token{Type: token.IDENT, Lexeme: lexeme, Line: line, Column: col}
}

func (l *Lexer) readString(line, col int) token.Token {
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != '"' && l.ch != 0 {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing quote
	return token.Token{Type: token.STRING, Lexeme: sb.String(), Line: line, Column: col}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
