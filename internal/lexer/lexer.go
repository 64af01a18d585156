// Package lexer converts CPQL query text into a stream of tokens.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/cpql/internal/token"
)

// Lexer converts raw query text into tokens. It is not safe for concurrent use.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int
}

// New creates a new Lexer over input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readRune()
	return l
}

// Tokenize lexes the whole input, including the trailing EOF token.
func Tokenize(input string) []token.Token {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

// NextToken advances and returns the next token from the input.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	startPos := token.Position{Line: l.line, Column: l.column}
	tok := token.Token{Type: token.ILLEGAL, Literal: string(l.ch), Pos: startPos}

	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: startPos}
	}

	switch l.ch {
	case 0:
		tok.Literal = "NUL character"
	case ',':
		tok.Type = token.COMMA
	case ';':
		tok.Type = token.SEMICOLON
	case '(':
		tok.Type = token.LPAREN
	case ')':
		tok.Type = token.RPAREN
	case '.':
		tok.Type = token.DOT
	case '*':
		tok.Type = token.STAR
	case '+':
		tok.Type = token.PLUS
	case '-':
		tok.Type = token.MINUS
	case '/':
		tok.Type = token.SLASH
	case '%':
		tok.Type = token.PERCENT
	case '=':
		tok.Type = token.EQ
	case '!':
		if l.peekRune() == '=' {
			l.readRune()
			tok = token.Token{Type: token.NEQ, Literal: "<>", Pos: startPos}
		}
	case '<':
		switch l.peekRune() {
		case '=':
			l.readRune()
			tok = token.Token{Type: token.LTE, Literal: "<=", Pos: startPos}
		case '>':
			l.readRune()
			tok = token.Token{Type: token.NEQ, Literal: "<>", Pos: startPos}
		default:
			tok.Type = token.LT
		}
	case '>':
		if l.peekRune() == '=' {
			l.readRune()
			tok = token.Token{Type: token.GTE, Literal: ">=", Pos: startPos}
		} else {
			tok.Type = token.GT
		}
	case ':':
		if isIdentStart(l.peekRune()) {
			l.readRune()
			return token.Token{Type: token.NAMED_PARAM, Literal: l.readIdentifier(), Pos: startPos}
		}
	case '?':
		if isDigit(l.peekRune()) {
			l.readRune()
			return token.Token{Type: token.INDEXED_PARAM, Literal: l.readDigits(), Pos: startPos}
		}
	case '\'':
		literal, problem := l.readString()
		if problem != "" {
			return token.Token{Type: token.ILLEGAL, Literal: problem, Pos: startPos}
		}
		return token.Token{Type: token.STRING, Literal: literal, Pos: startPos}
	case '"':
		literal, problem := l.readQuotedIdentifier()
		if problem != "" {
			return token.Token{Type: token.ILLEGAL, Literal: problem, Pos: startPos}
		}
		return token.Token{Type: token.IDENT, Literal: literal, Pos: startPos}
	default:
		if isIdentStart(l.ch) {
			ident := l.readIdentifier()
			// Keywords keep their source spelling so they can double as property names.
			return token.Token{Type: token.Lookup(ident), Literal: ident, Pos: startPos}
		}
		if isDigit(l.ch) {
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: startPos}
		}
	}

	l.readRune()
	return tok
}

func (l *Lexer) readRune() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.column++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	l.position = l.readPosition
	l.readPosition += size
	l.ch = r
	l.column++
}

// atEOF reports whether the input is exhausted. l.ch is also 0 there, but a
// NUL rune inside the input is not the end of it.
func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case unicode.IsSpace(l.ch):
			l.readRune()
		case l.ch == '-' && l.peekRune() == '-':
			for l.ch != '\n' && !l.atEOF() {
				l.readRune()
			}
		case l.ch == '/' && l.peekRune() == '*':
			l.readRune()
			l.readRune()
			for !l.atEOF() && !(l.ch == '*' && l.peekRune() == '/') {
				l.readRune()
			}
			if !l.atEOF() {
				l.readRune()
				l.readRune()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentPart(l.ch) {
		l.readRune()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readDigits() string {
	start := l.position
	for isDigit(l.ch) {
		l.readRune()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	l.readDigits()
	if l.ch == '.' && isDigit(l.peekRune()) {
		l.readRune()
		l.readDigits()
	}
	return l.input[start:l.position]
}

// readString consumes a single-quoted literal. A doubled quote inside it is an
// escaped quote. problem is non-empty when the literal cannot be lexed.
func (l *Lexer) readString() (literal, problem string) {
	var b strings.Builder
	for {
		l.readRune()
		if l.atEOF() {
			return "", "unterminated string literal"
		}
		switch l.ch {
		case '\'':
			if l.peekRune() == '\'' {
				b.WriteRune('\'')
				l.readRune()
				continue
			}
			l.readRune()
			return b.String(), ""
		case 0:
			return "", "NUL character in string literal"
		default:
			b.WriteRune(l.ch)
		}
	}
}

func (l *Lexer) readQuotedIdentifier() (literal, problem string) {
	var b strings.Builder
	for {
		l.readRune()
		if l.atEOF() {
			return "", "unterminated quoted identifier"
		}
		switch l.ch {
		case '"':
			if l.peekRune() == '"' {
				b.WriteRune('"')
				l.readRune()
				continue
			}
			l.readRune()
			return b.String(), ""
		case 0:
			return "", "NUL character in quoted identifier"
		default:
			b.WriteRune(l.ch)
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
