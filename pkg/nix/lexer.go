package nix

// lexer splits Nix source into tokens without dropping a single byte.
// It tracks a mode stack so string interpolation can nest expressions
// inside strings and strings inside those expressions.
type lexer struct {
	src    string
	pos    int
	tokens []Token
	modes  []lexMode
}

type modeKind int

const (
	modeNormal modeKind = iota
	modeDString          // inside "..."
	modeIString          // inside ''...''
)

type lexMode struct {
	kind       modeKind
	braceDepth int // open braces in a normal-mode frame
}

func lex(src string) []Token {
	l := &lexer{src: src, modes: []lexMode{{kind: modeNormal}}}
	for l.pos < len(l.src) {
		switch l.mode().kind {
		case modeNormal:
			l.lexNormal()
		case modeDString:
			l.lexDString()
		case modeIString:
			l.lexIString()
		}
	}
	return l.tokens
}

func (l *lexer) mode() *lexMode {
	return &l.modes[len(l.modes)-1]
}

func (l *lexer) push(kind modeKind) {
	l.modes = append(l.modes, lexMode{kind: kind})
}

func (l *lexer) pop() {
	if len(l.modes) > 1 {
		l.modes = l.modes[:len(l.modes)-1]
	}
}

func (l *lexer) emit(kind TokenKind, start int) {
	l.tokens = append(l.tokens, Token{Kind: kind, Start: start, End: l.pos})
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *lexer) lexNormal() {
	start := l.pos
	c := l.src[l.pos]

	switch {
	case isSpace(c):
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		l.emit(TokenWhitespace, start)

	case c == '#':
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}
		l.emit(TokenComment, start)

	case c == '/' && l.peek(1) == '*':
		l.pos += 2
		for l.pos < len(l.src) {
			if l.src[l.pos] == '*' && l.peek(1) == '/' {
				l.pos += 2
				break
			}
			l.pos++
		}
		l.emit(TokenComment, start)

	case c == '"':
		l.pos++
		l.emit(TokenStringOpen, start)
		l.push(modeDString)

	case c == '\'' && l.peek(1) == '\'':
		l.pos += 2
		l.emit(TokenStringOpen, start)
		l.push(modeIString)

	case c == '$' && l.peek(1) == '{':
		l.pos += 2
		l.emit(TokenInterpOpen, start)
		l.push(modeNormal)

	case c == '{':
		l.pos++
		l.emit(TokenLBrace, start)
		l.mode().braceDepth++

	case c == '}':
		l.pos++
		if l.mode().braceDepth > 0 {
			l.mode().braceDepth--
			l.emit(TokenRBrace, start)
		} else if len(l.modes) > 1 {
			l.emit(TokenInterpClose, start)
			l.pop()
		} else {
			// Stray closing brace; keep it so no byte is lost.
			l.emit(TokenRBrace, start)
		}

	case c == '[':
		l.pos++
		l.emit(TokenLBrack, start)

	case c == ']':
		l.pos++
		l.emit(TokenRBrack, start)

	case c == '(':
		l.pos++
		l.emit(TokenLParen, start)

	case c == ')':
		l.pos++
		l.emit(TokenRParen, start)

	case c == ';':
		l.pos++
		l.emit(TokenSemi, start)

	case c == '=' && !isOpByte(l.peek(1)):
		l.pos++
		l.emit(TokenAssign, start)

	case isIdentStart(c):
		l.pos++
		for l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
			// A double single-quote inside an identifier run starts an
			// indented string, never an identifier character.
			if l.src[l.pos] == '\'' && l.peek(1) == '\'' {
				break
			}
			l.pos++
		}
		l.emit(TokenIdent, start)

	case isDigit(c):
		l.pos++
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
			l.pos++
		}
		l.emit(TokenNumber, start)

	default:
		// Operators and anything unrecognized: consume a maximal run of
		// operator bytes so "==", "->", "//" stay single tokens.
		l.pos++
		for l.pos < len(l.src) && isOpByte(l.src[l.pos]) && isOpByte(c) {
			l.pos++
		}
		l.emit(TokenOp, start)
	}
}

// lexDString scans inside a double-quoted string until the closing quote
// or an interpolation.
func (l *lexer) lexDString() {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		if c == '"' {
			if l.pos > start {
				l.emit(TokenStringContent, start)
			}
			contentEnd := l.pos
			l.pos++
			l.emit(TokenStringClose, contentEnd)
			l.pop()
			return
		}
		if c == '$' && l.peek(1) == '{' {
			if l.pos > start {
				l.emit(TokenStringContent, start)
			}
			interpStart := l.pos
			l.pos += 2
			l.emit(TokenInterpOpen, interpStart)
			l.push(modeNormal)
			return
		}
		l.pos++
	}
	if l.pos > start {
		l.emit(TokenStringContent, start) // unterminated string
	}
}

// lexIString scans inside an indented ('') string.
func (l *lexer) lexIString() {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\'' && l.peek(1) == '\'' {
			// ''', ''$ and ''\ are escapes, not terminators.
			next := l.peek(2)
			if next == '\'' || next == '$' || next == '\\' {
				l.pos += 3
				continue
			}
			if l.pos > start {
				l.emit(TokenStringContent, start)
			}
			contentEnd := l.pos
			l.pos += 2
			l.emit(TokenStringClose, contentEnd)
			l.pop()
			return
		}
		if c == '$' && l.peek(1) == '{' {
			if l.pos > start {
				l.emit(TokenStringContent, start)
			}
			interpStart := l.pos
			l.pos += 2
			l.emit(TokenInterpOpen, interpStart)
			l.push(modeNormal)
			return
		}
		l.pos++
	}
	if l.pos > start {
		l.emit(TokenStringContent, start)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-' || c == '\''
}

func isOpByte(c byte) bool {
	switch c {
	case '=', '<', '>', '!', '&', '|', '+', '-', '*', '/', '.', ':', '?', '@', ',':
		return true
	}
	return false
}
