// Package nix provides a lossless syntax tree for Nix expressions.
//
// The tree preserves every byte of the original source — whitespace and
// comments included — as tokens carrying exact byte-offset spans. It exists
// for locating tokens and splicing text around them, not for validating
// Nix: parsing is lenient and never fails, and unrecognized constructs are
// preserved as raw token runs.
//
// Trees are immutable once built. Edits are produced by slicing the
// original text around a token's span and splicing in replacement text,
// which guarantees untouched regions are reproduced byte-for-byte.
package nix

// TokenKind classifies a lexical token.
type TokenKind int

const (
	// TokenWhitespace is a run of spaces, tabs, and newlines.
	TokenWhitespace TokenKind = iota
	// TokenComment is a "# ..." line comment or a "/* ... */" block comment.
	TokenComment
	// TokenIdent is an identifier such as pkgs or buildInputs.
	TokenIdent
	// TokenNumber is an integer or float literal.
	TokenNumber
	// TokenStringOpen is the opening `"` or `''` of a string literal.
	TokenStringOpen
	// TokenStringContent is the literal text between string delimiters.
	// Interpolations split the content into multiple tokens.
	TokenStringContent
	// TokenStringClose is the closing `"` or `''` of a string literal.
	TokenStringClose
	// TokenInterpOpen is the `${` opening an interpolation.
	TokenInterpOpen
	// TokenInterpClose is the `}` closing an interpolation.
	TokenInterpClose
	// TokenLBrace and TokenRBrace delimit attribute sets.
	TokenLBrace
	TokenRBrace
	// TokenLBrack and TokenRBrack delimit lists.
	TokenLBrack
	TokenRBrack
	// TokenLParen and TokenRParen delimit parenthesized expressions.
	TokenLParen
	TokenRParen
	// TokenAssign is a single `=` binding an attribute.
	TokenAssign
	// TokenSemi is the `;` terminating a binding.
	TokenSemi
	// TokenOp is any other punctuation or operator byte sequence.
	TokenOp
)

// Token is a lexical token with its [Start, End) byte span in the source.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
}

// Span returns the token's byte range.
func (t Token) Span() (start, end int) {
	return t.Start, t.End
}
