package nix

// NodeKind classifies a structural node.
type NodeKind int

const (
	// NodeRoot is the document root.
	NodeRoot NodeKind = iota
	// NodeAttrSet is a brace-delimited attribute set.
	NodeAttrSet
	// NodeList is a bracket-delimited list.
	NodeList
	// NodeParen is a parenthesized expression.
	NodeParen
	// NodeString is a string literal including its delimiters.
	NodeString
	// NodeInterp is a ${...} interpolation.
	NodeInterp
	// NodeBinding is an attribute binding: attrpath `=` value `;`.
	NodeBinding
)

// Element is a member of a node's children: either a Token or a *Node.
type Element interface {
	Span() (start, end int)
}

// Node is a structural grouping of tokens and child nodes. Its span is
// derived from its children and always covers a contiguous byte range of
// the source.
type Node struct {
	Kind     NodeKind
	Children []Element
}

// Span returns the node's byte range, computed from its first and last
// children. An empty node spans nothing.
func (n *Node) Span() (start, end int) {
	if len(n.Children) == 0 {
		return 0, 0
	}
	start, _ = n.Children[0].Span()
	_, end = n.Children[len(n.Children)-1].Span()
	return start, end
}

// Tree is an immutable lossless parse of a Nix document.
type Tree struct {
	Source string
	Root   *Node
}

// Parse builds a lossless tree from source. It never fails: malformed
// input degrades to flat token runs rather than errors.
func Parse(source string) *Tree {
	p := &parser{tokens: lex(source)}
	root := p.parseGroup(NodeRoot, -1)
	groupBindings(root)
	return &Tree{Source: source, Root: root}
}

// Text returns the source text covered by an element.
func (t *Tree) Text(e Element) string {
	start, end := e.Span()
	return t.Source[start:end]
}

// Tokens returns every token of the tree in source order.
func (t *Tree) Tokens() []Token {
	var out []Token
	collectTokens(t.Root, &out)
	return out
}

// Nodes returns every node in depth-first pre-order, root first.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	collectNodes(t.Root, &out)
	return out
}

// Tokens returns the node's tokens, including those of nested nodes, in
// source order.
func (n *Node) Tokens() []Token {
	var out []Token
	collectTokens(n, &out)
	return out
}

// Nodes returns the node and its descendants in depth-first pre-order.
func (n *Node) Nodes() []*Node {
	var out []*Node
	collectNodes(n, &out)
	return out
}

func collectTokens(n *Node, out *[]Token) {
	for _, ch := range n.Children {
		switch e := ch.(type) {
		case Token:
			*out = append(*out, e)
		case *Node:
			collectTokens(e, out)
		}
	}
}

func collectNodes(n *Node, out *[]*Node) {
	*out = append(*out, n)
	for _, ch := range n.Children {
		if child, ok := ch.(*Node); ok {
			collectNodes(child, out)
		}
	}
}

type parser struct {
	tokens []Token
	pos    int
}

// parseGroup consumes tokens into a node until the closing kind is seen.
// A closing of -1 means consume to end of input. Mismatched delimiters
// simply end the group early or run to EOF; nothing is dropped.
func (p *parser) parseGroup(kind NodeKind, closing TokenKind) *Node {
	node := &Node{Kind: kind}
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		if closing >= 0 && tok.Kind == closing {
			node.Children = append(node.Children, tok)
			return node
		}

		switch tok.Kind {
		case TokenLBrace:
			node.Children = append(node.Children, p.parseDelimited(NodeAttrSet, tok, TokenRBrace))
		case TokenLBrack:
			node.Children = append(node.Children, p.parseDelimited(NodeList, tok, TokenRBrack))
		case TokenLParen:
			node.Children = append(node.Children, p.parseDelimited(NodeParen, tok, TokenRParen))
		case TokenInterpOpen:
			node.Children = append(node.Children, p.parseDelimited(NodeInterp, tok, TokenInterpClose))
		case TokenStringOpen:
			node.Children = append(node.Children, p.parseString(tok))
		default:
			node.Children = append(node.Children, tok)
		}
	}
	return node
}

func (p *parser) parseDelimited(kind NodeKind, open Token, closing TokenKind) *Node {
	inner := p.parseGroup(kind, closing)
	inner.Children = append([]Element{open}, inner.Children...)
	return inner
}

// parseString groups a string literal's open, content, interpolation, and
// close tokens into a NodeString.
func (p *parser) parseString(open Token) *Node {
	node := &Node{Kind: NodeString, Children: []Element{open}}
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		switch tok.Kind {
		case TokenStringContent:
			p.pos++
			node.Children = append(node.Children, tok)
		case TokenInterpOpen:
			p.pos++
			node.Children = append(node.Children, p.parseDelimited(NodeInterp, tok, TokenInterpClose))
		case TokenStringClose:
			p.pos++
			node.Children = append(node.Children, tok)
			return node
		default:
			// Unterminated string: whatever follows belongs to the parent.
			return node
		}
	}
	return node
}

// groupBindings rewrites the children of the root and of every attribute
// set so that each `attrpath = value ;` statement becomes a NodeBinding.
// Statements without a top-level `=` (like inherit) are left flat, and
// trivia between statements stays outside the binding nodes.
func groupBindings(n *Node) {
	for _, ch := range n.Children {
		if child, ok := ch.(*Node); ok {
			groupBindings(child)
		}
	}
	if n.Kind != NodeRoot && n.Kind != NodeAttrSet {
		return
	}

	var out []Element
	var stmt []Element
	hasAssign := false

	flush := func(terminated bool) {
		if terminated && hasAssign {
			out = append(out, &Node{Kind: NodeBinding, Children: stmt})
		} else {
			out = append(out, stmt...)
		}
		stmt = nil
		hasAssign = false
	}

	for _, ch := range n.Children {
		if tok, ok := ch.(Token); ok {
			switch tok.Kind {
			case TokenWhitespace, TokenComment:
				if len(stmt) == 0 {
					out = append(out, ch)
				} else {
					stmt = append(stmt, ch)
				}
				continue
			case TokenAssign:
				stmt = append(stmt, ch)
				hasAssign = true
				continue
			case TokenSemi:
				stmt = append(stmt, ch)
				flush(true)
				continue
			case TokenLBrace, TokenRBrace:
				// The set's own braces never belong to a binding.
				flush(false)
				out = append(out, ch)
				continue
			}
		}
		stmt = append(stmt, ch)
	}
	flush(false)
	n.Children = out
}
