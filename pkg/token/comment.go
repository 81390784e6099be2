package token

// CommentKind distinguishes line vs block comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // -- comment
	BlockComment                    // /* comment */
)

// Comment is a source comment with its position. The lexer collects
// comments out of band so statements can be reproduced without them.
type Comment struct {
	Kind CommentKind
	Text string // includes delimiters (-- or /* */)
	Span Span
}

// IsLineComment reports whether this is a -- comment.
func (c *Comment) IsLineComment() bool {
	return c.Kind == LineComment
}

// IsBlockComment reports whether this is a /* */ comment.
func (c *Comment) IsBlockComment() bool {
	return c.Kind == BlockComment
}
