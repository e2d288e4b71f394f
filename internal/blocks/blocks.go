// Package blocks describes chat messages as a transport-neutral list of layout blocks.
// The shapes follow the common header/section/divider/context model so a bridge can
// translate them to any chat platform.
package blocks

// Type identifies the kind of block
type Type string

const (
	TypeHeader  Type = "header"
	TypeDivider Type = "divider"
	TypeSection Type = "section"
	TypeContext Type = "context"
)

// Text formats
const (
	PlainText = "plain_text"
	Markdown  = "mrkdwn"
)

// Text is a formatted text element
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block is one layout element of a message
type Block struct {
	Type     Type   `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Fields   []Text `json:"fields,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Message is a chat reply: a plain-text fallback plus optional blocks
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Header returns a header block with plain text
func Header(text string) Block {
	return Block{Type: TypeHeader, Text: &Text{Type: PlainText, Text: text}}
}

// Divider returns a horizontal rule
func Divider() Block {
	return Block{Type: TypeDivider}
}

// Section returns a markdown section
func Section(markdown string) Block {
	return Block{Type: TypeSection, Text: &Text{Type: Markdown, Text: markdown}}
}

// Fields returns a section laid out as a grid of markdown fields
func Fields(fields ...string) Block {
	b := Block{Type: TypeSection, Fields: make([]Text, 0, len(fields))}
	for _, f := range fields {
		b.Fields = append(b.Fields, Text{Type: Markdown, Text: f})
	}
	return b
}

// Context returns a small-print footer block
func Context(markdown string) Block {
	return Block{Type: TypeContext, Elements: []Text{{Type: Markdown, Text: markdown}}}
}

// Plain returns a text-only message
func Plain(text string) Message {
	return Message{Text: text}
}
