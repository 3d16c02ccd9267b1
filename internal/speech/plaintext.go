package speech

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// Plaintext strips presentation markup (emphasis markers, heading
// markers, list bullets, code fences, link syntax) so narration reads
// only the words. Generation output tends to arrive as markdown; a TTS
// voice reading asterisks aloud is worse than no narration.
func Plaintext(s string) string {
	src := []byte(s)
	root := markdown.Parser().Parse(gmtext.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Block boundaries become a single space so sentences from
			// adjacent paragraphs don't run together.
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.Blockquote:
				buf.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.FencedCodeBlock:
			writeCodeLines(&buf, src, t)
		case *ast.CodeBlock:
			writeCodeLines(&buf, src, t)
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(buf.String()), " ")
}

func writeCodeLines(buf *bytes.Buffer, src []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		buf.Write(lines.At(i).Value(src))
		buf.WriteByte(' ')
	}
}
