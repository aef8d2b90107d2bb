package content

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

type MarkDownRenderer struct {
	engine goldmark.Markdown
}

func NewMarkDownRenderer() *MarkDownRenderer {
	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			emoji.Emoji,
			highlighting.NewHighlighting(
				highlighting.WithStyle("solarized-dark"),
				highlighting.WithGuessLanguage(true),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		// blog bodies are written by trusted editors only, so raw HTML
		// passes through
		goldmark.WithRendererOptions(
			htmlrenderer.WithUnsafe(),
		),
	)
	return &MarkDownRenderer{engine: engine}
}

func (m *MarkDownRenderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	// html output is larger than markdown, add 50% to the buffer
	buf.Grow(len(source) + (len(source) / 2))

	if err := m.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMDConversion, err)
	}

	return bytes.Clone(buf.Bytes()), nil
}
