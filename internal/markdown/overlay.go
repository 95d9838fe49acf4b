package markdown

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var (
	overlayFormatter = chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.PreventSurroundingPre(true),
	)
	overlayStyle = styles.Get("github")
)

// Overlay tokenizes raw note content as markdown and renders class-annotated
// HTML for the editor's highlight layer. The layer sits behind a transparent
// textarea, so the output must preserve the input byte for byte; classes-only
// formatting without a wrapping pre keeps the text geometry identical.
func Overlay(content string) (string, error) {
	lexer := chroma.Coalesce(lexers.Get("markdown"))
	it, err := lexer.Tokenise(nil, content)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := overlayFormatter.Format(&b, overlayStyle, it); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Highlight renders a fenced code block body with the lexer for lang,
// falling back to plain text when the language is unknown.
func Highlight(code, lang string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := overlayFormatter.Format(&b, overlayStyle, it); err != nil {
		return "", err
	}
	return b.String(), nil
}
