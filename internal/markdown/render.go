// Package markdown turns note content into sanitized preview HTML and into
// the highlighted overlay the editor layers behind its input.
package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// policy keeps the usual user-generated-content rules and additionally allows
// the classes and note attribute the wikilink pass emits.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("a", "span", "code", "pre")
	p.AllowAttrs("data-note").OnElements("a")
	return p
}()

var wikiLinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Render converts note content to sanitized HTML. Wiki references outside
// code spans become anchors when resolve reports the target exists, and
// missing-target spans otherwise. The alias form [[Target|shown text]]
// displays the alias but resolves the target.
func Render(content string, resolve func(title string) bool) (string, error) {
	var b strings.Builder
	if err := mdRenderer.Convert([]byte(content), &b); err != nil {
		return "", err
	}
	rendered := rewriteWikiLinks(b.String(), resolve)
	return policy.Sanitize(rendered), nil
}

// rewriteWikiLinks rewrites [[...]] occurrences in rendered HTML, leaving
// <code> regions untouched so fenced and inline code show references
// literally.
func rewriteWikiLinks(htmlStr string, resolve func(string) bool) string {
	var out strings.Builder
	rest := htmlStr
	for {
		open := strings.Index(rest, "<code")
		if open < 0 {
			out.WriteString(replaceRefs(rest, resolve))
			break
		}
		out.WriteString(replaceRefs(rest[:open], resolve))
		end := strings.Index(rest[open:], "</code>")
		if end < 0 {
			out.WriteString(rest[open:])
			break
		}
		end += open + len("</code>")
		out.WriteString(rest[open:end])
		rest = rest[end:]
	}
	return out.String()
}

func replaceRefs(s string, resolve func(string) bool) string {
	return wikiLinkRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := html.UnescapeString(m[2 : len(m)-2])
		target, display := inner, inner
		if i := strings.IndexByte(inner, '|'); i >= 0 {
			target = strings.TrimSpace(inner[:i])
			display = strings.TrimSpace(inner[i+1:])
		}
		if target == "" {
			return m
		}
		if resolve != nil && resolve(target) {
			return `<a class="wikilink" href="#" data-note="` +
				html.EscapeString(target) + `">` + html.EscapeString(display) + `</a>`
		}
		return `<span class="wikilink missing">` + html.EscapeString(display) + `</span>`
	})
}
