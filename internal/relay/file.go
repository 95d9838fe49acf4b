package relay

import (
	"strconv"
	"strings"
)

// encodeNote renders the on-disk form: a minimal frontmatter block carrying
// the exact title and the last-modified stamp, then the body.
func encodeNote(title, content string, lastModified int64) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: " + quoteValue(title) + "\n")
	b.WriteString("updated: " + strconv.FormatInt(lastModified, 10) + "\n")
	b.WriteString("---\n")
	b.WriteString(content)
	return b.String()
}

// quoteValue wraps a frontmatter value in double quotes with backslash
// escapes. Titles are the addressing key, so the round trip must be
// lossless; newlines would break the line-oriented frontmatter and are
// folded to spaces.
func quoteValue(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func unquoteValue(s string) string {
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return s
	}
	s = s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// decodeNote splits frontmatter from the body. Files written by other tools
// may have no frontmatter at all; those come back with an empty title and a
// zero stamp, which the caller fills from the file itself.
func decodeNote(input string) (title, content string, updated int64) {
	body, fm := splitFrontmatter(input)
	if fm != nil {
		title = fm["title"]
		if v, err := strconv.ParseInt(fm["updated"], 10, 64); err == nil {
			updated = v
		}
	}
	return title, body, updated
}

func splitFrontmatter(input string) (string, map[string]string) {
	lines := strings.Split(input, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return input, nil
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return input, nil
	}
	fm := make(map[string]string)
	for _, line := range lines[1:end] {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := unquoteValue(strings.TrimSpace(parts[1]))
		if key != "" {
			fm[key] = val
		}
	}
	return strings.Join(lines[end+1:], "\n"), fm
}
