package format

import (
	"regexp"
	"strings"
)

const (
	codeOpen  = "<code>"
	codeClose = "</code>"
)

var (
	linkRef = regexp.MustCompile(`<@link \S+ ([^>]+)>`)

	markdownEscaper = strings.NewReplacer(">", `\>`, "[", `\[`, "(", `\(`)
)

// StripLinks collapses "<@link kind target>" references to their target.
func StripLinks(s string) string {
	return linkRef.ReplaceAllString(s, "$1")
}

// Fence wraps s in a fenced code block.
func Fence(lang, s string) string {
	return "```" + lang + "\n" + s + "\n```"
}

func fenceOverhead(lang string) int {
	return len("```"+lang+"\n") + len("\n```")
}

// ParseCode turns <code> spans into fences and escapes markdown outside
// them. inCode carries a span left open by a previous chunk; it is updated
// for the next one.
func ParseCode(text, lang string, inCode *bool) string {
	var b strings.Builder
	rest := text
	if *inCode {
		b.WriteString("```" + lang + "\n")
	}
	for {
		if *inCode {
			end := strings.Index(rest, codeClose)
			if end < 0 {
				b.WriteString(rest)
				b.WriteString("\n```")
				return b.String()
			}
			b.WriteString(rest[:end])
			b.WriteString("\n```")
			rest = rest[end+len(codeClose):]
			*inCode = false
			continue
		}
		start := strings.Index(rest, codeOpen)
		if start < 0 {
			b.WriteString(markdownEscaper.Replace(rest))
			return b.String()
		}
		b.WriteString(markdownEscaper.Replace(rest[:start]))
		b.WriteString("```" + lang + "\n")
		rest = rest[start+len(codeOpen):]
		*inCode = true
	}
}

// Split breaks s into chunks of at most max runes, cutting after the last
// newline in the window, else after the last space, else at max.
func Split(s string, max int) []string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return []string{s}
	}
	var chunks []string
	for len(runes) > max {
		window := runes[:max]
		cut := lastIndex(window, '\n')
		if cut < 0 {
			cut = lastIndex(window, ' ')
		}
		if cut < 0 {
			cut = max - 1
		}
		chunks = append(chunks, string(runes[:cut+1]))
		runes = runes[cut+1:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastIndex(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
