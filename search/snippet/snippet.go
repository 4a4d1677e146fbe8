package snippet

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

var newlines = regexp.MustCompile(`[\r\n]+`)

// Extract returns a single line excerpt around the match at matchIndex.
// The excerpt spans the whole line(s) containing the match plus up to
// contextLength characters on either side. It is prefixed/suffixed with "..."
// when it doesn't reach the start/end of content.
func Extract(content string, matchIndex int, query string, contextLength int) string {
	if content == "" {
		return ""
	}
	matchIndex = clamp(matchIndex, 0, len(content)-1)
	matchEnd := clamp(matchIndex+len(query), matchIndex, len(content))
	if contextLength < 0 {
		contextLength = 0
	}

	lineStart := strings.LastIndexByte(content[:matchIndex], '\n') + 1
	lineEnd := len(content)
	if i := strings.IndexByte(content[matchEnd:], '\n'); i >= 0 {
		lineEnd = matchEnd + i
	}

	start := lineStart
	for n := 0; n < contextLength && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(content[:start])
		start -= size
	}
	end := lineEnd
	for n := 0; n < contextLength && end < len(content); n++ {
		_, size := utf8.DecodeRuneInString(content[end:])
		end += size
	}

	excerpt := newlines.ReplaceAllString(content[start:end], " ")
	excerpt = strings.TrimSpace(excerpt)

	if start > 0 {
		excerpt = ellipsis + excerpt
	}
	if end < len(content) {
		excerpt = excerpt + ellipsis
	}
	return excerpt
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
