// Package markup removes lightweight markup from note text so that
// substring matches and snippets work on what the reader actually sees.
package markup

import "regexp"

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Applied in order. Images must go before links since ![alt](url)
// also looks like [alt](url).
var rules = []rule{
	// [[target|alias]]
	{regexp.MustCompile(`\[\[([^\]|]+)\|([^\]]+)\]\]`), "$2"},
	// [[target]]
	{regexp.MustCompile(`\[\[([^\]]+)\]\]`), "$1"},
	// bold
	{regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`), "${1}${2}"},
	// italic
	{regexp.MustCompile(`\*(.+?)\*|_(.+?)_`), "${1}${2}"},
	// strikethrough
	{regexp.MustCompile(`~~(.+?)~~`), "$1"},
	// inline code
	{regexp.MustCompile("`(.+?)`"), "$1"},
	// image
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`), "$1"},
	// link
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`), "$1"},
	// heading
	{regexp.MustCompile(`(?m)^#{1,6}[ \t]+`), ""},
	// unordered list
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`), ""},
	// ordered list
	{regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`), ""},
}

// Strip returns text with links, emphasis, code spans, images, heading
// and list markers replaced by their visible text.
func Strip(text string) string {
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}
