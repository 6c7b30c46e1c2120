package reader

import "regexp"

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// NewMarkdownFormat returns a format for Markdown files that starts a
// chapter at every header. Header depth becomes the TOC level.
func NewMarkdownFormat() *TextFormat {
	f := NewTextFormat("Markdown", []string{".md", ".markdown"})
	f.markdown = true
	return f
}

func init() {
	Register(NewMarkdownFormat())
}
