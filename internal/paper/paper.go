// Package paper defines a page of laid out text and the layout contract used
// to produce one.
package paper

import "fmt"

// Size is the bounding size of a page. CellLayout reads it as columns by rows.
type Size struct {
	Width  int
	Height int
}

// NewSize returns a Size of w by h.
func NewSize(w, h int) Size { return Size{Width: w, Height: h} }

// IsZero reports whether nothing can be laid out in s.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Page is one screen of laid out text.
type Page struct {
	Size Size
	Text string

	// RealLength is the number of bytes of the source text the page consumed.
	RealLength int

	// EndedWithNewline is set when the last consumed character was a line break.
	EndedWithNewline bool

	// FirstLineTitle is set when the first line was laid out as a title.
	FirstLineTitle bool

	// StartsWithNewline is set when the page opens a new paragraph.
	StartsWithNewline bool
}

// Valid reports whether the page consumed any text. Invalid pages signal
// that nothing more could be laid out.
func (p Page) Valid() bool { return p.RealLength > 0 }

// Layout lays out the longest prefix of text that fits in size.
//
// firstLineTitle asks for the first line to be treated as a title.
// startsWithNewline tells the layout the preceding text ended with a line
// break, so text opens a paragraph. A returned page with RealLength 0 means
// nothing fit.
type Layout interface {
	Layout(text string, size Size, firstLineTitle, startsWithNewline bool) Page
}

// LayoutFunc adapts a function to the Layout interface.
type LayoutFunc func(text string, size Size, firstLineTitle, startsWithNewline bool) Page

func (f LayoutFunc) Layout(text string, size Size, firstLineTitle, startsWithNewline bool) Page {
	return f(text, size, firstLineTitle, startsWithNewline)
}
