// Package paging splits chapter text into pages, either forward from an
// offset or backward from the end of the text.
package paging

import (
	"fmt"
	"math"
	"strings"

	"github.com/metcalfc/prr/internal/paper"
	"github.com/rivo/uniseg"
)

// Limit caps the number of pages one pagination pass produces.
type Limit struct {
	n int
}

// Unbounded pages until the content is exhausted.
var Unbounded = Limit{n: math.MaxInt}

// Bounded caps a pass at n pages. n below 1 is treated as 1.
func Bounded(n int) Limit {
	if n < 1 {
		n = 1
	}
	return Limit{n: n}
}

// IsBounded reports whether the limit is finite.
func (l Limit) IsBounded() bool { return l.n != math.MaxInt && l.n > 0 }

// Pages returns the cap.
func (l Limit) Pages() int {
	if l.n <= 0 {
		return math.MaxInt
	}
	return l.n
}

func (l Limit) String() string {
	if !l.IsBounded() {
		return "unbounded"
	}
	return fmt.Sprintf("%d pages", l.n)
}

// Cursor records where a later pass should resume.
type Cursor struct {
	offset int
	more   bool
}

// Exhausted is the cursor of content that has been paged completely.
var Exhausted = Cursor{}

// At returns a cursor resuming at offset.
func At(offset int) Cursor { return Cursor{offset: offset, more: true} }

// Offset returns the resume offset and whether any content remains.
func (c Cursor) Offset() (int, bool) { return c.offset, c.more }

// Exhausted reports whether nothing remains to be paged.
func (c Cursor) Exhausted() bool { return !c.more }

func (c Cursor) String() string {
	if !c.more {
		return "exhausted"
	}
	return fmt.Sprintf("at %d", c.offset)
}

// Options control one pagination pass.
type Options struct {
	// Start is the byte offset in the content to page from.
	Start int

	// FirstLineTitle lays out the first line as a title when Start is 0.
	FirstLineTitle bool

	// StartsWithNewline tells the layout the text before Start ended a line.
	StartsWithNewline bool

	// Limit caps the number of pages. The zero value is Unbounded.
	Limit Limit
}

// Paginate lays content out page by page from opts.Start until the content
// ends, the layout can fit nothing more, or opts.Limit pages were produced.
// The cursor is Exhausted unless the limit stopped the pass with content left.
func Paginate(layout paper.Layout, content string, size paper.Size, opts Options) ([]paper.Page, Cursor) {
	limit := opts.Limit.Pages()
	offset := max(0, opts.Start)
	paragraph := opts.StartsWithNewline

	var pages []paper.Page
	for offset < len(content) && len(pages) < limit {
		title := opts.FirstLineTitle && offset == 0
		p := layout.Layout(content[offset:], size, title, paragraph)
		if p.RealLength <= 0 {
			break
		}
		paragraph = p.EndedWithNewline
		offset += p.RealLength
		pages = append(pages, p)
	}

	if len(pages) < limit || offset >= len(content) {
		return pages, Exhausted
	}
	return pages, At(offset)
}

// PaginateTail pages the end of content. It reverses the text, pages the
// reversed text to find how much of the tail fills limit pages, then pages
// that tail forward again so lines wrap as they do when reading normally.
// It returns the pages and the offset in content where the first page starts.
func PaginateTail(layout paper.Layout, content string, size paper.Size, limit Limit) ([]paper.Page, int) {
	reversed, _ := Paginate(layout, Reverse(content), size, Options{Limit: limit})

	// Reversed pages, read back to front, are the suffix of content.
	n := 0
	for _, p := range reversed {
		n += p.RealLength
	}
	head := len(content) - n
	if n == 0 {
		return nil, len(content)
	}

	pages, _ := Paginate(layout, content[head:], size, Options{
		StartsWithNewline: head > 0 && endsLine(content[:head]),
	})
	return pages, head
}

// Reverse reverses s by grapheme cluster, so combining sequences and CRLF
// pairs survive the round trip.
func Reverse(s string) string {
	var clusters []string
	state := -1
	for s != "" {
		var c string
		c, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		clusters = append(clusters, c)
	}

	var b strings.Builder
	for i := len(clusters) - 1; i >= 0; i-- {
		b.WriteString(clusters[i])
	}
	return b.String()
}

func endsLine(s string) bool {
	return strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "\r")
}
