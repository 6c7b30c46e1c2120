// Package bookmark holds the location model shared by chapters and saved
// reading positions: a half-open byte range over a book's text and a title.
package bookmark

import "fmt"

// Range is a half-open span [Start, Start+Length) over a book's text.
type Range struct {
	Start  int
	Length int
}

// Blank is the empty range at the start of a book.
var Blank = Range{}

// NewRange returns the range covering [start, end).
func NewRange(start, end int) Range {
	return Range{Start: start, Length: end - start}
}

// End returns the exclusive end offset.
func (r Range) End() int { return r.Start + r.Length }

// Valid reports whether the range has a non-negative start and length.
func (r Range) Valid() bool { return r.Start >= 0 && r.Length >= 0 }

// Within reports whether the range is valid and ends inside a text of the given size.
func (r Range) Within(size int) bool { return r.Valid() && r.End() <= size }

// Contains reports whether loc falls inside the range.
func (r Range) Contains(loc int) bool { return loc >= r.Start && loc < r.End() }

// IsBlank reports whether r is the zero range.
func (r Range) IsBlank() bool { return r == Blank }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End()) }

// Title is either untitled or carries a name.
type Title struct {
	name  string
	named bool
}

// Untitled is the title of a chapter whose name is not known yet.
var Untitled = Title{}

// Named returns a title carrying name. An empty name is Untitled.
func Named(name string) Title {
	if name == "" {
		return Untitled
	}
	return Title{name: name, named: true}
}

// Named reports whether the title carries a name.
func (t Title) Named() bool { return t.named }

// String returns the name, or "" when untitled.
func (t Title) String() string { return t.name }

// Bookmark identifies a titled location within a book.
type Bookmark struct {
	Title Title
	Range Range
}

// New returns a bookmark for the given title and range.
func New(title Title, r Range) Bookmark {
	return Bookmark{Title: title, Range: r}
}

// At returns an untitled bookmark starting at loc with an unknown length.
func At(loc int) Bookmark {
	return Bookmark{Range: Range{Start: loc}}
}

func (b Bookmark) String() string {
	if !b.Title.Named() {
		return "Untitled " + b.Range.String()
	}
	return b.Title.String() + " " + b.Range.String()
}
