package reader

// TOCEntry represents a single entry in a table of contents
type TOCEntry struct {
	Title    string
	Preview  string
	Location int // byte offset of the entry in the book's text
	Level    int
}

// entryAt returns the index of the last entry starting at or before loc, or
// -1 when loc precedes every entry.
func entryAt(toc []TOCEntry, loc int) int {
	idx := -1
	for i, e := range toc {
		if e.Location > loc {
			break
		}
		idx = i
	}
	return idx
}
