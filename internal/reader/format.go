package reader

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/metcalfc/prr/internal/bookmark"
	"github.com/metcalfc/prr/internal/chapter"
)

// Format reads one kind of book file.
type Format interface {
	chapter.TextSource

	Name() string
	Extensions() []string

	// Stat describes the book at filename: its text size and encoding.
	Stat(filename string) (chapter.Book, error)

	// Chapters lists every chapter of the book in reading order.
	Chapters(h chapter.Handle) ([]bookmark.Bookmark, error)

	// TOC returns the book's table of contents.
	TOC(book chapter.Book) ([]TOCEntry, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// FormatFor returns the registered format for filename's extension, or the
// plain text format.
func FormatFor(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return plainText
}

// OpenBook picks a format for filename and describes the book.
func OpenBook(filename string) (Format, chapter.Book, error) {
	f := FormatFor(filename)
	book, err := f.Stat(filename)
	if err != nil {
		return nil, chapter.Book{}, err
	}
	return f, book, nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

// fetchRange reads r from h. Reads past the end of the text are truncated.
func fetchRange(h chapter.Handle, r bookmark.Range) (string, int, error) {
	if !r.Valid() {
		return "", 0, nil
	}
	buf := make([]byte, r.Length)
	n, err := h.ReadAt(buf, int64(r.Start))
	if err != nil && err != io.EOF {
		return "", n, err
	}
	return string(buf[:n]), n, nil
}

// lineEnding returns the first line break sequence found in text.
func lineEnding(text string) string {
	i := strings.IndexAny(text, "\r\n")
	switch {
	case i < 0:
		return "\n"
	case text[i] == '\n':
		return "\n"
	case strings.HasPrefix(text[i:], "\r\n"):
		return "\r\n"
	}
	return "\r"
}

// locate returns the chapter of chapters containing loc.
func locate(chapters []bookmark.Bookmark, loc int) (bookmark.Bookmark, bool) {
	for _, c := range chapters {
		if c.Range.Contains(loc) {
			return c, true
		}
	}
	return bookmark.Bookmark{}, false
}
