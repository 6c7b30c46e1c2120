package chapter

import (
	"errors"
	"io"

	"github.com/metcalfc/prr/internal/bookmark"
)

// Failure reasons reported by Err after a failed Load.
var (
	// ErrOutOfRange indicates the chapter range does not fit inside the book.
	ErrOutOfRange = errors.New("chapter: range out of bounds")

	// ErrResolution indicates the source could not resolve the chapter
	// boundaries or returned no text for them.
	ErrResolution = errors.New("chapter: resolution failed")

	// ErrEmptyPage indicates the layout could not fit any text on a page.
	ErrEmptyPage = errors.New("chapter: empty page")
)

// Book describes the file a chapter is read from.
type Book struct {
	Path string

	// Size is the length in bytes of the book's UTF-8 text.
	Size int

	// Encoding is the character set of the file on disk.
	Encoding string
}

// Handle is an open, read-only view of a book's UTF-8 text.
type Handle interface {
	io.ReaderAt
	io.Closer
}

// TextSource resolves chapters and fetches text from a book.
type TextSource interface {
	// Open acquires a handle on the book. The caller closes it.
	Open(book Book) (Handle, error)

	// LocateChapter resolves the title and range of the chapter containing
	// location. It reports false when no chapter can be found there.
	LocateChapter(h Handle, location int) (bookmark.Bookmark, bool)

	// FetchRange returns the text of r and the number of bytes read.
	FetchRange(h Handle, r bookmark.Range) (string, int, error)

	// LineEnding returns the line break sequence used by text.
	LineEnding(text string) string
}
