// Package reader opens books and keeps a paging session over them: one
// loaded chapter at a time, crossing chapter boundaries as the reader pages.
package reader

import (
	"context"
	"errors"

	"github.com/metcalfc/prr/internal/bookmark"
	"github.com/metcalfc/prr/internal/chapter"
	"github.com/metcalfc/prr/internal/paper"
	"go.uber.org/zap"
)

var (
	// ErrEmptyBook is returned when loading a book without text.
	ErrEmptyBook = errors.New("book has no text")

	// ErrNotLoaded is returned when paging before Load.
	ErrNotLoaded = errors.New("no chapter loaded")
)

// Reader holds the state of a paging session. It is not safe for
// concurrent use.
type Reader struct {
	Format Format
	Book   chapter.Book
	TOC    []TOCEntry

	current *chapter.Chapter
	size    paper.Size
	layout  paper.CellLayout
	log     *zap.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLayout sets the cell layout pages are laid out with.
func WithLayout(l paper.CellLayout) Option {
	return func(r *Reader) { r.layout = l }
}

// WithLogger sets the session logger. Chapters log through it too.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) { r.log = l }
}

// Open opens the book at filename. Nothing is paged until Load.
func Open(filename string, opts ...Option) (*Reader, error) {
	f, book, err := OpenBook(filename)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		Format: f,
		Book:   book,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	toc, err := f.TOC(book)
	if err != nil {
		r.log.Warn("no table of contents", zap.String("path", filename), zap.Error(err))
	}
	r.TOC = toc

	r.log.Info("opened book",
		zap.String("path", filename),
		zap.String("format", f.Name()),
		zap.String("encoding", book.Encoding),
		zap.Int("size", book.Size),
		zap.Int("toc", len(toc)))
	return r, nil
}

func (r *Reader) newChapter(loc int) *chapter.Chapter {
	return chapter.New(bookmark.At(loc), chapter.WithLayout(r.layout), chapter.WithLogger(r.log))
}

// Load lays out the chapter containing loc for size and shows the page
// holding loc.
func (r *Reader) Load(ctx context.Context, size paper.Size, loc int) error {
	if r.Book.Size == 0 {
		return ErrEmptyBook
	}
	loc = max(0, min(loc, r.Book.Size-1))

	c := r.newChapter(loc)
	if c.Load(ctx, r.Format, r.Book, chapter.LoadOptions{Size: size, Fuzzy: true, Limit: true}) != chapter.Success {
		return c.Err()
	}
	c.LocateAll(loc)

	r.size = size
	r.replace(c)
	return nil
}

// enter loads the chapter containing loc, on its last page when reverse is set.
func (r *Reader) enter(ctx context.Context, loc int, reverse bool) error {
	c := r.newChapter(loc)
	opts := chapter.LoadOptions{Size: r.size, Fuzzy: true, Limit: true, Reverse: reverse}
	if c.Load(ctx, r.Format, r.Book, opts) != chapter.Success {
		return c.Err()
	}
	r.replace(c)
	return nil
}

func (r *Reader) replace(c *chapter.Chapter) {
	if r.current != nil {
		r.current.Trash()
	}
	r.current = c
	r.log.Debug("entered chapter", zap.Stringer("chapter", c), zap.Int("position", c.OriginalOffset()))
}

// NextPage moves one page forward, into the next chapter after the last
// page. It reports false at the end of the book.
func (r *Reader) NextPage(ctx context.Context) (bool, error) {
	c := r.current
	if c == nil {
		return false, ErrNotLoaded
	}
	if !c.AtEnd() {
		before := c.OriginalOffset()
		c.Next()
		if c.OriginalOffset() != before {
			return true, nil
		}
	}
	return r.NextChapter(ctx)
}

// PrevPage moves one page back, onto the last page of the previous chapter
// from the first page. It reports false at the start of the book.
func (r *Reader) PrevPage(ctx context.Context) (bool, error) {
	c := r.current
	if c == nil {
		return false, ErrNotLoaded
	}
	if !c.AtStart() {
		before := c.OriginalOffset()
		c.Prev()
		if c.OriginalOffset() != before {
			return true, nil
		}
	}
	start := c.Range().Start
	if start == 0 {
		return false, nil
	}
	return true, r.enter(ctx, start-1, true)
}

// NextChapter moves to the first page of the next chapter.
func (r *Reader) NextChapter(ctx context.Context) (bool, error) {
	if r.current == nil {
		return false, ErrNotLoaded
	}
	end := r.current.Range().End()
	if end >= r.Book.Size {
		return false, nil
	}
	return true, r.enter(ctx, end, false)
}

// PrevChapter moves to the first page of the current chapter, or of the
// previous chapter when already there.
func (r *Reader) PrevChapter(ctx context.Context) (bool, error) {
	c := r.current
	if c == nil {
		return false, ErrNotLoaded
	}
	start := c.Range().Start
	if !c.AtStart() {
		return c.LocateAll(start), nil
	}
	if start == 0 {
		return false, nil
	}
	return true, r.enter(ctx, start-1, false)
}

// JumpTo shows the page holding loc at the current size.
func (r *Reader) JumpTo(ctx context.Context, loc int) error {
	return r.Load(ctx, r.size, loc)
}

// Resize lays the current chapter out again for size.
func (r *Reader) Resize(size paper.Size) {
	r.size = size
	if r.current != nil {
		r.current.Resize(size)
	}
}

// Size returns the page size of the session.
func (r *Reader) Size() paper.Size { return r.size }

// Chapter returns the loaded chapter, or nil before Load.
func (r *Reader) Chapter() *chapter.Chapter { return r.current }

// Position returns the book location of the start of the current page.
func (r *Reader) Position() int {
	if r.current == nil {
		return 0
	}
	return r.current.OriginalOffset()
}

// Progress returns the current position and the size of the book.
func (r *Reader) Progress() (current, total int) {
	return r.Position(), r.Book.Size
}

// Percent returns how far into the book the current page starts.
func (r *Reader) Percent() float64 {
	if r.Book.Size == 0 {
		return 0
	}
	end := r.Position()
	if p, ok := r.Page(); ok {
		end += p.RealLength
	}
	return 100 * float64(end) / float64(r.Book.Size)
}

// Page returns the current page.
func (r *Reader) Page() (paper.Page, bool) {
	if r.current == nil {
		return paper.Page{}, false
	}
	return r.current.CurrentPage()
}

// Lines returns the rows of the current page as laid out.
func (r *Reader) Lines() []string {
	p, ok := r.Page()
	if !ok {
		return nil
	}
	return r.layout.Lines(p)
}

// AtEnd reports whether the current page is the last page of the book.
func (r *Reader) AtEnd() bool {
	return r.current != nil && r.current.AtEnd() && r.current.Range().End() >= r.Book.Size
}

// Title returns the title of the current chapter.
func (r *Reader) Title() string {
	if r.current == nil {
		return ""
	}
	return r.current.Title().String()
}

// CurrentChapterTitle returns the TOC entry covering the current page, or
// the chapter title when the book has no TOC.
func (r *Reader) CurrentChapterTitle() string {
	if i := r.CurrentEntry(); i >= 0 {
		return r.TOC[i].Title
	}
	return r.Title()
}

// CurrentEntry returns the index of the TOC entry covering the current
// page, or -1.
func (r *Reader) CurrentEntry() int {
	return entryAt(r.TOC, r.Position())
}

// Close releases the loaded chapter.
func (r *Reader) Close() {
	if r.current != nil {
		r.current.Trash()
		r.current = nil
	}
}

// AddHeadings adds chapter heading patterns to every registered text format.
func AddHeadings(patterns ...string) error {
	for _, f := range registry {
		if tf, ok := f.(*TextFormat); ok {
			if err := tf.AddHeadings(patterns...); err != nil {
				return err
			}
		}
	}
	return nil
}
