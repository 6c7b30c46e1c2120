// Package chapter owns the page window of one chapter: loading its text,
// paging it lazily as the reader moves, and mapping pages to book locations.
package chapter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/metcalfc/prr/internal/bookmark"
	"github.com/metcalfc/prr/internal/paging"
	"github.com/metcalfc/prr/internal/paper"
	"go.uber.org/zap"
)

// lookAhead is the number of pages a limited load or a lazy extension lays out.
const lookAhead = 2

// Status is the lifecycle state of a chapter.
type Status int32

const (
	Blank Status = iota
	Loading
	Failure
	Success
)

func (s Status) String() string {
	switch s {
	case Blank:
		return "blank"
	case Loading:
		return "loading"
	case Failure:
		return "failure"
	case Success:
		return "success"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// LoadOptions control how Load pages a chapter.
type LoadOptions struct {
	// Size is the page size to lay out for.
	Size paper.Size

	// Reverse positions the chapter on its last page.
	Reverse bool

	// Fuzzy asks the source to resolve the chapter boundaries around the
	// chapter's start instead of trusting its range.
	Fuzzy bool

	// Limit lays out only a few pages up front. Combined with Reverse it
	// lays out the tail of the chapter.
	Limit bool
}

// Chapter is a titled range of a book with a window of laid out pages.
// It is safe for concurrent use; mutations are serialized.
type Chapter struct {
	mu     sync.RWMutex
	status atomic.Int32

	mark    bookmark.Bookmark
	err     error
	pages   []paper.Page
	offset  int
	cursor  paging.Cursor
	head    int // content offset of pages[0]
	content string
	size    paper.Size

	layout paper.Layout
	log    *zap.Logger
}

// Option configures a Chapter.
type Option func(*Chapter)

// WithLayout sets the page layout. The default is a plain paper.CellLayout.
func WithLayout(l paper.Layout) Option {
	return func(c *Chapter) { c.layout = l }
}

// WithLogger sets the logger used to report loads.
func WithLogger(l *zap.Logger) Option {
	return func(c *Chapter) { c.log = l }
}

// New returns a blank chapter for mark.
func New(mark bookmark.Bookmark, opts ...Option) *Chapter {
	c := &Chapter{
		mark:   mark,
		layout: paper.CellLayout{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the chapter text from src and lays out its pages. It returns
// Success or Failure; on failure Err reports the reason.
func (c *Chapter) Load(ctx context.Context, src TextSource, book Book, opts LoadOptions) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	if !c.mark.Range.Within(book.Size) {
		c.err = fmt.Errorf("%w: %v in book of %d bytes", ErrOutOfRange, c.mark.Range, book.Size)
		c.status.Store(int32(Blank))
		c.log.Debug("chapter out of range", zap.Stringer("chapter", c.mark), zap.Int("size", book.Size))
		return Failure
	}

	c.status.Store(int32(Loading))
	if err := c.load(ctx, src, book, opts); err != nil {
		c.reset()
		c.err = err
		c.status.Store(int32(Failure))
		c.log.Debug("chapter load failed", zap.Stringer("chapter", c.mark), zap.Error(err))
		return Failure
	}

	c.err = nil
	c.status.Store(int32(Success))
	c.log.Debug("chapter loaded",
		zap.Stringer("chapter", c.mark),
		zap.Int("pages", len(c.pages)),
		zap.Stringer("cursor", c.cursor),
		zap.Bool("reverse", opts.Reverse))
	return Success
}

func (c *Chapter) load(ctx context.Context, src TextSource, book Book, opts LoadOptions) error {
	h, err := src.Open(book)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrResolution, book.Path, err)
	}
	defer h.Close()

	if opts.Fuzzy {
		found, ok := src.LocateChapter(h, c.mark.Range.Start)
		if !ok {
			return fmt.Errorf("%w: no chapter at %d", ErrResolution, c.mark.Range.Start)
		}
		if !found.Title.Named() {
			found.Title = c.mark.Title
		}
		c.mark = found
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	text, _, err := src.FetchRange(h, c.mark.Range)
	if err != nil {
		return fmt.Errorf("%w: fetch %v: %w", ErrResolution, c.mark.Range, err)
	}
	if text == "" {
		return fmt.Errorf("%w: no text in %v", ErrResolution, c.mark.Range)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		pages  []paper.Page
		cursor = paging.Exhausted
		head   int
	)
	if opts.Reverse && opts.Limit {
		pages, head = paging.PaginateTail(c.layout, text, opts.Size, paging.Bounded(lookAhead))
	} else {
		limit := paging.Unbounded
		if opts.Limit {
			limit = paging.Bounded(lookAhead)
		}
		pages, cursor = paging.Paginate(c.layout, text, opts.Size, paging.Options{
			FirstLineTitle: true,
			Limit:          limit,
		})
	}
	if len(pages) == 0 {
		return fmt.Errorf("%w: nothing fits in %v", ErrEmptyPage, opts.Size)
	}

	if !c.mark.Title.Named() {
		c.mark.Title = bookmark.Named(firstLine(text, src.LineEnding(text)))
	}

	c.pages = pages
	c.cursor = cursor
	c.head = head
	c.content = text
	c.size = opts.Size
	if opts.Reverse {
		c.offset = len(pages) - 1
	}
	return nil
}

// Trash releases the chapter's pages and text and returns it to Blank.
func (c *Chapter) Trash() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.err = nil
	c.status.Store(int32(Blank))
}

func (c *Chapter) reset() {
	c.pages = nil
	c.offset = 0
	c.cursor = paging.Exhausted
	c.head = 0
	c.content = ""
}

// Next moves to the following page, laying out more of the chapter when the
// reader gets close to the last loaded page. It stops at the last page.
func (c *Chapter) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offset++
	if c.offset >= len(c.pages)-lookAhead {
		c.extendForward()
	}
	c.clamp()
}

// Prev moves to the preceding page, laying out earlier text when the chapter
// was entered from its tail. It stops at the first page.
func (c *Chapter) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offset--
	if c.offset < lookAhead {
		c.offset += c.extendBackward()
	}
	c.clamp()
}

// SetHead moves to the first loaded page.
func (c *Chapter) SetHead() *Chapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
	return c
}

// SetTail moves to the last loaded page.
func (c *Chapter) SetTail() *Chapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = max(0, len(c.pages)-1)
	return c
}

func (c *Chapter) clamp() {
	c.offset = max(0, min(c.offset, len(c.pages)-1))
}

// extendForward appends the next pages after the resume cursor and reports
// whether any were added.
func (c *Chapter) extendForward() bool {
	start, more := c.cursor.Offset()
	if !more || len(c.pages) == 0 {
		return false
	}
	last := c.pages[len(c.pages)-1]
	pages, cursor := paging.Paginate(c.layout, c.content, c.size, paging.Options{
		Start:             start,
		StartsWithNewline: last.EndedWithNewline,
		Limit:             paging.Bounded(lookAhead),
	})
	c.pages = append(c.pages, pages...)
	c.cursor = cursor
	return len(pages) > 0
}

// extendBackward prepends the pages before the first loaded page and
// returns how many were added.
func (c *Chapter) extendBackward() int {
	if c.head <= 0 || len(c.pages) == 0 {
		return 0
	}
	prefix := c.content[:c.head]
	pages, head := paging.PaginateTail(c.layout, prefix, c.size, paging.Bounded(lookAhead))
	if head == 0 {
		// Back at the chapter start, where the first line is the title.
		pages, _ = paging.Paginate(c.layout, prefix, c.size, paging.Options{FirstLineTitle: true})
	}
	if len(pages) == 0 {
		return 0
	}
	c.pages = append(pages, c.pages...)
	c.head = head
	return len(pages)
}

// Locate moves to the loaded page containing the absolute location loc and
// reports whether one was found.
func (c *Chapter) Locate(loc int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locate(loc)
}

// LocateAll is Locate, laying out more of the chapter in either direction
// until loc is covered or the chapter is exhausted.
func (c *Chapter) LocateAll(loc int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for loc < c.mark.Range.Start+c.head && c.extendBackward() > 0 {
	}
	for !c.locate(loc) {
		if !c.extendForward() {
			return false
		}
	}
	return true
}

func (c *Chapter) locate(loc int) bool {
	sum := c.mark.Range.Start + c.head
	for i, p := range c.pages {
		if sum+p.RealLength > loc {
			c.offset = i
			return true
		}
		sum += p.RealLength
	}
	return false
}

// OriginalOffset returns the absolute location of the start of the current page.
func (c *Chapter) OriginalOffset() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sum := c.mark.Range.Start + c.head
	for _, p := range c.pages[:min(c.offset, len(c.pages))] {
		sum += p.RealLength
	}
	return sum
}

// Resize lays the chapter out again for size, keeping the current location
// on screen.
func (c *Chapter) Resize(size paper.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Status() != Success || size == c.size {
		return
	}
	loc := c.mark.Range.Start + c.head
	for _, p := range c.pages[:c.offset] {
		loc += p.RealLength
	}

	pages, cursor := paging.Paginate(c.layout, c.content, size, paging.Options{
		FirstLineTitle: true,
		Limit:          paging.Bounded(lookAhead),
	})
	c.pages = pages
	c.cursor = cursor
	c.head = 0
	c.offset = 0
	c.size = size
	for !c.locate(loc) && c.extendForward() {
	}
	c.clamp()
}

// Status returns the lifecycle state. It does not block while Load runs.
func (c *Chapter) Status() Status { return Status(c.status.Load()) }

// Err returns the reason of the last failed Load, or nil.
func (c *Chapter) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Bookmark returns the chapter's title and range.
func (c *Chapter) Bookmark() bookmark.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mark
}

// Title returns the chapter title.
func (c *Chapter) Title() bookmark.Title { return c.Bookmark().Title }

// Range returns the chapter's range within the book.
func (c *Chapter) Range() bookmark.Range { return c.Bookmark().Range }

// Size returns the page size the chapter was laid out for.
func (c *Chapter) Size() paper.Size {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Pages returns a copy of the loaded pages.
func (c *Chapter) Pages() []paper.Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]paper.Page(nil), c.pages...)
}

// PageCount returns the number of loaded pages.
func (c *Chapter) PageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

// Offset returns the index of the current page.
func (c *Chapter) Offset() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// Cursor returns where lazy paging will resume.
func (c *Chapter) Cursor() paging.Cursor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

func (c *Chapter) IsEmpty() bool { return c.PageCount() == 0 }

func (c *Chapter) IsHead() bool { return c.Offset() <= 0 }

func (c *Chapter) IsTail() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset >= len(c.pages)-1
}

// AtStart reports whether the current page is the first page of the chapter
// text, not just of the loaded window.
func (c *Chapter) AtStart() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset <= 0 && c.head == 0
}

// AtEnd reports whether the current page is the last page of the chapter text.
func (c *Chapter) AtEnd() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset >= len(c.pages)-1 && c.cursor.Exhausted()
}

// CanLazyLeft reports whether at least two pages precede the current one.
func (c *Chapter) CanLazyLeft() bool { return c.Offset() > 1 }

// CanLazyRight reports whether more than two loaded pages remain from the current one.
func (c *Chapter) CanLazyRight() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)-c.offset > 2
}

func (c *Chapter) CurrentPage() (paper.Page, bool) { return c.pageAt(0) }

func (c *Chapter) NextPage() (paper.Page, bool) { return c.pageAt(1) }

func (c *Chapter) PrevPage() (paper.Page, bool) { return c.pageAt(-1) }

func (c *Chapter) HeadPage() (paper.Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.pages) == 0 {
		return paper.Page{}, false
	}
	return c.pages[0], true
}

func (c *Chapter) TailPage() (paper.Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.pages) == 0 {
		return paper.Page{}, false
	}
	return c.pages[len(c.pages)-1], true
}

func (c *Chapter) pageAt(delta int) (paper.Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.offset + delta
	if i < 0 || i >= len(c.pages) {
		return paper.Page{}, false
	}
	return c.pages[i], true
}

func (c *Chapter) String() string {
	if c.IsEmpty() {
		return "Blank"
	}
	return c.Bookmark().String()
}

// firstLine returns the first non-blank line of text.
func firstLine(text, lineEnding string) string {
	if lineEnding == "" {
		lineEnding = "\n"
	}
	for _, line := range strings.Split(text, lineEnding) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
