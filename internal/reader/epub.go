package reader

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/metcalfc/prr/internal/bookmark"
	"github.com/metcalfc/prr/internal/chapter"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

// EPUBFormat implements Format for EPUB files. The text of a book is the
// text of its spine documents, one paragraph per line, and every spine
// document is a chapter.
type EPUBFormat struct {
	mu    sync.Mutex
	books map[string]*epubBook
}

type epubBook struct {
	text     []byte
	chapters []bookmark.Bookmark
	toc      []TOCEntry
}

type epubHandle struct {
	memoryHandle
	book *epubBook
}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Stat implements Format.
func (f *EPUBFormat) Stat(filename string) (chapter.Book, error) {
	b, err := f.load(filename)
	if err != nil {
		return chapter.Book{}, err
	}
	return chapter.Book{Path: filename, Size: len(b.text), Encoding: utf8Name}, nil
}

// Open implements chapter.TextSource.
func (f *EPUBFormat) Open(book chapter.Book) (chapter.Handle, error) {
	b, err := f.load(book.Path)
	if err != nil {
		return nil, err
	}
	return epubHandle{memoryHandle: memoryHandle{bytes.NewReader(b.text)}, book: b}, nil
}

// Chapters implements Format.
func (f *EPUBFormat) Chapters(h chapter.Handle) ([]bookmark.Bookmark, error) {
	eh, ok := h.(epubHandle)
	if !ok {
		return nil, fmt.Errorf("not an epub handle")
	}
	return eh.book.chapters, nil
}

// LocateChapter implements chapter.TextSource.
func (f *EPUBFormat) LocateChapter(h chapter.Handle, location int) (bookmark.Bookmark, bool) {
	chapters, err := f.Chapters(h)
	if err != nil {
		return bookmark.Bookmark{}, false
	}
	return locate(chapters, location)
}

// FetchRange implements chapter.TextSource.
func (f *EPUBFormat) FetchRange(h chapter.Handle, r bookmark.Range) (string, int, error) {
	return fetchRange(h, r)
}

// LineEnding implements chapter.TextSource. Extracted text always uses "\n".
func (f *EPUBFormat) LineEnding(string) string { return "\n" }

// TOC implements Format from the book's NCX table of contents.
func (f *EPUBFormat) TOC(book chapter.Book) ([]TOCEntry, error) {
	b, err := f.load(book.Path)
	if err != nil {
		return nil, err
	}
	return b.toc, nil
}

func (f *EPUBFormat) load(filename string) (*epubBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if b, ok := f.books[filename]; ok {
		return b, nil
	}
	b, err := readEPUB(filename)
	if err != nil {
		return nil, err
	}
	if f.books == nil {
		f.books = make(map[string]*epubBook)
	}
	f.books[filename] = b
	return b, nil
}

// readEPUB extracts the text, chapters and TOC of an EPUB file.
func readEPUB(filename string) (*epubBook, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]

	var toc *ncx
	if data, err := findAndReadNCX(filename, book); err == nil {
		var parsed ncx
		if err := xml.Unmarshal(data, &parsed); err == nil {
			toc = &parsed
		}
	}
	titles := buildTOCHrefMap(toc)

	var out bytes.Buffer
	var chapters []bookmark.Bookmark
	spine := make(map[string]int)

	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		text := extractTextFromHTML(string(data))
		if text == "" {
			continue
		}

		start := out.Len()
		out.WriteString(text)

		title := fmt.Sprintf("Section %d", i+1)
		if ref.Item.HREF != "" {
			spine[ref.Item.HREF] = start
			spine[path.Base(ref.Item.HREF)] = start
			if t, ok := titles[ref.Item.HREF]; ok {
				title = t
			} else if t, ok := titles[path.Base(ref.Item.HREF)]; ok {
				title = t
			}
		}
		chapters = append(chapters, bookmark.New(bookmark.Named(title), bookmark.NewRange(start, out.Len())))
	}

	b := &epubBook{text: out.Bytes(), chapters: chapters}
	if toc != nil {
		b.toc = flattenNavPoints(toc.NavMap.NavPoints, spine, 0)
	}
	if len(b.toc) == 0 {
		for _, c := range chapters {
			b.toc = append(b.toc, TOCEntry{Title: c.Title.String(), Location: c.Range.Start})
		}
	}
	for i := range b.toc {
		loc := b.toc[i].Location
		end := len(b.text)
		if c, ok := locate(chapters, loc); ok {
			end = c.Range.End()
		}
		b.toc[i].Preview = preview(string(b.text[loc:min(end, loc+previewBytes)]))
	}
	return b, nil
}

// blockElements end a paragraph of extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "article": true, "pre": true,
}

// skippedElements carry no readable text.
var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true,
}

// extractTextFromHTML returns the text of an XHTML document, one paragraph
// per line with whitespace collapsed.
func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var out, para strings.Builder
	flush := func() {
		if t := strings.Join(strings.Fields(para.String()), " "); t != "" {
			out.WriteString(t)
			out.WriteString("\n")
		}
		para.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			para.WriteString(n.Data)
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(doc)
	flush()
	return out.String()
}
