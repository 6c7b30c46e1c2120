package reader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/metcalfc/prr/internal/bookmark"
	"github.com/metcalfc/prr/internal/chapter"
)

const (
	maxHeadingRunes = 60  // longer lines are prose, not headings
	previewBytes    = 512 // text read after a heading for TOC previews
	previewWords    = 10
)

// chapterHeadings match the first line of a chapter in plain text books.
var chapterHeadings = []*regexp.Regexp{
	regexp.MustCompile(`^\s*第[0-9０-９零〇一二两三四五六七八九十百千万]+[章节回卷集部篇]`),
	regexp.MustCompile(`^\s*(?i:chapter|part|book)\s+([0-9]+|[IVXLCDM]+)\s*([:.-].*)?$`),
	regexp.MustCompile(`^\s*(?i:prologue|epilogue)\s*$`),
}

// TextFormat reads plain text books, starting a chapter at every line that
// looks like a chapter heading.
type TextFormat struct {
	name       string
	extensions []string
	headings   []*regexp.Regexp
	markdown   bool
}

var plainText = NewTextFormat("Text", []string{".txt", ".text"})

func init() {
	Register(plainText)
}

// NewTextFormat returns a plain text format using the default chapter headings.
func NewTextFormat(name string, extensions []string) *TextFormat {
	return &TextFormat{
		name:       name,
		extensions: extensions,
		headings:   append([]*regexp.Regexp(nil), chapterHeadings...),
	}
}

func (f *TextFormat) Name() string         { return f.name }
func (f *TextFormat) Extensions() []string { return f.extensions }

// AddHeadings adds regular expressions matching chapter heading lines.
func (f *TextFormat) AddHeadings(patterns ...string) error {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid heading pattern %q: %w", p, err)
		}
		f.headings = append(f.headings, re)
	}
	return nil
}

// heading reports whether line is a chapter heading and returns its title
// and nesting level.
func (f *TextFormat) heading(line string) (string, int, bool) {
	line = strings.TrimRight(line, "\r\n")
	if utf8.RuneCountInString(line) > maxHeadingRunes {
		return "", 0, false
	}
	if f.markdown {
		if match := headerRegex.FindStringSubmatch(line); match != nil {
			return strings.TrimSpace(match[2]), len(match[1]) - 1, true
		}
	}
	for _, re := range f.headings {
		if re.MatchString(line) {
			return strings.TrimSpace(line), 0, true
		}
	}
	return "", 0, false
}

// Stat implements Format. UTF-8 books are measured on disk; books in other
// encodings are decoded once to measure their UTF-8 size.
func (f *TextFormat) Stat(filename string) (chapter.Book, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return chapter.Book{}, err
	}
	sample, err := readSample(filename)
	if err != nil {
		return chapter.Book{}, err
	}

	book := chapter.Book{Path: filename, Encoding: detectEncoding(sample)}
	if book.Encoding == utf8Name {
		book.Size = int(info.Size())
		if bytes.HasPrefix(sample, utf8BOM) {
			book.Size -= len(utf8BOM)
		}
		return book, nil
	}

	enc, err := lookupEncoding(book.Encoding)
	if err != nil {
		return chapter.Book{}, err
	}
	data, err := decodeFile(filename, enc)
	if err != nil {
		return chapter.Book{}, err
	}
	book.Size = len(data)
	return book, nil
}

type fileHandle struct {
	*io.SectionReader
	file *os.File
}

func (h fileHandle) Close() error { return h.file.Close() }

type memoryHandle struct {
	*bytes.Reader
}

func (memoryHandle) Close() error { return nil }

// Open implements chapter.TextSource. The handle reads UTF-8 text whatever
// the encoding on disk.
func (f *TextFormat) Open(book chapter.Book) (chapter.Handle, error) {
	if book.Encoding == "" || book.Encoding == utf8Name {
		file, err := os.Open(book.Path)
		if err != nil {
			return nil, err
		}
		var skip int64
		bom := make([]byte, len(utf8BOM))
		if n, _ := file.ReadAt(bom, 0); n == len(bom) && bytes.Equal(bom, utf8BOM) {
			skip = int64(len(utf8BOM))
		}
		return fileHandle{SectionReader: io.NewSectionReader(file, skip, int64(book.Size)), file: file}, nil
	}

	enc, err := lookupEncoding(book.Encoding)
	if err != nil {
		return nil, err
	}
	data, err := decodeFile(book.Path, enc)
	if err != nil {
		return nil, err
	}
	return memoryHandle{bytes.NewReader(data)}, nil
}

// Chapters implements Format. Text before the first heading becomes an
// untitled chapter unless it is blank.
func (f *TextFormat) Chapters(h chapter.Handle) ([]bookmark.Bookmark, error) {
	r := bufio.NewReader(io.NewSectionReader(h, 0, math.MaxInt64))

	var chapters []bookmark.Bookmark
	start, offset := 0, 0
	title := bookmark.Untitled
	blank := true

	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if t, _, ok := f.heading(line); ok {
				if offset > start && !(blank && !title.Named()) {
					chapters = append(chapters, bookmark.New(title, bookmark.NewRange(start, offset)))
					start = offset
				}
				title = bookmark.Named(t)
				blank = false
			} else if strings.TrimSpace(line) != "" {
				blank = false
			}
			offset += len(line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if offset > start {
		chapters = append(chapters, bookmark.New(title, bookmark.NewRange(start, offset)))
	}
	return chapters, nil
}

// LocateChapter implements chapter.TextSource.
func (f *TextFormat) LocateChapter(h chapter.Handle, location int) (bookmark.Bookmark, bool) {
	chapters, err := f.Chapters(h)
	if err != nil {
		return bookmark.Bookmark{}, false
	}
	return locate(chapters, location)
}

// FetchRange implements chapter.TextSource.
func (f *TextFormat) FetchRange(h chapter.Handle, r bookmark.Range) (string, int, error) {
	return fetchRange(h, r)
}

// LineEnding implements chapter.TextSource.
func (f *TextFormat) LineEnding(text string) string { return lineEnding(text) }

// TOC implements Format with one entry per chapter.
func (f *TextFormat) TOC(book chapter.Book) ([]TOCEntry, error) {
	h, err := f.Open(book)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	chapters, err := f.Chapters(h)
	if err != nil {
		return nil, err
	}

	entries := make([]TOCEntry, 0, len(chapters))
	for _, c := range chapters {
		text, _, err := fetchRange(h, bookmark.NewRange(c.Range.Start, min(c.Range.End(), c.Range.Start+previewBytes)))
		if err != nil {
			return nil, err
		}
		text = strings.ToValidUTF8(text, "")

		entry := TOCEntry{
			Title:    c.Title.String(),
			Location: c.Range.Start,
		}
		first, rest, _ := strings.Cut(text, "\n")
		if _, level, ok := f.heading(first); ok {
			entry.Level = level
		} else {
			rest = text
		}
		if !c.Title.Named() {
			entry.Title = "Document"
		}
		entry.Preview = preview(rest)
		entries = append(entries, entry)
	}
	return entries, nil
}

// preview returns the first few words of text.
func preview(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > previewWords {
		return strings.Join(words[:previewWords], " ") + "..."
	}
	return strings.Join(words, " ")
}
