package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellLayout(t *testing.T) {
	tests := []struct {
		name             string
		layout           CellLayout
		text             string
		size             Size
		title            bool
		paragraph        bool
		expectedLen      int
		expectedNewline  bool
		expectedTitle    bool
		expectedRendered []string
	}{
		{
			name:             "title and body line",
			text:             "Title\nBody line 1\nBody line 2",
			size:             NewSize(20, 2),
			title:            true,
			expectedLen:      len("Title\nBody line 1\n"),
			expectedNewline:  true,
			expectedTitle:    true,
			expectedRendered: []string{"Title", "Body line 1"},
		},
		{
			name:             "hard wrap",
			text:             "abcdefgh",
			size:             NewSize(3, 2),
			expectedLen:      6,
			expectedRendered: []string{"abc", "def"},
		},
		{
			name:             "newline after full last row",
			text:             "abc\ndef",
			size:             NewSize(3, 1),
			expectedLen:      4,
			expectedNewline:  true,
			expectedRendered: []string{"abc"},
		},
		{
			name:             "crlf is one break",
			text:             "ab\r\ncd",
			size:             NewSize(2, 1),
			expectedLen:      4,
			expectedNewline:  true,
			expectedRendered: []string{"ab"},
		},
		{
			name:             "wide characters",
			text:             "中文字",
			size:             NewSize(4, 2),
			expectedLen:      len("中文字"),
			expectedRendered: []string{"中文", "字"},
		},
		{
			name:             "paragraph indent",
			layout:           CellLayout{Indent: 2},
			text:             "ab\ncd",
			size:             NewSize(4, 3),
			paragraph:        true,
			expectedLen:      5,
			expectedRendered: []string{"  ab", "  cd"},
		},
		{
			name:             "no indent mid paragraph",
			layout:           CellLayout{Indent: 2},
			text:             "ab\ncd",
			size:             NewSize(4, 3),
			expectedLen:      5,
			expectedRendered: []string{"ab", "  cd"},
		},
		{
			name:             "title gap",
			layout:           CellLayout{TitleGap: 1},
			text:             "T\nbody",
			size:             NewSize(10, 2),
			title:            true,
			expectedLen:      2,
			expectedNewline:  true,
			expectedTitle:    true,
			expectedRendered: []string{"T", ""},
		},
		{
			name:        "glyph wider than page",
			text:        "中",
			size:        NewSize(1, 1),
			title:       true,
			expectedLen: 0,
		},
		{
			name:        "empty text",
			text:        "",
			size:        NewSize(10, 10),
			expectedLen: 0,
		},
		{
			name:        "zero size",
			text:        "hello",
			size:        NewSize(0, 10),
			expectedLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.layout.Layout(tt.text, tt.size, tt.title, tt.paragraph)

			assert.Equal(t, tt.expectedLen, p.RealLength)
			assert.Equal(t, tt.text[:tt.expectedLen], p.Text)
			assert.Equal(t, tt.expectedNewline, p.EndedWithNewline)
			assert.Equal(t, tt.expectedTitle, p.FirstLineTitle)
			assert.Equal(t, tt.expectedLen > 0, p.Valid())
			assert.Equal(t, tt.size, p.Size)
			if tt.expectedRendered != nil {
				assert.Equal(t, tt.expectedRendered, tt.layout.Lines(p))
			}
		})
	}
}

func TestCellLayoutCoversText(t *testing.T) {
	l := CellLayout{Indent: 2, TitleGap: 1}
	text := "Chapter\nThe quick brown fox jumps over the lazy dog.\n\nAnd again, the quick brown fox.\n"
	size := NewSize(9, 3)

	var rebuilt string
	offset := 0
	for offset < len(text) {
		p := l.Layout(text[offset:], size, offset == 0, offset > 0 && text[offset-1] == '\n')
		require.True(t, p.Valid(), "no progress at offset %d", offset)
		for _, row := range l.Lines(p) {
			assert.LessOrEqual(t, l.Width(row), size.Width, "row %q overflows", row)
		}
		assert.LessOrEqual(t, len(l.Lines(p)), size.Height)
		rebuilt += p.Text
		offset += p.RealLength
	}
	assert.Equal(t, text, rebuilt)
}

func TestCellLayoutEastAsianWidth(t *testing.T) {
	assert.Equal(t, 1, CellLayout{}.Width("α"))
	assert.Equal(t, 2, CellLayout{EastAsianWidth: true}.Width("α"))
}

func TestLayoutFunc(t *testing.T) {
	var calls int
	f := LayoutFunc(func(text string, size Size, title, paragraph bool) Page {
		calls++
		return Page{Size: size, Text: text, RealLength: len(text)}
	})
	p := f.Layout("abc", NewSize(1, 1), false, false)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, p.RealLength)
}
