package paper

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// CellLayout lays text out on a grid of fixed-width terminal cells. Lines are
// hard wrapped at grapheme cluster boundaries.
type CellLayout struct {
	// Indent is the number of blank cells opening each paragraph.
	Indent int

	// TitleGap is the number of blank rows after a title line.
	TitleGap int

	// EastAsianWidth measures ambiguous-width characters as two cells.
	EastAsianWidth bool
}

// Layout implements Layout.
func (l CellLayout) Layout(text string, size Size, firstLineTitle, startsWithNewline bool) Page {
	consumed, endedWithNewline := l.flow(text, size, firstLineTitle, startsWithNewline, nil)
	return Page{
		Size:              size,
		Text:              text[:consumed],
		RealLength:        consumed,
		EndedWithNewline:  endedWithNewline,
		FirstLineTitle:    firstLineTitle && consumed > 0,
		StartsWithNewline: startsWithNewline,
	}
}

// Lines returns the rows of p as they were laid out, indentation included and
// line breaks removed.
func (l CellLayout) Lines(p Page) []string {
	var rows []string
	l.flow(p.Text, p.Size, p.FirstLineTitle, p.StartsWithNewline, &rows)
	return rows
}

// Width returns the number of cells s occupies.
func (l CellLayout) Width(s string) int {
	return l.condition().StringWidth(s)
}

func (l CellLayout) condition() *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = l.EastAsianWidth
	return cond
}

// flow walks text cluster by cluster until size is full. It returns the
// number of bytes consumed and whether the last consumed cluster was a line
// break. When rows is non-nil the laid out rows are appended to it.
func (l CellLayout) flow(text string, size Size, title, paragraph bool, rows *[]string) (int, bool) {
	if text == "" || size.IsZero() {
		return 0, false
	}

	cond := l.condition()
	indent := l.Indent
	if indent < 0 || indent >= size.Width {
		indent = 0
	}

	var line strings.Builder
	emit := func() {
		if rows != nil {
			*rows = append(*rows, line.String())
		}
		line.Reset()
	}

	row, col := 0, 0
	consumed := 0
	endedWithNewline := false
	open := true // the current row has not been emitted yet
	state := -1

	rest := text
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)

		if isLineBreak(cluster) {
			consumed += len(cluster)
			endedWithNewline = true
			emit()
			row++
			col = 0
			paragraph = true
			if title {
				title = false
				for i := 0; i < l.TitleGap && row < size.Height; i++ {
					emit()
					row++
				}
			}
			if row >= size.Height {
				open = false
				break
			}
			continue
		}

		w := cond.StringWidth(cluster)
		if w > size.Width {
			break
		}

		if paragraph {
			if !title && col == 0 {
				col = indent
				if rows != nil {
					line.WriteString(strings.Repeat(" ", indent))
				}
			}
			paragraph = false
		}

		if col+w > size.Width {
			emit()
			row++
			col = 0
			if row >= size.Height {
				open = false
				break
			}
		}

		if rows != nil {
			line.WriteString(cluster)
		}
		col += w
		consumed += len(cluster)
		endedWithNewline = false
	}

	if open && line.Len() > 0 {
		emit()
	}
	return consumed, endedWithNewline
}

func isLineBreak(cluster string) bool {
	switch cluster {
	case "\n", "\r\n", "\r", "\u2028", "\u2029":
		return true
	}
	return false
}
