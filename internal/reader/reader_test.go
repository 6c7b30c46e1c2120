package reader

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/metcalfc/prr/internal/paper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeChapters returns a plain text book with three chapters of ten lines.
func threeChapters() string {
	var b strings.Builder
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&b, "Chapter %d\n", i)
		for j := 0; j < 10; j++ {
			fmt.Fprintf(&b, "Line %d of chapter %d goes on.\n", j, i)
		}
	}
	return b.String()
}

func openSession(t *testing.T, content string) *Reader {
	t.Helper()
	r, err := Open(writeFile(t, "book.txt", []byte(content)))
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

var small = paper.NewSize(20, 4)

func TestReaderOpen(t *testing.T) {
	r := openSession(t, threeChapters())
	assert.Equal(t, "Text", r.Format.Name())
	assert.Len(t, r.TOC, 3)
	assert.Nil(t, r.Chapter())

	_, err := r.NextPage(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestReaderEmptyBook(t *testing.T) {
	r := openSession(t, "")
	assert.ErrorIs(t, r.Load(context.Background(), small, 0), ErrEmptyBook)
}

func TestReaderPagesThroughBook(t *testing.T) {
	content := threeChapters()
	r := openSession(t, content)
	ctx := context.Background()

	require.NoError(t, r.Load(ctx, small, 0))
	assert.Equal(t, "Chapter 1", r.Title())
	assert.Equal(t, 0, r.Position())

	positions := []int{r.Position()}
	titles := map[string]bool{r.Title(): true}
	for steps := 0; steps < 1000; steps++ {
		moved, err := r.NextPage(ctx)
		require.NoError(t, err)
		if !moved {
			break
		}
		require.Greater(t, r.Position(), positions[len(positions)-1])
		positions = append(positions, r.Position())
		titles[r.Title()] = true
	}

	assert.True(t, r.AtEnd())
	assert.Equal(t, map[string]bool{"Chapter 1": true, "Chapter 2": true, "Chapter 3": true}, titles)
	p, ok := r.Page()
	require.True(t, ok)
	assert.Equal(t, len(content), r.Position()+p.RealLength)

	for steps := 0; steps < 1000; steps++ {
		before := r.Position()
		moved, err := r.PrevPage(ctx)
		require.NoError(t, err)
		if !moved {
			break
		}
		require.Less(t, r.Position(), before)
	}
	assert.Equal(t, 0, r.Position())
	assert.Equal(t, "Chapter 1", r.Title())
}

func TestReaderJumpTo(t *testing.T) {
	content := threeChapters()
	r := openSession(t, content)
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, small, 0))

	loc := strings.Index(content, "Line 7 of chapter 3")
	require.NoError(t, r.JumpTo(ctx, loc))
	assert.Equal(t, "Chapter 3", r.Title())
	assert.Equal(t, "Chapter 3", r.CurrentChapterTitle())
	assert.Equal(t, 2, r.CurrentEntry())

	p, ok := r.Page()
	require.True(t, ok)
	assert.LessOrEqual(t, r.Position(), loc)
	assert.Greater(t, r.Position()+p.RealLength, loc)

	cur, total := r.Progress()
	assert.Equal(t, r.Position(), cur)
	assert.Equal(t, len(content), total)
	assert.Greater(t, r.Percent(), 66.0)

	// Past the end clamps to the last page.
	require.NoError(t, r.JumpTo(ctx, len(content)+100))
	assert.Equal(t, "Chapter 3", r.Title())
}

func TestReaderChapters(t *testing.T) {
	content := threeChapters()
	r := openSession(t, content)
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, small, 0))

	moved, err := r.NextChapter(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "Chapter 2", r.Title())
	assert.Equal(t, strings.Index(content, "Chapter 2"), r.Position())

	_, err = r.NextPage(ctx)
	require.NoError(t, err)

	// Back to the start of the current chapter first.
	moved, err = r.PrevChapter(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "Chapter 2", r.Title())
	assert.Equal(t, strings.Index(content, "Chapter 2"), r.Position())

	moved, err = r.PrevChapter(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "Chapter 1", r.Title())
	assert.Equal(t, 0, r.Position())

	moved, err = r.PrevChapter(ctx)
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = r.NextChapter(ctx)
	require.NoError(t, err)
	_, err = r.NextChapter(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 3", r.Title())
	moved, err = r.NextChapter(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestReaderResize(t *testing.T) {
	content := threeChapters()
	r := openSession(t, content)
	ctx := context.Background()

	loc := strings.Index(content, "Line 5 of chapter 1")
	require.NoError(t, r.Load(ctx, small, loc))

	big := paper.NewSize(40, 10)
	r.Resize(big)
	assert.Equal(t, big, r.Size())
	assert.Equal(t, big, r.Chapter().Size())

	p, ok := r.Page()
	require.True(t, ok)
	assert.LessOrEqual(t, r.Position(), loc)
	assert.Greater(t, r.Position()+p.RealLength, loc)

	lines := r.Lines()
	assert.NotEmpty(t, lines)
	assert.LessOrEqual(t, len(lines), big.Height)
}

func TestReaderCancelled(t *testing.T) {
	r := openSession(t, threeChapters())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Load(ctx, small, 0), context.Canceled)
	assert.Nil(t, r.Chapter())
}

func TestAddHeadingsToRegistry(t *testing.T) {
	t.Cleanup(func() {
		for _, f := range registry {
			if tf, ok := f.(*TextFormat); ok {
				tf.headings = tf.headings[:len(chapterHeadings)]
			}
		}
	})

	require.NoError(t, AddHeadings(`^== .* ==$`))
	r := openSession(t, "== One ==\nfirst\n== Two ==\nsecond\n")
	assert.Len(t, r.TOC, 2)
	assert.Equal(t, "== Two ==", r.TOC[1].Title)

	assert.Error(t, AddHeadings(`[`))
}
