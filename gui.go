//go:build gui

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/metcalfc/prr/internal/paper"
	"github.com/metcalfc/prr/internal/reader"
	"go.uber.org/zap"
)

// model serializes reader calls made from fyne callbacks and the load goroutines.
type model struct {
	*session
	mu         sync.Mutex
	tocVisible bool
	loaded     bool
	err        error
}

// cellSize is the size of one monospace cell of the page grid.
func cellSize() fyne.Size {
	return fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
}

// gridSize converts a widget size to a page size in cells.
func gridSize(s fyne.Size) paper.Size {
	cell := cellSize()
	if cell.Width <= 0 || cell.Height <= 0 {
		return paper.Size{}
	}
	return paper.NewSize(int(s.Width/cell.Width), int(s.Height/cell.Height))
}

// run calls f off the UI goroutine and refreshes the window afterwards.
func (m *model) run(f func(ctx context.Context) error, refresh func()) {
	go func() {
		m.mu.Lock()
		err := f(context.Background())
		m.err = err
		m.mu.Unlock()
		if err != nil {
			m.log.Warn("navigation failed", zap.Error(err))
		}
		fyne.Do(refresh)
	}()
}

func (m *model) layout(size paper.Size, start int) func(context.Context) error {
	return func(ctx context.Context) error {
		if size.IsZero() {
			return nil
		}
		if !m.loaded {
			if err := m.Load(ctx, size, start); err != nil {
				return err
			}
			m.loaded = true
			return nil
		}
		m.Resize(size)
		return nil
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Gprr - GUI Pager for Books\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  gprr [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gprr book.txt             Page through a text book\n")
		fmt.Fprintf(os.Stderr, "  gprr -toc book.epub       Show TOC panel at startup\n")
		fmt.Fprintf(os.Stderr, "  cat file.txt | gprr       Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nFormats: %s\n", strings.Join(reader.SupportedFormats(), ", "))
	}
	o, _ := parseFlags(flag.CommandLine, os.Args[1:])

	s, cleanup := setup("gprr", o, flag.Args())
	defer cleanup()
	defer s.Close()

	m := &model{session: s, tocVisible: o.showTOC && len(s.TOC) > 0}
	start := s.start(o.fresh)

	a := app.New()
	w := a.NewWindow("gprr - " + s.Book.Path)

	statusLabel := widget.NewLabel("Loading...")
	statusLabel.Alignment = fyne.TextAlignCenter

	tocHint := ""
	if len(m.TOC) > 0 {
		tocHint = "  T: TOC"
	}
	controlsLabel := widget.NewLabel("←/→: page  N/P: chapter  R: restart" + tocHint + "  F: fullscreen  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	grid := widget.NewTextGrid()

	var tocList *widget.List
	var tocPanel *container.Split

	updateDisplay := func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if !m.loaded {
			if m.err != nil {
				statusLabel.SetText(fmt.Sprintf("Error: %v", m.err))
			}
			return
		}
		grid.SetText(strings.Join(m.Lines(), "\n"))

		status := fmt.Sprintf("%s | %.0f%%", m.CurrentChapterTitle(), m.Percent())
		if m.err != nil {
			status += " | " + m.err.Error()
		}
		statusLabel.SetText(status)
		if tocList != nil {
			if i := m.CurrentEntry(); i >= 0 {
				tocList.ScrollTo(i)
			}
		}
	}

	if len(m.TOC) > 0 {
		tocList = widget.NewList(
			func() int { return len(m.TOC) },
			func() fyne.CanvasObject {
				return container.NewVBox(
					widget.NewLabel("Title"),
					widget.NewLabel("Preview"),
				)
			},
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				entry := m.TOC[id]
				vbox := obj.(*fyne.Container)
				titleLabel := vbox.Objects[0].(*widget.Label)
				previewLabel := vbox.Objects[1].(*widget.Label)

				indent := strings.Repeat("  ", entry.Level)
				titleLabel.SetText(indent + entry.Title)
				titleLabel.TextStyle.Bold = true

				preview := []rune(entry.Preview)
				if len(preview) > 50 {
					preview = append(preview[:50], []rune("...")...)
				}
				previewLabel.SetText(indent + string(preview))
			},
		)

		tocList.OnSelected = func(id widget.ListItemID) {
			if id < len(m.TOC) {
				loc := m.TOC[id].Location
				m.run(func(ctx context.Context) error { return m.JumpTo(ctx, loc) }, updateDisplay)
				m.tocVisible = false
				tocPanel.Leading.Hide()
				tocPanel.Refresh()
			}
		}
	}

	readingContent := container.NewBorder(
		statusLabel,
		controlsLabel,
		nil, nil,
		grid,
	)

	var mainContainer *fyne.Container
	if len(m.TOC) > 0 {
		tocContainer := container.NewBorder(
			widget.NewLabel("Table of Contents"),
			widget.NewLabel("Click to jump • T to close"),
			nil, nil,
			tocList,
		)

		tocPanel = container.NewHSplit(tocContainer, readingContent)
		tocPanel.Offset = 0.33

		if !m.tocVisible {
			tocContainer.Hide()
		}

		mainContainer = container.NewMax(tocPanel)
	} else {
		mainContainer = container.NewMax(readingContent)
	}

	page := func(f func(*model, context.Context) (bool, error)) {
		m.run(func(ctx context.Context) error {
			_, err := f(m, ctx)
			return err
		}, updateDisplay)
	}

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyRight, fyne.KeySpace, fyne.KeyPageDown, fyne.KeyDown:
			page((*model).NextPage)

		case fyne.KeyLeft, fyne.KeyPageUp, fyne.KeyUp:
			page((*model).PrevPage)

		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())

		case fyne.KeyQ, fyne.KeyEscape:
			m.mu.Lock()
			if m.loaded {
				m.save()
			}
			m.mu.Unlock()
			a.Quit()
		}
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 'n', 'N', ']':
			page((*model).NextChapter)

		case 'p', 'P', '[':
			page((*model).PrevChapter)

		case 't', 'T':
			if tocPanel != nil && len(m.TOC) > 0 {
				m.tocVisible = !m.tocVisible
				if m.tocVisible {
					tocPanel.Leading.Show()
				} else {
					tocPanel.Leading.Hide()
				}
				tocPanel.Refresh()
			}

		case 'r', 'R':
			m.run(func(ctx context.Context) error {
				m.forget()
				return m.JumpTo(ctx, 0)
			}, updateDisplay)
		}
	})

	w.Resize(fyne.NewSize(800, 600))
	w.SetContent(mainContainer)

	// Lay the chapter out again whenever the page grid changes size
	done := make(chan struct{})
	var closeOnce sync.Once
	go func() {
		var last paper.Size
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				size := gridSize(grid.Size())
				if size != last && !size.IsZero() {
					last = size
					m.run(m.layout(size, start), updateDisplay)
				}
			}
		}
	}()

	w.SetOnClosed(func() {
		// Save position before closing
		m.mu.Lock()
		if m.loaded {
			m.save()
		}
		m.mu.Unlock()
		closeOnce.Do(func() {
			close(done)
		})
	})

	w.ShowAndRun()
}
