//go:build !gui

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metcalfc/prr/internal/paper"
	"github.com/metcalfc/prr/internal/reader"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFAA00"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

type keyMap struct {
	Next        key.Binding
	Prev        key.Binding
	NextChapter key.Binding
	PrevChapter key.Binding
	Restart     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.NextChapter, k.PrevChapter},
		{k.Restart, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Next: key.NewBinding(
		key.WithKeys("right", "l", " ", "pgdown", "j"),
		key.WithHelp("→/space", "next page"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "pgup", "k", "b"),
		key.WithHelp("←/b", "previous page"),
	),
	NextChapter: key.NewBinding(
		key.WithKeys("n", "]"),
		key.WithHelp("n", "next chapter"),
	),
	PrevChapter: key.NewBinding(
		key.WithKeys("p", "["),
		key.WithHelp("p", "chapter start"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r", "home"),
		key.WithHelp("r", "restart"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "Q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

type model struct {
	*session
	keys     keyMap
	help     help.Model
	startAt  int
	loaded   bool
	err      error
	quitting bool
	width    int
	height   int
}

func newModel(s *session, start int) model {
	return model{
		session: s,
		keys:    keys,
		help:    help.New(),
		startAt: start,
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// pageSize is the window minus the status row and the help footer.
func (m model) pageSize() paper.Size {
	reserved := 1 + lipgloss.Height(m.help.View(m.keys))
	return paper.NewSize(m.width, max(1, m.height-reserved))
}

func (m model) layout() model {
	size := m.pageSize()
	if !m.loaded {
		m.err = m.Load(context.Background(), size, m.startAt)
		m.loaded = m.err == nil
		return m
	}
	m.Resize(size)
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			if m.loaded {
				m.save()
			}
			return m, tea.Quit
		}
		if !m.loaded {
			return m, nil
		}

		ctx := context.Background()
		switch {
		case key.Matches(msg, m.keys.Next):
			_, m.err = m.NextPage(ctx)
		case key.Matches(msg, m.keys.Prev):
			_, m.err = m.PrevPage(ctx)
		case key.Matches(msg, m.keys.NextChapter):
			_, m.err = m.NextChapter(ctx)
		case key.Matches(msg, m.keys.PrevChapter):
			_, m.err = m.PrevChapter(ctx)
		case key.Matches(msg, m.keys.Restart):
			m.forget()
			m.err = m.JumpTo(ctx, 0)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m.layout(), nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m.layout(), nil
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		if m.loaded && m.AtEnd() {
			return completeStyle.Render("\n  Reading complete!\n")
		}
		return ""
	}
	if !m.loaded {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
		}
		return "Loading..."
	}

	size := m.pageSize()
	var sb strings.Builder

	title := titleStyle.Render(m.CurrentChapterTitle())
	status := statusStyle.Render(fmt.Sprintf("%.0f%%", m.Percent()))
	if m.err != nil {
		status = errorStyle.Render(m.err.Error())
	}
	gap := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(status))
	sb.WriteString(title + strings.Repeat(" ", gap) + status)
	sb.WriteString("\n")

	lines := m.Lines()
	for i := 0; i < size.Height; i++ {
		if i < len(lines) {
			sb.WriteString(lines[i])
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Prr - Terminal Pager for Books\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  prr [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  prr book.txt              Page through a text book\n")
		fmt.Fprintf(os.Stderr, "  prr -fresh novel.epub     Start from the beginning\n")
		fmt.Fprintf(os.Stderr, "  cat notes.md | prr        Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  →/SPACE  Next page\n")
		fmt.Fprintf(os.Stderr, "  ←/B      Previous page\n")
		fmt.Fprintf(os.Stderr, "  N/P      Next chapter/chapter start\n")
		fmt.Fprintf(os.Stderr, "  R        Restart from the beginning\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit\n")
		fmt.Fprintf(os.Stderr, "\nFormats: %s\n", strings.Join(reader.SupportedFormats(), ", "))
	}
	o, _ := parseFlags(flag.CommandLine, os.Args[1:])

	s, cleanup := setup("prr", o, flag.Args())
	defer cleanup()
	defer s.Close()

	p := tea.NewProgram(newModel(s, s.start(o.fresh)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
