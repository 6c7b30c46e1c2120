//go:build !gui

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/metcalfc/prr/internal/config"
	"github.com/metcalfc/prr/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBook(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= 2; i++ {
		b.WriteString("Chapter " + string(rune('0'+i)) + "\n")
		for j := 0; j < 30; j++ {
			b.WriteString("The quick brown fox jumps over the lazy dog.\n")
		}
	}
	path := filepath.Join(t.TempDir(), "book.txt")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func testModel(t *testing.T, store *state.Store) model {
	t.Helper()
	s, err := openSession(testBook(t), config.Default(), store, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return newModel(s, s.start(false))
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelLoadsOnWindowSize(t *testing.T) {
	m := testModel(t, nil)
	assert.Equal(t, "Loading...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})
	require.NoError(t, m.err)
	require.True(t, m.loaded)

	view := m.View()
	assert.Contains(t, view, "Chapter 1")
	assert.Contains(t, view, "quick brown")
	assert.Equal(t, 40, m.Size().Width)
	assert.Less(t, m.Size().Height, 12)
}

func TestModelPaging(t *testing.T) {
	m := testModel(t, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	second := m.Position()
	assert.Greater(t, second, 0)

	m, _ = update(t, m, runes("l"))
	assert.Greater(t, m.Position(), second)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, second, m.Position())

	m, _ = update(t, m, runes("n"))
	assert.Equal(t, "Chapter 2", m.Title())
	chapter2 := m.Position()

	m, _ = update(t, m, runes(" "))
	assert.Greater(t, m.Position(), chapter2)

	m, _ = update(t, m, runes("p"))
	assert.Equal(t, chapter2, m.Position())
	assert.Equal(t, "Chapter 2", m.Title())
	m, _ = update(t, m, runes("p"))
	assert.Equal(t, "Chapter 1", m.Title())
	assert.Equal(t, 0, m.Position())
}

func TestModelHelpResizesPage(t *testing.T) {
	m := testModel(t, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	short := m.Size().Height

	m, _ = update(t, m, runes("?"))
	assert.True(t, m.help.ShowAll)
	assert.Less(t, m.Size().Height, short)
}

func TestModelQuitSavesPosition(t *testing.T) {
	store, err := state.Open(t.TempDir())
	require.NoError(t, err)

	m := testModel(t, store)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	pos := m.Position()

	m, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.True(t, m.quitting)
	assert.Equal(t, pos, store.Location(m.hash))

	// A new session resumes where the last one stopped.
	resumed := newModel(m.session, m.start(false))
	resumed, _ = update(t, resumed, tea.WindowSizeMsg{Width: 40, Height: 12})
	assert.Equal(t, pos, resumed.Position())

	// Restart forgets the position.
	resumed, _ = update(t, resumed, runes("r"))
	assert.Equal(t, 0, resumed.Position())
	_, saved := store.Get(m.hash)
	assert.False(t, saved)
}

func TestModelLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	s, err := openSession(path, config.Default(), nil, zap.NewNop())
	require.NoError(t, err)

	m := newModel(s, 0)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})
	assert.False(t, m.loaded)
	assert.Contains(t, m.View(), "Error")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
}
