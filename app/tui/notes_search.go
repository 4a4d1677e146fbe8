package main

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/knipferrc/teacup/code"
	"github.com/noelzubin/notes_search/editor"
	"github.com/noelzubin/notes_search/logger"
	"github.com/noelzubin/notes_search/search"
	"github.com/samber/lo"
)

var ListStyle = lipgloss.NewStyle().MarginTop(1)

var whitespace = regexp.MustCompile(`\s{2,}|\t+`)

// Main app model for bubbletea
type Model struct {
	width     int                  // width of terminal
	height    int                  // height of terminal
	preview   *code.Bubble         // the preview widget model
	list      list.Model           // the list widget model
	textInput textinput.Model      // the input search widget model
	searcher  search.NotesSearcher // searches the notes
	resolve   func(string) string  // note path to file path
	editor    editor.Editor        // for opening up external editor.
	debounce  time.Duration        // idle time before searching
	limit     int                  // max results per search
	seq       int                  // bumped on every keystroke
}

// Create a new model for the app
func New(searcher search.NotesSearcher, resolve func(string) string, ed editor.Editor, debounce time.Duration, limit int) *Model {
	return &Model{
		list:      create_list_model(),
		textInput: create_text_input(),
		searcher:  searcher,
		resolve:   resolve,
		editor:    ed,
		debounce:  debounce,
		limit:     limit,
	}
}

// debounceMsg fires once the input has been idle for the debounce time.
type debounceMsg struct {
	seq   int
	query string
}

// This is emitted when a search finishes
type ResultMsg struct {
	Query   string
	Results []search.SearchResult
}

func (m *Model) setListSize() {
	width := m.width
	height := m.height

	// If preview is open take half width
	if m.preview != nil {
		width = m.width / 2
	}

	m.list.SetSize(width, height-2)
}

func (m *Model) setPreviewSize() {
	if m.preview != nil {
		m.preview.SetSize(m.width/2, m.height)
	}
}

func (m *Model) updateSize(width, height int) {
	m.height = height
	m.width = width

	m.setListSize()
}

func (m Model) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// search runs the query off the UI loop.
func (m Model) search(query string) tea.Cmd {
	searcher, limit := m.searcher, m.limit
	return func() tea.Msg {
		return ResultMsg{Query: query, Results: searcher.Search(context.Background(), query, limit)}
	}
}

// Formats the content of the file
// removes newslines and replaces tabs with single space.
func formatContent(content string) string {
	s := stripansi.Strip(content)
	s = strings.ReplaceAll(s, "\n", " ↵ ")
	return whitespace.ReplaceAllString(s, " ")
}

func toItems(results []search.SearchResult) []list.Item {
	return lo.Map(results, func(r search.SearchResult, _ int) list.Item {
		return Note{path: r.Path, content: formatContent(r.Snippet)}
	})
}

// The update fn for the bubbletea model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case debounceMsg:
		// a newer keystroke superseded this one
		if msg.seq == m.seq {
			return m, m.search(msg.query)
		}
		return m, nil
	case ResultMsg:
		if msg.Query != m.textInput.Value() {
			return m, nil
		}
		m.list.SetItems(toItems(msg.Results))
	case tea.KeyMsg:
		// Keybindings:
		// Tab - move down in the list
		// Shift+Tab - move up in the list
		// Enter - toggle preview for the selected note
		// Esc - close preview
		// Ctrl+R - drop cached results and search again
		// Ctrl+K - Preview lineup
		// Ctrl+J - Preview line down
		// Ctrl+O - Open the file in the editor
		// Ctrl+C - quit the application
		switch msg.String() {
		case "tab":
			m.list.CursorDown()
		case "shift+tab":
			m.list.CursorUp()
		case "enter":
			if m.list.SelectedItem() != nil {
				path := m.resolve(m.list.SelectedItem().(Note).path)
				codeModel := code.New(false, true, lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})
				codeModel.SetSize(m.width/1, m.height)
				cmds = append(cmds, codeModel.SetFileName(path))
				m.preview = &codeModel
			}
		case "esc":
			m.preview = nil
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			m.searcher.Invalidate()
			return m, m.search(m.textInput.Value())
		case "ctrl+k":
			if m.preview != nil {
				m.preview.Viewport.LineUp(5)
			}
		case "ctrl+j":
			if m.preview != nil {
				m.preview.Viewport.LineDown(5)
			}
		case "ctrl+o":
			if m.list.SelectedItem() != nil {
				path := m.resolve(m.list.SelectedItem().(Note).path)
				cmd = m.editor.EditFile(path)
				cmds = append(cmds, cmd)
			}
		}
	case editor.EditingFinished:
		if msg.Err != nil {
			logger.Warn("editor: %v", msg.Err)
		}
		m.searcher.Invalidate()
		cmds = append(cmds, m.search(m.textInput.Value()))
	case tea.WindowSizeMsg:
		m.updateSize(msg.Width, msg.Height)
	}

	// Update the widgets sizes
	m.setListSize()
	m.setPreviewSize()

	// save to commpare if changed
	oldValue := m.textInput.Value()

	// pass on message to the other components
	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)

	m.editor, cmd = m.editor.Update(msg)
	cmds = append(cmds, cmd)

	if m.preview != nil {
		var newPreview code.Bubble
		newPreview, cmd = m.preview.Update(msg)
		cmds = append(cmds, cmd)
		m.preview = &newPreview
	}

	// If input has changed, wait for the user to stop typing
	newValue := m.textInput.Value()
	if oldValue != newValue {
		m.seq++
		seq := m.seq
		cmds = append(cmds, tea.Tick(m.debounce, func(time.Time) tea.Msg {
			return debounceMsg{seq: seq, query: newValue}
		}))
	}

	return m, tea.Batch(cmds...)
}

// View fn for bubbletea model
func (m Model) View() string {
	listContent := ListStyle.Render(m.list.View())

	// render list
	innerContent := listContent

	// if preview then preview takes up half the width
	if m.preview != nil {
		innerContent = lipgloss.JoinHorizontal(lipgloss.Left,
			listContent,      // render list
			m.preview.View(), // render preview.
		)
	}

	// render the input box and the content
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.textInput.View(), // render the text input
		innerContent,       // render the main content
	)
}

// Note implements list.Item interface
type Note struct {
	path    string
	content string
}

func (n Note) Title() string       { return n.path }
func (n Note) Description() string { return n.content }
func (n Note) FilterValue() string { return "" }

// Create the list model
func create_list_model() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowFilter(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.Styles.NoItems = l.Styles.NoItems.Copy().PaddingLeft(2)
	return l
}

// Create the text input model
func create_text_input() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "query"
	ti.Prompt = "Search:"
	ti.PromptStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		MarginRight(1).
		MarginLeft(2).
		Padding(0, 1)
	ti.Focus()
	return ti
}
