package editor

import (
	"os"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
)

type Editor struct {
	Editing   bool   // Is the editor open
	EditorCmd string // Command to open the editor on shell
}

// EditingFinished is sent when the editor exits. The note may have
// changed, so cached search results are stale.
type EditingFinished struct {
	Path string
	Err  error
}

// New returns an Editor for cmd, falling back to $EDITOR and then vi.
func New(cmd string) Editor {
	if cmd == "" {
		cmd = os.Getenv("EDITOR")
	}
	if cmd == "" {
		cmd = "vi"
	}
	return Editor{EditorCmd: cmd}
}

// this opens up an external editor.
func openEditor(app, path string) tea.Cmd {
	return tea.ExecProcess(exec.Command(app, path), func(err error) tea.Msg {
		return EditingFinished{Path: path, Err: err}
	})
}

func (m *Editor) EditFile(path string) tea.Cmd {
	m.Editing = true
	return openEditor(m.EditorCmd, path)
}

func (m Editor) Update(msg tea.Msg) (Editor, tea.Cmd) {
	if _, ok := msg.(EditingFinished); ok {
		m.Editing = false
	}
	return m, nil
}

// Doesnt render anything
func (m Editor) View() string {
	return ""
}
