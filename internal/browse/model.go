package browse

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hubview/hubview/internal/tree"
	"github.com/hubview/hubview/internal/viewer"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Quit   key.Binding
	Help   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Toggle}, {k.Help, k.Quit}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand/select")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// rootsMsg carries the initial hub listing.
type rootsMsg struct {
	roots []tree.Child
	err   error
}

// toggledMsg reports a finished toggle (fetch included, if one ran).
type toggledMsg struct {
	id  tree.NodeID
	err error
}

var (
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("105"))
	statusStyle  = lipgloss.NewStyle().Faint(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the bubbletea model for the hub browser.
type Model struct {
	ctrl   *tree.Controller
	loader *Loader

	rows   []tree.Row
	cursor int

	spin    spinner.Model
	keys    keyMap
	help    help.Model
	width   int
	height  int
	loaded  bool
	lastErr string
	urn     string
}

// NewModel builds the browser over a controller and its loader.
func NewModel(ctrl *tree.Controller, loader *Loader) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		ctrl:   ctrl,
		loader: loader,
		spin:   sp,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Run starts the browser and blocks until the user quits.
func Run(ctrl *tree.Controller, loader *Loader) error {
	p := tea.NewProgram(NewModel(ctrl, loader), tea.WithAltScreen())
	_, err := p.Run()

	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchRoots())
}

func (m Model) fetchRoots() tea.Cmd {
	return func() tea.Msg {
		roots, err := m.loader.Roots(context.Background())

		return rootsMsg{roots: roots, err: err}
	}
}

func (m Model) toggle(id tree.NodeID) tea.Cmd {
	return func() tea.Msg {
		err := m.ctrl.Toggle(context.Background(), id)

		return toggledMsg{id: id, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case rootsMsg:
		m.loaded = true

		if msg.err != nil {
			m.lastErr = msg.err.Error()

			return m, nil
		}

		m.ctrl.Reset(msg.roots)
		m.rows = m.ctrl.Snapshot()

		return m, nil

	case toggledMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}

		m.rows = m.ctrl.Snapshot()
		if m.cursor >= len(m.rows) && len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

			return m, nil

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

			return m, nil

		case key.Matches(msg, m.keys.Toggle):
			if m.cursor >= len(m.rows) {
				return m, nil
			}

			row := m.rows[m.cursor]
			if row.Leaf {
				// Selecting a version reports its locator; expansion
				// state is untouched.
				if versionID, ok := m.ctrl.Select(row.ID); ok {
					m.urn = viewer.URN(versionID)
				}

				return m, nil
			}

			m.lastErr = ""
			cmd := m.toggle(row.ID)
			m.rows = m.ctrl.Snapshot()

			return m, cmd
		}
	}

	return m, nil
}

func (m Model) View() string {
	if !m.loaded {
		return fmt.Sprintf("\n %s loading hubs…\n", m.spin.View())
	}

	var out string

	// Keep the cursor on screen.
	start := 0
	visible := m.rows

	if m.height > 4 && len(visible) > m.height-4 {
		if m.cursor > m.height-5 {
			start = m.cursor - (m.height - 5)
		}

		end := min(start+m.height-4, len(visible))
		visible = visible[start:end]
	}

	for i, row := range visible {
		line := renderRow(row, m.spin.View())

		if start+i == m.cursor {
			line = cursorStyle.Render(line)
		}

		out += line + "\n"
	}

	if len(m.rows) == 0 {
		out = statusStyle.Render(" no hubs found") + "\n"
	}

	status := ""
	if m.urn != "" {
		status = statusStyle.Render("selected: ") + versionStyle.Render(m.urn)
	}

	if m.lastErr != "" {
		status = errStyle.Render("error: " + m.lastErr)
	}

	return out + "\n" + status + "\n" + m.help.View(m.keys)
}

func renderRow(row tree.Row, spin string) string {
	indent := ""
	for range row.Depth {
		indent += "  "
	}

	marker := "▸"

	switch {
	case row.Leaf:
		marker = "·"
	case row.Loading:
		marker = spin
	case row.Expanded:
		marker = "▾"
	}

	name := row.Name
	if row.Kind == tree.KindVersion {
		name = versionStyle.Render(name)
	}

	return fmt.Sprintf(" %s%s %s", indent, marker, name)
}
