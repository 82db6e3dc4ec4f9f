package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/savedtabs"
	"github.com/lotas/tabtab/internal/types"
)

// --- Messages ---

type groupsLoadedMsg struct {
	groups []types.Group
	stats  types.Stats
	err    error
}

type actionDoneMsg struct {
	status string
	err    error
	reload bool
}

// --- Commands ---

func loadGroups(svc *savedtabs.Service) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		groups, err := svc.Groups(ctx)
		if err != nil {
			return groupsLoadedMsg{err: err}
		}
		stats, err := svc.Stats(ctx)
		if err != nil {
			return groupsLoadedMsg{err: err}
		}
		return groupsLoadedMsg{groups: groups, stats: stats}
	}
}

// --- Model ---

const helpText = "↑↓/jk navigate · h/l collapse/expand · enter toggle · / search · o open · O open group · d remove · D remove group · r reload · q quit"

// Model is the bubbletea browser over the saved collection.
type Model struct {
	svc    *savedtabs.Service
	opener savedtabs.Opener // nil without an extension bridge

	all   []types.Group
	stats types.Stats

	tree      TreeModel
	search    textinput.Model
	searching bool
	loading   bool
	status    string
	err       error
	width     int
	height    int
}

// NewModel returns a browser over svc. Open commands go to opener, which
// may be nil.
func NewModel(svc *savedtabs.Service, opener savedtabs.Opener) Model {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search titles and URLs"
	return Model{
		svc:     svc,
		opener:  opener,
		tree:    NewTreeModel(nil),
		search:  search,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return loadGroups(m.svc)
}

func (m *Model) applySearch() {
	m.tree.SetGroups(grouping.Search(m.all, m.search.Value()))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tree.Height = m.height - 7 // header and footer lines
		return m, nil

	case groupsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.all = msg.groups
			m.stats = msg.stats
			m.applySearch()
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = msg.status
		}
		if msg.reload {
			return m, loadGroups(m.svc)
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.SetValue("")
		m.search.Blur()
		m.applySearch()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.tree.Cursor = 0
	m.tree.Offset = 0
	m.applySearch()
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	node := m.tree.SelectedNode()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.tree.MoveUp()
	case "down", "j":
		m.tree.MoveDown()
	case "enter", " ":
		m.tree.Toggle()
	case "h":
		m.tree.CollapseOrParent()
	case "l":
		m.tree.ExpandOrEnter()
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.applySearch()
		}
	case "r":
		m.status = ""
		return m, loadGroups(m.svc)

	case "d":
		if node == nil || node.Tab == nil {
			return m, nil
		}
		return m, m.removeTab(node.Tab.URL)
	case "D":
		if node == nil {
			return m, nil
		}
		return m, m.removeGroup(node.Group.Key)
	case "o":
		if node == nil {
			return m, nil
		}
		if node.Tab != nil {
			return m, m.openTab(node.Tab.URL)
		}
		return m, m.openGroup(node.Group.Key)
	case "O":
		if node == nil {
			return m, nil
		}
		return m, m.openGroup(node.Group.Key)
	}
	return m, nil
}

func (m Model) removeTab(url string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		n, err := svc.RemoveTab(context.Background(), url)
		return actionDoneMsg{status: fmt.Sprintf("Removed %d tab(s)", n), err: err, reload: true}
	}
}

func (m Model) removeGroup(key string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		n, err := svc.RemoveGroup(context.Background(), key)
		return actionDoneMsg{status: fmt.Sprintf("Removed group of %d tab(s)", n), err: err, reload: true}
	}
}

func (m Model) openTab(url string) tea.Cmd {
	svc, opener := m.svc, m.opener
	return func() tea.Msg {
		if opener == nil {
			return actionDoneMsg{err: errNoBridge}
		}
		err := svc.OpenTab(context.Background(), url, opener)
		return actionDoneMsg{status: "Opened " + url, err: err}
	}
}

func (m Model) openGroup(key string) tea.Cmd {
	svc, opener := m.svc, m.opener
	return func() tea.Msg {
		if opener == nil {
			return actionDoneMsg{err: errNoBridge}
		}
		n, err := svc.OpenGroup(context.Background(), key, opener)
		return actionDoneMsg{status: fmt.Sprintf("Opened %d tab(s)", n), err: err}
	}
}

var errNoBridge = errors.New("no extension bridge; start tabtab with --port")

// connectionReporter is implemented by openers that track the extension's
// connection.
type connectionReporter interface {
	Connected() bool
}

func (m Model) bridgeStatus() string {
	c, ok := m.opener.(connectionReporter)
	switch {
	case !ok:
		return ""
	case c.Connected():
		return "extension connected"
	default:
		return "extension not connected"
	}
}

// CurrentView returns the View the model renders.
func (m Model) CurrentView() View {
	footer := helpText
	switch {
	case m.searching:
		footer = m.search.View()
	case m.status != "":
		footer = m.status
	default:
		if node := m.tree.SelectedNode(); node != nil && node.Tab != nil {
			footer = node.Tab.URL + "\n" + helpText
		}
	}
	return View{
		Groups:    m.tree.Groups,
		Stats:     m.stats,
		Query:     m.search.Value(),
		Collapsed: m.tree.Collapsed,
		Cursor:    m.tree.Cursor,
		Offset:    m.tree.Offset,
		Height:    m.tree.Height,
		Footer:    footer,
		Bridge:    m.bridgeStatus(),
	}
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading saved tabs...\n"
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press 'r' to retry, 'q' to quit.\n", m.err)
	}
	return Render(m.CurrentView(), m.width)
}
