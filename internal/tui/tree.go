package tui

import "github.com/lotas/tabtab/internal/types"

// TreeNode is one visible row: a group header when Tab is nil, otherwise a
// tab row whose parent is Group.
type TreeNode struct {
	Group *types.Group
	Tab   *types.SavedTab
}

// Flatten returns the visible rows of groups. Tabs of collapsed groups are
// hidden.
func Flatten(groups []types.Group, collapsed map[string]bool) []TreeNode {
	var nodes []TreeNode
	for i := range groups {
		g := &groups[i]
		nodes = append(nodes, TreeNode{Group: g})
		if collapsed[g.Key] {
			continue
		}
		for j := range g.Tabs {
			nodes = append(nodes, TreeNode{Group: g, Tab: &g.Tabs[j]})
		}
	}
	return nodes
}

// TreeModel manages the collapsible group list and its cursor.
type TreeModel struct {
	Groups    []types.Group
	Collapsed map[string]bool // group key -> collapsed
	Cursor    int
	Offset    int // scroll offset
	Height    int
}

func NewTreeModel(groups []types.Group) TreeModel {
	return TreeModel{
		Groups:    groups,
		Collapsed: make(map[string]bool),
	}
}

// VisibleNodes returns the flat list of currently visible nodes.
func (m TreeModel) VisibleNodes() []TreeNode {
	return Flatten(m.Groups, m.Collapsed)
}

// SetGroups replaces the groups, keeping collapse state and clamping the
// cursor.
func (m *TreeModel) SetGroups(groups []types.Group) {
	m.Groups = groups
	n := len(m.VisibleNodes())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.scroll()
}

// SelectedNode returns the currently selected node, or nil.
func (m TreeModel) SelectedNode() *TreeNode {
	nodes := m.VisibleNodes()
	if m.Cursor >= 0 && m.Cursor < len(nodes) {
		return &nodes[m.Cursor]
	}
	return nil
}

func (m TreeModel) visibleRows() int {
	if m.Height < 1 {
		return 1
	}
	return m.Height
}

func (m *TreeModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if rows := m.visibleRows(); m.Cursor >= m.Offset+rows {
		m.Offset = m.Cursor - rows + 1
	}
}

// MoveUp moves the cursor up.
func (m *TreeModel) MoveUp() {
	if m.Cursor > 0 {
		m.Cursor--
	}
	m.scroll()
}

// MoveDown moves the cursor down.
func (m *TreeModel) MoveDown() {
	if m.Cursor < len(m.VisibleNodes())-1 {
		m.Cursor++
	}
	m.scroll()
}

// Toggle expands/collapses the selected group.
func (m *TreeModel) Toggle() {
	node := m.SelectedNode()
	if node == nil || node.Tab != nil {
		return
	}
	m.Collapsed[node.Group.Key] = !m.Collapsed[node.Group.Key]
}

// CollapseOrParent collapses the selected group, or jumps to the parent
// group header if the cursor is on a tab.
func (m *TreeModel) CollapseOrParent() {
	node := m.SelectedNode()
	if node == nil {
		return
	}
	if node.Tab == nil {
		m.Collapsed[node.Group.Key] = true
		return
	}
	nodes := m.VisibleNodes()
	for i := m.Cursor - 1; i >= 0; i-- {
		if nodes[i].Tab == nil {
			m.Cursor = i
			m.scroll()
			return
		}
	}
}

// ExpandOrEnter expands the selected group if collapsed, or moves into its
// first tab.
func (m *TreeModel) ExpandOrEnter() {
	node := m.SelectedNode()
	if node == nil || node.Tab != nil {
		return
	}
	if m.Collapsed[node.Group.Key] {
		m.Collapsed[node.Group.Key] = false
		return
	}
	if len(node.Group.Tabs) > 0 {
		m.Cursor++
		m.scroll()
	}
}
