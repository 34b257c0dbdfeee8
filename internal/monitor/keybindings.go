package monitor

import tea "github.com/charmbracelet/bubbletea"

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyAdd         = "a"
	KeyEdit        = "e"
	KeyDelete      = "d"
	KeyInterval    = "i"
	KeyOpen        = "o"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes keyboard input outside of forms.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		m.sched.Trigger()
		m.refreshing = true
		m.setNotice("Refreshing all nodes", nil)
		return true, nil

	case KeyAdd:
		return true, m.openForm(formAdd)

	case KeyEdit:
		return true, m.openForm(formEdit)

	case KeyDelete:
		return true, m.openForm(formDelete)

	case KeyInterval:
		return true, m.openForm(formInterval)

	case KeyOpen:
		return true, m.openForm(formOpen)

	case KeyCollapse:
		m.viewMode = ViewList
		return true, nil
	}

	// Navigation keys scroll the viewport in detail view.
	if m.viewMode == ViewDetail {
		return false, nil
	}

	switch key {
	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < len(m.rows)-1 {
			m.selected++
		}
		return true, nil

	case KeySelectFirst:
		m.selected = 0
		return true, nil

	case KeySelectLast:
		if len(m.rows) > 0 {
			m.selected = len(m.rows) - 1
		}
		return true, nil

	case KeyExpand:
		if len(m.rows) > 0 {
			m.viewMode = ViewDetail
			m.updateDetailViewportContent()
		}
		return true, nil
	}

	return false, nil
}
