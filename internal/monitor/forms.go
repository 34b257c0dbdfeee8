package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/n0ctu/xmrig-monitor/internal/config"
	"github.com/n0ctu/xmrig-monitor/internal/ui"
)

type formKind int

const (
	formAdd formKind = iota + 1
	formEdit
	formDelete
	formInterval
	formOpen
)

// formWidth keeps embedded forms readable on wide terminals.
const formWidth = 50

// formInput holds the values bound to the open form. It lives on the heap so
// the pointers huh keeps stay valid across Model copies.
type formInput struct {
	kind     formKind
	index    int
	id       int
	title    string
	host     string
	port     string
	interval string
	path     string
	confirm  bool
}

// openForm builds the form for kind and returns its init command.
// Edit and delete need a selected node; otherwise nothing opens.
func (m *Model) openForm(kind formKind) tea.Cmd {
	in := &formInput{kind: kind, index: m.Selected()}

	switch kind {
	case formAdd:
		in.title = "Add node"
		m.form = nodeForm(in)

	case formEdit:
		if in.index < 0 {
			return nil
		}
		s := m.snaps[in.index]
		in.title = fmt.Sprintf("Edit node %d", in.index)
		in.host = s.Host
		in.port = strconv.Itoa(s.Port)
		m.form = nodeForm(in)

	case formDelete:
		if in.index < 0 {
			return nil
		}
		r := m.rows[in.index]
		in.id = m.snaps[in.index].ID
		in.title = "Remove node"
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Remove %s (%s)?", r.Address, r.Name)).
					Description("The node file is rewritten immediately.").
					Affirmative("Remove").
					Negative("Cancel").
					Value(&in.confirm),
			),
		)

	case formInterval:
		in.title = "Refresh interval"
		in.interval = strconv.Itoa(m.sched.Interval())
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Seconds between refresh cycles").
					Value(&in.interval).
					Validate(validateInterval),
			),
		)

	case formOpen:
		in.title = "Open node file"
		in.path = m.store.Path()
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Node file").
					Description("Created with an empty list if it doesn't exist.").
					Value(&in.path).
					Validate(validatePath),
			),
		)
	}

	m.input = in
	m.form = m.form.WithWidth(formWidth).WithShowHelp(true)
	return m.form.Init()
}

func nodeForm(in *formInput) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Host").
				Placeholder("192.168.1.10").
				Value(&in.host).
				Validate(validateHost),
			huh.NewInput().
				Title("Port").
				Placeholder("8080").
				Value(&in.port).
				Validate(validatePort),
		),
	)
}

// updateForm forwards msg to the open form and acts once it completes.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.String() == KeyCollapse || k.String() == KeyQuitAlt) {
		m.closeForm()
		return m, nil
	}

	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		in := m.input
		m.closeForm()
		return m, m.submit(in)
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.input = nil
}

// submit applies a completed form. Registry mutations wait for any cycle in
// flight, so they run as commands and report back through actionMsg.
func (m *Model) submit(in *formInput) tea.Cmd {
	store := m.store
	sched := m.sched

	switch in.kind {
	case formAdd:
		host, port := strings.TrimSpace(in.host), atoiOrZero(in.port)
		return func() tea.Msg {
			id, err := store.AddNode(host, port)
			if err != nil {
				return actionMsg{err: err}
			}
			sched.Trigger()
			return actionMsg{notice: fmt.Sprintf("Added node %d at %s", id.ID, ui.Address(id.Host, id.Port))}
		}

	case formEdit:
		index, host, port := in.index, strings.TrimSpace(in.host), atoiOrZero(in.port)
		return func() tea.Msg {
			if err := store.Edit(index, host, port); err != nil {
				return actionMsg{err: err}
			}
			sched.Trigger()
			return actionMsg{notice: fmt.Sprintf("Node %d now points at %s", index, ui.Address(host, port))}
		}

	case formDelete:
		if !in.confirm {
			m.setNotice("Removal cancelled", nil)
			return nil
		}
		index, want := in.index, in.id
		return func() tea.Msg {
			id, err := store.RemoveID(index, want)
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{notice: fmt.Sprintf("Removed %s", ui.Address(id.Host, id.Port))}
		}

	case formInterval:
		seconds := atoiOrZero(in.interval)
		if !sched.SetInterval(seconds) {
			m.setNotice("", fmt.Errorf("invalid interval %q", in.interval))
			return nil
		}
		m.setNotice(fmt.Sprintf("Refreshing every %ds", seconds), nil)

	case formOpen:
		path := config.ExpandTilde(strings.TrimSpace(in.path))
		return func() tea.Msg {
			// A file that fails to load still replaces the list; show why it's empty.
			err := store.Open(path)
			sched.Trigger()
			if err != nil {
				return actionMsg{err: err, opened: true}
			}
			return actionMsg{notice: "Opened " + path, opened: true}
		}
	}
	return nil
}

func validateHost(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("host is required")
	}
	return nil
}

func validatePort(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("interval must be a positive number of seconds")
	}
	return nil
}

func validatePath(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("path is required")
	}
	return nil
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
