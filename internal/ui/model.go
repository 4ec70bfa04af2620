// Package ui is the record manager screen: a form for new persons next to a
// searchable table of everything the backend holds.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/N3moAhead/roster/internal/person"
)

// Backend is the remote collection. *api.Client satisfies it.
type Backend interface {
	List(ctx context.Context) ([]person.Person, error)
	Create(ctx context.Context, d person.Draft) error
	Delete(ctx context.Context, id person.ID) error
}

type focus int

const (
	focusName focus = iota
	focusOccupation
	focusIDNumber
	focusTelephone
	focusSave
	focusSearch
	focusTable
	focusCount
)

func (f focus) inForm() bool { return f <= focusSave }

type op string

const (
	opLoad   op = "load"
	opCreate op = "create"
	opDelete op = "delete"
)

// personsLoadedMsg carries the result of the list request that ends every
// operation. It always replaces the whole list. failed is set when the
// request before the reload was answered with an error status.
type personsLoadedMsg struct {
	op      op
	persons []person.Person
	failed  error
}

type requestFailedMsg struct {
	op  op
	err error
}

type Model struct {
	backend Backend
	logger  *zap.Logger

	persons []person.Person // last successful fetch
	visible []person.Person // persons filtered by the search term

	inputs []textinput.Model // one per person.Field
	search textinput.Model
	table  table.Model
	focus  focus
	errMsg string

	keys   keyMap
	help   help.Model
	source string
}

// New builds the screen. source is shown in the header, usually the
// collection URL.
func New(backend Backend, logger *zap.Logger, source string) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	inputs := make([]textinput.Model, len(person.Fields))
	for i, f := range person.Fields {
		ti := textinput.New()
		ti.Placeholder = f.Label()
		ti.Prompt = ""
		ti.Width = 30
		inputs[i] = ti
	}
	inputs[focusName].Focus()

	search := textinput.New()
	search.Placeholder = "Search here"
	search.Prompt = "/ "
	search.Width = 40

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "No", Width: 4},
			{Title: "Name", Width: 18},
			{Title: "Id", Width: 12},
			{Title: "Contact", Width: 14},
			{Title: "Occupation", Width: 16},
		}),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())

	return Model{
		backend: backend,
		logger:  logger,
		persons: []person.Person{},
		visible: []person.Person{},
		inputs:  inputs,
		search:  search,
		table:   t,
		focus:   focusName,
		keys:    defaultKeyMap(),
		help:    help.New(),
		source:  source,
	}
}

// Init loads the collection once when the screen is first shown.
func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		_, v := docStyle.GetFrameSize()
		if rows := msg.Height - v - 12; rows > 3 {
			m.table.SetHeight(rows)
		}
		return m, nil

	case personsLoadedMsg:
		if msg.failed != nil {
			m.logger.Error("request failed", zap.String("op", string(msg.op)), zap.Error(msg.failed))
		}
		m.persons = msg.persons
		if msg.op == opCreate && msg.failed == nil {
			m.resetForm()
		}
		m.applyFilter()
		m.logger.Debug("persons loaded", zap.String("op", string(msg.op)), zap.Int("count", len(msg.persons)))
		return m, nil

	case requestFailedMsg:
		m.logger.Error("request failed", zap.String("op", string(msg.op)), zap.Error(msg.err))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, m.keys.Prev):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadCmd()
	}

	switch {
	case m.focus.inForm():
		if key.Matches(msg, m.keys.Submit) || (m.focus == focusSave && msg.String() == " ") {
			return m.submit()
		}
		if m.focus == focusSave {
			return m, nil
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd

	case m.focus == focusSearch:
		if key.Matches(msg, m.keys.Submit) {
			return m, m.setFocus(focusTable)
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.applyFilter()
		return m, cmd

	case m.focus == focusTable:
		if key.Matches(msg, m.keys.Delete) {
			return m.deleteSelected()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setFocus(f focus) tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.search.Blur()
	m.table.Blur()
	m.focus = f

	switch {
	case f < focusSave:
		return m.inputs[f].Focus()
	case f == focusSearch:
		return m.search.Focus()
	case f == focusTable:
		m.table.Focus()
	}
	return nil
}

// Draft returns the current form values.
func (m Model) Draft() person.Draft {
	var d person.Draft
	for i, f := range person.Fields {
		d = d.Set(f, m.inputs[i].Value())
	}
	return d
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	d := m.Draft()
	if err := d.Validate(); err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	m.errMsg = ""
	return m, m.createCmd(d)
}

func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return m, nil
	}
	return m, m.deleteCmd(m.visible[i].ID)
}

func (m *Model) resetForm() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
}

// applyFilter recomputes the visible rows from the last fetch and the
// current search term.
func (m *Model) applyFilter() {
	m.visible = person.Filter(m.persons, m.search.Value())

	rows := make([]table.Row, 0, len(m.visible))
	for i, p := range m.visible {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			p.Name,
			p.IDNumber,
			p.Telephone,
			p.Occupation,
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) View() string {
	header := titleStyle.Render("Persons") + "  " + infoStyle.Render(m.source)

	var form strings.Builder
	if m.errMsg != "" {
		form.WriteString(errorStyle.Render(m.errMsg) + "\n\n")
	}
	for i, f := range person.Fields {
		form.WriteString(labelStyle.Render(f.Label()+":") + "\n")
		form.WriteString(m.inputs[i].View() + "\n\n")
	}
	button := buttonStyle
	if m.focus == focusSave {
		button = activeButtonStyle
	}
	form.WriteString(button.Render("Save"))

	formPane := paneStyle
	if m.focus.inForm() {
		formPane = activePaneStyle
	}
	listPane := paneStyle
	if !m.focus.inForm() {
		listPane = activePaneStyle
	}

	rows := m.search.View() + "\n\n" + m.table.View()
	if len(m.visible) == 0 {
		rows += "\n" + infoStyle.Render("No persons to show.")
	} else {
		rows += "\n" + infoStyle.Render(fmt.Sprintf("%d of %d", len(m.visible), len(m.persons)))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		formPane.Render(form.String()),
		" ",
		listPane.Render(rows),
	)

	return docStyle.Render(header + "\n\n" + body + "\n\n" + m.help.View(m.keys))
}
