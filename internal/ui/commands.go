package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/N3moAhead/roster/internal/api"
	"github.com/N3moAhead/roster/internal/person"
)

// Requests are never cancelled. Whichever list response arrives last wins.

func (m Model) loadCmd() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		return list(backend, opLoad)
	}
}

func (m Model) createCmd(d person.Draft) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		if err := backend.Create(context.Background(), d); err != nil {
			return requestFailedMsg{op: opCreate, err: err}
		}
		return list(backend, opCreate)
	}
}

func (m Model) deleteCmd(id person.ID) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		err := backend.Delete(context.Background(), id)
		var status *api.StatusError
		switch {
		case errors.As(err, &status):
			// the backend answered, so the list may have changed anyway
			msg := list(backend, opDelete)
			if loaded, ok := msg.(personsLoadedMsg); ok {
				loaded.failed = err
				return loaded
			}
			return msg
		case err != nil:
			return requestFailedMsg{op: opDelete, err: err}
		}
		return list(backend, opDelete)
	}
}

func list(backend Backend, o op) tea.Msg {
	persons, err := backend.List(context.Background())
	if err != nil {
		return requestFailedMsg{op: o, err: err}
	}
	return personsLoadedMsg{op: o, persons: persons}
}
