package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/N3moAhead/roster/internal/api"
	"github.com/N3moAhead/roster/internal/person"
)

// fakeBackend records every request in order.
type fakeBackend struct {
	calls   []string
	drafts  []person.Draft
	persons []person.Person
	nextID  int

	listErr   error
	createErr error
	deleteErr error
}

func (f *fakeBackend) List(ctx context.Context) ([]person.Person, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]person.Person, len(f.persons))
	copy(out, f.persons)
	return out, nil
}

func (f *fakeBackend) Create(ctx context.Context, d person.Draft) error {
	f.calls = append(f.calls, "create")
	f.drafts = append(f.drafts, d)
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	f.persons = append(f.persons, person.Person{
		ID:   person.ID(strconv.Itoa(f.nextID)),
		Name: d.Name, Occupation: d.Occupation, IDNumber: d.IDNumber, Telephone: d.Telephone,
	})
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, id person.ID) error {
	f.calls = append(f.calls, "delete:"+string(id))
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, p := range f.persons {
		if p.ID == id {
			f.persons = append(f.persons[:i:i], f.persons[i+1:]...)
			break
		}
	}
	return nil
}

var (
	amina = person.Person{ID: "1", Name: "Amina", Occupation: "Nurse", IDNumber: "ID-1", Telephone: "0700000000"}
	brian = person.Person{ID: "2", Name: "Brian", Occupation: "Driver", IDNumber: "ID-2", Telephone: "0711111111"}
)

func newTestModel(t *testing.T, backend *fakeBackend) (Model, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	m := New(backend, zap.New(core), "test")
	return m, logs
}

// update feeds msg to the model and returns the concrete Model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// run executes a request command and feeds its result back.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func loaded(t *testing.T, backend *fakeBackend) (Model, *observer.ObservedLogs) {
	t.Helper()
	m, logs := newTestModel(t, backend)
	m = run(t, m, m.Init())
	backend.calls = nil
	return m, logs
}

func fill(m Model, d person.Draft) Model {
	for i, f := range person.Fields {
		m.inputs[i].SetValue(d.Get(f))
	}
	return m
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "delete":
		return tea.KeyMsg{Type: tea.KeyDelete}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func names(ps []person.Person) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestInitLoadsCollection(t *testing.T) {
	backend := &fakeBackend{persons: []person.Person{amina, brian}}
	m, _ := newTestModel(t, backend)

	m = run(t, m, m.Init())

	assert.Equal(t, []string{"list"}, backend.calls)
	assert.Equal(t, []person.Person{amina, brian}, m.persons)
	assert.Len(t, m.table.Rows(), 2)
}

func TestInitFailureIsLogged(t *testing.T) {
	backend := &fakeBackend{listErr: errors.New("unreachable")}
	m, logs := newTestModel(t, backend)

	m = run(t, m, m.Init())

	assert.Empty(t, m.persons)
	assert.Empty(t, m.errMsg)
	require.Equal(t, 1, logs.FilterMessage("request failed").Len())
	assert.Equal(t, "load", logs.FilterMessage("request failed").All()[0].ContextMap()["op"])
}

func TestTypingEditsOnlyFocusedField(t *testing.T) {
	m, _ := loaded(t, &fakeBackend{})
	m = fill(m, person.Draft{Occupation: "Nurse", IDNumber: "ID-1", Telephone: "0700000000"})

	m, _ = update(t, m, press("Amina"))

	assert.Equal(t, person.Draft{Name: "Amina", Occupation: "Nurse", IDNumber: "ID-1", Telephone: "0700000000"}, m.Draft())
}

func TestSubmitValid(t *testing.T) {
	backend := &fakeBackend{}
	m, _ := loaded(t, backend)
	m.errMsg = "All fields are required."
	want := person.Draft{Name: "Amina", Occupation: "Nurse", IDNumber: "ID-1", Telephone: "0700000000"}
	m = fill(m, want)

	m, cmd := update(t, m, press("enter"))
	assert.Empty(t, m.errMsg, "error is cleared before the request")
	m = run(t, m, cmd)

	assert.Equal(t, []string{"create", "list"}, backend.calls)
	assert.Equal(t, []person.Draft{want}, backend.drafts)
	assert.Equal(t, person.Draft{}, m.Draft())
	assert.Empty(t, m.errMsg)
	assert.Equal(t, []string{"Amina"}, names(m.persons))
}

func TestSubmitMissingField(t *testing.T) {
	for _, f := range person.Fields {
		t.Run(f.Label(), func(t *testing.T) {
			backend := &fakeBackend{}
			m, _ := loaded(t, backend)
			d := person.Draft{Name: "Amina", Occupation: "Nurse", IDNumber: "ID-1", Telephone: "0700000000"}.Set(f, "")
			m = fill(m, d)

			m, cmd := update(t, m, press("enter"))

			assert.Nil(t, cmd)
			assert.Empty(t, backend.calls)
			assert.Equal(t, "All fields are required.", m.errMsg)
			assert.Equal(t, d, m.Draft(), "form keeps its values")
			assert.Contains(t, m.View(), "All fields are required.")
		})
	}
}

func TestSubmitFromSaveButton(t *testing.T) {
	backend := &fakeBackend{}
	m, _ := loaded(t, backend)
	m = fill(m, person.Draft{Name: "A", Occupation: "B", IDNumber: "C", Telephone: "D"})
	for i := 0; i < int(focusSave); i++ {
		m, _ = update(t, m, press("tab"))
	}
	require.Equal(t, focusSave, m.focus)

	m, cmd := update(t, m, press(" "))
	run(t, m, cmd)

	assert.Equal(t, []string{"create", "list"}, backend.calls)
}

func TestSubmitWithPlainTextCreateResponse(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("Person saved successfully"))
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"1","name":"Amina","occupation":"Nurse","idNumber":"ID-1","telephone":"0700000000"}]`))
		}
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	m := New(api.NewClient(srv.URL+"/api/persons", time.Second), zap.New(core), srv.URL)
	m = fill(m, person.Draft{Name: "Amina", Occupation: "Nurse", IDNumber: "ID-1", Telephone: "0700000000"})

	m, cmd := update(t, m, press("enter"))
	m = run(t, m, cmd)

	assert.Equal(t, []string{http.MethodPost, http.MethodGet}, methods)
	assert.Equal(t, person.Draft{}, m.Draft(), "form is reset")
	assert.Equal(t, []person.Person{amina}, m.persons)
	assert.Zero(t, logs.FilterMessage("request failed").Len())
}

func TestSubmitCreateFailure(t *testing.T) {
	backend := &fakeBackend{createErr: errors.New("500")}
	m, logs := loaded(t, backend)
	d := person.Draft{Name: "Amina", Occupation: "Nurse", IDNumber: "ID-1", Telephone: "0700000000"}
	m = fill(m, d)

	m, cmd := update(t, m, press("enter"))
	m = run(t, m, cmd)

	assert.Equal(t, []string{"create"}, backend.calls)
	assert.Equal(t, d, m.Draft(), "form is not reset")
	assert.Empty(t, m.errMsg, "no user visible error")
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestSubmitRefreshFailure(t *testing.T) {
	backend := &fakeBackend{}
	m, logs := loaded(t, backend)
	backend.listErr = errors.New("timeout")
	d := person.Draft{Name: "Amina", Occupation: "Nurse", IDNumber: "ID-1", Telephone: "0700000000"}
	m = fill(m, d)

	m, cmd := update(t, m, press("enter"))
	m = run(t, m, cmd)

	assert.Equal(t, []string{"create", "list"}, backend.calls)
	assert.Equal(t, d, m.Draft())
	assert.Empty(t, m.persons)
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func focusTableOf(t *testing.T, m Model) Model {
	t.Helper()
	m.setFocus(focusTable)
	return m
}

func TestDeleteSelected(t *testing.T) {
	backend := &fakeBackend{persons: []person.Person{amina, brian}}
	m, _ := loaded(t, backend)
	m = focusTableOf(t, m)
	m.table.SetCursor(1)

	m, cmd := update(t, m, press("delete"))
	assert.Equal(t, []person.Person{amina, brian}, m.persons, "not removed before the refresh")

	m = run(t, m, cmd)
	assert.Equal(t, []string{"delete:2", "list"}, backend.calls)
	assert.Equal(t, []person.Person{amina}, m.persons)
}

func TestDeleteUsesFilteredRow(t *testing.T) {
	backend := &fakeBackend{persons: []person.Person{amina, brian}}
	m, _ := loaded(t, backend)
	m.setFocus(focusSearch)
	m, _ = update(t, m, press("bri"))
	m = focusTableOf(t, m)

	m, cmd := update(t, m, press("d"))
	run(t, m, cmd)

	assert.Equal(t, []string{"delete:2", "list"}, backend.calls)
}

func TestDeleteStatusErrorStillRefreshes(t *testing.T) {
	backend := &fakeBackend{
		persons:   []person.Person{amina, brian},
		deleteErr: &api.StatusError{Method: "DELETE", URL: "/api/persons/1", Code: 404},
	}
	m, logs := loaded(t, backend)
	m = focusTableOf(t, m)
	// another client removed amina in the meantime
	backend.persons = []person.Person{brian}

	m, cmd := update(t, m, press("delete"))
	m = run(t, m, cmd)

	assert.Equal(t, []string{"delete:1", "list"}, backend.calls)
	assert.Equal(t, []person.Person{brian}, m.persons)
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestDeleteFailure(t *testing.T) {
	backend := &fakeBackend{persons: []person.Person{amina}, deleteErr: errors.New("404")}
	m, logs := loaded(t, backend)
	m = focusTableOf(t, m)

	m, cmd := update(t, m, press("delete"))
	m = run(t, m, cmd)

	assert.Equal(t, []string{"delete:1"}, backend.calls, "list not refreshed")
	assert.Equal(t, []person.Person{amina}, m.persons)
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestDeleteOnEmptyTable(t *testing.T) {
	backend := &fakeBackend{}
	m, _ := loaded(t, backend)
	m = focusTableOf(t, m)

	_, cmd := update(t, m, press("delete"))
	assert.Nil(t, cmd)
	assert.Empty(t, backend.calls)
}

func TestSearchFiltersByName(t *testing.T) {
	m, _ := loaded(t, &fakeBackend{persons: []person.Person{amina, brian}})
	m.setFocus(focusSearch)

	m, _ = update(t, m, press("ami"))
	assert.Equal(t, []person.Person{amina}, m.visible)
	assert.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "Amina", m.table.Rows()[0][1])

	m.search.SetValue("")
	m.applyFilter()
	assert.Equal(t, []person.Person{amina, brian}, m.visible)
}

func TestSearchSurvivesReload(t *testing.T) {
	backend := &fakeBackend{persons: []person.Person{amina}}
	m, _ := loaded(t, backend)
	m.setFocus(focusSearch)
	m, _ = update(t, m, press("BRI"))
	assert.Empty(t, m.visible)

	backend.persons = append(backend.persons, brian)
	m = run(t, m, m.loadCmd())

	assert.Equal(t, []person.Person{brian}, m.visible)
	assert.Equal(t, "1", m.table.Rows()[0][0], "numbering follows the filtered list")
}

func TestLastResponseWins(t *testing.T) {
	m, _ := loaded(t, &fakeBackend{})

	m, _ = update(t, m, personsLoadedMsg{op: opDelete, persons: []person.Person{amina, brian}})
	m, _ = update(t, m, personsLoadedMsg{op: opLoad, persons: []person.Person{brian}})

	assert.Equal(t, []person.Person{brian}, m.persons)
}

func TestFocusCycles(t *testing.T) {
	m, _ := loaded(t, &fakeBackend{})
	for i := 0; i < int(focusCount); i++ {
		m, _ = update(t, m, press("tab"))
	}
	assert.Equal(t, focusName, m.focus)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, focusTable, m.focus)
}

func TestQuit(t *testing.T) {
	m, _ := loaded(t, &fakeBackend{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestViewShowsRows(t *testing.T) {
	m, _ := loaded(t, &fakeBackend{persons: []person.Person{amina, brian}})
	v := m.View()
	assert.Contains(t, v, "Amina")
	assert.Contains(t, v, "0711111111")
	assert.Contains(t, v, "Save")
	assert.NotContains(t, v, "All fields are required.")
}
