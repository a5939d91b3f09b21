// Package tui is the interactive terminal front end of the console.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"devconsole/pkg/console"
	"devconsole/pkg/log"
	"devconsole/pkg/resource"
	"devconsole/pkg/view"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	sourceSystem = "system"
	sourceMemory = "memory"
	sourceFlash  = "flash"
	sourceNet    = "network"
	sourceAP     = "ap"
	sourceTodos  = "todos"
)

// changedMsg tells the UI that a model it shows has new data.
type changedMsg struct {
	source string
}

// doneMsg reports the outcome of a background request.
type doneMsg struct {
	action string
	err    error
}

type observable interface {
	Subscribe() <-chan struct{}
	Unsubscribe(ch <-chan struct{})
}

type subscription struct {
	source  string
	watched observable
	ch      <-chan struct{}
}

type modelTUI struct {
	ctx  context.Context
	res  *console.Resources
	subs []*subscription

	system  *view.View
	memory  *view.View
	flash   *view.View
	network *view.View
	ap      *view.View

	list       list.Model
	focusTodos bool

	// inline add and edit of todos
	ti       textinput.Model
	adding   bool
	editing  bool
	editID   string
	inputErr string

	form *apForm

	status    string
	statusErr bool
	updated   time.Time
	width     int
	height    int
}

func newModel(ctx context.Context, res *console.Resources) modelTUI {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New todo title..."
	ti.CharLimit = 200

	m := modelTUI{
		ctx:     ctx,
		res:     res,
		system:  view.System(res.System),
		memory:  view.Memory(res.Memory),
		flash:   view.Flash(res.Flash),
		network: view.Network(res.Network),
		ap:      view.APConfig(res.AP),
		list:    newTodoList(),
		ti:      ti,
		width:   100,
		height:  30,
	}
	m.list.SetSize(m.todoWidth(), m.height-6)

	for source, watched := range map[string]observable{
		sourceSystem: res.System,
		sourceMemory: res.Memory,
		sourceFlash:  res.Flash,
		sourceNet:    res.Network,
		sourceAP:     res.AP,
		sourceTodos:  res.Todos,
	} {
		m.subs = append(m.subs, &subscription{source: source, watched: watched, ch: watched.Subscribe()})
	}
	return m
}

func (m modelTUI) close() {
	for _, sub := range m.subs {
		sub.watched.Unsubscribe(sub.ch)
	}
}

// Run shows the console until the user quits or ctx ends.
func Run(ctx context.Context, res *console.Resources) error {
	m := newModel(ctx, res)
	defer m.close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func waitFor(sub *subscription) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-sub.ch; !ok {
			return nil
		}
		return changedMsg{source: sub.source}
	}
}

func (m modelTUI) request(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		err := fn(m.ctx)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("Request failed")
		}
		return doneMsg{action: action, err: err}
	}
}

func (m modelTUI) refresh() tea.Cmd {
	return m.request("refresh", m.res.FetchAll)
}

func (m modelTUI) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.subs)+1)
	for _, sub := range m.subs {
		cmds = append(cmds, waitFor(sub))
	}
	cmds = append(cmds, m.refresh())
	return tea.Batch(cmds...)
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.todoWidth(), m.height-6)
		return m, nil

	case changedMsg:
		m.updated = time.Now()
		if msg.source == sourceTodos {
			cmd := m.list.SetItems(todoItems(m.res.Todos))
			m.list.Title = todoTitle(m.res.Todos)
			return m, tea.Batch(cmd, m.rewait(msg.source))
		}
		return m, m.rewait(msg.source)

	case doneMsg:
		if msg.err != nil {
			m.status = msg.action + " failed: " + msg.err.Error()
			m.statusErr = true
			if m.form != nil && msg.action == "save access point" {
				m.form.err = msg.err.Error()
			}
			return m, nil
		}
		m.status = msg.action + " ok"
		m.statusErr = false
		if msg.action == "save access point" {
			m.form = nil
		}
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		if m.adding || m.editing {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}

	if m.focusTodos {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m modelTUI) rewait(source string) tea.Cmd {
	for _, sub := range m.subs {
		if sub.source == source {
			return waitFor(sub)
		}
	}
	return nil
}

func (m modelTUI) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form = nil
		return m, nil
	case "enter":
		form, err := m.form.values()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		return m, m.request("save access point", func(ctx context.Context) error {
			return console.SaveAPConfig(ctx, m.res.AP, form)
		})
	}
	return m, m.form.update(msg)
}

func (m modelTUI) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.ti.Value())
		if title == "" {
			m.inputErr = "Title cannot be empty"
			return m, nil
		}
		var cmd tea.Cmd
		if m.adding {
			cmd = m.request("add todo", func(ctx context.Context) error {
				_, err := console.AddTodo(ctx, m.res.Todos, title)
				return err
			})
		} else {
			id := m.editID
			cmd = m.request("edit todo", func(ctx context.Context) error {
				todo, ok := m.res.Todos.Find(id)
				if !ok {
					return errors.New("todo no longer exists")
				}
				return console.Rename(ctx, todo, title)
			})
		}
		m = m.closeInput()
		return m, cmd
	case "esc":
		return m.closeInput(), nil
	}

	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	m.inputErr = ""
	return m, cmd
}

func (m modelTUI) closeInput() modelTUI {
	m.adding = false
	m.editing = false
	m.editID = ""
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	return m
}

func (m modelTUI) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		m.focusTodos = !m.focusTodos
		return m, nil
	case "r":
		return m, m.refresh()
	}

	if !m.focusTodos {
		if msg.String() == "e" {
			if m.res.AP.State() != resource.Loaded {
				m.status = "access point config not loaded yet"
				m.statusErr = true
				return m, nil
			}
			m.form = newAPForm(m.res.AP)
		}
		return m, nil
	}

	switch msg.String() {
	case "a":
		m.adding = true
		m.ti.SetValue("")
		m.ti.Placeholder = "New todo title..."
		cmd := m.ti.Focus()
		return m, cmd
	case "e":
		if it, ok := selectedTodo(m.list); ok {
			m.editing = true
			m.editID = it.ID
			m.ti.SetValue(it.Text)
			m.ti.CursorEnd()
			m.ti.Placeholder = "Edit todo title..."
			cmd := m.ti.Focus()
			return m, cmd
		}
		return m, nil
	case " ":
		if it, ok := selectedTodo(m.list); ok {
			return m, m.todoRequest("toggle todo", it.ID, console.Toggle)
		}
		return m, nil
	case "d":
		if it, ok := selectedTodo(m.list); ok {
			return m, m.todoRequest("delete todo", it.ID, func(ctx context.Context, todo *resource.Model) error {
				return todo.Destroy(ctx)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) todoRequest(action, id string, fn func(context.Context, *resource.Model) error) tea.Cmd {
	return m.request(action, func(ctx context.Context) error {
		todo, ok := m.res.Todos.Find(id)
		if !ok {
			return errors.New("todo no longer exists")
		}
		return fn(ctx, todo)
	})
}

func (m modelTUI) todoWidth() int {
	w := m.width/2 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m modelTUI) View() string {
	device := []string{
		m.section(m.system),
		m.section(m.memory) + m.bar(m.res.Memory),
		m.section(m.flash) + m.bar(m.res.Flash),
		m.section(m.network),
	}
	if m.form != nil {
		device = append(device, panelString(m.form.view(), !m.focusTodos))
	} else {
		device = append(device, m.section(m.ap))
	}
	left := panelString(strings.Join(device, "\n\n"), !m.focusTodos)

	todos := m.list.View()
	if m.adding || m.editing {
		title := "Add todo"
		if m.editing {
			title = "Edit todo"
		}
		if m.inputErr != "" {
			title += ": " + errorStyle.Render(m.inputErr)
		}
		todos += "\n" + panelString(title+"\n"+m.ti.View(), true)
	}
	right := panelString(todos, m.focusTodos)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.statusLine(),
	)
}

func (m modelTUI) section(v *view.View) string {
	out := strings.TrimRight(v.String(), "\n")
	if out == "" {
		return mutedStyle.Render(v.Name() + ": loading...")
	}
	lines := strings.SplitN(out, "\n", 2)
	lines[0] = titleStyle.Render(lines[0])
	return strings.Join(lines, "\n")
}

func (m modelTUI) bar(model *resource.Model) string {
	if model.State() != resource.Loaded {
		return ""
	}
	return "\n  " + usageBar(int(console.Number(model.Get("usage"))), 20)
}

func (m modelTUI) statusLine() string {
	parts := make([]string, 0, 3)
	if m.status != "" {
		if m.statusErr {
			parts = append(parts, errorStyle.Render(m.status))
		} else {
			parts = append(parts, successStyle.Render(m.status))
		}
	}
	if !m.updated.IsZero() {
		parts = append(parts, mutedStyle.Render("updated "+humanize.Time(m.updated)))
	}
	parts = append(parts, helpStyle.Render("tab switch pane · r refresh · e edit · q quit"))
	return strings.Join(parts, "  ")
}
