package tui

import (
	"fmt"
	"io"
	"strings"

	"devconsole/pkg/console"
	"devconsole/pkg/resource"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// listItem adapts a todo model to bubbles/list.Item
type listItem struct {
	ID   string
	Text string
	Done bool
}

func (i listItem) TitleText() string {
	box := boxUnchecked
	if i.Done {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.Text)
}

func (i listItem) Title() string       { return i.TitleText() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// itemDelegate renders one todo per line
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box := mutedStyle.Render(boxUnchecked)
	text := it.Text
	if it.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

var (
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteBind = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
)

func newTodoList() list.Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.Title = titleStyle.Render("Todos")

	bindings := func() []key.Binding { return []key.Binding{addBind, editBind, toggleBind, deleteBind} }
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings
	return l
}

// todoItems converts the collection into list items in server order.
func todoItems(c *resource.Collection) []list.Item {
	models := c.Models()
	items := make([]list.Item, 0, len(models))
	for _, m := range models {
		items = append(items, listItem{ID: m.ID(), Text: console.Title(m), Done: console.Completed(m)})
	}
	return items
}

// todoTitle renders the header with live counts.
func todoTitle(c *resource.Collection) string {
	total := c.Len()
	pending := console.Remaining(c)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), total-pending,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), total,
	)
}

func selectedTodo(l list.Model) (listItem, bool) {
	it, ok := l.SelectedItem().(listItem)
	if !ok || strings.TrimSpace(it.ID) == "" {
		return listItem{}, false
	}
	return it, true
}
