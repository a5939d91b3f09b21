package tui

import (
	"fmt"
	"strconv"
	"strings"

	"devconsole/pkg/console"
	"devconsole/pkg/resource"
	"devconsole/pkg/view"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type apField int

const (
	fieldESSID apField = iota
	fieldChannel
	fieldHidden
	fieldAuthMode
	fieldCount
)

// apForm edits a detached copy of the access point model. The shown model
// only changes after the server stored the new values.
type apForm struct {
	draft    *resource.Model
	preview  *view.View
	essid    textinput.Model
	channel  textinput.Model
	hidden   bool
	authMode string
	focus    apField
	err      string
}

func newAPForm(ap *resource.Model) *apForm {
	draft := ap.Clone()
	current := console.FormFromModel(draft)

	essid := textinput.New()
	essid.Prompt = "essid    > "
	essid.CharLimit = 32
	essid.SetValue(current.ESSID)
	essid.CursorEnd()
	essid.Focus()

	channel := textinput.New()
	channel.Prompt = "channel  > "
	channel.CharLimit = 2
	channel.SetValue(strconv.Itoa(current.Channel))

	return &apForm{
		draft:    draft,
		preview:  view.APForm(draft),
		essid:    essid,
		channel:  channel,
		hidden:   current.Hidden,
		authMode: current.AuthMode,
	}
}

// values reads the inputs into a form ready to save.
func (f *apForm) values() (console.APForm, error) {
	channel, err := strconv.Atoi(strings.TrimSpace(f.channel.Value()))
	if err != nil {
		return console.APForm{}, fmt.Errorf("%w: channel must be a number", console.ErrInvalidForm)
	}
	form := console.APForm{
		ESSID:    f.essid.Value(),
		Channel:  channel,
		Hidden:   f.hidden,
		AuthMode: f.authMode,
	}
	return form, form.Validate()
}

// sync copies the inputs into the draft so the preview follows typing.
func (f *apForm) sync() {
	attrs := resource.Attributes{
		"essid":    f.essid.Value(),
		"hidden":   f.hidden,
		"authmode": f.authMode,
	}
	if channel, err := strconv.Atoi(strings.TrimSpace(f.channel.Value())); err == nil {
		attrs["channel"] = channel
	}
	f.draft.SetAll(attrs)
}

func (f *apForm) setFocus(field apField) {
	f.focus = (field + fieldCount) % fieldCount
	f.essid.Blur()
	f.channel.Blur()
	switch f.focus {
	case fieldESSID:
		f.essid.Focus()
	case fieldChannel:
		f.channel.Focus()
	}
}

// update handles every key except enter and esc.
func (f *apForm) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch msg.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
	case " ", "left", "right":
		switch f.focus {
		case fieldHidden:
			f.hidden = !f.hidden
		case fieldAuthMode:
			f.authMode = console.NextAuthMode(f.authMode)
		default:
			cmd = f.updateInput(msg)
		}
	default:
		cmd = f.updateInput(msg)
	}
	f.err = ""
	f.sync()
	return cmd
}

func (f *apForm) updateInput(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldESSID:
		f.essid, cmd = f.essid.Update(msg)
	case fieldChannel:
		f.channel, cmd = f.channel.Update(msg)
	}
	return cmd
}

func (f *apForm) view() string {
	marker := func(field apField) string {
		if f.focus == field {
			return selectedStyle.Render(">")
		}
		return " "
	}

	hidden := boxUnchecked
	if f.hidden {
		hidden = boxChecked
	}

	lines := []string{
		strings.TrimRight(f.preview.String(), "\n"),
		"",
		marker(fieldESSID) + " " + f.essid.View(),
		marker(fieldChannel) + " " + f.channel.View(),
		marker(fieldHidden) + " hidden   " + hidden,
		marker(fieldAuthMode) + " authmode " + accentStyle.Render("< "+f.authMode+" >"),
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	lines = append(lines, helpStyle.Render("tab next · space toggle · enter save · esc cancel"))
	return strings.Join(lines, "\n")
}
