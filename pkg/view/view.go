// Package view renders console models through text templates and keeps the
// output current as the models change.
package view

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/template"

	"devconsole/pkg/console"
	"devconsole/pkg/log"
	"devconsole/pkg/resource"
)

// Source is something a view can load and observe.
type Source interface {
	Fetch(ctx context.Context) error
	State() resource.State
	Subscribe() <-chan struct{}
	Unsubscribe(ch <-chan struct{})
}

// View renders a template against the current data of its source.
type View struct {
	name   string
	tmpl   *template.Template
	source Source
	data   func() interface{}
}

var funcs = template.FuncMap{
	"show": func(v interface{}) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprint(v)
	},
	"yesno": func(v interface{}) string {
		if b, ok := v.(bool); ok && b {
			return "yes"
		}
		return "no"
	},
}

// New creates a view named name from template text.
func New(name, text string, source Source, data func() interface{}) (*View, error) {
	tmpl, err := template.New(name).Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return &View{name: name, tmpl: tmpl, source: source, data: data}, nil
}

func mustNew(name, text string, source Source, data func() interface{}) *View {
	v, err := New(name, text, source, data)
	if err != nil {
		panic(err)
	}
	return v
}

func modelData(m *resource.Model) func() interface{} {
	return func() interface{} { return m.Attributes() }
}

// System renders system info.
func System(m *resource.Model) *View {
	return mustNew("system", systemTemplate, m, modelData(m))
}

// Memory renders memory stats.
func Memory(m *resource.Model) *View {
	return mustNew("memory", memoryTemplate, m, modelData(m))
}

// Flash renders flash stats.
func Flash(m *resource.Model) *View {
	return mustNew("flash", flashTemplate, m, modelData(m))
}

// Network renders the interface overview.
func Network(m *resource.Model) *View {
	return mustNew("network", networkTemplate, m, modelData(m))
}

// APConfig renders the access point config.
func APConfig(m *resource.Model) *View {
	return mustNew("apconfig", apConfigTemplate, m, modelData(m))
}

// APForm renders the edit form of the access point config.
func APForm(m *resource.Model) *View {
	return mustNew("apform", apFormTemplate, m, modelData(m))
}

// TodoItem renders one todo.
func TodoItem(m *resource.Model) *View {
	return mustNew("todo", todoItemTemplate, m, modelData(m))
}

// TodoList renders the todo collection.
func TodoList(c *resource.Collection) *View {
	return mustNew("todos", todoListTemplate, c, func() interface{} {
		models := c.Models()
		items := make([]resource.Attributes, 0, len(models))
		for _, m := range models {
			items = append(items, m.Attributes())
		}
		return map[string]interface{}{
			"items":     items,
			"remaining": console.Remaining(c),
		}
	})
}

// Name returns the view name.
func (v *View) Name() string {
	return v.name
}

// Render writes the view. Nothing is written until the source has loaded.
func (v *View) Render(w io.Writer) error {
	if v.source.State() != resource.Loaded {
		return nil
	}

	var buf bytes.Buffer
	if err := v.tmpl.Execute(&buf, v.data()); err != nil {
		return fmt.Errorf("render %s: %w", v.name, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// String returns the rendered view, empty before the first load.
func (v *View) String() string {
	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		log.Warn().Err(err).Str("view", v.name).Msg("Render failed")
		return ""
	}
	return buf.String()
}

// Run fetches the source, renders, and renders again after every change
// until ctx is done. A failed fetch is logged and the view stays as it was.
func (v *View) Run(ctx context.Context, w io.Writer) error {
	changes := v.source.Subscribe()
	defer v.source.Unsubscribe(changes)

	if err := v.source.Fetch(ctx); err != nil {
		log.Warn().Err(err).Str("view", v.name).Msg("Fetch failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
			if err := v.Render(w); err != nil {
				return err
			}
		}
	}
}
