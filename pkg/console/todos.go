package console

import (
	"context"
	"errors"
	"strings"

	"devconsole/pkg/resource"
)

// ErrEmptyTitle is returned when a todo would be saved without a title.
var ErrEmptyTitle = errors.New("todo title is empty")

// NewTodoList binds the todo collection.
func NewTodoList(t resource.Transport) *resource.Collection {
	return resource.NewCollection(t, resource.Options{
		Path: TodosPath,
		Defaults: resource.Attributes{
			"title":     "",
			"completed": false,
		},
	})
}

// AddTodo creates a todo with the trimmed title.
func AddTodo(ctx context.Context, list *resource.Collection, title string) (*resource.Model, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	return list.Create(ctx, resource.Attributes{"title": title, "completed": false})
}

// Toggle flips the completed flag and saves.
func Toggle(ctx context.Context, todo *resource.Model) error {
	todo.Set("completed", !Completed(todo))
	return todo.Save(ctx)
}

// Rename saves the trimmed title. Empty titles are rejected and nothing is
// saved.
func Rename(ctx context.Context, todo *resource.Model, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	todo.Set("title", title)
	return todo.Save(ctx)
}

// Title returns the todo title.
func Title(todo *resource.Model) string {
	s, _ := todo.Get("title").(string)
	return s
}

// Completed reports whether the todo is done.
func Completed(todo *resource.Model) bool {
	b, _ := todo.Get("completed").(bool)
	return b
}

// Remaining counts todos that are not completed.
func Remaining(list *resource.Collection) int {
	n := 0
	for _, todo := range list.Models() {
		if !Completed(todo) {
			n++
		}
	}
	return n
}
