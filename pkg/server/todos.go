package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"devconsole/pkg/log"
	"devconsole/pkg/models"
	"devconsole/pkg/store"

	"github.com/labstack/echo/v4"
)

const todosResource = "/api/todos"

// listTodos handles GET /api/todos.
func (srv *ConsoleServer) listTodos(ctx echo.Context) error {
	todos, err := srv.store.ListTodos()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list todos")
		return errorJSON(ctx, http.StatusInternalServerError, "Internal server error")
	}
	return ctx.JSON(http.StatusOK, todos)
}

// createTodo handles POST /api/todos.
func (srv *ConsoleServer) createTodo(ctx echo.Context) error {
	var input models.TodoInput
	if err := json.NewDecoder(ctx.Request().Body).Decode(&input); err != nil {
		log.Warn().Err(err).Msg("Invalid todo body")
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	var title string
	if input.Title != nil {
		title = *input.Title
	}
	completed := input.Completed != nil && *input.Completed

	todo, err := srv.store.CreateTodo(title, completed)
	if err != nil {
		return srv.todoError(ctx, err, "")
	}

	log.Info().Str("id", todo.ID).Str("title", todo.Title).Msg("Todo created")
	srv.hub.Publish(todosResource)
	return ctx.JSON(http.StatusCreated, todo)
}

// getTodo handles GET /api/todos/:id.
func (srv *ConsoleServer) getTodo(ctx echo.Context) error {
	id := ctx.Param("id")
	todo, err := srv.store.GetTodo(id)
	if err != nil {
		return srv.todoError(ctx, err, id)
	}
	return ctx.JSON(http.StatusOK, todo)
}

// updateTodo handles PUT /api/todos/:id. Only the fields present in the
// body change.
func (srv *ConsoleServer) updateTodo(ctx echo.Context) error {
	id := ctx.Param("id")

	var input models.TodoInput
	if err := json.NewDecoder(ctx.Request().Body).Decode(&input); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Invalid todo body")
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	todo, err := srv.store.UpdateTodo(id, input)
	if err != nil {
		return srv.todoError(ctx, err, id)
	}

	log.Info().Str("id", id).Bool("completed", todo.Completed).Msg("Todo updated")
	srv.hub.Publish(todosResource)
	return ctx.JSON(http.StatusOK, todo)
}

// deleteTodo handles DELETE /api/todos/:id.
func (srv *ConsoleServer) deleteTodo(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := srv.store.DeleteTodo(id); err != nil {
		return srv.todoError(ctx, err, id)
	}

	log.Info().Str("id", id).Msg("Todo deleted")
	srv.hub.Publish(todosResource)
	return ctx.NoContent(http.StatusNoContent)
}

func (srv *ConsoleServer) todoError(ctx echo.Context, err error, id string) error {
	switch {
	case errors.Is(err, store.ErrTodoNotFound):
		log.Warn().Str("id", id).Msg("Todo not found")
		return errorJSON(ctx, http.StatusNotFound, "Todo not found")
	case errors.Is(err, store.ErrInvalidTodo):
		log.Warn().Err(err).Str("id", id).Msg("Rejected todo")
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("id", id).Msg("Todo operation failed")
		return errorJSON(ctx, http.StatusInternalServerError, "Internal server error")
	}
}
