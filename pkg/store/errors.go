package store

import "errors"

var (
	// ErrTodoNotFound is returned when the requested todo does not exist.
	ErrTodoNotFound = errors.New("todo not found")

	// ErrInvalidTodo is returned when a todo fails validation.
	ErrInvalidTodo = errors.New("invalid todo")

	// ErrInvalidAPConfig is returned when an access point config fails validation.
	ErrInvalidAPConfig = errors.New("invalid access point config")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("database error")
)
