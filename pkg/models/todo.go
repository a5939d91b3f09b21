package models

import "time"

// Todo is a single todo item.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodoInput is the writable part of a todo, as sent by clients.
// Pointer fields distinguish "not sent" from a zero value.
type TodoInput struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}
