package models

import "time"

// ChangeEvent is pushed to websocket subscribers after a resource was written.
type ChangeEvent struct {
	Resource string    `json:"resource"`
	Time     time.Time `json:"time"`
}
