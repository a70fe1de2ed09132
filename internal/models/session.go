package models

import "time"

// Session groups the question/answer exchanges for one loaded document.
// Exactly one session is live at a time; it is replaced wholesale when a new
// document is uploaded and discarded on an explicit new-chat action.
type Session struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}
