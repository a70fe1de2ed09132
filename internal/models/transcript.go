package models

import "time"

// TranscriptEntry is one visible question/answer pair. The transcript is
// append-only and displayed in insertion order.
type TranscriptEntry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
