package models

// Document is the extracted text of the most recent upload. It is owned by
// the lifecycle manager and superseded, never appended, by each new upload.
type Document struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Size     int64  `json:"size"`
	Text     string `json:"-"`
	// Notice is non-empty when extraction ran but produced a degraded
	// result (unintelligible audio, unreachable transcription service).
	// The degraded text still becomes the document content.
	Notice string `json:"notice,omitempty"`
}
