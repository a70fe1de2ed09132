package models

import "errors"

var (
	// ErrUnsupportedType means the declared file type has no extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrFileTooLarge means the upload exceeded the per-type size ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidText means a plain-text upload was not valid UTF-8.
	ErrInvalidText = errors.New("file is not valid utf-8 text")
	// ErrUnintelligibleAudio means the recognizer ran but could not make
	// out any speech.
	ErrUnintelligibleAudio = errors.New("audio not intelligible")
	// ErrSpeechUnavailable means the recognition service could not be
	// reached or refused the request.
	ErrSpeechUnavailable = errors.New("speech recognition service unavailable")
	// ErrNoDocument means a question arrived before any document was
	// loaded.
	ErrNoDocument = errors.New("no document loaded")
)
