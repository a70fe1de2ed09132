// Package extract turns uploaded file bytes into plain text. A closed set
// of file types maps to one extractor each; anything else is rejected
// before any parsing happens.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"docuchat/internal/models"
)

// FileType tags one of the supported upload formats.
type FileType string

const (
	TypePDF  FileType = "pdf"
	TypeDocx FileType = "docx"
	TypeTxt  FileType = "txt"
	TypePNG  FileType = "png"
	TypeJPG  FileType = "jpg"
	TypeJPEG FileType = "jpeg"
	TypeWAV  FileType = "wav"
	TypeMP3  FileType = "mp3"
	TypeM4A  FileType = "m4a"

	// TypeUnknown is any extension outside the closed set above.
	TypeUnknown FileType = ""
)

// TypeFromFilename infers the type tag from the declared file name.
func TypeFromFilename(name string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch FileType(ext) {
	case TypePDF, TypeDocx, TypeTxt, TypePNG, TypeJPG, TypeJPEG, TypeWAV, TypeMP3, TypeM4A:
		return FileType(ext)
	default:
		return TypeUnknown
	}
}

// Upload is the raw byte stream plus what the client declared about it. It
// only lives for the duration of one Extract call.
type Upload struct {
	Name string
	Type FileType
	Data []byte
}

// Result carries the extracted text. Notice is non-empty when the engine
// ran but produced a degraded sentinel instead of real content; the
// sentinel still flows into Text so the caller sees exactly what the
// document will contain.
type Result struct {
	Text   string
	Notice string
}

// Transcriber is the speech-recognition collaborator. It reads the audio
// file at path and returns the transcribed text,
// models.ErrUnintelligibleAudio when the content cannot be understood, or
// models.ErrSpeechUnavailable when the service cannot be reached.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, mimeType string) (string, error)
}

// maxPDFBytes is the ceiling above which a PDF is rejected unparsed.
const maxPDFBytes = 10 * 1024 * 1024

type extractFn func(ctx context.Context, up Upload) (Result, error)

// Dispatcher routes an upload to the extractor for its declared type.
type Dispatcher struct {
	transcriber Transcriber
	logger      *zap.Logger
	table       map[FileType]extractFn
}

// NewDispatcher constructs a Dispatcher. The transcriber handles the audio
// types; everything else runs in-process.
func NewDispatcher(transcriber Transcriber, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		transcriber: transcriber,
		logger:      logger,
	}
	d.table = map[FileType]extractFn{
		TypePDF:  d.extractPDF,
		TypeDocx: d.extractDocx,
		TypeTxt:  d.extractText,
		TypePNG:  d.extractImage,
		TypeJPG:  d.extractImage,
		TypeJPEG: d.extractImage,
		TypeWAV:  d.extractAudio,
		TypeMP3:  d.extractAudio,
		TypeM4A:  d.extractAudio,
	}
	return d
}

// Extract returns the document text for the upload. Expected rejections
// (unsupported type, oversized PDF, malformed plain text) come back as
// typed errors; degraded engine output comes back as a Result with a
// Notice. There is no default extractor for unlisted tags.
func (d *Dispatcher) Extract(ctx context.Context, up Upload) (Result, error) {
	fn, ok := d.table[up.Type]
	if !ok {
		return Result{}, models.ErrUnsupportedType
	}
	res, err := fn(ctx, up)
	if err != nil {
		return Result{}, err
	}
	if res.Notice != "" {
		d.logger.Warn("extraction degraded",
			zap.String("file", up.Name),
			zap.String("type", string(up.Type)),
			zap.String("notice", res.Notice),
		)
	}
	return res, nil
}
