package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"docuchat/internal/models"
)

type fakeTranscriber struct {
	text string
	err  error

	gotPath  string
	gotMime  string
	gotBytes []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string, mimeType string) (string, error) {
	f.gotPath = path
	f.gotMime = mimeType
	if data, err := os.ReadFile(path); err == nil {
		f.gotBytes = data
	}
	return f.text, f.err
}

func newTestDispatcher(tr Transcriber) *Dispatcher {
	return NewDispatcher(tr, zap.NewNop())
}

func TestTypeFromFilename(t *testing.T) {
	cases := []struct {
		name string
		want FileType
	}{
		{"report.pdf", TypePDF},
		{"REPORT.PDF", TypePDF},
		{"notes.docx", TypeDocx},
		{"readme.txt", TypeTxt},
		{"scan.png", TypePNG},
		{"photo.jpg", TypeJPG},
		{"photo.jpeg", TypeJPEG},
		{"memo.wav", TypeWAV},
		{"song.mp3", TypeMP3},
		{"note.m4a", TypeM4A},
		{"archive.zip", TypeUnknown},
		{"noextension", TypeUnknown},
		{"", TypeUnknown},
	}
	for _, tc := range cases {
		if got := TypeFromFilename(tc.name); got != tc.want {
			t.Errorf("TypeFromFilename(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	d := newTestDispatcher(&fakeTranscriber{})
	_, err := d.Extract(context.Background(), Upload{Name: "x.zip", Type: TypeUnknown, Data: []byte("x")})
	if !errors.Is(err, models.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestExtractOversizedPDFSkipsParsing(t *testing.T) {
	d := newTestDispatcher(&fakeTranscriber{})
	// Garbage bytes: if the dispatcher tried to parse this, it would fail
	// with a parse error instead of the size rejection.
	data := make([]byte, maxPDFBytes+1)
	_, err := d.Extract(context.Background(), Upload{Name: "big.pdf", Type: TypePDF, Data: data})
	if !errors.Is(err, models.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestExtractPlainText(t *testing.T) {
	d := newTestDispatcher(&fakeTranscriber{})
	res, err := d.Extract(context.Background(), Upload{Name: "a.txt", Type: TypeTxt, Data: []byte("hello, world")})
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	if res.Text != "hello, world" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Notice != "" {
		t.Fatalf("unexpected notice %q", res.Notice)
	}
}

func TestExtractPlainTextRejectsMalformedUTF8(t *testing.T) {
	d := newTestDispatcher(&fakeTranscriber{})
	_, err := d.Extract(context.Background(), Upload{Name: "a.txt", Type: TypeTxt, Data: []byte{0xff, 0xfe, 0xfd}})
	if !errors.Is(err, models.ErrInvalidText) {
		t.Fatalf("expected ErrInvalidText, got %v", err)
	}
}

func TestExtractAudioPassesWavToTranscriber(t *testing.T) {
	tr := &fakeTranscriber{text: "meeting notes from tuesday"}
	d := newTestDispatcher(tr)
	payload := []byte("RIFF-fake-wav-bytes")

	res, err := d.Extract(context.Background(), Upload{Name: "memo.wav", Type: TypeWAV, Data: payload})
	if err != nil {
		t.Fatalf("extract audio: %v", err)
	}
	if res.Text != "meeting notes from tuesday" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if tr.gotMime != "audio/wav" {
		t.Fatalf("unexpected mime %q", tr.gotMime)
	}
	if !bytes.Equal(tr.gotBytes, payload) {
		t.Fatalf("transcriber saw %d bytes, want %d", len(tr.gotBytes), len(payload))
	}
	if _, err := os.Stat(tr.gotPath); !os.IsNotExist(err) {
		t.Fatalf("temp audio file %s was not removed", tr.gotPath)
	}
}

func TestExtractAudioM4AKeepsContainer(t *testing.T) {
	tr := &fakeTranscriber{text: "voice note"}
	d := newTestDispatcher(tr)
	if _, err := d.Extract(context.Background(), Upload{Name: "note.m4a", Type: TypeM4A, Data: []byte("m4a-bytes")}); err != nil {
		t.Fatalf("extract m4a: %v", err)
	}
	if tr.gotMime != "audio/mp4" {
		t.Fatalf("unexpected mime %q", tr.gotMime)
	}
}

func TestExtractAudioDegradedSentinels(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		notice string
	}{
		{"unintelligible", models.ErrUnintelligibleAudio, NoticeUnintelligible},
		{"service unavailable", models.ErrSpeechUnavailable, NoticeUnavailable},
		{"transport failure", errors.New("connection refused"), NoticeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &fakeTranscriber{err: tc.err}
			d := newTestDispatcher(tr)
			res, err := d.Extract(context.Background(), Upload{Name: "memo.wav", Type: TypeWAV, Data: []byte("x")})
			if err != nil {
				t.Fatalf("degraded extraction must not error, got %v", err)
			}
			if res.Text != tc.notice || res.Notice != tc.notice {
				t.Fatalf("got text %q notice %q, want %q", res.Text, res.Notice, tc.notice)
			}
			if _, err := os.Stat(tr.gotPath); !os.IsNotExist(err) {
				t.Fatalf("temp audio file %s was not removed", tr.gotPath)
			}
		})
	}
}

func TestTranscodeMP3RejectsGarbage(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "out-*.wav")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer tmp.Close()
	if err := transcodeMP3([]byte("not an mp3 stream"), tmp); err == nil {
		t.Fatalf("expected decode error for garbage mp3")
	}
}
