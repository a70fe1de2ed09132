package postprocess

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestService(translateURL, ttsURL string) *Service {
	return &Service{
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		translateURL: translateURL,
		ttsURL:       ttsURL,
		speechLang:   "en",
		logger:       zap.NewNop(),
	}
}

func translateHandler(t *testing.T, response string, wantTarget string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sl"); got != "auto" {
			t.Errorf("source = %q, want auto", got)
		}
		if got := r.URL.Query().Get("tl"); got != wantTarget {
			t.Errorf("target = %q, want %q", got, wantTarget)
		}
		w.Write([]byte(response))
	}
}

func TestProcessTranslatesReply(t *testing.T) {
	translate := httptest.NewServer(translateHandler(t,
		`[[["Bonjour ","Hello ",null],["le monde","world",null]],null,"en"]`, "fr"))
	defer translate.Close()

	s := newTestService(translate.URL, "http://unused.invalid")
	res := s.Process(context.Background(), "translate this into french", "Hello world", "fr")
	if res.Text != "Bonjour le monde" {
		t.Fatalf("translated text = %q", res.Text)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", res.Warnings)
	}
	if res.Audio != nil {
		t.Fatalf("no speech was requested, got %d audio bytes", len(res.Audio))
	}
}

func TestProcessTranslationFailureKeepsOriginalReply(t *testing.T) {
	translate := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer translate.Close()

	s := newTestService(translate.URL, "http://unused.invalid")
	res := s.Process(context.Background(), "say it in hindi", "The answer", "hi")
	if res.Text != "The answer" {
		t.Fatalf("original reply must survive, got %q", res.Text)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != WarnTranslateFailed {
		t.Fatalf("expected translate warning, got %v", res.Warnings)
	}
}

func TestProcessSynthesizesSpeechFromDisplayedText(t *testing.T) {
	mp3 := []byte("ID3-fake-mp3-bytes")
	var spoken string
	tts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spoken = r.URL.Query().Get("q")
		if got := r.URL.Query().Get("tl"); got != "en" {
			t.Errorf("spoken language = %q, want en", got)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(mp3)
	}))
	defer tts.Close()
	translate := httptest.NewServer(translateHandler(t, `[[["Respuesta","Reply",null]],null,"en"]`, "es"))
	defer translate.Close()

	s := newTestService(translate.URL, tts.URL)
	res := s.Process(context.Background(), "read this aloud in spanish", "Reply", "es")
	if res.Text != "Respuesta" {
		t.Fatalf("translated text = %q", res.Text)
	}
	if !bytes.Equal(res.Audio, mp3) {
		t.Fatalf("audio bytes mismatch")
	}
	// Speech is synthesized from the displayed (translated) reply, in the
	// fixed spoken-output language.
	if spoken != "Respuesta" {
		t.Fatalf("synthesized %q, want the displayed reply", spoken)
	}
}

func TestProcessSpeechFailureDegradesToWarning(t *testing.T) {
	tts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer tts.Close()

	s := newTestService("http://unused.invalid", tts.URL)
	res := s.Process(context.Background(), "please read it aloud", "The reply", "")
	if res.Text != "The reply" {
		t.Fatalf("reply must survive synthesis failure, got %q", res.Text)
	}
	if res.Audio != nil {
		t.Fatalf("expected no audio on failure")
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != WarnSpeechFailed {
		t.Fatalf("expected speech warning, got %v", res.Warnings)
	}
}

func TestProcessNoTreatmentsIsPassthrough(t *testing.T) {
	s := newTestService("http://unused.invalid", "http://unused.invalid")
	res := s.Process(context.Background(), "what does this mean", "Plain reply", "")
	if res.Text != "Plain reply" || res.Audio != nil || len(res.Warnings) != 0 {
		t.Fatalf("expected untouched reply, got %+v", res)
	}
}

func TestTranslateEscapesQuery(t *testing.T) {
	var gotRaw string
	translate := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.RawQuery
		w.Write([]byte(`[[["ok","ok",null]],null,"en"]`))
	}))
	defer translate.Close()

	s := newTestService(translate.URL, "http://unused.invalid")
	if _, err := s.translate(context.Background(), "a&b=c d", "fr"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	vals, err := url.ParseQuery(gotRaw)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if vals.Get("q") != "a&b=c d" {
		t.Fatalf("query text round-trip failed: %q", vals.Get("q"))
	}
}
