// Package postprocess applies the two optional reply treatments:
// translation into a detected target language and speech synthesis when
// the question asked for a spoken answer. Both degrade to warnings; they
// never abort the answer flow.
package postprocess

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"docuchat/internal/config"
	"docuchat/internal/lang"
)

// Warnings shown in place of the failed treatment.
const (
	WarnTranslateFailed = "Could not translate the reply."
	WarnSpeechFailed    = "Could not generate voice output."
)

// Result is the post-processed reply. Audio is nil unless speech was
// requested and synthesis succeeded.
type Result struct {
	Text     string
	Audio    []byte
	Warnings []string
}

// Service calls the translation and speech-synthesis collaborators.
type Service struct {
	httpClient   *http.Client
	translateURL string
	ttsURL       string
	speechLang   string
	logger       *zap.Logger
}

// NewService builds the post-processor from config.
func NewService(cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		translateURL: cfg.Translate.BaseURL,
		ttsURL:       cfg.Speech.BaseURL,
		speechLang:   cfg.Speech.Language,
		logger:       logger,
	}
}

// Process returns the reply to display. When targetLang is non-empty the
// reply is translated and the translation replaces the original. When the
// question asks for speech, the displayed text (translated or not) is
// synthesized in the fixed spoken-output language. The two treatments are
// independent and may both fire.
func (s *Service) Process(ctx context.Context, question, reply, targetLang string) Result {
	out := Result{Text: reply}

	if targetLang != "" {
		translated, err := s.translate(ctx, reply, targetLang)
		if err != nil {
			s.logger.Warn("translation failed", zap.String("target", targetLang), zap.Error(err))
			out.Warnings = append(out.Warnings, WarnTranslateFailed)
		} else {
			out.Text = translated
		}
	}

	if lang.WantsSpeech(question) {
		audio, err := s.synthesize(ctx, out.Text)
		if err != nil {
			s.logger.Warn("speech synthesis failed", zap.Error(err))
			out.Warnings = append(out.Warnings, WarnSpeechFailed)
		} else {
			out.Audio = audio
		}
	}

	return out
}

// translate calls the translation collaborator with source "auto" and the
// requested target code. The endpoint answers with nested JSON arrays
// whose first element lists the translated segments.
func (s *Service) translate(ctx context.Context, text, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	body, err := s.get(ctx, s.translateURL+"?"+q.Encode())
	if err != nil {
		return "", err
	}

	var payload []any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	segments, ok := firstElement(payload)
	if !ok {
		return "", fmt.Errorf("unexpected translation response shape")
	}

	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if chunk, ok := parts[0].(string); ok {
			sb.WriteString(chunk)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty translation response")
	}
	return sb.String(), nil
}

func firstElement(payload []any) ([]any, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	segments, ok := payload[0].([]any)
	return segments, ok
}

// synthesize fetches spoken audio for the text in the fixed spoken-output
// language and returns the MP3 bytes.
func (s *Service) synthesize(ctx context.Context, text string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", s.speechLang)
	q.Set("q", text)

	return s.get(ctx, s.ttsURL+"?"+q.Encode())
}

func (s *Service) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call collaborator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("collaborator returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
