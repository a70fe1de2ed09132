// Package chat wraps the hosted language-model collaborator: stateful
// document-seeded conversations, plus audio transcription through the same
// client.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"docuchat/internal/config"
	"docuchat/internal/models"
)

const (
	// seedFraming primes the model with the uploaded document.
	seedFraming = "You're an expert assistant. Here's the document:\n\n"

	// seedLimit bounds how much document text goes into the seed turn.
	// Longer text is silently truncated; this is context-size policy.
	seedLimit = 12000

	// FallbackReply is returned when the model call fails so the user
	// never sees an empty answer.
	FallbackReply = "Something went wrong while processing your request."

	// unintelligibleMarker is what the transcribe prompt asks the model
	// to emit when the recording contains no understandable speech.
	unintelligibleMarker = "UNINTELLIGIBLE"
)

const transcribePrompt = "Transcribe this audio recording verbatim. " +
	"Reply with the transcription only. If the speech cannot be understood, reply with exactly " +
	unintelligibleMarker + "."

// Service owns the genai client and builds conversations from it.
type Service struct {
	client          *genai.Client
	model           string
	transcribeModel string
	logger          *zap.Logger
}

// NewService builds the Gemini-backed service from config.
func NewService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Service{
		client:          client,
		model:           cfg.LLM.Model,
		transcribeModel: cfg.LLM.TranscribeModel,
		logger:          logger,
	}, nil
}

// Session is one stateful conversation. Every Ask sees the full prior turn
// history; sessions are never merged or forked.
type Session struct {
	ID   string
	chat *genai.Chat
}

// Open creates a new session whose first turn frames the model as a
// document assistant and carries a bounded prefix of the document text.
func (s *Service) Open(ctx context.Context, seedText string) (*Session, error) {
	history := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: buildSeed(seedText)}},
		},
	}
	c, err := s.client.Chats.Create(ctx, s.model, nil, history)
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return &Session{ID: uuid.NewString(), chat: c}, nil
}

// Ask sends the question in the context of all prior turns and returns the
// reply text. On failure the fixed fallback reply is returned together
// with the error so the caller can both show something and surface what
// went wrong.
func (c *Session) Ask(ctx context.Context, question string) (string, error) {
	res, err := c.chat.SendMessage(ctx, genai.Part{Text: question})
	if err != nil {
		return FallbackReply, fmt.Errorf("send message: %w", err)
	}
	reply := res.Text()
	if reply == "" {
		return FallbackReply, errors.New("model returned empty response")
	}
	return reply, nil
}

// Transcribe sends the audio file at path to the model and returns the
// transcription. It satisfies the extract package's Transcriber contract.
func (s *Service) Transcribe(ctx context.Context, path string, mimeType string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}
	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
				{Text: transcribePrompt},
			},
		},
	}
	res, err := s.client.Models.GenerateContent(ctx, s.transcribeModel, contents, nil)
	if err != nil {
		s.logger.Warn("transcription request failed", zap.Error(err))
		return "", models.ErrSpeechUnavailable
	}
	text := strings.TrimSpace(res.Text())
	if text == "" || strings.EqualFold(text, unintelligibleMarker) {
		return "", models.ErrUnintelligibleAudio
	}
	return text, nil
}

// buildSeed prepends the framing instruction and truncates the document
// portion to the first seedLimit characters.
func buildSeed(text string) string {
	runes := []rune(text)
	if len(runes) > seedLimit {
		runes = runes[:seedLimit]
	}
	return seedFraming + string(runes)
}
