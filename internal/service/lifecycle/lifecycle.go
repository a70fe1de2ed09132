// Package lifecycle owns the process-wide session state: the current
// document text, the live conversation, the transcript, and the
// upload-widget generation counter. All user actions funnel through the
// Manager, one at a time.
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuchat/internal/lang"
	"docuchat/internal/models"
	"docuchat/internal/service/postprocess"
)

// State of the one process-wide session.
type State string

const (
	// StateEmpty: no document loaded.
	StateEmpty State = "empty"
	// StateLoaded: document text and a fresh conversation, no questions yet.
	StateLoaded State = "loaded"
	// StateActive: loaded, with at least one transcript entry.
	StateActive State = "active"
)

// Conversation is one stateful chat whose replies depend on all prior
// turns.
type Conversation interface {
	Ask(ctx context.Context, question string) (string, error)
}

// ConversationOpener seeds a new conversation from document text.
type ConversationOpener interface {
	Open(ctx context.Context, seedText string) (Conversation, error)
}

// OpenerFunc adapts a function to the ConversationOpener interface.
type OpenerFunc func(ctx context.Context, seedText string) (Conversation, error)

func (f OpenerFunc) Open(ctx context.Context, seedText string) (Conversation, error) {
	return f(ctx, seedText)
}

// PostProcessor applies the optional translation and speech treatments.
type PostProcessor interface {
	Process(ctx context.Context, question, reply, targetLang string) postprocess.Result
}

// AskResult is the outcome of one question.
type AskResult struct {
	Entry      models.TranscriptEntry
	TargetLang string
	// AudioID keys synthesized speech in the audio cache; empty when no
	// speech was produced.
	AudioID  string
	Warnings []string
	// ModelErr is non-nil when the model call failed and Entry.Answer is
	// the fixed fallback reply. The failure is surfaced, not hidden.
	ModelErr error
}

// Status is a read-only snapshot of the lifecycle state.
type Status struct {
	State              State  `json:"state"`
	UploaderGeneration int64  `json:"uploader_generation"`
	FileName           string `json:"file_name,omitempty"`
	FileType           string `json:"file_type,omitempty"`
	Chars              int    `json:"chars,omitempty"`
	Notice             string `json:"notice,omitempty"`
	TranscriptLen      int    `json:"transcript_len"`
}

// Manager is the session lifecycle state machine. The mutex serializes
// actions: HTTP is concurrent, the session model is not.
type Manager struct {
	mu     sync.Mutex
	db     *sql.DB
	opener ConversationOpener
	post   PostProcessor
	logger *zap.Logger

	state      State
	generation int64
	doc        *models.Document
	session    *models.Session
	conv       Conversation
	audio      map[string][]byte
}

// NewManager constructs a Manager in the empty state.
func NewManager(db *sql.DB, opener ConversationOpener, post PostProcessor, logger *zap.Logger) *Manager {
	return &Manager{
		db:     db,
		opener: opener,
		post:   post,
		logger: logger,
		state:  StateEmpty,
		audio:  make(map[string][]byte),
	}
}

// LoadDocument replaces whatever was loaded before: new document text, a
// fresh conversation seeded from it, an empty transcript. On failure the
// prior state is untouched.
func (m *Manager) LoadDocument(ctx context.Context, doc models.Document) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, err := m.opener.Open(ctx, doc.Text)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		FileName:  doc.FileName,
		CreatedAt: time.Now().UTC(),
	}
	// Superseded, not appended: the old session rows go away with it.
	if _, err := m.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return nil, fmt.Errorf("clear previous session: %w", err)
	}
	if _, err := m.db.ExecContext(ctx,
		`INSERT INTO sessions (id, file_name, created_at) VALUES (?, ?, ?)`,
		session.ID, session.FileName, session.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.doc = &doc
	m.session = session
	m.conv = conv
	m.audio = make(map[string][]byte)
	m.state = StateLoaded
	m.logger.Info("document loaded",
		zap.String("file", doc.FileName),
		zap.String("session", session.ID),
		zap.Int("chars", len(doc.Text)),
	)
	return session, nil
}

// Ask runs one question through the conversation and the post-processor
// and appends the resulting pair to the transcript. The transcript entry
// is only written once an answer (possibly the fallback) exists, so the
// transcript and the conversation history stay in step.
func (m *Manager) Ask(ctx context.Context, question string) (*AskResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateEmpty || m.conv == nil {
		return nil, models.ErrNoDocument
	}

	targetLang := lang.DetectTranslation(question)
	reply, askErr := m.conv.Ask(ctx, question)
	if askErr != nil {
		m.logger.Error("model call failed", zap.Error(askErr))
	}

	processed := m.post.Process(ctx, question, reply, targetLang)

	now := time.Now().UTC()
	res, err := m.db.ExecContext(ctx,
		`INSERT INTO transcript_entries (session_id, question, answer, created_at) VALUES (?, ?, ?, ?)`,
		m.session.ID, question, processed.Text, now,
	)
	if err != nil {
		return nil, fmt.Errorf("append transcript entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("transcript entry id: %w", err)
	}

	out := &AskResult{
		Entry: models.TranscriptEntry{
			ID:        entryID,
			SessionID: m.session.ID,
			Question:  question,
			Answer:    processed.Text,
			CreatedAt: now,
		},
		TargetLang: targetLang,
		Warnings:   processed.Warnings,
		ModelErr:   askErr,
	}
	if len(processed.Audio) > 0 {
		out.AudioID = uuid.NewString()
		m.audio[out.AudioID] = processed.Audio
	}

	m.state = StateActive
	return out, nil
}

// NewChat resets everything to empty and bumps the uploader generation so
// the upload control forgets its previous value, even for the same
// filename.
func (m *Manager) NewChat(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return Status{}, fmt.Errorf("clear session: %w", err)
	}
	m.doc = nil
	m.session = nil
	m.conv = nil
	m.audio = make(map[string][]byte)
	m.state = StateEmpty
	m.generation++
	m.logger.Info("new chat started", zap.Int64("generation", m.generation))

	return Status{State: m.state, UploaderGeneration: m.generation}, nil
}

// Status reports the current lifecycle state.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{State: m.state, UploaderGeneration: m.generation}
	if m.doc != nil {
		st.FileName = m.doc.FileName
		st.FileType = m.doc.FileType
		st.Chars = len(m.doc.Text)
		st.Notice = m.doc.Notice
	}
	if m.session != nil {
		if err := m.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transcript_entries WHERE session_id = ?`, m.session.ID,
		).Scan(&st.TranscriptLen); err != nil {
			return Status{}, fmt.Errorf("count transcript entries: %w", err)
		}
	}
	return st, nil
}

// Transcript returns the entries for the current session in insertion
// order. An empty session yields an empty slice, never nil rows.
func (m *Manager) Transcript(ctx context.Context) ([]models.TranscriptEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcriptLocked(ctx)
}

func (m *Manager) transcriptLocked(ctx context.Context) ([]models.TranscriptEntry, error) {
	entries := make([]models.TranscriptEntry, 0)
	if m.session == nil {
		return entries, nil
	}
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, session_id, question, answer, created_at
		 FROM transcript_entries WHERE session_id = ? ORDER BY id ASC`,
		m.session.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transcript entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.TranscriptEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Question, &e.Answer, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Export renders the transcript as a flat text document, one Q/A block per
// entry separated by a blank line. The output is byte-stable for an
// unchanged transcript.
func (m *Manager) Export(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.transcriptLocked(ctx)
	if err != nil {
		return "", err
	}
	return FormatTranscript(entries), nil
}

// FormatTranscript renders entries in the fixed export format.
func FormatTranscript(entries []models.TranscriptEntry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer))
	}
	return strings.Join(blocks, "\n\n")
}

// Audio returns cached synthesized speech by ID.
func (m *Manager) Audio(id string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.audio[id]
	return data, ok
}
