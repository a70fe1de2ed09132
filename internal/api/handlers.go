package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docuchat/internal/extract"
	"docuchat/internal/models"
	"docuchat/internal/service/lifecycle"
)

// Fixed user-facing rejection messages.
const (
	msgFileTooLarge = "File too large. Please upload under 10MB."
	msgUnsupported  = "Unsupported file type."
	msgInvalidText  = "File is not valid UTF-8 text."
)

// DocumentExtractor turns an upload into document text.
type DocumentExtractor interface {
	Extract(ctx context.Context, up extract.Upload) (extract.Result, error)
}

// Handler wires HTTP routes to the extractor and the session lifecycle.
type Handler struct {
	extractor DocumentExtractor
	manager   *lifecycle.Manager
	logger    *zap.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(extractor DocumentExtractor, manager *lifecycle.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		extractor: extractor,
		manager:   manager,
		logger:    logger,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/documents", h.uploadDocument)
	api.POST("/chat", h.ask)
	api.POST("/chat/new", h.newChat)
	api.GET("/state", h.state)
	api.GET("/transcript", h.transcript)
	api.GET("/transcript/export", h.exportTranscript)
	api.GET("/audio/:id", h.audio)
}

func (h *Handler) uploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	// The closed type set is enforced here, before dispatch, the way the
	// upload control itself filtered extensions.
	fileType := extract.TypeFromFilename(file.Filename)
	if fileType == extract.TypeUnknown {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": msgUnsupported})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return
	}

	res, err := h.extractor.Extract(c.Request.Context(), extract.Upload{
		Name: filepath.Base(file.Filename),
		Type: fileType,
		Data: data,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgFileTooLarge})
		case errors.Is(err, models.ErrUnsupportedType):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": msgUnsupported})
		case errors.Is(err, models.ErrInvalidText):
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidText})
		default:
			h.logger.Error("extraction failed", zap.String("file", file.Filename), zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not extract text from the file"})
		}
		return
	}

	session, err := h.manager.LoadDocument(c.Request.Context(), models.Document{
		FileName: filepath.Base(file.Filename),
		FileType: string(fileType),
		Size:     file.Size,
		Text:     res.Text,
		Notice:   res.Notice,
	})
	if err != nil {
		h.logger.Error("load document failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start a conversation for the document"})
		return
	}

	payload := gin.H{
		"session_id": session.ID,
		"file_name":  session.FileName,
		"file_type":  string(fileType),
		"chars":      len(res.Text),
		"state":      lifecycle.StateLoaded,
	}
	if res.Notice != "" {
		payload["notice"] = res.Notice
	}
	c.JSON(http.StatusOK, payload)
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	res, err := h.manager.Ask(c.Request.Context(), question)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			c.JSON(http.StatusConflict, gin.H{"error": "no document loaded, upload one first"})
			return
		}
		h.logger.Error("ask failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	payload := gin.H{
		"entry_id": res.Entry.ID,
		"question": res.Entry.Question,
		"answer":   res.Entry.Answer,
	}
	if res.TargetLang != "" {
		payload["translated_to"] = res.TargetLang
	}
	if res.AudioID != "" {
		payload["audio_url"] = "/api/audio/" + res.AudioID
	}
	if len(res.Warnings) > 0 {
		payload["warnings"] = res.Warnings
	}
	if res.ModelErr != nil {
		payload["model_error"] = res.ModelErr.Error()
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) newChat(c *gin.Context) {
	st, err := h.manager.NewChat(c.Request.Context())
	if err != nil {
		h.logger.Error("new chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) state(c *gin.Context) {
	st, err := h.manager.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) transcript(c *gin.Context) {
	entries, err := h.manager.Transcript(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) exportTranscript(c *gin.Context) {
	text, err := h.manager.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="chat_history.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *Handler) audio(c *gin.Context) {
	data, ok := h.manager.Audio(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "audio not found"})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", data)
}
