package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chat-stream-service/internal/chatstream"
	"chat-stream-service/internal/idem"
	"chat-stream-service/internal/models"
)

const idempotencyTTL = 24 * time.Hour

// StreamService is the chat stream orchestration consumed by the handlers.
type StreamService interface {
	CreateChat(ctx context.Context, chatType string, name *string, companyID int, callerID int, participantIDs []int) (models.Chat, error)
	SendMessage(ctx context.Context, chatID int, callerID int, content string, files []chatstream.FileUpload) (models.Message, error)
	MarkRead(ctx context.Context, chatID int, messageID int, callerID int) (models.Message, error)
	ListMessages(ctx context.Context, chatID int, callerID int, limit int, cursor string, search string) (chatstream.Page, error)
}

// ChatHandler exposes the message delivery pipeline over HTTP.
type ChatHandler struct {
	service StreamService
	idem    idem.Store
}

// NewChatHandler builds a ChatHandler. idemStore may be nil when no redis is
// configured; idempotency keys are then ignored.
func NewChatHandler(service StreamService, idemStore idem.Store) *ChatHandler {
	return &ChatHandler{service: service, idem: idemStore}
}

// CreateChat creates a private or group chat with the caller as owner.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Type           string  `json:"type" binding:"required"`
		Name           *string `json:"name"`
		CompanyID      int     `json:"company_id" binding:"required"`
		ParticipantIDs []int   `json:"participant_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.service.CreateChat(c.Request.Context(), req.Type, req.Name, req.CompanyID, userID, req.ParticipantIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// SendMessage stores a message with its uploaded files and returns the created
// projection.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	userID := c.GetInt("userID")

	if !h.claimIdempotencyKey(c, chatID, userID) {
		return
	}

	content := c.PostForm("content")
	files, err := readUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), chatID, userID, content, files)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": models.NewMessageSentEvent(msg)})
}

// ListMessages returns one page of the chat's stream.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	userID := c.GetInt("userID")

	limit := chatstream.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	page, err := h.service.ListMessages(c.Request.Context(), chatID, userID, limit, c.Query("cursor"), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	messages := make([]models.MessageSentEvent, 0, len(page.Messages))
	for _, msg := range page.Messages {
		messages = append(messages, models.NewMessageSentEvent(msg))
	}

	resp := gin.H{
		"messages":    messages,
		"has_more":    page.HasMore,
		"next_cursor": page.NextCursor,
	}
	if page.TotalCount != nil {
		resp["total_count"] = *page.TotalCount
	}
	c.JSON(http.StatusOK, resp)
}

// MarkRead acknowledges a message and returns its (possibly unchanged) state.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, messageID, ok := parseIDs(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	msg, err := h.service.MarkRead(c.Request.Context(), chatID, messageID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": models.NewMessageSentEvent(msg)})
}

// claimIdempotencyKey reserves the request's X-Idempotency-Key. A replayed
// key answers 409 and stops the request. Redis trouble does not block sends.
func (h *ChatHandler) claimIdempotencyKey(c *gin.Context, chatID int, userID int) bool {
	key := c.GetHeader("X-Idempotency-Key")
	if key == "" || h.idem == nil {
		return true
	}

	fresh, err := h.idem.PutNX(c.Request.Context(), fmt.Sprintf("send:%d:%d:%s", chatID, userID, key), idempotencyTTL)
	if err != nil {
		return true
	}
	if !fresh {
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate request"})
		return false
	}
	return true
}

func readUploads(c *gin.Context) ([]chatstream.FileUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	uploads := make([]chatstream.FileUpload, 0, len(form.File["files"]))
	for _, header := range form.File["files"] {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, chatstream.FileUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func parseIDs(c *gin.Context) (int, int, bool) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, 0, false
	}
	msgID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, 0, false
	}
	return chatID, msgID, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chatstream.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, chatstream.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, chatstream.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, chatstream.ErrStorage):
		c.JSON(http.StatusBadGateway, gin.H{"error": "file storage failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
