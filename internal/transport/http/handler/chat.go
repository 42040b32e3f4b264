package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/app"
	"supportdesk/internal/model"
	"supportdesk/internal/prompt"
	"supportdesk/internal/transport/http/response"
)

type ChatService interface {
	SendMessage(ctx context.Context, input app.SendMessageInput) (*app.SendMessageResult, error)
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatTurn, error)
}

type ChatHandler struct {
	chatService    ChatService
	maxUploadBytes int64
}

type SendMessageRequest struct {
	Message   string `json:"message" form:"message"`
	SessionID string `json:"sessionId" form:"sessionId"`
}

func NewChatHandler(chatService ChatService, maxUploadBytes int64) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		maxUploadBytes: maxUploadBytes,
	}
}

// SendMessage accepts JSON or multipart with an optional "file" attachment.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrMessageRequired)
		return
	}

	attachment, err := h.readAttachment(c)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			response.Error(c, http.StatusBadRequest, response.ErrFileTooLarge)
			return
		}
		log.Printf("[chat] read attachment failed: %v", err)
		response.ErrorWithReply(c, http.StatusInternalServerError, response.ErrChatFailed, app.FallbackReply)
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), app.SendMessageInput{
		Message:    req.Message,
		SessionID:  req.SessionID,
		Attachment: attachment,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidRequest):
			response.Error(c, http.StatusBadRequest, response.ErrMessageRequired)
		default:
			log.Printf("[chat] send message failed: %v", err)
			response.ErrorWithReply(c, http.StatusInternalServerError, response.ErrChatFailed, app.FallbackReply)
		}
		return
	}

	if result.Degraded {
		response.ErrorWithReply(c, http.StatusInternalServerError, response.ErrChatFailed, result.Reply)
		return
	}
	response.OK(c, gin.H{"reply": result.Reply, "docs": result.Docs})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))

	chats, err := h.chatService.GetHistory(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("[chat] history %q failed: %v", sessionID, err)
			response.Error(c, http.StatusInternalServerError, response.ErrHistoryFailed)
		}
		return
	}
	if chats == nil {
		chats = []model.ChatTurn{}
	}
	response.OK(c, gin.H{"chats": chats})
}

func (h *ChatHandler) readAttachment(c *gin.Context) (*prompt.Attachment, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := readFormFile(header, h.maxUploadBytes)
	if err != nil {
		return nil, err
	}
	return &prompt.Attachment{
		Filename: header.Filename,
		MIMEType: detectMIME(header, data),
		Data:     data,
	}, nil
}
