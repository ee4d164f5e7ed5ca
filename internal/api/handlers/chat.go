package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tutor-app/internal/api/response"
	"tutor-app/internal/app"
	"tutor-app/internal/config"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"
	chatService "tutor-app/internal/service/chat"
	"tutor-app/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Request/Response types

// ChatRequest is decoded loosely so a non-string content is a validation
// error rather than a decode error
type ChatRequest struct {
	Content    any    `json:"content"`
	Difficulty string `json:"difficulty,omitempty"`
}

type ChatResponse struct {
	UserMessage      db.Message `json:"userMessage"`
	AssistantMessage db.Message `json:"assistantMessage"`
}

type ModelsResponse struct {
	Models []config.Model `json:"models"`
}

// ChatHandlers serves the transcript and chat endpoints
type ChatHandlers struct {
	config      *app.Config
	validator   *validation.ChatRequestValidator
	chatService *chatService.ChatService
}

// NewChatHandlers creates a new ChatHandlers with service layer
func NewChatHandlers(config *app.Config) *ChatHandlers {
	return &ChatHandlers{
		config:      config,
		validator:   validation.NewChatRequestValidator(),
		chatService: chatService.NewChatService(config.DB, config),
	}
}

// GetMessagesHandler returns the caller's most recent messages, oldest-first.
// limit defaults to 6; values above validation.MaxHistoryLimit return at most
// that many messages.
func (ch *ChatHandlers) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	limit, err := ch.validator.ParseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	messages, err := ch.config.DB.ListMessages(r.Context(), &userID, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Error fetching messages")
		response.Error(w, http.StatusInternalServerError, "Failed to fetch messages", err)
		return
	}
	if messages == nil {
		messages = []db.Message{}
	}

	response.JSON(w, http.StatusOK, messages)
}

// ChatHandler stores the learner's message and returns it with the tutor's reply
func (ch *ChatHandlers) ChatHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	content, isString := req.Content.(string)
	if !isString || ch.validator.ValidateMessage(content) != nil {
		response.Error(w, http.StatusBadRequest, "Message content is required", nil)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"difficulty": req.Difficulty,
	}).Info("Chat request received")

	resp, err := ch.chatService.SendMessage(r.Context(), chatService.SendMessageRequest{
		UserID:     userID,
		Content:    content,
		Difficulty: req.Difficulty,
	})
	if errors.Is(err, chatService.ErrInvalidContent) {
		response.Error(w, http.StatusBadRequest, "Message content is required", nil)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("Error from chat service")
		response.Error(w, http.StatusInternalServerError, "Failed to process chat message", err)
		return
	}

	if resp.Fallback {
		logger.Log.WithField("user_id", userID).Warn("Served fallback reply")
	}

	response.JSON(w, http.StatusOK, ChatResponse{
		UserMessage:      resp.UserMessage,
		AssistantMessage: resp.AssistantMessage,
	})
}

// GetModelsHandler returns the list of available models
func (ch *ChatHandlers) GetModelsHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, ModelsResponse{
		Models: ch.config.ModelsConfig().GetAvailableModels(),
	})
}
