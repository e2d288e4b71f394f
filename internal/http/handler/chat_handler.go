package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/freelance-crm/relation-bot/internal/chat"
	"github.com/freelance-crm/relation-bot/internal/logger"
	"go.uber.org/zap"
)

// ChatReply is the bridge's answer to a chat message
type ChatReply struct {
	Handled bool            `json:"handled"`
	Message *blocks.Message `json:"message,omitempty"`
}

// ChatHandler bridges a chat platform adapter to the bot over HTTP
type ChatHandler struct {
	bot    *chat.Bot
	logger *zap.Logger
}

func NewChatHandler(bot *chat.Bot, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		bot:    bot,
		logger: logger,
	}
}

// Message godoc
// @Summary Deliver a chat message
// @Description Matches the text against the bot's patterns. handled is false when nothing matched.
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body chat.Message true "Message"
// @Success 200 {object} ChatReply
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /chat/messages [post]
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var msg chat.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	reply, ok := h.bot.HandleMessage(r.Context(), msg)
	if !ok {
		respondJSON(w, http.StatusOK, ChatReply{Handled: false})
		return
	}
	respondJSON(w, http.StatusOK, ChatReply{Handled: true, Message: &reply})
}

// Command godoc
// @Summary Deliver a slash command
// @Description Returns a form to open or a message to post
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body chat.Command true "Command"
// @Success 200 {object} chat.Response
// @Failure 400 {object} domain.APIError "Malformed body or unknown command"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /chat/commands [post]
func (h *ChatHandler) Command(w http.ResponseWriter, r *http.Request) {
	var cmd chat.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	log := logger.WithChatUser(h.logger, cmd.UserID, cmd.Name)
	resp, err := h.bot.HandleCommand(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownCommand) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServiceError(w, log, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Submission godoc
// @Summary Deliver a form submission
// @Description Validation and business failures come back as a message for the user, not as an error status
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body chat.Submission true "Submission"
// @Success 200 {object} blocks.Message
// @Failure 400 {object} domain.APIError "Malformed body or unknown callback"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /chat/submissions [post]
func (h *ChatHandler) Submission(w http.ResponseWriter, r *http.Request) {
	var sub chat.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	log := logger.WithChatUser(h.logger, sub.UserID, sub.CallbackID)
	reply, err := h.bot.HandleSubmission(r.Context(), sub)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownCallback) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServiceError(w, log, err)
		return
	}

	log.Info("chat form submitted")
	respondJSON(w, http.StatusOK, reply)
}
