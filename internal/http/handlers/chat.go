package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"brandmind/internal/providers/completion"
)

type chatMessageRequest struct {
	Message string               `json:"message"`
	History []completion.Message `json:"history"`
}

const maxChatHistory = 20

// ChatMessage answers one turn of the assistant conversation. Gated on the
// ai_chat feature in the router.
func (a *App) ChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.errorMsg(w, http.StatusBadRequest, "bad_request", "message required")
		return
	}
	history := req.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	msgs := completion.ChatPrompt(history, req.Message)
	a.complete(w, r, "ai_chat", "message", msgs)
}
