package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/platform/telegram"
)

// TelegramHandler verifies that the shared bot can see a channel and, on
// success, stores the channel on the owner's integration.
type TelegramHandler struct {
	Deps Dependencies
}

type verifyRequest struct {
	UID     string `json:"uid"`
	Channel string `json:"channel"`
}

type verifyResponse struct {
	OK     bool   `json:"ok"`
	ChatID int64  `json:"chat_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HandleVerify calls getChat for the given channel. A Bot API refusal
// (bot not a member, unknown channel) is a 400; transport failures are 500.
func (h *TelegramHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if req.UID == "" || req.Channel == "" {
		http.Error(w, "uid and channel are required", http.StatusBadRequest)

		return
	}

	chat, err := h.Deps.Telegram.GetChat(r.Context(), req.Channel)
	if err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, http.StatusBadRequest, verifyResponse{
				OK:    false,
				Error: apiErr.Description,
			})

			return
		}

		h.Deps.Logger.Error("telegram verify failed",
			zap.String("channel", req.Channel),
			zap.Error(err),
		)

		http.Error(w, "failed to reach telegram", http.StatusInternalServerError)

		return
	}

	patch := models.IntegrationPatch{
		Telegram: &models.TelegramCredentials{
			IsConnected: true,
			ChannelID:   req.Channel,
		},
	}

	if err := h.Deps.Integrations.Merge(r.Context(), req.UID, patch); err != nil {
		h.Deps.Logger.Error("failed to store telegram integration",
			zap.String("owner_id", req.UID),
			zap.Error(err),
		)

		http.Error(w, "failed to store integration", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		OK:     true,
		ChatID: chat.ID,
		Title:  chat.Title,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
