package telegram

import (
	"encoding/json"
	"net/http"

	"finassist/pkg/logger"
)

// WebhookHandler handles incoming Telegram webhook requests.
// Updates are dispatched asynchronously so Telegram gets its 200 at once.
type WebhookHandler struct {
	updateHandler func(Update)
	log           *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(updateHandler func(Update), log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		updateHandler: updateHandler,
		log:           log.With("component", "telegram_webhook"),
	}
}

// ServeHTTP implements http.Handler interface
func (wh *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wh.log.Warnw("Invalid webhook request method", "method", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		wh.log.Errorw("Failed to decode webhook update", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":          false,
			"error":       "Invalid JSON",
			"description": "Invalid JSON",
		})
		return
	}

	if update.Message != nil {
		update.Message.ParseCommand()
	}

	wh.log.Debugw("Received webhook update",
		"update_id", update.UpdateID,
		"has_message", update.HasMessage(),
	)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				wh.log.Errorw("Panic in update handler", "panic", r, "update_id", update.UpdateID)
			}
		}()
		wh.updateHandler(update)
	}()

	// Always acknowledge, otherwise Telegram retries the update
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// HealthCheck returns webhook health status
func (wh *WebhookHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "telegram_webhook",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
