package dashboard

import (
	"fmt"
	"io"
	"net/http"

	gh "github.com/google/go-github/v72/github"
	"github.com/tidwall/gjson"

	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
)

// maxWebhookBody caps the payload read when no secret is configured.
const maxWebhookBody = 25 << 20

// WebhookState maps an issues event action to the issue state worth
// syncing. ok is false for actions that need no sync.
func WebhookState(action string) (state string, ok bool) {
	switch action {
	case "assigned", "opened", "edited", "reopened":
		return "open", true
	case "closed":
		return "all", true
	default:
		return "", false
	}
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := s.readWebhook(r)
	if err != nil {
		s.logger.Warn("rejected webhook", "error", err)
		writeJSON(w, http.StatusUnauthorized, syncResponse{
			Message: "Webhook rejected",
			Error:   err.Error(),
		})
		return
	}

	if !gjson.ValidBytes(payload) {
		writeJSON(w, http.StatusBadRequest, syncResponse{
			Message: "Webhook rejected",
			Error:   "invalid JSON payload",
		})
		return
	}

	action := gjson.GetBytes(payload, "action").String()
	state, ok := WebhookState(action)
	if !ok {
		s.logger.Debug("webhook ignored", "action", action, "event", gh.WebHookType(r))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("No sync needed for action: %s", action),
		})
		return
	}

	s.logger.Info("webhook received", "action", action, "event", gh.WebHookType(r),
		"issue", gjson.GetBytes(payload, "issue.html_url").String())
	s.runSync(w, r, issuesync.ModeWebhook, state,
		fmt.Sprintf("Webhook sync completed for action: %s", action))
}

// readWebhook returns the request body, verifying its signature when a
// secret is configured.
func (s *Server) readWebhook(r *http.Request) ([]byte, error) {
	if s.config.WebhookSecret != "" {
		return gh.ValidatePayload(r, []byte(s.config.WebhookSecret))
	}
	return io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
}
