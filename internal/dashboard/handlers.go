package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mschirtzinger/issuesync/internal/github"
	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
)

// syncResponse is the body returned by every sync trigger.
type syncResponse struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Error       string           `json:"error,omitempty"`
	SyncType    issuesync.Mode   `json:"sync_type,omitempty"`
	IssueState  string           `json:"issue_state,omitempty"`
	Processed   int              `json:"issues_processed"`
	Synced      int              `json:"issues_synced"`
	ErrorsCount int              `json:"errors_count"`
	Duration    string           `json:"duration,omitempty"`
	Status      issuesync.Status `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "issuesync",
		"version": s.config.Version,
	})
}

// runSync performs one pass and shapes the response. A failed pass is a 500;
// a partial pass still reports success with status "partial".
func (s *Server) runSync(w http.ResponseWriter, r *http.Request, mode issuesync.Mode, state, okMessage string) {
	state = github.NormalizeState(state)

	ctx, cancel := context.WithTimeout(r.Context(), s.config.SyncTimeout)
	defer cancel()

	s.logger.Info("sync requested", "mode", mode, "state", state)
	result := s.syncer.SyncAssigned(ctx, mode, github.ListOptions{State: state})

	resp := syncResponse{
		SyncType:    mode,
		IssueState:  state,
		Processed:   result.Processed,
		Synced:      result.Synced,
		ErrorsCount: result.ErrorsCount,
		Duration:    result.Duration().String(),
		Status:      result.Status,
	}

	if result.Status == issuesync.StatusFailed {
		resp.Message = fmt.Sprintf("Failed to sync GitHub issues to %s", s.config.StoreName)
		resp.Error = result.Summary()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	resp.Success = true
	resp.Message = okMessage
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSyncGet(w http.ResponseWriter, r *http.Request) {
	state := github.NormalizeState(r.URL.Query().Get("state"))
	s.runSync(w, r, issuesync.ModeManualGet, state,
		fmt.Sprintf("GitHub %s issues synced to %s successfully", state, s.config.StoreName))
}

func (s *Server) handleManualSync(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, issuesync.ModeManualWeb, r.FormValue("state"), "Sync completed successfully")
}

// statusResponse is the body of GET /sync/status.
type statusResponse struct {
	Info
	LastResult *issuesync.SyncResult `json:"last_result"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Info:       s.config.Info,
		LastResult: s.syncer.LastResult(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, rootPage)
}

const rootPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>issuesync</title>
  <style>
    body { font-family: monospace; margin: 2em; }
    #log div { padding: 2px 0; }
    .failed { color: #c33; }
    .partial { color: #c93; }
    .completed { color: #393; }
  </style>
</head>
<body>
  <h1>issuesync</h1>
  <form method="post" action="/sync/manual">
    <select name="state">
      <option value="open">open</option>
      <option value="closed">closed</option>
      <option value="all">all</option>
    </select>
    <button type="submit">Sync now</button>
  </form>
  <h2>Recent passes</h2>
  <div id="log"></div>
  <script>
    const log = document.getElementById('log');
    const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    ws.onmessage = (ev) => {
      const msg = JSON.parse(ev.data);
      const r = msg.type === 'sync_complete' ? msg.data : (msg.data && msg.data.last_result);
      if (!r) return;
      const line = document.createElement('div');
      line.className = r.status;
      line.textContent = msg.timestamp + ' ' + r.sync_type + ' ' + r.status + ' ' +
        r.issues_synced + '/' + r.issues_processed + ' synced, ' + r.errors_count + ' errors';
      log.prepend(line);
    };
  </script>
</body>
</html>
`
