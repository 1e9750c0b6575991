package dashboard

import (
	"encoding/json"
	"time"

	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
)

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypeSyncComplete is sent when a sync pass reaches a terminal status
	MessageTypeSyncComplete MessageType = "sync_complete"

	// MessageTypeStatus is sent to a client when it connects
	MessageTypeStatus MessageType = "status"
)

// Message represents a dashboard broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SyncCompleteData summarizes a finished pass
type SyncCompleteData struct {
	Mode        issuesync.Mode   `json:"sync_type"`
	Status      issuesync.Status `json:"status"`
	Processed   int              `json:"issues_processed"`
	Synced      int              `json:"issues_synced"`
	Created     int              `json:"issues_created"`
	Updated     int              `json:"issues_updated"`
	ErrorsCount int              `json:"errors_count"`
	Errors      []string         `json:"error_messages,omitempty"`
	Duration    string           `json:"duration"`
}

// StatusData is the greeting sent to new WebSocket clients
type StatusData struct {
	Clients    int                   `json:"clients"`
	LastResult *issuesync.SyncResult `json:"last_result,omitempty"`
}

func newMessage(typ MessageType, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: typ, Timestamp: time.Now(), Data: raw}, nil
}

// NotifySyncComplete broadcasts a finished pass. Pass it to
// sync.WithListener so every pass, whatever triggered it, reaches clients.
func (s *Server) NotifySyncComplete(result *issuesync.SyncResult) {
	msg, err := newMessage(MessageTypeSyncComplete, SyncCompleteData{
		Mode:        result.Mode,
		Status:      result.Status,
		Processed:   result.Processed,
		Synced:      result.Synced,
		Created:     result.Created,
		Updated:     result.Updated,
		ErrorsCount: result.ErrorsCount,
		Errors:      result.ErrorMessages,
		Duration:    result.Duration().String(),
	})
	if err != nil {
		s.logger.Error("failed to encode sync result", "error", err)
		return
	}
	s.Broadcast(msg)
}
