package model

// EventType represents the type of WebSocket event
type EventType string

const (
	EventBotUpdate        EventType = "bot_update"
	EventCredentialUpdate EventType = "credential_update"
	EventError            EventType = "error"
)

// Event is the envelope for all WebSocket messages
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// BotEventPayload announces a bot lifecycle transition
type BotEventPayload struct {
	BotID    int64  `json:"bot_id"`
	RemoteID *int64 `json:"remote_id,omitempty"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}
