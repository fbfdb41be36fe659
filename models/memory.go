package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversational turn written to the memory store.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MemoryEntry is one remembered fact or message for a session. Stores that
// keep raw messages fill Role; stores that distil facts leave it empty.
type MemoryEntry struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	AgentID   string    `json:"agent_id,omitempty" db:"agent_id"`
	Role      string    `json:"role,omitempty" db:"role"`
	Memory    string    `json:"memory" db:"memory"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
