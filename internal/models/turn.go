package models

import "time"

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Turn is one utterance in a conversation. Immutable once appended: the
// orchestrator attaches drained evidence and debug records exactly once,
// when the turn completes.
type Turn struct {
	ID          string        `json:"id"`
	Role        Role          `json:"role"`
	Content     string        `json:"content"`
	Attachments []EvidenceRef `json:"attachments,omitempty"`
	Debug       []DebugRecord `json:"debug,omitempty"`
	Created     time.Time     `json:"created"`
}

// EvidenceRef is a retrieved source snippet surfaced to the user as
// justification for an answer. Never mutated after creation.
type EvidenceRef struct {
	Name    string  `json:"name"`
	Source  string  `json:"source,omitempty"` // file name or URL
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"` // raw similarity, provenance display only
}

// DebugRecord is a named diagnostic payload (prompt transcript, raw model
// output) collected during a turn.
type DebugRecord struct {
	Name    string `json:"name"`
	Content any    `json:"content"`
}
