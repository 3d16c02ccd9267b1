package domain

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser is a message typed or spoken by the user.
	RoleUser Role = "user"
	// RoleAssistant is a message produced by the assistant.
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in the conversation transcript. The transcript
// is append-only: messages are never edited or removed, and the full
// ordered history is replayed to the question-answering capability.
type ChatMessage struct {
	Role    Role
	Content string
}
