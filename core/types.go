package core

import "errors"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation as submitted by the client.
// Images carries attachment URLs; the bytes themselves never pass
// through this service.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Reply is the assistant turn produced by the completion API.
type Reply struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

var (
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrEmptyConversation = errors.New("conversation is empty")
	ErrTooManyMessages   = errors.New("too many messages")
	ErrBadRole           = errors.New("invalid message role")
	ErrEmptyMessage      = errors.New("message has no content")
	ErrMessageTooLong    = errors.New("message too long")
	ErrTooManyImages     = errors.New("too many images on message")
	ErrBadImageURL       = errors.New("invalid image url")
	ErrNoUserTurn        = errors.New("conversation must end with a user message")
)
