package chat

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Type tags messages the UI renders differently from plain turns.
type Type string

const (
	TypeAnswer   Type = "answer"
	TypeRelated  Type = "related"
	TypeFollowup Type = "followup"
	TypeEnd      Type = "end"
	TypeTool     Type = "tool"
	TypeInquiry  Type = "inquiry"
	TypeInput    Type = "input"
)

// Message is one entry of the client-visible conversation. ID groups every
// message produced by the same completion request so the client can collapse them.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role" validate:"required,oneof=user assistant system tool"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
	Type    Type   `json:"type,omitempty" validate:"omitempty,oneof=answer related followup end tool inquiry input"`
}

// Hidden reports whether the message is UI bookkeeping that must not be sent
// back to a model.
func (m Message) Hidden() bool {
	if m.Role == RoleTool {
		return true
	}
	switch m.Type {
	case TypeFollowup, TypeRelated, TypeEnd:
		return true
	}
	return false
}
