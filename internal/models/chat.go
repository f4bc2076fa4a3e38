package models

// ChatKind discriminates one-to-one chats from groups.
type ChatKind string

const (
	ChatIndividual ChatKind = "INDIVIDUAL"
	ChatGroup      ChatKind = "GROUP"
)

// Chat represents a conversation the current user participates in.
// Name and AvatarURL are only set for groups; individual chats derive their
// display name from the other participant.
type Chat struct {
	ID           int64        `json:"id"`
	Kind         ChatKind     `json:"kind"`
	Name         string       `json:"name,omitempty"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	Participants []User       `json:"participants,omitempty"`
	LastMessage  *ChatMessage `json:"last_message,omitempty"`
}

// IsGroup reports whether the chat is a group conversation.
func (c Chat) IsGroup() bool { return c.Kind == ChatGroup }
