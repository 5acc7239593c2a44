package state

import "time"

// ChatType discriminates two-party and multi-party conversations.
type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

// Direction marks a message relative to the local operator.
type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
)

// MessageState is the delivery state of an outgoing message in a private
// conversation. Transitions are monotonic: sent -> delivered -> read.
// Group conversations do not track delivery state.
type MessageState string

const (
	StateSent      MessageState = "sent"
	StateDelivered MessageState = "delivered"
	StateRead      MessageState = "read"
)

// CanAdvanceTo reports whether moving to next is a legal forward transition.
// Delivered is only reachable from sent; read is reachable from any
// non-terminal state; nothing ever regresses.
func (s MessageState) CanAdvanceTo(next MessageState) bool {
	switch next {
	case StateDelivered:
		return s == StateSent
	case StateRead:
		return s != StateRead
	default:
		return false
	}
}

// Roles within a group conversation.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is the identity of the local operator.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ContactInfo is the per-relationship overlay on a person record.
type ContactInfo struct {
	Nickname string `json:"nickname,omitempty"`
	AddedAt  string `json:"added_at,omitempty"`
}

// Person is a user as seen from the outside: search results, the contact
// roster and the person-info panel all carry this shape. ContactInfo is nil
// when the person is not a contact of the operator.
type Person struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Name        string       `json:"name"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	LastSeenAt  string       `json:"last_seen_at,omitempty"`
	ContactInfo *ContactInfo `json:"contact_info,omitempty"`
}

// DisplayName resolves nickname -> name -> username.
func (p Person) DisplayName() string {
	if p.ContactInfo != nil && p.ContactInfo.Nickname != "" {
		return p.ContactInfo.Nickname
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}

// Member is one (conversation, user) membership.
type Member struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Name      string `json:"name,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DisplayName resolves nickname -> name -> username.
func (m Member) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	if m.Name != "" {
		return m.Name
	}
	return m.Username
}

// Message is one logical chat message. TempID is assigned client-side the
// moment the message exists locally and never changes; ID is assigned by the
// server and is empty until the message is acknowledged. Both may coexist
// after reconciliation.
type Message struct {
	ID         string       `json:"id,omitempty"`
	TempID     string       `json:"front_msg_id,omitempty"`
	ChatID     string       `json:"chat_id"`
	UserID     string       `json:"user_id"`
	SenderName string       `json:"sender_name,omitempty"`
	Content    string       `json:"content"`
	Format     string       `json:"format,omitempty"`
	Filename   string       `json:"filename,omitempty"`
	AvatarURL  string       `json:"avatar_url,omitempty"`
	Direction  Direction    `json:"type,omitempty"`
	State      MessageState `json:"state,omitempty"`
	Time       string       `json:"time"`
}

// Key returns the server id when known, else the temporary id.
func (m Message) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return m.TempID
}

// LastMessage is the preview of a conversation's most recent message as shown
// in the conversation list.
type LastMessage struct {
	Direction Direction    `json:"type,omitempty"`
	Content   string       `json:"content"`
	State     MessageState `json:"state,omitempty"`
	Time      string       `json:"time"`
	AvatarURL string       `json:"avatar_url,omitempty"`
	Format    string       `json:"format,omitempty"`
	Filename  string       `json:"filename,omitempty"`
}

// PreviewOf projects a message into its list preview.
func PreviewOf(m Message) *LastMessage {
	return &LastMessage{
		Direction: m.Direction,
		Content:   m.Content,
		State:     m.State,
		Time:      m.Time,
		AvatarURL: m.AvatarURL,
		Format:    m.Format,
		Filename:  m.Filename,
	}
}

// ChatSummary is the list-rendering projection of a conversation.
type ChatSummary struct {
	ID          string       `json:"id"`
	Type        ChatType     `json:"type"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	Unread      int          `json:"unread_messages"`
	LastMessage *LastMessage `json:"last_message,omitempty"`
}

// Chat is the full per-conversation cache: ordered messages plus memberships.
type Chat struct {
	ID          string    `json:"id"`
	Type        ChatType  `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Messages    []Message `json:"messages"`
	Members     []Member  `json:"members"`
}

// OtherMember returns the sole member of a private chat that is not selfID,
// or nil when there is none.
func (c *Chat) OtherMember(selfID string) *Member {
	for i := range c.Members {
		if c.Members[i].UserID != selfID {
			return &c.Members[i]
		}
	}
	return nil
}

// HasMember reports whether userID belongs to the chat.
func (c *Chat) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// parseTime interprets wire timestamps (RFC 3339). Unparseable values sort first.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
