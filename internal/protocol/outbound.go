package protocol

import (
	"encoding/json"

	"charla/internal/state"
)

// Outbound is an operator action transmitted to the server. Every send is a
// fire-and-forget notification; results, where they exist, arrive as separate
// correlated inbound events.
type Outbound interface {
	EventType() string
}

// OpenChat requests the full detail of a conversation.
type OpenChat struct {
	ChatID string `json:"chat_id"`
}

// ChatMessagesRead tells the server the operator read a conversation.
type ChatMessagesRead struct {
	ChatID string `json:"chat_id"`
}

// SendMessage transmits one message, keyed by its temporary id.
type SendMessage struct {
	Msg state.Message `json:"msg"`
}

// CreatePrivateChat asks for a private conversation with a user.
type CreatePrivateChat struct {
	UserID string `json:"user_id"`
}

// GetContacts requests the roster.
type GetContacts struct{}

// GetPersonInfo requests one profile.
type GetPersonInfo struct {
	PersonID string `json:"person_id"`
}

// SearchPeople starts a people search.
type SearchPeople struct {
	Input string `json:"input"`
}

// ChangeUsername requests a username change for the operator.
type ChangeUsername struct {
	NewUsername string `json:"new_username"`
}

// ChangeName requests a display-name change for the operator.
type ChangeName struct {
	NewName string `json:"new_name"`
}

// ChangeNickname sets the per-relationship nickname of a contact.
type ChangeNickname struct {
	UserID      string `json:"user_id"`
	NewNickname string `json:"new_nickname"`
}

// AddContact adds a user to the roster.
type AddContact struct {
	UserID string `json:"user_id"`
}

// DeleteContact removes a user from the roster.
type DeleteContact struct {
	UserID string `json:"user_id"`
}

// ChangeGroupName renames a group conversation.
type ChangeGroupName struct {
	ChatID  string `json:"chat_id"`
	NewName string `json:"new_name"`
}

// ChangeGroupDescription changes a group's description.
type ChangeGroupDescription struct {
	ChatID         string `json:"chat_id"`
	NewDescription string `json:"new_description"`
}

// GiveAdmin grants the admin role to a member.
type GiveAdmin struct {
	ChatID string `json:"chat_id"`
	UserID string `json:"user_id"`
}

// AddMembers adds users to a group conversation.
type AddMembers struct {
	ChatID    string   `json:"chat_id"`
	MemberIDs []string `json:"member_ids"`
}

// RemoveMember removes a user from a group conversation.
type RemoveMember struct {
	ChatID   string `json:"chat_id"`
	MemberID string `json:"member_id"`
}

// Logout announces the end of the session before the transport closes.
type Logout struct{}

func (OpenChat) EventType() string               { return "open_chat" }
func (ChatMessagesRead) EventType() string       { return "chat_messages_read" }
func (SendMessage) EventType() string            { return "send_message" }
func (CreatePrivateChat) EventType() string      { return "create_private_chat" }
func (GetContacts) EventType() string            { return "get_contacts" }
func (GetPersonInfo) EventType() string          { return "get_person_info" }
func (SearchPeople) EventType() string           { return "search_people" }
func (ChangeUsername) EventType() string         { return "change_username" }
func (ChangeName) EventType() string             { return "change_name" }
func (ChangeNickname) EventType() string         { return "change_nickname" }
func (AddContact) EventType() string             { return "add_contact" }
func (DeleteContact) EventType() string          { return "delete_contact" }
func (ChangeGroupName) EventType() string        { return "change_group_name" }
func (ChangeGroupDescription) EventType() string { return "change_group_description" }
func (GiveAdmin) EventType() string              { return "give_admin" }
func (AddMembers) EventType() string             { return "add_members" }
func (RemoveMember) EventType() string           { return "remove_member" }
func (Logout) EventType() string                 { return "logout" }

// Marshal serializes an outbound event into its tagged envelope.
func Marshal(ev Outbound) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(ev.EventType())
	return json.Marshal(fields)
}
