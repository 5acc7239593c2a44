// Package protocol defines the wire events exchanged with the chat backend
// and their JSON envelope. Every frame is a flat object with a "type"
// discriminant; both directions are closed sum types so dispatch is an
// exhaustive type switch rather than string comparison at the call sites.
package protocol

import (
	"encoding/json"
	"fmt"

	"charla/internal/state"
)

// Inbound is a decoded server event.
type Inbound interface{ isInbound() }

// UserInfo is the session bootstrap: the operator identity plus the seed
// conversation list.
type UserInfo struct {
	User      state.User          `json:"user"`
	LastChats []state.ChatSummary `json:"last_chats"`
}

// ChatInfo delivers the full detail of one conversation.
type ChatInfo struct {
	Chat state.Chat `json:"chat"`
}

// NewMessage announces a message, including the server's echo of the
// operator's own sends.
type NewMessage struct {
	Message state.Message `json:"message"`
}

// ChatRead reports that the peer read a private conversation.
type ChatRead struct {
	ChatID string `json:"chat_id"`
}

// MessagesDelivered carries delivery receipts for a batch of message ids.
type MessagesDelivered struct {
	MessageIDs []string `json:"message_ids"`
}

// Contacts delivers the operator's roster.
type Contacts struct {
	Contacts []state.Person `json:"contacts"`
}

// PersonInfo delivers one inspected profile.
type PersonInfo struct {
	Person state.Person `json:"person_info"`
}

// SearchPeopleResults delivers the current people-search result set.
type SearchPeopleResults struct {
	Results []state.Person `json:"search_people_results"`
}

// PrivateChatCreated confirms conversation creation; it carries both the list
// item and the full detail.
type PrivateChatCreated struct {
	ChatItem state.ChatSummary `json:"chat_item"`
	Chat     state.Chat        `json:"chat"`
}

// GroupChatCreated announces a new group. Only the creator receives the full
// detail; other members get the list item alone.
type GroupChatCreated struct {
	ChatItem *state.ChatSummary `json:"chat_item,omitempty"`
	Chat     *state.Chat        `json:"chat,omitempty"`
}

// StatusSuccess is the status discriminant of an accepted mutation.
const StatusSuccess = "success"

// UsernameChangeResult acknowledges a change_username action.
type UsernameChangeResult struct {
	Status string `json:"status"`
	Data   struct {
		NewUsername string `json:"new_username"`
	} `json:"data"`
}

// NameChangeResult acknowledges a change_name action.
type NameChangeResult struct {
	Status string `json:"status"`
	Data   struct {
		NewName string `json:"new_name"`
	} `json:"data"`
}

// NicknameChangeResult acknowledges a change_nickname action.
type NicknameChangeResult struct {
	Status string `json:"status"`
	Data   struct {
		ContactID   string `json:"contact_id"`
		NewNickname string `json:"new_nickname"`
	} `json:"data"`
}

// ContactAddition acknowledges an add_contact action with the new roster entry.
type ContactAddition struct {
	Status string `json:"status"`
	Data   struct {
		Contact state.Person `json:"contact"`
	} `json:"data"`
}

// ContactDeletion acknowledges a delete_contact action.
type ContactDeletion struct {
	Status string `json:"status"`
	Data   struct {
		UserID string `json:"user_id"`
	} `json:"data"`
}

// ChatMemberRemoved announces a membership removal (possibly the operator's own).
type ChatMemberRemoved struct {
	ChatID string `json:"chat_id"`
	UserID string `json:"user_id"`
}

// ChatMembersAdded replaces a group's member list after additions.
type ChatMembersAdded struct {
	ChatID  string         `json:"chat_id"`
	Members []state.Member `json:"members"`
}

// ChatAdded announces a conversation the operator was pulled into.
type ChatAdded struct {
	ChatItem state.ChatSummary `json:"chat_item"`
}

// ChatForbidden revokes the operator's access to a conversation.
type ChatForbidden struct {
	ChatID string `json:"chat_id"`
}

// ChatAdminChanged transfers the admin role to a single member.
type ChatAdminChanged struct {
	ChatID     string `json:"chat_id"`
	NewAdminID string `json:"new_admin_id"`
}

// GroupNameChangeResult acknowledges a group rename.
type GroupNameChangeResult struct {
	Status  string `json:"status"`
	ChatID  string `json:"chat_id"`
	NewName string `json:"new_name"`
}

// GroupDescriptionChangeResult acknowledges a group description change.
type GroupDescriptionChangeResult struct {
	Status         string `json:"status"`
	ChatID         string `json:"chat_id"`
	NewDescription string `json:"new_description"`
}

// AdminGivenToMember replaces one membership after an admin grant.
type AdminGivenToMember struct {
	ChatID string       `json:"chat_id"`
	Member state.Member `json:"member"`
}

// GroupAvatarUpdated announces a group avatar change.
type GroupAvatarUpdated struct {
	ChatID    string `json:"chat_id"`
	AvatarURL string `json:"avatar_url"`
}

func (*UserInfo) isInbound()                     {}
func (*ChatInfo) isInbound()                     {}
func (*NewMessage) isInbound()                   {}
func (*ChatRead) isInbound()                     {}
func (*MessagesDelivered) isInbound()            {}
func (*Contacts) isInbound()                     {}
func (*PersonInfo) isInbound()                   {}
func (*SearchPeopleResults) isInbound()          {}
func (*PrivateChatCreated) isInbound()           {}
func (*GroupChatCreated) isInbound()             {}
func (*UsernameChangeResult) isInbound()         {}
func (*NameChangeResult) isInbound()             {}
func (*NicknameChangeResult) isInbound()         {}
func (*ContactAddition) isInbound()              {}
func (*ContactDeletion) isInbound()              {}
func (*ChatMemberRemoved) isInbound()            {}
func (*ChatMembersAdded) isInbound()             {}
func (*ChatAdded) isInbound()                    {}
func (*ChatForbidden) isInbound()                {}
func (*ChatAdminChanged) isInbound()             {}
func (*GroupNameChangeResult) isInbound()        {}
func (*GroupDescriptionChangeResult) isInbound() {}
func (*AdminGivenToMember) isInbound()           {}
func (*GroupAvatarUpdated) isInbound()           {}

// DecodeInbound parses one server frame. Unknown types return (nil, nil) so
// newer servers can add events without breaking older clients.
func DecodeInbound(data []byte) (Inbound, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var ev Inbound
	switch env.Type {
	case "user_info":
		ev = &UserInfo{}
	case "chat_info":
		ev = &ChatInfo{}
	case "new_message":
		ev = &NewMessage{}
	case "chat_read":
		ev = &ChatRead{}
	case "messages_delivered":
		ev = &MessagesDelivered{}
	case "contacts":
		ev = &Contacts{}
	case "person_info":
		ev = &PersonInfo{}
	case "search_people_results":
		ev = &SearchPeopleResults{}
	case "private_chat_created":
		ev = &PrivateChatCreated{}
	case "group_chat_created":
		ev = &GroupChatCreated{}
	case "username_change_result":
		ev = &UsernameChangeResult{}
	case "name_change_result":
		ev = &NameChangeResult{}
	case "nickname_change_result":
		ev = &NicknameChangeResult{}
	case "contact_addition":
		ev = &ContactAddition{}
	case "contact_deletion":
		ev = &ContactDeletion{}
	case "chat_member_removed":
		ev = &ChatMemberRemoved{}
	case "chat_members_added":
		ev = &ChatMembersAdded{}
	case "chat_added":
		ev = &ChatAdded{}
	case "chat_forbidden":
		ev = &ChatForbidden{}
	case "chat_admin_changed":
		ev = &ChatAdminChanged{}
	case "group_name_change_result":
		ev = &GroupNameChangeResult{}
	case "group_description_change_result":
		ev = &GroupDescriptionChangeResult{}
	case "admin_given_to_member":
		ev = &AdminGivenToMember{}
	case "group_avatar_updated":
		ev = &GroupAvatarUpdated{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return ev, nil
}
