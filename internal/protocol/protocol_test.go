package protocol

import (
	"encoding/json"
	"testing"

	"charla/internal/state"
)

func TestDecodeInboundKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{
			"user_info",
			`{"type":"user_info","user":{"id":"u1","username":"ana","name":"Ana"},"last_chats":[{"id":"c1","type":"private","name":"Leo","unread_messages":2}]}`,
			&UserInfo{},
		},
		{
			"chat_info",
			`{"type":"chat_info","chat":{"id":"c1","type":"group","name":"Team","messages":[],"members":[]}}`,
			&ChatInfo{},
		},
		{
			"new_message",
			`{"type":"new_message","message":{"id":"m9","chat_id":"c1","user_id":"u2","content":"hola","state":"sent","time":"2026-01-05T10:00:00Z"}}`,
			&NewMessage{},
		},
		{"chat_read", `{"type":"chat_read","chat_id":"c1"}`, &ChatRead{}},
		{"messages_delivered", `{"type":"messages_delivered","message_ids":["m1","m2"]}`, &MessagesDelivered{}},
		{"contacts", `{"type":"contacts","contacts":[{"id":"u2","username":"leo","name":"Leo"}]}`, &Contacts{}},
		{"person_info", `{"type":"person_info","person_info":{"id":"u2","username":"leo","name":"Leo"}}`, &PersonInfo{}},
		{"search_people_results", `{"type":"search_people_results","search_people_results":[]}`, &SearchPeopleResults{}},
		{
			"private_chat_created",
			`{"type":"private_chat_created","chat_item":{"id":"c2","type":"private","name":"Leo"},"chat":{"id":"c2","type":"private","name":"Leo","messages":[],"members":[]}}`,
			&PrivateChatCreated{},
		},
		{"group_chat_created", `{"type":"group_chat_created","chat_item":{"id":"c3","type":"group","name":"Team"}}`, &GroupChatCreated{}},
		{"username_change_result", `{"type":"username_change_result","status":"success","data":{"new_username":"ana2"}}`, &UsernameChangeResult{}},
		{"name_change_result", `{"type":"name_change_result","status":"success","data":{"new_name":"Ana B"}}`, &NameChangeResult{}},
		{"nickname_change_result", `{"type":"nickname_change_result","status":"success","data":{"contact_id":"u2","new_nickname":"Leito"}}`, &NicknameChangeResult{}},
		{"contact_addition", `{"type":"contact_addition","status":"success","data":{"contact":{"id":"u2","username":"leo","name":"Leo","contact_info":{"nickname":"Leito"}}}}`, &ContactAddition{}},
		{"contact_deletion", `{"type":"contact_deletion","status":"success","data":{"user_id":"u2"}}`, &ContactDeletion{}},
		{"chat_member_removed", `{"type":"chat_member_removed","chat_id":"c3","user_id":"u2"}`, &ChatMemberRemoved{}},
		{"chat_members_added", `{"type":"chat_members_added","chat_id":"c3","members":[{"user_id":"u2","role":"member"}]}`, &ChatMembersAdded{}},
		{"chat_added", `{"type":"chat_added","chat_item":{"id":"c4","type":"group","name":"New"}}`, &ChatAdded{}},
		{"chat_forbidden", `{"type":"chat_forbidden","chat_id":"c3"}`, &ChatForbidden{}},
		{"chat_admin_changed", `{"type":"chat_admin_changed","chat_id":"c3","new_admin_id":"u2"}`, &ChatAdminChanged{}},
		{"group_name_change_result", `{"type":"group_name_change_result","status":"success","chat_id":"c3","new_name":"Crew"}`, &GroupNameChangeResult{}},
		{"group_description_change_result", `{"type":"group_description_change_result","status":"success","chat_id":"c3","new_description":"stuff"}`, &GroupDescriptionChangeResult{}},
		{"admin_given_to_member", `{"type":"admin_given_to_member","chat_id":"c3","member":{"user_id":"u2","role":"admin"}}`, &AdminGivenToMember{}},
		{"group_avatar_updated", `{"type":"group_avatar_updated","chat_id":"c3","avatar_url":"http://x/a.png"}`, &GroupAvatarUpdated{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeInbound([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeInbound() error = %v", err)
			}
			if ev == nil {
				t.Fatal("DecodeInbound() = nil for known type")
			}
			// Same concrete type as expected.
			if want, got := typeName(tt.want), typeName(ev); want != got {
				t.Errorf("decoded %s, want %s", got, want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *UserInfo:
		return "UserInfo"
	case *ChatInfo:
		return "ChatInfo"
	case *NewMessage:
		return "NewMessage"
	case *ChatRead:
		return "ChatRead"
	case *MessagesDelivered:
		return "MessagesDelivered"
	case *Contacts:
		return "Contacts"
	case *PersonInfo:
		return "PersonInfo"
	case *SearchPeopleResults:
		return "SearchPeopleResults"
	case *PrivateChatCreated:
		return "PrivateChatCreated"
	case *GroupChatCreated:
		return "GroupChatCreated"
	case *UsernameChangeResult:
		return "UsernameChangeResult"
	case *NameChangeResult:
		return "NameChangeResult"
	case *NicknameChangeResult:
		return "NicknameChangeResult"
	case *ContactAddition:
		return "ContactAddition"
	case *ContactDeletion:
		return "ContactDeletion"
	case *ChatMemberRemoved:
		return "ChatMemberRemoved"
	case *ChatMembersAdded:
		return "ChatMembersAdded"
	case *ChatAdded:
		return "ChatAdded"
	case *ChatForbidden:
		return "ChatForbidden"
	case *ChatAdminChanged:
		return "ChatAdminChanged"
	case *GroupNameChangeResult:
		return "GroupNameChangeResult"
	case *GroupDescriptionChangeResult:
		return "GroupDescriptionChangeResult"
	case *AdminGivenToMember:
		return "AdminGivenToMember"
	case *GroupAvatarUpdated:
		return "GroupAvatarUpdated"
	default:
		return "unknown"
	}
}

func TestDecodeInboundPayloadFields(t *testing.T) {
	raw := `{"type":"new_message","message":{"id":"m9","front_msg_id":"tmp_1","chat_id":"c1","user_id":"u2","content":"hola","state":"sent","time":"2026-01-05T10:00:00Z"}}`
	ev, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	nm, ok := ev.(*NewMessage)
	if !ok {
		t.Fatalf("got %T, want *NewMessage", ev)
	}
	if nm.Message.ID != "m9" || nm.Message.TempID != "tmp_1" || nm.Message.ChatID != "c1" {
		t.Errorf("message ids = (%q, %q, %q)", nm.Message.ID, nm.Message.TempID, nm.Message.ChatID)
	}
	if nm.Message.State != state.StateSent {
		t.Errorf("state = %q, want sent", nm.Message.State)
	}
}

func TestDecodeInboundUnknownTypeIgnored(t *testing.T) {
	ev, err := DecodeInbound([]byte(`{"type":"typing_indicator","chat_id":"c1"}`))
	if err != nil {
		t.Errorf("unknown type should not error, got %v", err)
	}
	if ev != nil {
		t.Errorf("unknown type should decode to nil, got %T", ev)
	}
}

func TestDecodeInboundMalformed(t *testing.T) {
	if _, err := DecodeInbound([]byte(`{not json`)); err == nil {
		t.Error("malformed frame should error")
	}
}

func TestMarshalOutboundEnvelope(t *testing.T) {
	tests := []struct {
		ev       Outbound
		wantType string
	}{
		{OpenChat{ChatID: "c1"}, "open_chat"},
		{ChatMessagesRead{ChatID: "c1"}, "chat_messages_read"},
		{SendMessage{Msg: state.Message{TempID: "tmp_1", ChatID: "c1", Content: "hola", Time: "2026-01-05T10:00:00Z"}}, "send_message"},
		{CreatePrivateChat{UserID: "u2"}, "create_private_chat"},
		{GetContacts{}, "get_contacts"},
		{SearchPeople{Input: "le"}, "search_people"},
		{ChangeNickname{UserID: "u2", NewNickname: "Leito"}, "change_nickname"},
		{AddMembers{ChatID: "c3", MemberIDs: []string{"u2", "u3"}}, "add_members"},
		{Logout{}, "logout"},
	}

	for _, tt := range tests {
		t.Run(tt.wantType, func(t *testing.T) {
			data, err := Marshal(tt.ev)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var m map[string]any
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("envelope is not an object: %v", err)
			}
			if m["type"] != tt.wantType {
				t.Errorf("type = %v, want %q", m["type"], tt.wantType)
			}
		})
	}
}

func TestMarshalOutboundKeepsPayload(t *testing.T) {
	data, err := Marshal(ChangeGroupName{ChatID: "c3", NewName: "Crew"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["chat_id"] != "c3" || m["new_name"] != "Crew" {
		t.Errorf("payload fields lost: %v", m)
	}
}
