package state

import (
	"testing"

	"charla/internal/bus"
)

func TestMessageStateTransitions(t *testing.T) {
	cases := []struct {
		from, to MessageState
		ok       bool
	}{
		{StateSent, StateDelivered, true},
		{StateSent, StateRead, true},
		{StateDelivered, StateRead, true},
		{StateDelivered, StateDelivered, false},
		{StateRead, StateDelivered, false},
		{StateRead, StateRead, false},
		{StateRead, StateSent, false},
		{StateDelivered, StateSent, false},
	}
	for _, c := range cases {
		if got := c.from.CanAdvanceTo(c.to); got != c.ok {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestMessageKey(t *testing.T) {
	m := Message{TempID: "tmp_1"}
	if m.Key() != "tmp_1" {
		t.Errorf("key = %q, want temporary id before ack", m.Key())
	}
	m.ID = "m-1"
	if m.Key() != "m-1" {
		t.Errorf("key = %q, want server id after ack", m.Key())
	}
}

func TestDisplayNameResolution(t *testing.T) {
	p := Person{Username: "ana42"}
	if p.DisplayName() != "ana42" {
		t.Errorf("got %q, want username fallback", p.DisplayName())
	}
	p.Name = "Ana"
	if p.DisplayName() != "Ana" {
		t.Errorf("got %q, want real name", p.DisplayName())
	}
	p.ContactInfo = &ContactInfo{Nickname: "boss"}
	if p.DisplayName() != "boss" {
		t.Errorf("got %q, want nickname", p.DisplayName())
	}
}

func TestSnapshotUnaffectedByLaterMutations(t *testing.T) {
	st := NewStore(bus.New())
	st.Apply(func(s *Session) {
		s.PutDetail(&Chat{ID: "c1", Type: ChatPrivate, Messages: []Message{
			{ID: "m-1", ChatID: "c1", Content: "before", State: StateSent},
		}})
		s.Chats = []ChatSummary{{ID: "c1", Name: "before"}}
	})

	snap := st.Snapshot()

	st.Apply(func(s *Session) {
		s.PatchDetail("c1", func(c Chat) Chat {
			msgs := make([]Message, len(c.Messages))
			copy(msgs, c.Messages)
			msgs[0].Content = "after"
			c.Messages = msgs
			return c
		})
		s.PatchSummary("c1", func(c ChatSummary) ChatSummary {
			c.Name = "after"
			return c
		})
	})

	if snap.Detail("c1").Messages[0].Content != "before" {
		t.Error("earlier snapshot observed a later detail mutation")
	}
	if snap.Chats[0].Name != "before" {
		t.Error("earlier snapshot observed a later summary mutation")
	}
	cur := st.Snapshot()
	if cur.Detail("c1").Messages[0].Content != "after" || cur.Chats[0].Name != "after" {
		t.Error("mutation lost")
	}
}

func TestPatchDetailStaleReferenceIsNoop(t *testing.T) {
	s := newSession()
	if s.PatchDetail("ghost", func(c Chat) Chat { return c }) {
		t.Error("patch of an uncached conversation reported success")
	}
}

func TestDropChat(t *testing.T) {
	s := newSession()
	s.Chats = []ChatSummary{{ID: "c1"}, {ID: "c2"}}
	s.PutDetail(&Chat{ID: "c1"})
	s.ActiveChatID = "c1"

	s.DropChat("c1")

	if len(s.Chats) != 1 || s.Chats[0].ID != "c2" {
		t.Errorf("summaries after drop: %+v", s.Chats)
	}
	if s.Detail("c1") != nil {
		t.Error("detail survived drop")
	}
	if s.ActiveChatID != "" {
		t.Error("active pointer survived drop")
	}
}

func TestLatestMessagePicksNewest(t *testing.T) {
	s := newSession()
	s.PutDetail(&Chat{ID: "c1", Messages: []Message{
		{ID: "m-2", Time: "2026-01-02T11:00:00Z"},
		{ID: "m-3", Time: "2026-01-02T12:00:00Z"},
		{ID: "m-1", Time: "2026-01-02T10:00:00Z"},
	}})

	got := s.LatestMessage("c1")
	if got == nil || got.ID != "m-3" {
		t.Errorf("latest = %+v, want m-3", got)
	}
	if s.LatestMessage("ghost") != nil {
		t.Error("latest of uncached conversation should be nil")
	}
}

func TestPrivateChatWith(t *testing.T) {
	s := newSession()
	s.User = &User{ID: "self"}
	s.PutDetail(&Chat{ID: "c1", Type: ChatPrivate, Members: []Member{
		{UserID: "self"}, {UserID: "peer"},
	}})
	s.PutDetail(&Chat{ID: "g1", Type: ChatGroup, Members: []Member{
		{UserID: "self"}, {UserID: "peer"}, {UserID: "third"},
	}})

	got := s.PrivateChatWith("peer")
	if got == nil || got.ID != "c1" {
		t.Errorf("got %+v, want the private chat", got)
	}
	if s.PrivateChatWith("third") != nil {
		t.Error("group membership must not count as a private chat")
	}
}

func TestMarkIncomingRead(t *testing.T) {
	s := newSession()
	s.PutDetail(&Chat{ID: "c1", Messages: []Message{
		{ID: "m-1", Direction: Incoming, State: StateSent},
		{ID: "m-2", Direction: Outgoing, State: StateSent},
	}})

	s.MarkIncomingRead("c1")

	msgs := s.Detail("c1").Messages
	if msgs[0].State != StateRead {
		t.Error("incoming message not marked read")
	}
	if msgs[1].State != StateSent {
		t.Error("outgoing message must not be touched")
	}
}

func TestResetEmptiesSession(t *testing.T) {
	s := newSession()
	s.User = &User{ID: "self"}
	s.Chats = []ChatSummary{{ID: "c1"}}
	s.PutDetail(&Chat{ID: "c1"})
	s.ActiveChatID = "c1"
	s.PendingPeer = &Person{ID: "peer"}

	s.Reset()

	if s.User != nil || len(s.Chats) != 0 || len(s.Details) != 0 ||
		s.ActiveChatID != "" || s.PendingPeer != nil {
		t.Errorf("session not empty after reset: %+v", s)
	}
	if s.Details == nil {
		t.Error("detail map must be usable after reset")
	}
}
