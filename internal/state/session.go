package state

// Session is the authoritative in-memory cache for one connection session.
// Mutators never modify a nested structure in place: they build a replacement
// slice/map/struct and swap it in, so a shallow copy of Session taken between
// mutations is always internally consistent.
type Session struct {
	User           *User
	Chats          []ChatSummary
	Details        map[string]*Chat
	ActiveChatID   string
	Contacts       []Person
	ContactsLoaded bool
	PersonInfo     *Person
	SearchResults  []Person
	PendingPeer    *Person
	PendingMessage *Message
}

func newSession() Session {
	return Session{Details: make(map[string]*Chat)}
}

// Reset restores the initial empty session.
func (s *Session) Reset() {
	*s = newSession()
}

// SelfID returns the local operator's id, or "" before session bootstrap.
func (s *Session) SelfID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Detail returns the cached detail for a conversation, or nil.
func (s *Session) Detail(chatID string) *Chat {
	return s.Details[chatID]
}

// PutDetail replaces the cached detail for c.ID.
func (s *Session) PutDetail(c *Chat) {
	next := make(map[string]*Chat, len(s.Details)+1)
	for id, d := range s.Details {
		next[id] = d
	}
	next[c.ID] = c
	s.Details = next
}

// PatchDetail applies fn to a copy of the cached detail and swaps the result
// in. Returns false when the chat is not cached (stale reference: no-op).
func (s *Session) PatchDetail(chatID string, fn func(Chat) Chat) bool {
	cur := s.Details[chatID]
	if cur == nil {
		return false
	}
	patched := fn(*cur)
	s.PutDetail(&patched)
	return true
}

// DropChat evicts a conversation from the summary list and the detail cache,
// clearing the active pointer if it pointed there.
func (s *Session) DropChat(chatID string) {
	chats := make([]ChatSummary, 0, len(s.Chats))
	for _, c := range s.Chats {
		if c.ID != chatID {
			chats = append(chats, c)
		}
	}
	s.Chats = chats

	if _, ok := s.Details[chatID]; ok {
		next := make(map[string]*Chat, len(s.Details))
		for id, d := range s.Details {
			if id != chatID {
				next[id] = d
			}
		}
		s.Details = next
	}

	if s.ActiveChatID == chatID {
		s.ActiveChatID = ""
	}
}

// PrependSummary puts a new conversation at the front of the list.
func (s *Session) PrependSummary(item ChatSummary) {
	s.Chats = append([]ChatSummary{item}, s.Chats...)
}

// PatchSummary applies fn to the summary with the given id, replacing the
// whole list. Unknown ids are a no-op.
func (s *Session) PatchSummary(chatID string, fn func(ChatSummary) ChatSummary) {
	chats := make([]ChatSummary, len(s.Chats))
	for i, c := range s.Chats {
		if c.ID == chatID {
			c = fn(c)
		}
		chats[i] = c
	}
	s.Chats = chats
}

// LatestMessage returns the most recent message of a cached conversation by
// timestamp, or nil.
func (s *Session) LatestMessage(chatID string) *Message {
	chat := s.Details[chatID]
	if chat == nil || len(chat.Messages) == 0 {
		return nil
	}
	latest := chat.Messages[0]
	for _, m := range chat.Messages[1:] {
		if !parseTime(m.Time).Before(parseTime(latest.Time)) {
			latest = m
		}
	}
	return &latest
}

// SummaryFromMessage patches the conversation's list item: msg becomes the
// preview and the unread counter drops to zero. Used whenever the operator is
// looking at (or just read) the conversation.
func (s *Session) SummaryFromMessage(msg Message) {
	s.PatchSummary(msg.ChatID, func(c ChatSummary) ChatSummary {
		c.Unread = 0
		c.LastMessage = PreviewOf(msg)
		return c
	})
}

// MarkIncomingRead flips every unread incoming message of a cached
// conversation to read.
func (s *Session) MarkIncomingRead(chatID string) {
	s.PatchDetail(chatID, func(c Chat) Chat {
		msgs := make([]Message, len(c.Messages))
		for i, m := range c.Messages {
			if m.Direction == Incoming && m.State != StateRead {
				m.State = StateRead
			}
			msgs[i] = m
		}
		c.Messages = msgs
		return c
	})
}

// PrivateChatWith finds the cached private conversation whose sole other
// member is userID, or nil.
func (s *Session) PrivateChatWith(userID string) *Chat {
	self := s.SelfID()
	for _, chat := range s.Details {
		if chat.Type != ChatPrivate {
			continue
		}
		other := chat.OtherMember(self)
		if other != nil && other.UserID == userID {
			return chat
		}
	}
	return nil
}

// ClearPending drops both pending placeholders. They only ever exist as a
// pair and are always cleared as one.
func (s *Session) ClearPending() {
	s.PendingPeer = nil
	s.PendingMessage = nil
}
