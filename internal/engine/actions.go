package engine

import (
	"go.uber.org/zap"

	"charla/internal/bus"
	"charla/internal/ident"
	"charla/internal/protocol"
	"charla/internal/state"
	"charla/internal/store"
)

// Operator actions. Each exported method enqueues onto the event loop, so
// actions serialize with inbound handlers; the unexported counterparts hold
// the actual logic.

// OpenChat makes a conversation active. A cached conversation is shown from
// the local copy; an uncached one is requested from the server. Either way
// the server is told the conversation was read, and any pending placeholders
// are dropped.
func (e *Engine) OpenChat(chatID string) {
	e.do(func() { e.openChat(chatID) })
}

func (e *Engine) openChat(chatID string) {
	var cached bool
	e.store.Apply(func(s *state.Session) {
		s.ClearPending()
		s.ActiveChatID = chatID
		if chat := s.Detail(chatID); chat != nil {
			cached = true
			if last := s.LatestMessage(chatID); last != nil {
				s.SummaryFromMessage(*last)
			}
		}
	})
	e.persistActiveChat(chatID)

	if !cached {
		e.send(protocol.OpenChat{ChatID: chatID})
	}
	e.send(protocol.ChatMessagesRead{ChatID: chatID})
}

// SendMessage performs the optimistic send: the message exists locally, with
// a temporary id and provisional sent state, before the server ever sees it.
func (e *Engine) SendMessage(chatID, content, format string) {
	e.do(func() { e.sendMessage(chatID, content, format) })
}

func (e *Engine) sendMessage(chatID, content, format string) {
	var msg state.Message
	e.store.Apply(func(s *state.Session) {
		msg = newOutgoing(s, chatID, content, format)
	})
	e.deliver(msg)
}

// deliver appends an already-built message to its conversation, reflects it
// in the summary and transmits it. The pending-conversation resolution path
// reuses this so held messages go out exactly like fresh ones.
func (e *Engine) deliver(msg state.Message) {
	e.store.Apply(func(s *state.Session) {
		s.PatchDetail(msg.ChatID, func(c state.Chat) state.Chat {
			c.Messages = append(append([]state.Message{}, c.Messages...), msg)
			return c
		})
		s.SummaryFromMessage(msg)
	})
	e.send(protocol.SendMessage{Msg: msg})
}

// newOutgoing builds the optimistic local copy of a message the operator is
// sending. The server later echoes it back with the authoritative id and
// timestamp, matched by the temporary id minted here.
func newOutgoing(s *state.Session, chatID, content, format string) state.Message {
	msg := state.Message{
		TempID:    ident.NewMessageID(),
		ChatID:    chatID,
		Content:   content,
		Format:    format,
		Direction: state.Outgoing,
		State:     state.StateSent,
		Time:      nowStamp(),
	}
	if s.User != nil {
		msg.UserID = s.User.ID
		msg.SenderName = s.User.Name
		msg.AvatarURL = s.User.AvatarURL
	}
	return msg
}

// OpenPendingChat starts a conversation with someone the operator has no
// conversation with yet. Nothing is sent: the peer is remembered and the
// active conversation cleared until a first message forces creation.
func (e *Engine) OpenPendingChat(person state.Person) {
	e.do(func() { e.openPendingChat(person) })
}

func (e *Engine) openPendingChat(person state.Person) {
	e.store.Apply(func(s *state.Session) {
		p := person
		s.PendingPeer = &p
		s.PendingMessage = nil
		s.ActiveChatID = ""
	})
	e.forgetActiveChat()
}

// SendPendingMessage holds the operator's first message to the pending peer
// and asks the server to create the conversation. The held message is
// delivered when the creation confirmation supplies the real conversation id.
func (e *Engine) SendPendingMessage(content, format string) {
	e.do(func() { e.sendPendingMessage(content, format) })
}

func (e *Engine) sendPendingMessage(content, format string) {
	var peerID string
	e.store.Apply(func(s *state.Session) {
		if s.PendingPeer == nil {
			return
		}
		msg := newOutgoing(s, "", content, format)
		s.PendingMessage = &msg
		peerID = s.PendingPeer.ID
	})
	if peerID == "" {
		e.logger.Warn("pending message without pending peer")
		return
	}
	e.send(protocol.CreatePrivateChat{UserID: peerID})
}

// RequestContacts fetches the roster once; later calls are satisfied from
// cache.
func (e *Engine) RequestContacts() {
	e.do(func() { e.requestContacts() })
}

func (e *Engine) requestContacts() {
	if e.store.Snapshot().ContactsLoaded {
		return
	}
	e.send(protocol.GetContacts{})
}

// GetPersonInfo requests one profile for the person panel.
func (e *Engine) GetPersonInfo(personID string) {
	e.do(func() { e.send(protocol.GetPersonInfo{PersonID: personID}) })
}

// ClearPersonInfo closes the person panel.
func (e *Engine) ClearPersonInfo() {
	e.do(func() {
		e.store.Apply(func(s *state.Session) { s.PersonInfo = nil })
	})
}

// SearchPeople starts a people search; results arrive asynchronously.
func (e *Engine) SearchPeople(input string) {
	e.do(func() { e.send(protocol.SearchPeople{Input: input}) })
}

// ClearSearchResults drops the current result set.
func (e *Engine) ClearSearchResults() {
	e.do(func() {
		e.store.Apply(func(s *state.Session) { s.SearchResults = nil })
	})
}

// Profile and group mutations are notifications; the matching *_result event
// applies (or rejects) the change.

func (e *Engine) ChangeUsername(newUsername string) {
	e.do(func() { e.send(protocol.ChangeUsername{NewUsername: newUsername}) })
}

func (e *Engine) ChangeName(newName string) {
	e.do(func() { e.send(protocol.ChangeName{NewName: newName}) })
}

func (e *Engine) ChangeNickname(userID, newNickname string) {
	e.do(func() { e.send(protocol.ChangeNickname{UserID: userID, NewNickname: newNickname}) })
}

func (e *Engine) AddContact(userID string) {
	e.do(func() { e.send(protocol.AddContact{UserID: userID}) })
}

func (e *Engine) DeleteContact(userID string) {
	e.do(func() { e.send(protocol.DeleteContact{UserID: userID}) })
}

func (e *Engine) ChangeGroupName(chatID, newName string) {
	e.do(func() { e.send(protocol.ChangeGroupName{ChatID: chatID, NewName: newName}) })
}

func (e *Engine) ChangeGroupDescription(chatID, newDescription string) {
	e.do(func() { e.send(protocol.ChangeGroupDescription{ChatID: chatID, NewDescription: newDescription}) })
}

func (e *Engine) GiveAdmin(chatID, userID string) {
	e.do(func() { e.send(protocol.GiveAdmin{ChatID: chatID, UserID: userID}) })
}

func (e *Engine) AddMembers(chatID string, memberIDs []string) {
	e.do(func() { e.send(protocol.AddMembers{ChatID: chatID, MemberIDs: memberIDs}) })
}

func (e *Engine) RemoveMember(chatID, memberID string) {
	e.do(func() { e.send(protocol.RemoveMember{ChatID: chatID, MemberID: memberID}) })
}

// SetTheme persists the UI theme for this session and announces the change.
func (e *Engine) SetTheme(theme string) {
	if err := e.keys.Put(store.KeyTheme, theme); err != nil {
		e.logger.Warn("persist theme", zap.Error(err))
	}
	e.bus.Publish(bus.Now(bus.KindThemeChanged, theme))
}

// Theme returns the persisted theme, falling back to the default.
func (e *Engine) Theme() string {
	theme, err := e.keys.Get(store.KeyTheme)
	if err != nil {
		e.logger.Warn("read theme", zap.Error(err))
	}
	if theme == "" {
		return e.defaultTheme
	}
	return theme
}
