package engine

import (
	"charla/internal/ident"
	"charla/internal/protocol"
	"charla/internal/state"
)

// handleInbound routes one decoded server event to its handler. The switch is
// exhaustive over the protocol's inbound sum type; the transport already
// filtered unknown tags out.
func (e *Engine) handleInbound(ev protocol.Inbound) {
	switch ev := ev.(type) {
	case *protocol.UserInfo:
		e.handleUserInfo(ev)
	case *protocol.ChatInfo:
		e.handleChatInfo(ev)
	case *protocol.NewMessage:
		e.handleNewMessage(ev)
	case *protocol.ChatRead:
		e.handleChatRead(ev)
	case *protocol.MessagesDelivered:
		e.handleMessagesDelivered(ev)
	case *protocol.Contacts:
		e.handleContacts(ev)
	case *protocol.PersonInfo:
		e.handlePersonInfo(ev)
	case *protocol.SearchPeopleResults:
		e.handleSearchResults(ev)
	case *protocol.PrivateChatCreated:
		e.handlePrivateChatCreated(ev)
	case *protocol.GroupChatCreated:
		e.handleGroupChatCreated(ev)
	case *protocol.UsernameChangeResult:
		e.handleUsernameChangeResult(ev)
	case *protocol.NameChangeResult:
		e.handleNameChangeResult(ev)
	case *protocol.NicknameChangeResult:
		e.handleNicknameChangeResult(ev)
	case *protocol.ContactAddition:
		e.handleContactAddition(ev)
	case *protocol.ContactDeletion:
		e.handleContactDeletion(ev)
	case *protocol.ChatMemberRemoved:
		e.handleChatMemberRemoved(ev)
	case *protocol.ChatMembersAdded:
		e.handleChatMembersAdded(ev)
	case *protocol.ChatAdded:
		e.handleChatAdded(ev)
	case *protocol.ChatForbidden:
		e.handleChatForbidden(ev)
	case *protocol.ChatAdminChanged:
		e.handleChatAdminChanged(ev)
	case *protocol.GroupNameChangeResult:
		e.handleGroupNameChangeResult(ev)
	case *protocol.GroupDescriptionChangeResult:
		e.handleGroupDescriptionChangeResult(ev)
	case *protocol.AdminGivenToMember:
		e.handleAdminGivenToMember(ev)
	case *protocol.GroupAvatarUpdated:
		e.handleGroupAvatarUpdated(ev)
	}
}

// handleUserInfo is the session bootstrap: the operator identity is replaced
// wholesale and the conversation list seeded.
func (e *Engine) handleUserInfo(ev *protocol.UserInfo) {
	user := ev.User
	chats := make([]state.ChatSummary, len(ev.LastChats))
	copy(chats, ev.LastChats)

	e.store.Apply(func(s *state.Session) {
		s.User = &user
		s.Chats = chats
	})
}

// normalizeChat gives a temporary id to every message that lacks one, so each
// message is addressable before (or without) a server id.
func normalizeChat(chat state.Chat) state.Chat {
	msgs := make([]state.Message, len(chat.Messages))
	for i, m := range chat.Messages {
		if m.TempID == "" {
			m.TempID = ident.NewMessageID()
		}
		msgs[i] = m
	}
	chat.Messages = msgs
	return chat
}

// cacheAndActivate installs a freshly delivered detail: messages get temp
// ids, the chat becomes active, its incoming messages are read, and the
// summary is refreshed from the newest message.
func cacheAndActivate(s *state.Session, chat state.Chat) {
	chat = normalizeChat(chat)
	s.PutDetail(&chat)
	s.ActiveChatID = chat.ID
	s.MarkIncomingRead(chat.ID)
	if last := s.LatestMessage(chat.ID); last != nil {
		s.SummaryFromMessage(*last)
	}
}

func (e *Engine) handleChatInfo(ev *protocol.ChatInfo) {
	e.store.Apply(func(s *state.Session) {
		cacheAndActivate(s, ev.Chat)
	})
	e.persistActiveChat(ev.Chat.ID)
}

// handleNewMessage applies the central reconciliation asymmetry: the
// operator's own messages are merged into their optimistic copies by
// temporary id; everyone else's are appended.
func (e *Engine) handleNewMessage(ev *protocol.NewMessage) {
	msg := ev.Message
	var ackRead bool

	e.store.Apply(func(s *state.Session) {
		own := msg.UserID == s.SelfID()
		active := s.ActiveChatID == msg.ChatID

		if own {
			msg.Direction = state.Outgoing
			e.mergeOwnMessage(s, msg)
		} else {
			if msg.TempID == "" {
				msg.TempID = ident.NewMessageID()
			}
			msg.Direction = state.Incoming
			s.PatchDetail(msg.ChatID, func(c state.Chat) state.Chat {
				c.Messages = append(append([]state.Message{}, c.Messages...), msg)
				return c
			})
		}

		// Conversation list: preview always; the unread counter moves only
		// for incoming messages, and drops to zero when the operator is
		// already looking at the conversation.
		s.PatchSummary(msg.ChatID, func(c state.ChatSummary) state.ChatSummary {
			c.LastMessage = state.PreviewOf(msg)
			switch {
			case own:
			case active:
				c.Unread = 0
			default:
				c.Unread++
			}
			return c
		})

		if !own && active {
			s.MarkIncomingRead(msg.ChatID)
			ackRead = true
		}
	})

	if ackRead {
		e.send(protocol.ChatMessagesRead{ChatID: msg.ChatID})
	}
}

// mergeOwnMessage folds the server's echo into the optimistic copy found by
// temporary id. No match means the optimistic copy is gone (stale reference);
// nothing is appended, a duplicate would be worse than a drop.
func (e *Engine) mergeOwnMessage(s *state.Session, msg state.Message) {
	s.PatchDetail(msg.ChatID, func(c state.Chat) state.Chat {
		msgs := make([]state.Message, len(c.Messages))
		copy(msgs, c.Messages)
		for i, m := range msgs {
			if m.TempID != "" && m.TempID == msg.TempID {
				merged := msg
				merged.TempID = m.TempID
				msgs[i] = merged
				break
			}
		}
		c.Messages = msgs
		return c
	})
}

// handleChatRead: the peer read the conversation, so every outgoing message
// becomes read. Private conversations only.
func (e *Engine) handleChatRead(ev *protocol.ChatRead) {
	e.store.Apply(func(s *state.Session) {
		chat := s.Detail(ev.ChatID)
		if chat == nil || chat.Type != state.ChatPrivate {
			return
		}
		s.PatchDetail(ev.ChatID, func(c state.Chat) state.Chat {
			msgs := make([]state.Message, len(c.Messages))
			for i, m := range c.Messages {
				if m.Direction == state.Outgoing && m.State.CanAdvanceTo(state.StateRead) {
					m.State = state.StateRead
				}
				msgs[i] = m
			}
			c.Messages = msgs
			return c
		})
		if last := s.LatestMessage(ev.ChatID); last != nil {
			lm := *last
			lm.State = state.StateRead
			s.SummaryFromMessage(lm)
		}
	})
}

// handleMessagesDelivered promotes sent messages to delivered across every
// cached conversation. Receipts may reference either id, since the server can
// ack before the client learned the server id.
func (e *Engine) handleMessagesDelivered(ev *protocol.MessagesDelivered) {
	ids := make(map[string]bool, len(ev.MessageIDs))
	for _, id := range ev.MessageIDs {
		ids[id] = true
	}

	e.store.Apply(func(s *state.Session) {
		for chatID := range s.Details {
			s.PatchDetail(chatID, func(c state.Chat) state.Chat {
				msgs := make([]state.Message, len(c.Messages))
				for i, m := range c.Messages {
					if ids[m.Key()] && m.State.CanAdvanceTo(state.StateDelivered) {
						m.State = state.StateDelivered
					}
					msgs[i] = m
				}
				c.Messages = msgs
				return c
			})

			chat := s.Detail(chatID)
			if len(chat.Messages) == 0 {
				continue
			}
			last := chat.Messages[len(chat.Messages)-1]
			if ids[last.Key()] {
				s.SummaryFromMessage(last)
			}
		}
	})
}

func (e *Engine) handleContacts(ev *protocol.Contacts) {
	contacts := make([]state.Person, len(ev.Contacts))
	copy(contacts, ev.Contacts)
	e.store.Apply(func(s *state.Session) {
		s.Contacts = contacts
		s.ContactsLoaded = true
	})
}

func (e *Engine) handlePersonInfo(ev *protocol.PersonInfo) {
	person := ev.Person
	e.store.Apply(func(s *state.Session) {
		s.PersonInfo = &person
	})
}

func (e *Engine) handleSearchResults(ev *protocol.SearchPeopleResults) {
	results := make([]state.Person, len(ev.Results))
	copy(results, ev.Results)
	e.store.Apply(func(s *state.Session) {
		s.SearchResults = results
	})
}

// handlePrivateChatCreated resolves the pending placeholders: the held
// message finally has a real conversation to go to, and goes through the
// normal send path.
func (e *Engine) handlePrivateChatCreated(ev *protocol.PrivateChatCreated) {
	var held *state.Message
	var activated bool

	e.store.Apply(func(s *state.Session) {
		s.PrependSummary(ev.ChatItem)
		if s.PendingPeer == nil {
			return
		}
		cacheAndActivate(s, ev.Chat)
		activated = true
		if s.PendingMessage != nil {
			m := *s.PendingMessage
			m.ChatID = ev.Chat.ID
			held = &m
		}
		s.ClearPending()
	})

	if activated {
		e.persistActiveChat(ev.Chat.ID)
	}
	if held != nil {
		e.deliver(*held)
	}
}

func (e *Engine) handleGroupChatCreated(ev *protocol.GroupChatCreated) {
	e.store.Apply(func(s *state.Session) {
		if ev.ChatItem != nil {
			s.PrependSummary(*ev.ChatItem)
		}
		if ev.Chat != nil {
			chat := normalizeChat(*ev.Chat)
			s.PutDetail(&chat)
			s.ActiveChatID = chat.ID
		}
	})
	if ev.Chat != nil {
		e.persistActiveChat(ev.Chat.ID)
	}
}

func (e *Engine) handleUsernameChangeResult(ev *protocol.UsernameChangeResult) {
	if ev.Status != protocol.StatusSuccess {
		e.reportFailure("change_username", ev.Status)
		return
	}
	e.store.Apply(func(s *state.Session) {
		if s.User == nil {
			return
		}
		u := *s.User
		u.Username = ev.Data.NewUsername
		s.User = &u
	})
}

func (e *Engine) handleNameChangeResult(ev *protocol.NameChangeResult) {
	if ev.Status != protocol.StatusSuccess {
		e.reportFailure("change_name", ev.Status)
		return
	}
	e.store.Apply(func(s *state.Session) {
		if s.User == nil {
			return
		}
		u := *s.User
		u.Name = ev.Data.NewName
		s.User = &u
	})
}

func (e *Engine) handleNicknameChangeResult(ev *protocol.NicknameChangeResult) {
	if ev.Status != protocol.StatusSuccess {
		e.reportFailure("change_nickname", ev.Status)
		return
	}
	e.store.Apply(func(s *state.Session) {
		applyNicknameChange(s, ev.Data.ContactID, ev.Data.NewNickname)
	})
}

func (e *Engine) handleContactAddition(ev *protocol.ContactAddition) {
	if ev.Status != protocol.StatusSuccess {
		e.reportFailure("add_contact", ev.Status)
		return
	}
	e.store.Apply(func(s *state.Session) {
		applyContactAddition(s, ev.Data.Contact)
	})
}

func (e *Engine) handleContactDeletion(ev *protocol.ContactDeletion) {
	if ev.Status != protocol.StatusSuccess {
		e.reportFailure("delete_contact", ev.Status)
		return
	}
	e.store.Apply(func(s *state.Session) {
		applyContactDeletion(s, ev.Data.UserID)
	})
}

// handleChatMemberRemoved drops the member from the cached detail; when the
// removed member is the operator, the whole conversation is evicted.
func (e *Engine) handleChatMemberRemoved(ev *protocol.ChatMemberRemoved) {
	e.store.Apply(func(s *state.Session) {
		s.PatchDetail(ev.ChatID, func(c state.Chat) state.Chat {
			members := make([]state.Member, 0, len(c.Members))
			for _, m := range c.Members {
				if m.UserID != ev.UserID {
					members = append(members, m)
				}
			}
			c.Members = members
			return c
		})

		if ev.UserID == s.SelfID() {
			s.DropChat(ev.ChatID)
		}
	})
}

func (e *Engine) handleChatMembersAdded(ev *protocol.ChatMembersAdded) {
	members := make([]state.Member, len(ev.Members))
	copy(members, ev.Members)
	e.store.Apply(func(s *state.Session) {
		s.PatchDetail(ev.ChatID, func(c state.Chat) state.Chat {
			c.Members = members
			return c
		})
	})
}

func (e *Engine) handleChatAdded(ev *protocol.ChatAdded) {
	e.store.Apply(func(s *state.Session) {
		s.PrependSummary(ev.ChatItem)
	})
}

// handleChatForbidden evicts a conversation whose membership the server
// revoked. If it was active, the persisted pointer goes too.
func (e *Engine) handleChatForbidden(ev *protocol.ChatForbidden) {
	var wasActive bool
	e.store.Apply(func(s *state.Session) {
		wasActive = s.ActiveChatID == ev.ChatID
		s.DropChat(ev.ChatID)
	})
	if wasActive {
		e.forgetActiveChat()
	}
}

func (e *Engine) handleChatAdminChanged(ev *protocol.ChatAdminChanged) {
	e.store.Apply(func(s *state.Session) {
		s.PatchDetail(ev.ChatID, func(c state.Chat) state.Chat {
			members := make([]state.Member, len(c.Members))
			for i, m := range c.Members {
				if m.UserID == ev.NewAdminID {
					m.Role = state.RoleAdmin
				} else {
					m.Role = state.RoleMember
				}
				members[i] = m
			}
			c.Members = members
			return c
		})
	})
}

func (e *Engine) handleGroupNameChangeResult(ev *protocol.GroupNameChangeResult) {
	if ev.Status != protocol.StatusSuccess {
		e.reportFailure("change_group_name", ev.Status)
		return
	}
	e.store.Apply(func(s *state.Session) {
		s.PatchSummary(ev.ChatID, func(c state.ChatSummary) state.ChatSummary {
			c.Name = ev.NewName
			return c
		})
		s.PatchDetail(ev.ChatID, func(c state.Chat) state.Chat {
			c.Name = ev.NewName
			return c
		})
	})
}

func (e *Engine) handleGroupDescriptionChangeResult(ev *protocol.GroupDescriptionChangeResult) {
	if ev.Status != protocol.StatusSuccess {
		e.reportFailure("change_group_description", ev.Status)
		return
	}
	e.store.Apply(func(s *state.Session) {
		s.PatchSummary(ev.ChatID, func(c state.ChatSummary) state.ChatSummary {
			c.Description = ev.NewDescription
			return c
		})
		s.PatchDetail(ev.ChatID, func(c state.Chat) state.Chat {
			c.Description = ev.NewDescription
			return c
		})
	})
}

func (e *Engine) handleAdminGivenToMember(ev *protocol.AdminGivenToMember) {
	e.store.Apply(func(s *state.Session) {
		s.PatchDetail(ev.ChatID, func(c state.Chat) state.Chat {
			members := make([]state.Member, len(c.Members))
			for i, m := range c.Members {
				if m.UserID == ev.Member.UserID {
					m = ev.Member
				}
				members[i] = m
			}
			c.Members = members
			return c
		})
	})
}

func (e *Engine) handleGroupAvatarUpdated(ev *protocol.GroupAvatarUpdated) {
	e.store.Apply(func(s *state.Session) {
		s.PatchDetail(ev.ChatID, func(c state.Chat) state.Chat {
			c.AvatarURL = ev.AvatarURL
			return c
		})
		s.PatchSummary(ev.ChatID, func(c state.ChatSummary) state.ChatSummary {
			c.AvatarURL = ev.AvatarURL
			return c
		})
	})
}
