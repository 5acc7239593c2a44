package engine

import "charla/internal/state"

// Cascading identity updates. Conversation names, group member nicknames and
// message sender names all denormalize contact identity, so a roster change
// has to walk every cached conversation that references the contact and
// rewrite the stale fields in the same transaction.

// applyNicknameChange renames a contact everywhere: the roster, the open
// person panel, the title of the private conversation with them, and in every
// group they belong to both their membership nickname and the sender name of
// their messages.
func applyNicknameChange(s *state.Session, contactID, nickname string) {
	patchRoster(s, contactID, func(p state.Person) state.Person {
		info := state.ContactInfo{}
		if p.ContactInfo != nil {
			info = *p.ContactInfo
		}
		info.Nickname = nickname
		p.ContactInfo = &info
		return p
	})
	patchPersonPanel(s, contactID, func(p state.Person) state.Person {
		info := state.ContactInfo{}
		if p.ContactInfo != nil {
			info = *p.ContactInfo
		}
		info.Nickname = nickname
		p.ContactInfo = &info
		return p
	})

	if chat := s.PrivateChatWith(contactID); chat != nil {
		retitlePrivateChat(s, chat.ID, nickname, nil)
	}

	forEachGroupWith(s, contactID, func(chatID string) {
		s.PatchDetail(chatID, func(c state.Chat) state.Chat {
			c.Messages = rewriteSenderName(c.Messages, contactID, nickname)
			c.Members = patchMember(c.Members, contactID, func(m state.Member) state.Member {
				m.Nickname = nickname
				return m
			})
			return c
		})
	})
}

// applyContactAddition prepends the new roster entry and, when a private
// conversation with the person already exists, retitles it to the nickname
// the server assigned (falling back to the real name).
func applyContactAddition(s *state.Session, contact state.Person) {
	s.Contacts = append([]state.Person{contact}, s.Contacts...)

	patchPersonPanel(s, contact.ID, func(p state.Person) state.Person {
		p.ContactInfo = contact.ContactInfo
		return p
	})

	nickname := contact.Name
	if contact.ContactInfo != nil && contact.ContactInfo.Nickname != "" {
		nickname = contact.ContactInfo.Nickname
	}

	if chat := s.PrivateChatWith(contact.ID); chat != nil {
		retitlePrivateChat(s, chat.ID, nickname, func(m state.Member) state.Member {
			m.Nickname = nickname
			return m
		})
	}
}

// applyContactDeletion removes the roster entry and undoes the nickname
// denormalization: group messages fall back to the person's real name and the
// private conversation reverts to its member's real name with the nickname
// cleared.
func applyContactDeletion(s *state.Session, contactID string) {
	contacts := make([]state.Person, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		if c.ID != contactID {
			contacts = append(contacts, c)
		}
	}
	s.Contacts = contacts

	patchPersonPanel(s, contactID, func(p state.Person) state.Person {
		p.ContactInfo = nil
		return p
	})

	forEachGroupWith(s, contactID, func(chatID string) {
		s.PatchDetail(chatID, func(c state.Chat) state.Chat {
			var real string
			for _, m := range c.Members {
				if m.UserID == contactID {
					real = m.Name
					if real == "" {
						real = m.Username
					}
					break
				}
			}
			c.Messages = rewriteSenderName(c.Messages, contactID, real)
			return c
		})
	})

	if chat := s.PrivateChatWith(contactID); chat != nil {
		var real string
		for _, m := range chat.Members {
			if m.UserID == contactID {
				real = m.Name
				break
			}
		}
		retitlePrivateChat(s, chat.ID, real, func(m state.Member) state.Member {
			m.Nickname = ""
			return m
		})
	}
}

// retitlePrivateChat renames a private conversation in both the detail cache
// and the summary list, optionally patching the other member's record in the
// same pass.
func retitlePrivateChat(s *state.Session, chatID, name string, memberFn func(state.Member) state.Member) {
	self := s.SelfID()
	s.PatchDetail(chatID, func(c state.Chat) state.Chat {
		c.Name = name
		if memberFn != nil {
			members := make([]state.Member, len(c.Members))
			for i, m := range c.Members {
				if m.UserID != self {
					m = memberFn(m)
				}
				members[i] = m
			}
			c.Members = members
		}
		return c
	})
	s.PatchSummary(chatID, func(c state.ChatSummary) state.ChatSummary {
		c.Name = name
		return c
	})
}

// forEachGroupWith calls fn for every cached group that has the user as a
// member.
func forEachGroupWith(s *state.Session, userID string, fn func(chatID string)) {
	for chatID, chat := range s.Details {
		if chat.Type != state.ChatGroup || !chat.HasMember(userID) {
			continue
		}
		fn(chatID)
	}
}

// rewriteSenderName returns a copy of msgs with the sender name of every
// message authored by userID replaced.
func rewriteSenderName(msgs []state.Message, userID, name string) []state.Message {
	out := make([]state.Message, len(msgs))
	for i, m := range msgs {
		if m.UserID == userID {
			m.SenderName = name
		}
		out[i] = m
	}
	return out
}

// patchMember returns a copy of members with fn applied to the one matching
// userID.
func patchMember(members []state.Member, userID string, fn func(state.Member) state.Member) []state.Member {
	out := make([]state.Member, len(members))
	for i, m := range members {
		if m.UserID == userID {
			m = fn(m)
		}
		out[i] = m
	}
	return out
}

// patchRoster applies fn to the roster entry with the given id, replacing the
// slice wholesale.
func patchRoster(s *state.Session, personID string, fn func(state.Person) state.Person) {
	out := make([]state.Person, len(s.Contacts))
	for i, p := range s.Contacts {
		if p.ID == personID {
			p = fn(p)
		}
		out[i] = p
	}
	s.Contacts = out
}

// patchPersonPanel applies fn to the open person panel if it shows personID.
func patchPersonPanel(s *state.Session, personID string, fn func(state.Person) state.Person) {
	if s.PersonInfo == nil || s.PersonInfo.ID != personID {
		return
	}
	p := fn(*s.PersonInfo)
	s.PersonInfo = &p
}
