package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"charla/internal/state"
	"charla/internal/timefmt"
)

// ConversationList is the left-hand table of conversations, newest first.
type ConversationList struct {
	*tview.Table
	chats []state.ChatSummary
}

// NewConversationList creates the conversation table.
func NewConversationList() *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Conversations ")

	return &ConversationList{Table: table}
}

// Update refreshes the table from the current summaries.
func (cl *ConversationList) Update(chats []state.ChatSummary) {
	cl.chats = chats
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" Name").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 2, tview.NewTableCell(" When").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	now := time.Now()
	for i, chat := range chats {
		row := i + 1
		name := chat.Name
		if chat.Type == state.ChatGroup {
			name = "# " + name
		}
		if chat.Unread > 0 {
			name = fmt.Sprintf("* %s (%d)", name, chat.Unread)
		}

		preview, when := "", ""
		if lm := chat.LastMessage; lm != nil {
			preview = previewText(lm)
			when = timefmt.ChatTime(lm.Time, now)
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+name).SetMaxWidth(30).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(" "+preview).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(row, 2, tview.NewTableCell(" "+when).SetMaxWidth(14))
	}
}

// SelectedChat returns the id of the selected conversation, or "".
func (cl *ConversationList) SelectedChat() string {
	row, _ := cl.GetSelection()
	idx := row - 1 // header row
	if idx >= 0 && idx < len(cl.chats) {
		return cl.chats[idx].ID
	}
	return ""
}

func previewText(lm *state.LastMessage) string {
	text := lm.Content
	if lm.Format != "" && lm.Format != "text" {
		text = "[" + lm.Format + "] " + lm.Filename
	}
	if lm.Direction == state.Outgoing {
		text = stateTick(lm.State) + " " + text
	}
	return text
}

func stateTick(s state.MessageState) string {
	switch s {
	case state.StateDelivered:
		return "✓✓"
	case state.StateRead:
		return "✓✓*"
	default:
		return "✓"
	}
}
