package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"charla/internal/state"
	"charla/internal/timefmt"
)

// Thread renders the message sequence of the active conversation.
type Thread struct {
	*tview.TextView
}

// NewThread creates the message pane.
func NewThread() *Thread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")
	return &Thread{TextView: tv}
}

// Update rerenders the pane from a conversation detail. A nil chat clears it.
func (t *Thread) Update(chat *state.Chat, selfID string) {
	t.Clear()
	if chat == nil {
		t.SetTitle(" Messages ")
		return
	}
	t.SetTitle(" " + chat.Name + " ")

	now := time.Now()
	lastDay := ""
	for _, m := range chat.Messages {
		if day := timefmt.DayLabel(m.Time, now); day != lastDay {
			fmt.Fprintf(t, "[gray]        ── %s ──[-]\n", day)
			lastDay = day
		}
		t.writeMessage(chat, m, selfID, now)
	}
	t.ScrollToEnd()
}

func (t *Thread) writeMessage(chat *state.Chat, m state.Message, selfID string, now time.Time) {
	clock := ""
	if ts, err := time.Parse(time.RFC3339, m.Time); err == nil {
		clock = ts.Local().Format("15:04")
	}

	body := m.Content
	if m.Format != "" && m.Format != "text" {
		body = "[" + m.Format + "] " + m.Filename
	}

	if m.UserID == selfID {
		tick := ""
		if chat.Type == state.ChatPrivate {
			tick = " [gray]" + stateTick(m.State) + "[-]"
		}
		fmt.Fprintf(t, "[green]%s you:[-] %s%s\n", clock, tview.Escape(body), tick)
		return
	}

	sender := m.SenderName
	if sender == "" {
		sender = m.UserID
	}
	fmt.Fprintf(t, "[yellow]%s %s:[-] %s\n", clock, tview.Escape(sender), tview.Escape(body))
}
