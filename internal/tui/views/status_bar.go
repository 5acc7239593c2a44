package views

import (
	"fmt"

	"github.com/rivo/tview"
)

// StatusBar is the bottom line: session, connection state, theme and a
// transient flash for failures.
type StatusBar struct {
	*tview.TextView
	session   string
	connected bool
	theme     string
	flash     string
}

// NewStatusBar creates the status bar.
func NewStatusBar(session string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, session: session}
	sb.render()
	return sb
}

// SetConnected updates the connection indicator.
func (sb *StatusBar) SetConnected(connected bool) {
	sb.connected = connected
	sb.render()
}

// SetTheme updates the theme display.
func (sb *StatusBar) SetTheme(theme string) {
	sb.theme = theme
	sb.render()
}

// SetFlash shows a transient message; empty clears it.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	conn := "[red]offline[-]"
	if sb.connected {
		conn = "[green]online[-]"
	}

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s", sb.session, conn, sb.theme)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
