// Package timefmt renders message and roster timestamps the way the UI shows
// them: relative within the last day, weekday within the last week, full date
// beyond that.
package timefmt

import (
	"strconv"
	"time"
)

// ChatTime renders a conversation-list timestamp relative to now.
func ChatTime(stamp string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}

	diff := now.Sub(t)
	days := int(diff.Hours() / 24)

	switch {
	case days == 0:
		minutes := int(diff.Minutes())
		switch {
		case minutes < 1:
			return "now"
		case minutes < 60:
			return strconv.Itoa(minutes) + " min ago"
		default:
			return strconv.Itoa(int(diff.Hours())) + " h ago"
		}
	case days == 1:
		return "yesterday"
	case days < 7:
		return t.Weekday().String()
	default:
		return t.Format("02/01/2006")
	}
}

// AddedTime renders a "contact since" timestamp for the person panel.
func AddedTime(stamp string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}

	diff := now.Sub(t)
	days := int(diff.Hours() / 24)

	switch {
	case days == 0:
		minutes := int(diff.Minutes())
		switch {
		case minutes < 1:
			return "just now"
		case minutes < 60:
			return strconv.Itoa(minutes) + " min ago"
		default:
			return strconv.Itoa(int(diff.Hours())) + " h ago"
		}
	case days == 1:
		return "yesterday"
	case days < 7:
		return "on " + t.Weekday().String()
	default:
		return "on " + t.Format("02/01/2006")
	}
}

// DayLabel renders the separator shown between messages of different days.
// Unlike ChatTime it compares calendar days, so the boundary moves at
// midnight rather than 24 hours after the message.
func DayLabel(stamp string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}

	t = t.In(now.Location())
	startOf := func(x time.Time) time.Time {
		return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, x.Location())
	}
	days := int(startOf(now).Sub(startOf(t)).Hours() / 24)

	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 7:
		return t.Weekday().String()
	default:
		return t.Format("02/01/2006")
	}
}
