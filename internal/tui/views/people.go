package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"charla/internal/state"
	"charla/internal/timefmt"
)

// PeopleList shows either the contact roster or a search result set; the two
// share a layout so the panel stack can swap between them.
type PeopleList struct {
	*tview.Table
	people []state.Person
}

// NewPeopleList creates an empty people table.
func NewPeopleList(title string) *PeopleList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" " + title + " ")

	return &PeopleList{Table: table}
}

// Update refreshes the table.
func (pl *PeopleList) Update(people []state.Person) {
	pl.people = people
	pl.Clear()

	for i, p := range people {
		label := p.DisplayName()
		if p.ContactInfo == nil {
			label += " [gray](not a contact)[-]"
		}
		pl.SetCell(i, 0, tview.NewTableCell(" "+label).SetExpansion(1))
		pl.SetCell(i, 1, tview.NewTableCell(" @"+p.Username))
	}
}

// SelectedPerson returns the selected entry, or nil.
func (pl *PeopleList) SelectedPerson() *state.Person {
	row, _ := pl.GetSelection()
	if row >= 0 && row < len(pl.people) {
		p := pl.people[row]
		return &p
	}
	return nil
}

// PersonPanel shows one profile: identity, last-seen, contact overlay.
type PersonPanel struct {
	*tview.TextView
}

// NewPersonPanel creates the profile pane.
func NewPersonPanel() *PersonPanel {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBorder(true).SetTitle(" Person ")
	return &PersonPanel{TextView: tv}
}

// Update rerenders the pane. A nil person clears it.
func (pp *PersonPanel) Update(p *state.Person) {
	pp.Clear()
	if p == nil {
		return
	}

	now := time.Now()
	fmt.Fprintf(pp, " [::b]%s[-:-:-]\n @%s\n", tview.Escape(p.DisplayName()), tview.Escape(p.Username))
	if p.Name != "" {
		fmt.Fprintf(pp, " name: %s\n", tview.Escape(p.Name))
	}
	if p.LastSeenAt != "" {
		fmt.Fprintf(pp, " last seen %s\n", timefmt.ChatTime(p.LastSeenAt, now))
	}
	if p.ContactInfo != nil {
		if p.ContactInfo.Nickname != "" {
			fmt.Fprintf(pp, " nickname: %s\n", tview.Escape(p.ContactInfo.Nickname))
		}
		if p.ContactInfo.AddedAt != "" {
			fmt.Fprintf(pp, " contact %s\n", timefmt.AddedTime(p.ContactInfo.AddedAt, now))
		}
	} else {
		fmt.Fprint(pp, " [gray]not a contact[-]\n")
	}
}

// SearchInput is the query field above the search results.
type SearchInput struct {
	*tview.InputField
	onQuery func(input string)
}

// NewSearchInput creates the query field.
func NewSearchInput() *SearchInput {
	input := tview.NewInputField().
		SetLabel(" search: ").
		SetFieldWidth(0)

	si := &SearchInput{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && si.onQuery != nil {
			if q := si.GetText(); q != "" {
				si.onQuery(q)
			}
		}
	})

	return si
}

// SetOnQuery sets the callback invoked with the query text.
func (si *SearchInput) SetOnQuery(fn func(input string)) {
	si.onQuery = fn
}
