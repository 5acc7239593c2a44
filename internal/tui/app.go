// Package tui is the terminal front end: a thin shell over the engine and
// state store that rerenders whenever the bus announces a change.
package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"charla/internal/bus"
	"charla/internal/engine"
	"charla/internal/state"
	"charla/internal/tui/keys"
	"charla/internal/tui/views"
)

const (
	pageChats    = "chats"
	pageChat     = "chat"
	pageContacts = "contacts"
	pageSearch   = "search"
	pagePerson   = "person"
)

// App is the TUI shell.
type App struct {
	app      *tview.Application
	pages    *tview.Pages
	engine   *engine.Engine
	store    *state.Store
	bus      *bus.Bus
	logger   *zap.Logger
	registry *keys.Registry

	convList  *views.ConversationList
	thread    *views.Thread
	composer  *views.Composer
	statusBar *views.StatusBar
	contacts  *views.PeopleList
	results   *views.PeopleList
	searchIn  *views.SearchInput
	person    *views.PersonPanel

	// stack is the page history; the last element is the front page.
	stack []string
}

// NewApp builds the shell and wires its callbacks. Run starts it.
func NewApp(e *engine.Engine, st *state.Store, b *bus.Bus, logger *zap.Logger, sessionName string) *App {
	a := &App{
		app:      tview.NewApplication(),
		pages:    tview.NewPages(),
		engine:   e,
		store:    st,
		bus:      b,
		logger:   logger,
		registry: keys.NewRegistry(),

		convList:  views.NewConversationList(),
		thread:    views.NewThread(),
		composer:  views.NewComposer(),
		statusBar: views.NewStatusBar(sessionName),
		contacts:  views.NewPeopleList("Contacts"),
		results:   views.NewPeopleList("Results"),
		searchIn:  views.NewSearchInput(),
		person:    views.NewPersonPanel(),

		stack: []string{pageChats},
	}

	a.statusBar.SetTheme(e.Theme())
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.Global(&keys.Binding{
		Rune: 'q', Key: tcell.KeyRune, Hint: "q:quit",
		Do: func() { a.app.Stop() },
	})
	a.registry.Global(&keys.Binding{
		Rune: 'c', Key: tcell.KeyRune, Hint: "c:contacts",
		Do: func() {
			a.engine.RequestContacts()
			a.pushPage(pageContacts, a.contacts)
		},
	})
	a.registry.Global(&keys.Binding{
		Rune: 's', Key: tcell.KeyRune, Hint: "s:search",
		Do: func() { a.pushPage(pageSearch, a.searchIn) },
	})
	a.registry.Global(&keys.Binding{
		Rune: 't', Key: tcell.KeyRune, Hint: "t:theme",
		Do: func() { a.toggleTheme() },
	})
	a.registry.Global(&keys.Binding{
		Rune: 'L', Key: tcell.KeyRune, Hint: "L:logout",
		Do: func() {
			a.engine.Logout()
			a.app.Stop()
		},
	})
	a.registry.Page(pageChat, &keys.Binding{
		Rune: 'p', Key: tcell.KeyRune, Hint: "p:person",
		Do: func() { a.showActivePeer() },
	})
	a.registry.Page(pageContacts, &keys.Binding{
		Rune: 'p', Key: tcell.KeyRune, Hint: "p:person",
		Do: func() { a.showPerson(a.contacts.SelectedPerson()) },
	})
	a.registry.Page(pageSearch, &keys.Binding{
		Rune: 'p', Key: tcell.KeyRune, Hint: "p:person",
		Do: func() { a.showPerson(a.results.SelectedPerson()) },
	})
}

func (a *App) setupCallbacks() {
	a.convList.SetSelectedFunc(func(row, col int) {
		if id := a.convList.SelectedChat(); id != "" {
			a.engine.OpenChat(id)
			a.pushPage(pageChat, a.composer)
		}
	})

	a.composer.SetOnSend(func(text string) {
		s := a.store.Snapshot()
		if s.PendingPeer != nil {
			a.engine.SendPendingMessage(text, "text")
			return
		}
		if s.ActiveChatID != "" {
			a.engine.SendMessage(s.ActiveChatID, text, "text")
		}
	})

	a.contacts.SetSelectedFunc(func(row, col int) {
		a.openWith(a.contacts.SelectedPerson())
	})
	a.results.SetSelectedFunc(func(row, col int) {
		a.openWith(a.results.SelectedPerson())
	})

	a.searchIn.SetOnQuery(func(input string) {
		a.engine.SearchPeople(input)
	})
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	searchFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.searchIn, 1, 0, true).
		AddItem(a.results, 0, 1, false)

	a.pages.AddPage(pageChats, a.convList, true, true)
	a.pages.AddPage(pageChat, chatFlex, true, false)
	a.pages.AddPage(pageContacts, a.contacts, true, false)
	a.pages.AddPage(pageSearch, searchFlex, true, false)
	a.pages.AddPage(pagePerson, a.person, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		page := a.currentPage()

		if event.Key() == tcell.KeyEscape && page != pageChats {
			a.popPage()
			return nil
		}

		// Text inputs consume their own keys.
		if focused := a.app.GetFocus(); focused != nil {
			if _, ok := focused.(*tview.InputField); ok {
				return event
			}
		}

		if page == pageChat && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.composer.InputField)
			return nil
		}

		if a.registry.Handle(page, event) {
			return nil
		}
		return event
	})
}

// Run subscribes to the bus and blocks in the terminal event loop.
func (a *App) Run() error {
	events, unsub := a.bus.Subscribe("", 64)
	defer unsub()

	go func() {
		for evt := range events {
			a.consume(evt)
		}
	}()

	a.refreshAll()
	return a.app.Run()
}

// Stop tears the terminal down.
func (a *App) Stop() {
	a.app.Stop()
}

func (a *App) consume(evt bus.Event) {
	switch evt.Kind {
	case bus.KindStateUpdated:
		a.app.QueueUpdateDraw(a.refreshAll)
	case bus.KindStateReset:
		a.app.QueueUpdateDraw(func() {
			a.stack = []string{pageChats}
			a.pages.SwitchToPage(pageChats)
			a.refreshAll()
		})
	case bus.KindConnOpen:
		a.app.QueueUpdateDraw(func() { a.statusBar.SetConnected(true) })
	case bus.KindConnClosed:
		a.app.QueueUpdateDraw(func() { a.statusBar.SetConnected(false) })
	case bus.KindThemeChanged:
		theme, _ := evt.Payload.(string)
		a.app.QueueUpdateDraw(func() { a.statusBar.SetTheme(theme) })
	case bus.KindActionFailed:
		failure, ok := evt.Payload.(engine.ActionFailure)
		if !ok {
			return
		}
		a.flash(fmt.Sprintf("%s failed: %s", failure.Action, failure.Status))
	}
}

func (a *App) refreshAll() {
	s := a.store.Snapshot()
	a.convList.Update(s.Chats)
	a.contacts.Update(s.Contacts)
	a.results.Update(s.SearchResults)
	a.person.Update(s.PersonInfo)

	switch {
	case s.PendingPeer != nil:
		a.thread.Update(&state.Chat{
			Type: state.ChatPrivate,
			Name: s.PendingPeer.DisplayName(),
		}, s.SelfID())
	case s.ActiveChatID != "":
		a.thread.Update(s.Detail(s.ActiveChatID), s.SelfID())
	default:
		a.thread.Update(nil, "")
	}
}

func (a *App) flash(msg string) {
	a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash(msg) })
	time.AfterFunc(5*time.Second, func() {
		a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash("") })
	})
}

// openWith opens the conversation with a person, pending when none exists yet.
func (a *App) openWith(p *state.Person) {
	if p == nil {
		return
	}
	s := a.store.Snapshot()
	if chat := s.PrivateChatWith(p.ID); chat != nil {
		a.engine.OpenChat(chat.ID)
	} else {
		a.engine.OpenPendingChat(*p)
	}
	a.pushPage(pageChat, a.composer)
}

func (a *App) showPerson(p *state.Person) {
	if p == nil {
		return
	}
	a.engine.GetPersonInfo(p.ID)
	a.pushPage(pagePerson, a.person)
}

// showActivePeer opens the profile of the other member of the active private
// conversation.
func (a *App) showActivePeer() {
	s := a.store.Snapshot()
	chat := s.Detail(s.ActiveChatID)
	if chat == nil || chat.Type != state.ChatPrivate {
		return
	}
	if other := chat.OtherMember(s.SelfID()); other != nil {
		a.engine.GetPersonInfo(other.UserID)
		a.pushPage(pagePerson, a.person)
	}
}

func (a *App) toggleTheme() {
	next := "light"
	if a.engine.Theme() == "light" {
		next = "dark"
	}
	a.engine.SetTheme(next)
}

func (a *App) currentPage() string {
	return a.stack[len(a.stack)-1]
}

// pushPage switches to a page, remembering where we came from.
func (a *App) pushPage(page string, focus tview.Primitive) {
	if a.currentPage() != page {
		a.stack = append(a.stack, page)
	}
	a.pages.SwitchToPage(page)
	if focus != nil {
		a.app.SetFocus(focus)
	}
}

// popPage returns to the previous page; leaving the person panel closes it.
func (a *App) popPage() {
	leaving := a.currentPage()
	if len(a.stack) > 1 {
		a.stack = a.stack[:len(a.stack)-1]
	}
	if leaving == pagePerson {
		a.engine.ClearPersonInfo()
	}
	if leaving == pageSearch {
		a.engine.ClearSearchResults()
	}

	page := a.currentPage()
	a.pages.SwitchToPage(page)
	if page == pageChats {
		a.app.SetFocus(a.convList)
	}
}
