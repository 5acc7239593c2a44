// Package keys maps terminal key events to named actions, scoped per page.
package keys

import "github.com/gdamore/tcell/v2"

// Binding ties one key (or rune) to a handler.
type Binding struct {
	Key  tcell.Key
	Rune rune
	Hint string
	Do   func()
}

// Matches reports whether ev triggers this binding.
func (b *Binding) Matches(ev *tcell.EventKey) bool {
	if b.Key != tcell.KeyRune {
		return ev.Key() == b.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == b.Rune
}

// Registry holds bindings, global plus per-page.
type Registry struct {
	global []*Binding
	pages  map[string][]*Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[string][]*Binding)}
}

// Global registers a binding active on every page.
func (r *Registry) Global(b *Binding) {
	r.global = append(r.global, b)
}

// Page registers a binding active only on one page.
func (r *Registry) Page(page string, b *Binding) {
	r.pages[page] = append(r.pages[page], b)
}

// Hints returns the help strings for a page, page-specific first.
func (r *Registry) Hints(page string) []string {
	var hints []string
	for _, b := range r.pages[page] {
		if b.Hint != "" {
			hints = append(hints, b.Hint)
		}
	}
	for _, b := range r.global {
		if b.Hint != "" {
			hints = append(hints, b.Hint)
		}
	}
	return hints
}

// Handle dispatches ev against the page's bindings, then the global ones.
// Returns true when a binding fired.
func (r *Registry) Handle(page string, ev *tcell.EventKey) bool {
	for _, b := range r.pages[page] {
		if b.Matches(ev) {
			b.Do()
			return true
		}
	}
	for _, b := range r.global {
		if b.Matches(ev) {
			b.Do()
			return true
		}
	}
	return false
}
