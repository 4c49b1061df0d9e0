package flashcards

import "sync"

// Board is the rendered card container for one user context: the notes
// textarea, the visible cards, the loading indicator, and the latest toast.
type Board struct {
	mu       sync.Mutex
	notes    string
	language string
	cards    []Card
	loading  bool
	notice   Notice
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Render replaces the visible cards, preserving order.
func (b *Board) Render(cards []Card) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cards = cloneCards(cards)
}

// Cards returns a copy of the visible cards.
func (b *Board) Cards() []Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneCards(b.cards)
}

// Len reports how many cards are visible.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cards)
}

func (b *Board) Notes() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notes
}

func (b *Board) SetNotes(notes string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notes = notes
}

// Language returns the last study language submitted on this board.
func (b *Board) Language() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.language
}

func (b *Board) SetLanguage(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.language = code
}

// Clear empties the cards and the notes.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cards = nil
	b.notes = ""
}

// Loading reports whether a generation is in flight.
func (b *Board) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Notice returns the latest toast.
func (b *Board) Notice() Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice
}

// TakeNotice returns the latest toast and clears it, so a page render shows
// each toast once.
func (b *Board) TakeNotice() Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.notice
	b.notice = Notice{}
	return n
}

// SetNotice replaces the latest toast.
func (b *Board) SetNotice(n Notice) {
	b.setNotice(n)
}

func (b *Board) setNotice(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = n
}

// begin flips the board into loading and empties the container. It reports
// false when a generation is already running.
func (b *Board) begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loading {
		return false
	}
	b.loading = true
	b.cards = nil
	return true
}

func (b *Board) end() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
}
