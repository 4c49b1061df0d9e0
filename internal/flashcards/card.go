package flashcards

import "time"

// Card is one question/answer pair as rendered on the board.
type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Deck is a generated set of cards together with the notes that produced it.
type Deck struct {
	ID        string
	Owner     string
	Language  string
	Notes     string
	Cards     []Card
	CreatedAt time.Time
}

var fallbackCards = []Card{
	{Question: "What is the capital of France?", Answer: "Paris"},
	{Question: "What is the largest planet in our solar system?", Answer: "Jupiter"},
	{Question: "Who wrote 'Romeo and Juliet'?", Answer: "William Shakespeare"},
}

// FallbackCards returns the demo deck shown when generation fails.
func FallbackCards() []Card {
	return cloneCards(fallbackCards)
}

func cloneCards(cards []Card) []Card {
	if len(cards) == 0 {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
