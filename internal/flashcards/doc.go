// Package flashcards owns the study board: the notes a user typed, the cards
// currently rendered, and the toast shown after each action.
//
// Controller.Generate asks a Generator (normally the backend client) for
// cards. Failures never leave the board empty: the demo deck is rendered with
// an error notice naming the cause. Export encodes exactly what is rendered,
// as indented JSON or a paginated PDF, and can archive the result through a
// Sink. Successful decks are handed to a Recorder for history.
package flashcards
