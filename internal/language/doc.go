// Package language normalizes the study language a user picks for flashcard
// generation.
//
// The picker offers a fixed set of languages. Requests may name one by ISO
// 639-1/639-2 code, by a BCP 47 tag, or by word; everything is reduced to the
// ISO 639-1 code sent to the backend.
package language
