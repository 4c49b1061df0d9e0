// Package web serves the Flashdeck browser front end: the marketing page,
// the flashcard app page, the form and payment handlers behind them, and
// the embedded static assets.
//
// Every browser is identified by the flashdeck_sid cookie. The id selects a
// namespace in the session database (token, user, dark mode, pending
// registration) and an in-memory flashcard board. Pages are rendered on the
// server from html/template; the bundled script only adds presentation
// (card flip, menus, modals, scroll effects) and the payment status poll.
package web
