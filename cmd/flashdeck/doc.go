// Package main hosts the Flashdeck CLI entrypoint and command graph.
//
// The Cobra command tree serves the web front end and drives the same
// flashcard, auth, payment, and history packages from the terminal. Terminal
// sessions persist in a JSON file under the data directory so a login from one
// invocation carries over to the next.
//
// Keep this package lean: add behaviour to the internal packages first, then
// surface it through a command or flag here.
package main
