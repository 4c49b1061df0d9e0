// Package logs tails Flashdeck log files for `flashdeck logs`.
//
// A Reader remembers its byte offset so repeated reads only return lines
// appended since the previous call, and it starts over when the file is
// truncated or replaced. Filter narrows output to one component or level for
// both the console and JSON log formats.
package logs
