// Package exportsink stores exported flashcard files outside the browser
// download: in a local directory for the CLI, or in an S3 bucket when
// [exports] archive settings are configured.
package exportsink
