// Package memdoc provides an in-memory document host.
//
// It implements the driven.DocumentHost port over a plain text buffer with
// paragraph breaks on newlines. It is the host used by the CLI for plain-text
// files and by tests; the docx host embeds it for its text operations.
package memdoc
