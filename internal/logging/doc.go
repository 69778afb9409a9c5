// Package logging provides concrete implementations of the pgload.Logger interface.
//
// Available implementations:
//   - FileLogger: Appends "[timestamp] message" lines to a status log file
//   - ConsoleLogger: Writes formatted messages to stderr with thread-safe output
//   - MultiLogger: Fans every message out to several loggers
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
