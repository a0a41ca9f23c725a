// Package notify delivers verification codes and reset links to account holders.
//
// The engine composes plain-text messages and hands them to a [Notifier].
// [LogNotifier] suits development, [SMTPNotifier] sends mail through
// net/smtp, [Func] adapts a function, and [Recorder] captures messages for
// tests.
//
// # What this package must NOT do
//
//   - Decide whether a message may be sent; throttling belongs to the engine.
//   - Retry deliveries. A failed Send is reported to the caller once.
package notify
