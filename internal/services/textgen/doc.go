// Package textgen wraps the Anthropic Messages API behind a small
// JSON-completion interface used by the topic, research, and writing stages.
//
// The client retries throttling, timeout, and server errors with bounded
// exponential backoff; validation and authentication failures surface
// immediately. Consumers depend on the TextGenerator interface so tests can
// substitute canned responses.
package textgen
