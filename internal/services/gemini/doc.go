// Package gemini provides the Gemini generateContent client backing live
// translation.
//
// This package is used by:
//   - Translation pipeline: chunk translation and context detection
//
// # Request Shape
//
// Chunk translation sends the cues of one chunk as a numbered batch in JSON
// mode with a response schema demanding a translated_line_N string for every
// submitted cue. Context detection sends a sample of the file's opening lines
// and expects {"context": "..."}.
//
// # Configuration
//
// Requires api_key plus fast/normal model names; base_url and timeout are
// optional. Speed mode picks the model per request.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Translate / Client.DetectContext: the translate.Capability surface.
//
// # Retry Behaviour
//
// The client never retries on its own; the translation orchestrator owns the
// attempt loop. Failures are classified instead: HTTP 408/429/5xx, network
// timeouts, and malformed payloads are tagged transient so the orchestrator
// retries them, while other HTTP errors fail the attempt loop immediately.
// A Retry-After header on a transient failure is attached as a suggested
// delay for the orchestrator's backoff to honour.
package gemini
