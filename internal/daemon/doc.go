// Package daemon coordinates the long-running subtrans process.
//
// It wires configuration, the statistics store, and the translation
// capability into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon owns the HTTP API: uploads come in as
// multipart forms, run through the translation pipeline under a shared
// concurrency gate, and leave as translated .srt attachments. Session rate
// limiting and optional bearer-token auth guard the surface.
//
// Keep orchestration logic here: parsing, chunking, and translation live in
// their respective packages while the daemon focuses on startup, shutdown,
// and request handling.
package daemon
