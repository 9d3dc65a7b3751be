// Package preflight provides readiness checks for the filesystem paths and
// the Gemini API that subtrans depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs each result, refusing to
//     start when a directory check fails.
//   - The CLI "subtrans status" command displays them as service health.
//
// The Gemini check is advisory: a missing key is reported but does not stop
// the daemon, since mock-mode requests work without credentials.
package preflight
