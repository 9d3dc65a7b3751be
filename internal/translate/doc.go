// Package translate implements the chunked concurrent translation pipeline:
// context detection over a sample of the input, bounded-concurrency dispatch
// of one translation call per chunk with per-chunk retry and isolation, and
// aggregation of retry statistics. The external language model is consumed
// through the Capability interface so the pipeline can run against the real
// backend or a deterministic mock.
package translate
