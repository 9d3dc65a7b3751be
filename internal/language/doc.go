// Package language provides unified language code normalization and mapping.
//
// Target-language handling (ISO 639-1/2 codes, full word forms, display
// names) is consolidated here so the pipeline, the daemon, and the CLI agree
// on what a configured language name means.
package language
