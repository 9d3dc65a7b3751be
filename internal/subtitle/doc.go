// Package subtitle provides the SRT block model, the parser and chunker that
// turn raw subtitle text into bounded chunks, and the reassembler that
// serializes blocks back into SRT output.
package subtitle
