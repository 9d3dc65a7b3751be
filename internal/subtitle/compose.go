package subtitle

import (
	"bytes"
	"strconv"
)

// Compose serializes chunks back into SRT bytes in original block order.
// Each block emits its translation when one was written and falls back to the
// original content otherwise; index and timing are passed through unchanged.
func Compose(chunks []Chunk) []byte {
	var buf bytes.Buffer
	for _, chunk := range chunks {
		for _, block := range chunk {
			writeBlock(&buf, block)
		}
	}
	return buf.Bytes()
}

// ComposeBlocks serializes a flat block sequence, used where chunk grouping
// is not in play.
func ComposeBlocks(blocks []*Block) []byte {
	var buf bytes.Buffer
	for _, block := range blocks {
		writeBlock(&buf, block)
	}
	return buf.Bytes()
}

func writeBlock(buf *bytes.Buffer, block *Block) {
	if block == nil {
		return
	}
	buf.WriteString(strconv.Itoa(block.Index))
	buf.WriteByte('\n')
	buf.WriteString(FormatTimestamp(block.Start))
	buf.WriteString(" --> ")
	buf.WriteString(FormatTimestamp(block.End))
	buf.WriteByte('\n')
	buf.WriteString(block.OutputContent())
	buf.WriteString("\n\n")
}
