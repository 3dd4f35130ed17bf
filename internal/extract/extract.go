// Package extract recovers transaction containers from register export files.
//
// Export files are not well-formed documents: the register appends <DAT>
// fragments without a common root and may leave arbitrary noise between them.
// Blocks matches each <DAT ...>...</DAT> span non-greedily, across lines.
package extract

import (
	"iter"
	"regexp"
)

var containerRe = regexp.MustCompile(`(?s)<DAT\b.*?</DAT>`)

// RawBlock is one container span of a source file.
type RawBlock struct {
	Index  int    // zero-based position of the block in its file
	Offset int    // byte offset of the block in the file content
	Text   string // the container markup, start and end tags included
}

// Blocks yields the containers of content in file order.
// A file without containers yields nothing.
func Blocks(content string) iter.Seq[RawBlock] {
	return func(yield func(RawBlock) bool) {
		pos, idx := 0, 0
		for pos < len(content) {
			loc := containerRe.FindStringIndex(content[pos:])
			if loc == nil {
				return
			}
			start, end := pos+loc[0], pos+loc[1]
			if !yield(RawBlock{Index: idx, Offset: start, Text: content[start:end]}) {
				return
			}
			idx++
			pos = end
		}
	}
}
