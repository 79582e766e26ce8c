// Package chunker packs sentences into batches that fit the input limit of
// the correction service. Sentences are never split, reordered, duplicated
// or dropped.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the input limit of the correction service in unicode
// code points.
const DefaultMaxChars = 2000

// Batch greedily joins sentences with single spaces into batches of at most
// maxChars code points, counting the joining space. A sentence that alone
// exceeds maxChars becomes its own batch. If maxChars ≤ 0 it is treated as
// unlimited and a single batch is returned.
func Batch(sentences []string, maxChars int) []string {
	var (
		batches []string
		cur     strings.Builder
		curLen  int
		open    bool
	)

	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if open && maxChars > 0 && curLen+1+n > maxChars {
			batches = append(batches, cur.String())
			cur.Reset()
			curLen = 0
			open = false
		}
		if open {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(s)
		curLen += n
		open = true
	}

	if open {
		batches = append(batches, cur.String())
	}
	return batches
}

// Len returns the size of a batch as Batch measures it.
func Len(batch string) int {
	return utf8.RuneCountInString(batch)
}
