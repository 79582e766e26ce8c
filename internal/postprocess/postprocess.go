// Package postprocess normalises text read back from the correction surface
// before it is written into the document.
package postprocess

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean normalises corrected text in three phases and returns the trimmed
// result:
//  1. Unicode NFC normalisation
//  2. Invisible and non-breaking space replacement
//  3. Line ending and trailing whitespace cleanup
func Clean(text string) string {
	text = norm.NFC.String(text)
	text = replaceSpaces(text)
	text = cleanLines(text)
	return strings.TrimSpace(text)
}

// --- Phase 2: spaces ---

var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u202f", " ", // narrow no-break space
	"\u2007", " ", // figure space
	"\u200b", "", // zero width space
	"\u2060", "", // word joiner
	"\ufeff", "", // byte order mark
)

func replaceSpaces(text string) string {
	return spaceReplacer.Replace(text)
}

// --- Phase 3: lines ---

var trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)

// cleanLines converts CRLF and CR line endings to LF and strips whitespace
// at the end of each line.
func cleanLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return trailingSpaceRe.ReplaceAllString(text, "\n")
}
