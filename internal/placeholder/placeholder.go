// Package placeholder protects inline LaTeX markup (math, commands, escaped
// characters) inside free text while it is corrected, by replacing it with
// numbered markers ([PH0], [PH1], …) the correction service leaves alone.
// After correction, Restore substitutes the markers back.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// \( ... \) and \[ ... \] on one line
	reParenMath   = regexp.MustCompile(`\\\(.*?\\\)`)
	reBracketMath = regexp.MustCompile(`\\\[.*?\\\]`)

	// escaped specials and spacing commands: \% \$ \& \# \_ \{ \} \, \; \! \  \\
	reEscape = regexp.MustCompile(`\\[%$&#_{},;! \\]`)

	// $ ... $ (escaped dollars are already protected)
	reDollarMath = regexp.MustCompile(`\$[^$]+\$`)

	// command with one optional and one mandatory argument, innermost first
	reCommandArg = regexp.MustCompile(`\\[a-zA-Z]+\*?(?:\[[^\]]*\])?\{[^{}]*\}`)

	// argument-less command
	reCommand = regexp.MustCompile(`\\[a-zA-Z]+\*?`)

	// placeholder reference in corrected text
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// maxNesting bounds the passes over nested command arguments.
const maxNesting = 8

// Protect replaces inline markup with numbered placeholders [PH0], [PH1], …
// It returns the modified text and the captured originals so Restore can put
// them back. A captured original may itself contain placeholders when
// commands are nested.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	text = reParenMath.ReplaceAllStringFunc(text, replace)
	text = reBracketMath.ReplaceAllStringFunc(text, replace)
	text = reEscape.ReplaceAllStringFunc(text, replace)
	text = reDollarMath.ReplaceAllStringFunc(text, replace)
	for i := 0; i < maxNesting && reCommandArg.MatchString(text); i++ {
		text = reCommandArg.ReplaceAllStringFunc(text, replace)
	}
	text = reCommand.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// Restore substitutes [PHn] markers in text back with the originals captured
// by Protect, including markers nested inside restored originals. Markers
// missing from the corrected text are ignored; unrecognised indices leave the
// placeholder as-is.
func Restore(text string, markers []string) string {
	for i := 0; i <= len(markers); i++ {
		next := rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
			sub := rePlaceholder.FindStringSubmatch(match)
			idx, err := strconv.Atoi(sub[1])
			if err != nil || idx >= len(markers) {
				return match
			}
			return markers[idx]
		})
		if next == text {
			break
		}
		text = next
	}
	return text
}

// Validate checks whether the top-level markers created by Protect are still
// present in the corrected text. It returns the missing indices.
func Validate(text string, markers []string) []int {
	nested := make(map[int]bool)
	for _, m := range markers {
		for _, sub := range rePlaceholder.FindAllStringSubmatch(m, -1) {
			if idx, err := strconv.Atoi(sub[1]); err == nil {
				nested[idx] = true
			}
		}
	}

	var missing []int
	for i := range markers {
		if nested[i] {
			continue
		}
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
