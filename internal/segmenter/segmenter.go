// Package segmenter splits a chunk of prose into sentences.
//
// Boundaries are found in the style of the Punkt algorithm: a model is first
// trained on the chunk itself, learning which period-terminated word types
// behave like abbreviations, and is then used to tokenize that same chunk.
// No external corpus is involved, so identical input always yields identical
// sentences.
package segmenter

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// maxLearnedLen is the longest word type that training accepts as an
// abbreviation without an internal period.
const maxLearnedLen = 4

// Model holds the abbreviation types used to reject candidate boundaries.
type Model struct {
	lang    language.Tag
	abbrevs map[string]struct{}
	learned int
}

type typeStats struct {
	withPeriod  int
	without     int
	beforeLower int
}

// Train builds a model for text. The seed abbreviations of lang are extended
// with types learned from text: word types with internal periods ("u.s.")
// and short types that only ever occur with a trailing period and are
// followed by a lower-case word at least once.
func Train(text string, lang language.Tag) *Model {
	m := &Model{lang: lang, abbrevs: make(map[string]struct{})}
	for _, a := range seedAbbreviations(lang) {
		m.abbrevs[a] = struct{}{}
	}

	counts := make(map[string]*typeStats)
	stats := func(typ string) *typeStats {
		st, ok := counts[typ]
		if !ok {
			st = &typeStats{}
			counts[typ] = st
		}
		return st
	}

	fields := strings.Fields(text)
	for i, f := range fields {
		core := strings.TrimRightFunc(strings.TrimLeftFunc(f, isOpener), isTrailingMark)
		if core == "" {
			continue
		}

		if strings.HasSuffix(core, ".") && !strings.HasSuffix(core, "..") {
			typ := strings.ToLower(strings.TrimSuffix(core, "."))
			if !isWordType(typ) {
				continue
			}
			st := stats(typ)
			st.withPeriod++
			if i+1 < len(fields) && startsLower(fields[i+1]) {
				st.beforeLower++
			}
			continue
		}

		typ := strings.ToLower(strings.TrimRight(core, ".!?"))
		if isWordType(typ) {
			stats(typ).without++
		}
	}

	for typ, st := range counts {
		if st.withPeriod == 0 {
			continue
		}
		if _, known := m.abbrevs[typ]; known {
			continue
		}
		learn := strings.Contains(typ, ".") ||
			(st.without == 0 && st.beforeLower > 0 && utf8.RuneCountInString(typ) <= maxLearnedLen)
		if learn {
			m.abbrevs[typ] = struct{}{}
			m.learned++
		}
	}

	return m
}

// Split trains a model on text and tokenizes it.
func Split(text string, lang language.Tag) []string {
	return Train(text, lang).Tokenize(text)
}

// Language returns the language the model was seeded for.
func (m *Model) Language() language.Tag { return m.lang }

// Learned returns the number of abbreviation types learned from the
// training text.
func (m *Model) Learned() int { return m.learned }

// IsAbbreviation reports whether word (without its trailing period) is a
// known or learned abbreviation.
func (m *Model) IsAbbreviation(word string) bool {
	_, ok := m.abbrevs[strings.ToLower(word)]
	return ok
}

// Abbreviations returns all abbreviation types, sorted.
func (m *Model) Abbreviations() []string {
	out := make([]string, 0, len(m.abbrevs))
	for a := range m.abbrevs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Tokenize splits text into sentences. Each sentence is trimmed; the
// whitespace between two sentences is dropped, so joining the sentences with
// single spaces reproduces the words of text in order.
func (m *Model) Tokenize(text string) []string {
	runes := []rune(text)
	var (
		out   []string
		start int
	)

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && (isTerminal(runes[end]) || isCloser(runes[end])) {
			end++
		}
		if m.isBoundary(runes, i, end) {
			if s := strings.TrimSpace(string(runes[start:end])); s != "" {
				out = append(out, s)
			}
			start = end
		}
		i = end - 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// isBoundary decides whether the punctuation run runes[i:end] ends a
// sentence.
func (m *Model) isBoundary(runes []rune, i, end int) bool {
	k := end
	if k < len(runes) && !unicode.IsSpace(runes[k]) {
		return false
	}
	for k < len(runes) && unicode.IsSpace(runes[k]) {
		k++
	}
	if k == len(runes) {
		return true
	}
	if !startsSentence(runes[k]) {
		return false
	}

	// A lone period may belong to the word before it.
	if runes[i] == '.' && (i+1 >= len(runes) || !isTerminal(runes[i+1])) {
		word := wordBefore(runes, i)
		if isInitial(word) || m.IsAbbreviation(word) {
			return false
		}
	}
	return true
}

func wordBefore(runes []rune, i int) string {
	j := i
	for j > 0 && (unicode.IsLetter(runes[j-1]) || runes[j-1] == '.') {
		j--
	}
	return string(runes[j:i])
}

// isInitial matches a single upper-case letter such as the "J" in "J. Doe".
func isInitial(word string) bool {
	r, size := utf8.DecodeRuneInString(word)
	return size > 0 && size == len(word) && unicode.IsUpper(r)
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	switch r {
	case ')', ']', '}', '"', '\'', '’', '”', '»', '“':
		return true
	}
	return false
}

func isOpener(r rune) bool {
	switch r {
	case '(', '[', '{', '"', '\'', '`', '‘', '“', '„', '«':
		return true
	}
	return false
}

// isTrailingMark matches closing brackets, quotes and clause punctuation that
// may follow a word; the period itself is kept.
func isTrailingMark(r rune) bool {
	return isCloser(r) || r == ',' || r == ';' || r == ':'
}

func startsSentence(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsDigit(r) || isOpener(r) || r == '\\'
}

func startsLower(field string) bool {
	for _, r := range field {
		if isOpener(r) {
			continue
		}
		return unicode.IsLower(r)
	}
	return false
}

// isWordType accepts letters with optional inner periods, e.g. "etc", "z.b".
func isWordType(typ string) bool {
	if typ == "" || strings.HasPrefix(typ, ".") || strings.HasSuffix(typ, ".") {
		return false
	}
	for _, r := range typ {
		if !unicode.IsLetter(r) && r != '.' {
			return false
		}
	}
	return true
}
