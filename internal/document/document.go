// Package document splits a LaTeX source into the regions around the
// correction sentinels and joins the corrected pieces back into a document.
package document

import "strings"

const (
	// StartMarker opens the region that is sent for correction.
	StartMarker = "%CORRECT_START"
	// EndMarker closes it.
	EndMarker = "%CORRECT_END"
)

// Regions holds the three parts of a document. Preamble and Trailer are
// byte-exact slices of the source. The sentinel lines belong to none of them.
type Regions struct {
	Preamble string
	Working  string
	Trailer  string

	// HasWorking reports whether the start sentinel was found.
	HasWorking bool
	// Closed reports whether an end sentinel followed the start sentinel.
	Closed bool
	// Newline is the dominant line terminator of the source, "\n" or
	// "\r\n".
	Newline string
}

// Split scans text line by line. Everything before the first start sentinel
// is preamble, everything after the first end sentinel that follows it is
// trailer. Without a start sentinel the whole text is preamble; without an
// end sentinel the working region runs to the end of the text.
func Split(text string) Regions {
	var (
		r        Regions
		preamble strings.Builder
		working  strings.Builder
		trailer  strings.Builder
		crlf, lf int
	)

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasSuffix(line, "\r\n"):
			crlf++
		case strings.HasSuffix(line, "\n"):
			lf++
		}
		content := strings.TrimRight(line, "\r\n")

		switch {
		case !r.HasWorking:
			if content == StartMarker {
				r.HasWorking = true
				continue
			}
			preamble.WriteString(line)
		case !r.Closed:
			if content == EndMarker {
				r.Closed = true
				continue
			}
			working.WriteString(line)
		default:
			trailer.WriteString(line)
		}
	}

	r.Preamble = preamble.String()
	r.Working = working.String()
	r.Trailer = trailer.String()
	r.Newline = "\n"
	if crlf > lf {
		r.Newline = "\r\n"
	}
	return r
}

// Lines returns the lines of a region without their terminators.
func Lines(region string) []string {
	if region == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(region, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Reassemble writes the preamble, then every piece followed by a line
// terminator in the given order, then the trailer. The trailer always comes
// last. Line ends inside pieces and after them use r.Newline, so a CRLF
// document stays CRLF throughout.
func (r Regions) Reassemble(pieces []string) string {
	nl := r.Newline
	if nl == "" {
		nl = "\n"
	}

	var b strings.Builder
	b.WriteString(r.Preamble)
	for _, p := range pieces {
		if nl != "\n" {
			p = strings.ReplaceAll(strings.ReplaceAll(p, "\r\n", "\n"), "\n", nl)
		}
		b.WriteString(p)
		b.WriteString(nl)
	}
	b.WriteString(r.Trailer)
	return b.String()
}
