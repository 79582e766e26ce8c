package latex

import "strings"

// Kind distinguishes verbatim lines from correctable text.
type Kind int

const (
	KindPreserved Kind = iota
	KindChunk
)

func (k Kind) String() string {
	if k == KindChunk {
		return "chunk"
	}
	return "preserved"
}

// Segment is one unit of the working region in document order. For
// KindPreserved, Text is a single line without its newline. For KindChunk,
// Text is the run of free-text lines, each terminated by a newline.
type Segment struct {
	Kind Kind
	Text string
}

// Segments folds Step over lines. Consecutive free-text lines are gathered
// into one chunk; a preserved line closes the pending chunk before it is
// emitted itself. A chunk still pending after the last line is emitted too,
// so free text at the end of the working region is corrected as well.
func Segments(lines []string) []Segment {
	var (
		stack   Stack
		pending strings.Builder
		out     []Segment
	)

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		out = append(out, Segment{Kind: KindChunk, Text: pending.String()})
		pending.Reset()
	}

	for _, line := range lines {
		var class Class
		stack, class = Step(stack, line)

		if class == Preserved {
			flush()
			out = append(out, Segment{Kind: KindPreserved, Text: line})
			continue
		}
		pending.WriteString(line)
		pending.WriteByte('\n')
	}
	flush()

	return out
}
