// Package latex classifies the lines of the working region into lines that
// must be kept verbatim and runs of free text that may be corrected.
//
// Only marker-level heuristics are applied: a line that starts with a
// comment or command marker is kept, and so is every line inside a
// \begin{...}/\end{...} block. No LaTeX grammar is parsed.
package latex

import "strings"

const (
	commentMarker = "%"
	commandMarker = `\`
	beginToken    = `\begin{`
	endToken      = `\end{`
)

// Class is the classification of a single line.
type Class int

const (
	FreeText Class = iota
	Preserved
)

func (c Class) String() string {
	if c == Preserved {
		return "preserved"
	}
	return "free-text"
}

// Stack is the environment nesting state. It is a value: Push and Remove
// return a new stack and never modify the receiver.
type Stack []string

// Depth returns the number of open environments.
func (s Stack) Depth() int { return len(s) }

// Push returns s with name appended on top.
func (s Stack) Push(name string) Stack {
	out := make(Stack, len(s), len(s)+1)
	copy(out, s)
	return append(out, name)
}

// Remove returns s without the first entry equal to name, scanning from the
// bottom. An unknown name leaves the stack unchanged.
//
// Matching by value rather than top-of-stack tolerates mismatched nesting
// such as \begin{a}\begin{b}\end{a}, at the cost of accepting it silently.
func (s Stack) Remove(name string) Stack {
	for i, e := range s {
		if e == name {
			out := make(Stack, 0, len(s)-1)
			out = append(out, s[:i]...)
			return append(out, s[i+1:]...)
		}
	}
	return s
}

// BeginName reports the environment opened by line, if it starts with
// \begin{. The name runs from the first '{' to the following '}'.
func BeginName(line string) (string, bool) {
	if !strings.HasPrefix(line, beginToken) {
		return "", false
	}
	return blockName(line), true
}

// EndName reports the environment closed by line, if it starts with \end{.
func EndName(line string) (string, bool) {
	if !strings.HasPrefix(line, endToken) {
		return "", false
	}
	return blockName(line), true
}

func blockName(line string) string {
	open := strings.Index(line, "{")
	rest := line[open+1:]
	if end := strings.Index(rest, "}"); end >= 0 {
		return rest[:end]
	}
	return rest
}

// Step applies the begin/end token of line to s and classifies the line
// against the resulting stack.
func Step(s Stack, line string) (Stack, Class) {
	if name, ok := BeginName(line); ok {
		s = s.Push(name)
	}
	if name, ok := EndName(line); ok {
		s = s.Remove(name)
	}

	if strings.HasPrefix(line, commentMarker) ||
		strings.HasPrefix(line, commandMarker) ||
		s.Depth() > 0 {
		return s, Preserved
	}
	return s, FreeText
}
