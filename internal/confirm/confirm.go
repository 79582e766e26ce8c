// Package confirm replaces the in-page confirmation signal with a terminal
// prompt. The stabilized output is shown in the terminal and the human
// accepts it with Enter or Ctrl+B.
package confirm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/valpere/autocorrect/internal/oracle"
)

// previewLines caps the preview height.
const previewLines = 20

type keyMap struct {
	Accept key.Binding
	Abort  key.Binding
}

var keys = keyMap{
	Accept: key.NewBinding(
		key.WithKeys("enter", "ctrl+b"),
		key.WithHelp("enter/ctrl+b", "accept"),
	),
	Abort: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("ctrl+c/esc", "abort run"),
	),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

type model struct {
	text     string
	width    int
	accepted bool
	aborted  bool
}

func newModel(text string) model {
	return model{text: text, width: 80}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Accept):
			m.accepted = true
			return m, tea.Quit
		case key.Matches(msg, keys.Abort):
			m.aborted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.accepted || m.aborted {
		return ""
	}
	lines := strings.Split(m.text, "\n")
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], fmt.Sprintf("… (%d more lines)", len(lines)-previewLines))
	}
	width := max(20, m.width-4)
	body := boxStyle.Width(width).Render(strings.Join(lines, "\n"))
	hint := hintStyle.Render(keys.Accept.Help().Key + " " + keys.Accept.Help().Desc +
		" • " + keys.Abort.Help().Key + " " + keys.Abort.Help().Desc)
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Corrected batch"), body, hint) + "\n"
}

// Gate is an oracle surface whose confirmation comes from the terminal.
// Input and output are delegated to the wrapped surface.
type Gate struct {
	oracle.Surface

	in  io.Reader
	out io.Writer
}

type Option func(*Gate)

// WithIO sets the terminal streams. The defaults are stdin and stderr.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(g *Gate) {
		g.in = in
		g.out = out
	}
}

func New(surface oracle.Surface, opts ...Option) *Gate {
	g := &Gate{Surface: surface, in: os.Stdin, out: os.Stderr}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AwaitConfirmation shows the current output and blocks until it is accepted.
// It returns oracle.ErrConfirmationAborted when the human aborts.
func (g *Gate) AwaitConfirmation(ctx context.Context) error {
	text, err := g.Surface.ReadOutput(ctx)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newModel(text),
		tea.WithContext(ctx),
		tea.WithInput(g.in),
		tea.WithOutput(g.out),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("confirmation prompt: %w", err)
	}
	if m, ok := final.(model); ok && m.accepted {
		return nil
	}
	return oracle.ErrConfirmationAborted
}
