// Package deepl implements the correction surface on top of the DeepL Write
// web page, driven through a WebDriver session.
package deepl

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/valpere/autocorrect/internal/webdriver"
)

const (
	PasteClipboard = "clipboard"
	PasteKeys      = "keys"
)

// Config locates the page elements of the surface.
type Config struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	InputSelector  string        `mapstructure:"input_selector" yaml:"input_selector"`
	OutputSelector string        `mapstructure:"output_selector" yaml:"output_selector"`
	SetupSelectors []string      `mapstructure:"setup_selectors" yaml:"setup_selectors"`
	SetupDelay     time.Duration `mapstructure:"setup_delay" yaml:"setup_delay"`
	PasteMode      string        `mapstructure:"paste_mode" yaml:"paste_mode"`
	ConfirmKey     string        `mapstructure:"confirm_key" yaml:"confirm_key"`
}

func DefaultConfig() Config {
	return Config{
		URL:            "https://www.deepl.com/write",
		InputSelector:  ".min-h-0 > div:nth-child(1)",
		OutputSelector: `.last\:grow > div:nth-child(1)`,
		SetupSelectors: []string{
			"#headlessui-listbox-button-28",
			"#headlessui-listbox-option-32",
		},
		SetupDelay: 500 * time.Millisecond,
		PasteMode:  PasteClipboard,
		ConfirmKey: "b",
	}
}

// scriptTimeout bounds how long the page may wait for the confirmation keys.
const scriptTimeout = 24 * time.Hour

// selectAllPause separates select-all from the paste.
const selectAllPause = 100 * time.Millisecond

// confirmScript resolves once Ctrl+<key> is pressed on the page.
const confirmScript = `
const done = arguments[arguments.length - 1];
const key = %q;
const listener = e => {
	if (e.key !== key || !e.ctrlKey) return;
	window.removeEventListener("keydown", listener);
	done(true);
};
window.addEventListener("keydown", listener);
`

// Surface is an oracle surface backed by a browser tab.
type Surface struct {
	session *webdriver.Session
	cfg     Config
	logger  *zap.Logger

	writeClipboard func(string) error
}

// Open navigates the session to the page and applies the setup clicks.
func Open(ctx context.Context, session *webdriver.Session, cfg Config, logger *zap.Logger) (*Surface, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.InputSelector == "" {
		cfg.InputSelector = def.InputSelector
	}
	if cfg.OutputSelector == "" {
		cfg.OutputSelector = def.OutputSelector
	}
	if cfg.PasteMode == "" {
		cfg.PasteMode = def.PasteMode
	}
	if cfg.ConfirmKey == "" {
		cfg.ConfirmKey = def.ConfirmKey
	}
	switch cfg.PasteMode {
	case PasteClipboard, PasteKeys:
	default:
		return nil, fmt.Errorf("unknown paste mode %q", cfg.PasteMode)
	}

	s := &Surface{
		session:        session,
		cfg:            cfg,
		logger:         logger,
		writeClipboard: clipboard.WriteAll,
	}

	logger.Info("Opening correction page", zap.String("url", cfg.URL))
	if err := session.Navigate(ctx, cfg.URL); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.URL, err)
	}
	if err := session.SetScriptTimeout(ctx, scriptTimeout); err != nil {
		return nil, fmt.Errorf("failed to set script timeout: %w", err)
	}
	for _, sel := range cfg.SetupSelectors {
		el, err := session.FindElement(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
		if err := el.Click(ctx); err != nil {
			return nil, fmt.Errorf("setup: click %q: %w", sel, err)
		}
		logger.Debug("Clicked setup element", zap.String("selector", sel))
		if err := sleep(ctx, cfg.SetupDelay); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ReplaceInput selects the whole input and replaces it with text.
func (s *Surface) ReplaceInput(ctx context.Context, text string) error {
	input, err := s.session.FindElement(ctx, s.cfg.InputSelector)
	if err != nil {
		return err
	}

	if s.cfg.PasteMode == PasteClipboard {
		if err := s.writeClipboard(text); err != nil {
			return fmt.Errorf("failed to set clipboard: %w", err)
		}
	}
	if err := input.SendKeys(ctx, webdriver.KeyControl+"a"); err != nil {
		return fmt.Errorf("select input: %w", err)
	}
	if err := sleep(ctx, selectAllPause); err != nil {
		return err
	}

	keys := text
	if s.cfg.PasteMode == PasteClipboard {
		keys = webdriver.KeyControl + "v"
	}
	if err := input.SendKeys(ctx, keys); err != nil {
		return fmt.Errorf("fill input: %w", err)
	}
	return nil
}

func (s *Surface) ReadOutput(ctx context.Context) (string, error) {
	output, err := s.session.FindElement(ctx, s.cfg.OutputSelector)
	if err != nil {
		return "", err
	}
	return output.Text(ctx)
}

// AwaitConfirmation blocks until Ctrl+<ConfirmKey> is pressed in the page.
func (s *Surface) AwaitConfirmation(ctx context.Context) error {
	s.logger.Info("Waiting for approval", zap.String("keys", "Ctrl+"+s.cfg.ConfirmKey))
	if _, err := s.session.ExecuteAsync(ctx, fmt.Sprintf(confirmScript, s.cfg.ConfirmKey)); err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	return nil
}

// Close closes the tab and ends the session.
func (s *Surface) Close(ctx context.Context) error {
	return multierr.Combine(
		s.session.CloseWindow(ctx),
		s.session.Delete(ctx),
	)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
