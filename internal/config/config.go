// Package config loads the settings of a correction run.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// AUTOCORRECT_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/valpere/autocorrect/internal/chunker"
	"github.com/valpere/autocorrect/internal/deepl"
	"github.com/valpere/autocorrect/internal/oracle"
	"github.com/valpere/autocorrect/internal/webdriver"
)

const (
	EnvPrefix   = "AUTOCORRECT"
	DefaultName = "autocorrect"

	ConfirmBrowser  = "browser"
	ConfirmTerminal = "terminal"

	LanguageAuto = "auto"
)

type Config struct {
	Output        string                 `mapstructure:"output" yaml:"output"`
	Batch         BatchConfig            `mapstructure:"batch" yaml:"batch"`
	Oracle        oracle.Config          `mapstructure:"oracle" yaml:"oracle"`
	DeepL         deepl.Config           `mapstructure:"deepl" yaml:"deepl"`
	Confirm       ConfirmConfig          `mapstructure:"confirm" yaml:"confirm"`
	Driver        webdriver.DriverConfig `mapstructure:"driver" yaml:"driver"`
	Segmenter     SegmenterConfig        `mapstructure:"segmenter" yaml:"segmenter"`
	Cache         CacheConfig            `mapstructure:"cache" yaml:"cache"`
	ProtectInline bool                   `mapstructure:"protect_inline" yaml:"protect_inline"`
	// Postprocess normalises spaces and line ends of accepted corrections.
	// Off by default.
	Postprocess   bool                   `mapstructure:"postprocess" yaml:"postprocess"`
	Log           LogConfig              `mapstructure:"log" yaml:"log"`
}

type BatchConfig struct {
	MaxChars int `mapstructure:"max_chars" yaml:"max_chars"`
}

type ConfirmConfig struct {
	// Mode is "browser" (Ctrl+key in the page) or "terminal".
	Mode string `mapstructure:"mode" yaml:"mode"`
}

type SegmenterConfig struct {
	// Language is a BCP 47 tag, or "auto" to detect it per chunk.
	Language string `mapstructure:"language" yaml:"language"`
}

type CacheConfig struct {
	// Path of the correction memory database. Empty disables it.
	Path string `mapstructure:"path" yaml:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

func Default() Config {
	return Config{
		Output: "corrected.tex",
		Batch:  BatchConfig{MaxChars: chunker.DefaultMaxChars},
		Oracle: oracle.Config{
			PollInterval: oracle.DefaultPollInterval,
			MaxSamples:   oracle.DefaultMaxSamples,
		},
		DeepL:   deepl.DefaultConfig(),
		Confirm: ConfirmConfig{Mode: ConfirmBrowser},
		Driver: webdriver.DriverConfig{
			Path:           "geckodriver",
			Port:           4444,
			Browser:        "firefox",
			StartupTimeout: 10 * time.Second,
		},
		Segmenter: SegmenterConfig{Language: "de"},
		Cache:     CacheConfig{Path: ""},
		Log:       LogConfig{Level: "info"},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"output":         "output",
	"max-chars":      "batch.max_chars",
	"confirm":        "confirm.mode",
	"paste":          "deepl.paste_mode",
	"language":       "segmenter.language",
	"cache":          "cache.path",
	"protect-inline": "protect_inline",
	"postprocess":    "postprocess",
	"log-level":      "log.level",
	"browser":        "driver.browser",
	"driver":         "driver.path",
	"port":           "driver.port",
}

// Load reads the configuration. path may be empty, in which case
// ./autocorrect.yaml is used when present. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("output", d.Output)
	v.SetDefault("batch.max_chars", d.Batch.MaxChars)
	v.SetDefault("oracle.poll_interval", d.Oracle.PollInterval)
	v.SetDefault("oracle.max_samples", d.Oracle.MaxSamples)
	v.SetDefault("deepl.url", d.DeepL.URL)
	v.SetDefault("deepl.input_selector", d.DeepL.InputSelector)
	v.SetDefault("deepl.output_selector", d.DeepL.OutputSelector)
	v.SetDefault("deepl.setup_selectors", d.DeepL.SetupSelectors)
	v.SetDefault("deepl.setup_delay", d.DeepL.SetupDelay)
	v.SetDefault("deepl.paste_mode", d.DeepL.PasteMode)
	v.SetDefault("deepl.confirm_key", d.DeepL.ConfirmKey)
	v.SetDefault("confirm.mode", d.Confirm.Mode)
	v.SetDefault("driver.path", d.Driver.Path)
	v.SetDefault("driver.port", d.Driver.Port)
	v.SetDefault("driver.browser", d.Driver.Browser)
	v.SetDefault("driver.startup_timeout", d.Driver.StartupTimeout)
	v.SetDefault("segmenter.language", d.Segmenter.Language)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("protect_inline", d.ProtectInline)
	v.SetDefault("postprocess", d.Postprocess)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Batch.MaxChars <= 0 {
		return fmt.Errorf("batch.max_chars must be positive, got %d", c.Batch.MaxChars)
	}
	if c.Oracle.PollInterval <= 0 {
		return fmt.Errorf("oracle.poll_interval must be positive, got %s", c.Oracle.PollInterval)
	}
	if c.Oracle.MaxSamples <= 0 {
		return fmt.Errorf("oracle.max_samples must be positive, got %d", c.Oracle.MaxSamples)
	}
	switch c.Confirm.Mode {
	case ConfirmBrowser, ConfirmTerminal:
	default:
		return fmt.Errorf("unknown confirm.mode %q (want %s or %s)", c.Confirm.Mode, ConfirmBrowser, ConfirmTerminal)
	}
	switch c.DeepL.PasteMode {
	case deepl.PasteClipboard, deepl.PasteKeys:
	default:
		return fmt.Errorf("unknown deepl.paste_mode %q (want %s or %s)", c.DeepL.PasteMode, deepl.PasteClipboard, deepl.PasteKeys)
	}
	if c.DeepL.ConfirmKey == "" {
		return errors.New("deepl.confirm_key is empty")
	}
	if c.Segmenter.Language != LanguageAuto {
		if _, err := language.Parse(c.Segmenter.Language); err != nil {
			return fmt.Errorf("invalid segmenter.language %q: %w", c.Segmenter.Language, err)
		}
	}
	if c.Driver.Port <= 0 || c.Driver.Port > 65535 {
		return fmt.Errorf("invalid driver.port %d", c.Driver.Port)
	}
	if c.Driver.Path == "" {
		return errors.New("driver.path is empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

// Language returns the configured segmenter language and whether it should
// be detected from the text instead.
func (c *Config) Language() (language.Tag, bool) {
	if c.Segmenter.Language == LanguageAuto {
		return language.Und, true
	}
	return language.Make(c.Segmenter.Language), false
}

// WriteDefault writes the default configuration as YAML. An existing file is
// left untouched.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
