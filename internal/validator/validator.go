// Package validator checks that corrected text is still in the language of
// its source.
package validator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/autocorrect/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator checks that corrected text is written in the expected language.
// The underlying language detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by det, or by a new detector when det is nil.
func New(det *detector.Detector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// IsValid returns true when text appears to be written in lang.
//
// An undetermined lang, short texts (fewer than minValidationLength runes)
// and texts whose language cannot be determined pass without error. When the
// detected language differs from lang the returned error names both.
func (v *Validator) IsValid(text string, lang language.Tag) (bool, error) {
	if lang == language.Und {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("corrected text is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectTag(text)
	if !ok {
		// Ambiguous language, cannot validate.
		return true, nil
	}

	want, _ := lang.Base()
	got, _ := detected.Base()
	if want != got {
		return false, fmt.Errorf("expected %s but detected %s", want, got)
	}

	return true, nil
}
