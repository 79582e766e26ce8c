package detector

import (
	lingua "github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// DefaultLanguages are the languages considered when none are given.
var DefaultLanguages = []lingua.Language{
	lingua.German,
	lingua.English,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Dutch,
	lingua.Portuguese,
	lingua.Polish,
}

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector for langs, or DefaultLanguages when langs is empty.
func New(langs ...lingua.Language) *Detector {
	if len(langs) < 2 {
		langs = DefaultLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// DetectTag returns the detected language as a BCP 47 tag.
func (d *Detector) DetectTag(text string) (language.Tag, bool) {
	iso, ok := d.DetectISO(text)
	if !ok {
		return language.Und, false
	}
	tag, err := language.Parse(iso)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
