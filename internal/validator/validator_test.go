package validator

import (
	"testing"

	"golang.org/x/text/language"
)

// shared detector; building one is slow
var v = New(nil)

func TestIsValid_UndeterminedLanguage(t *testing.T) {
	valid, err := v.IsValid("Some corrected text", language.Und)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for undetermined language")
	}
}

func TestIsValid_Empty(t *testing.T) {
	for _, text := range []string{"", "   "} {
		valid, err := v.IsValid(text, language.German)
		if err == nil {
			t.Errorf("expected error for %q", text)
		}
		if valid {
			t.Errorf("expected valid=false for %q", text)
		}
	}
}

func TestIsValid_ShortText(t *testing.T) {
	valid, err := v.IsValid("Hi", language.German)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for short text (below threshold)")
	}
}

func TestIsValid_GermanToGerman(t *testing.T) {
	text := "Die vorgeschlagene Methode verbessert die Genauigkeit der Messungen deutlich."
	valid, err := v.IsValid(text, language.German)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected German text to validate as German")
	}
}

func TestIsValid_RegionIgnored(t *testing.T) {
	text := "Die vorgeschlagene Methode verbessert die Genauigkeit der Messungen deutlich."
	valid, err := v.IsValid(text, language.MustParse("de-CH"))
	if err != nil || !valid {
		t.Errorf("expected de-CH to accept German text, got %v, %v", valid, err)
	}
}

func TestIsValid_Drift(t *testing.T) {
	text := "The proposed method clearly improves the accuracy of the measurements."
	valid, err := v.IsValid(text, language.German)
	if err == nil {
		t.Error("expected error for English text checked as German")
	}
	if valid {
		t.Error("expected valid=false for language drift")
	}
}
