package placeholder_test

import (
	"strings"
	"testing"

	"github.com/valpere/autocorrect/internal/placeholder"
)

func TestProtect_NoMarkup(t *testing.T) {
	text := "Das ist ein einfacher Satz."
	got, markers := placeholder.Protect(text)
	if got != text {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if len(markers) != 0 {
		t.Errorf("expected 0 markers, got %d", len(markers))
	}
}

func TestProtect_InlineMath(t *testing.T) {
	text := "Sei $x^2 + y^2 = r^2$ und \\(a < b\\) gegeben."
	got, markers := placeholder.Protect(text)

	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d: %v", len(markers), markers)
	}
	if strings.Contains(got, "$") || strings.Contains(got, `\(`) {
		t.Errorf("math still present in %q", got)
	}
}

func TestProtect_Commands(t *testing.T) {
	text := "Wie in \\cite[S.~3]{knuth84} gezeigt, siehe Abschnitt~\\ref{sec:intro}."
	got, markers := placeholder.Protect(text)

	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d: %v", len(markers), markers)
	}
	if got != "Wie in [PH0] gezeigt, siehe Abschnitt~[PH1]." {
		t.Errorf("unexpected protected text %q", got)
	}
}

func TestProtect_EscapedDollarIsNotMath(t *testing.T) {
	text := `Kostet 5\$ und 7\$ pro Stück.`
	got, markers := placeholder.Protect(text)

	if len(markers) != 2 {
		t.Fatalf("expected 2 escape markers, got %d: %v", len(markers), markers)
	}
	if !strings.Contains(got, " und ") {
		t.Errorf("text between escaped dollars was swallowed: %q", got)
	}
}

func TestProtect_Nested(t *testing.T) {
	text := `Ein \textbf{sehr \emph{wichtiger}} Punkt.`
	got, markers := placeholder.Protect(text)

	if strings.Contains(got, `\`) {
		t.Errorf("command left in %q", got)
	}
	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d: %v", len(markers), markers)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	for _, original := range []string{
		"Sei $x$ gegeben, vgl. \\cite{a} und 10\\,\\% mehr.",
		`Ein \textbf{sehr \emph{wichtiger}} Punkt mit \LaTeX.`,
		`Formel \[ E = mc^2 \] im Text.`,
	} {
		protected, markers := placeholder.Protect(original)
		restored := placeholder.Restore(protected, markers)
		if restored != original {
			t.Errorf("round-trip failed:\n  original: %q\n  restored: %q", original, restored)
		}
	}
}

func TestRestore_CorrectedTextAround(t *testing.T) {
	protected, markers := placeholder.Protect("Das ergebniss $x$ ist gut")
	corrected := strings.Replace(protected, "ergebniss", "Ergebnis", 1) + "."

	if got := placeholder.Restore(corrected, markers); got != "Das Ergebnis $x$ ist gut." {
		t.Errorf("unexpected restore %q", got)
	}
}

func TestRestore_OutOfRangeIndexIgnored(t *testing.T) {
	restored := placeholder.Restore("[PH99] Text", []string{"$x$"})
	if !strings.Contains(restored, "[PH99]") {
		t.Errorf("expected [PH99] to remain, got %q", restored)
	}
}

func TestValidate_AllPresent(t *testing.T) {
	missing := placeholder.Validate("[PH0] und [PH1]", []string{"$a$", "$b$"})
	if len(missing) != 0 {
		t.Errorf("expected no missing, got %v", missing)
	}
}

func TestValidate_SomeMissing(t *testing.T) {
	missing := placeholder.Validate("[PH0] Text", []string{"$a$", "$b$", "$c$"})
	if len(missing) != 2 || missing[0] != 1 || missing[1] != 2 {
		t.Errorf("expected missing [1 2], got %v", missing)
	}
}

func TestValidate_NestedMarkersNotRequired(t *testing.T) {
	protected, markers := placeholder.Protect(`\textbf{\emph{x}}`)
	if missing := placeholder.Validate(protected, markers); len(missing) != 0 {
		t.Errorf("nested marker reported missing: %v (protected %q, markers %v)", missing, protected, markers)
	}
}
