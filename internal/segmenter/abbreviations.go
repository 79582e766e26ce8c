package segmenter

import "golang.org/x/text/language"

// Seed lists are lower case and carry no trailing period.
var (
	englishAbbreviations = []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "vs", "etc", "e.g", "i.e",
		"inc", "ltd", "co", "corp", "cf", "al", "approx", "resp", "viz",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"st", "rd", "ave", "blvd",
		"no", "vol", "pp", "pg", "fig", "figs", "eq", "eqs", "sec", "ch", "ref", "refs",
	}

	germanAbbreviations = []string{
		"z.b", "d.h", "u.a", "u.u", "o.ä", "u.ä", "s.o", "s.u", "i.d.r", "z.t",
		"usw", "bzw", "vgl", "ca", "evtl", "ggf", "bspw", "sog", "inkl", "zzgl", "exkl",
		"abb", "tab", "kap", "nr", "s", "bd", "hrsg", "aufl", "jh", "jhd", "mio", "mrd",
		"dr", "prof", "dipl", "ing", "str", "geb", "gest",
		"jan", "feb", "apr", "aug", "sept", "okt", "nov", "dez",
		"etc", "e.g", "i.e", "cf", "al", "vs",
	}
)

func seedAbbreviations(lang language.Tag) []string {
	base, _ := lang.Base()
	switch base.String() {
	case "de":
		return germanAbbreviations
	default:
		return englishAbbreviations
	}
}
