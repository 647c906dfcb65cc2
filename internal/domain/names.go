package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// countryAliases maps each canonical country name to the codes and spellings
// seen across source datasets. The allow-list in config selects a subset.
var countryAliases = map[string][]string{
	"France":   {"FR", "FRA", "République française", "Γαλλία"},
	"Greece":   {"GR", "GRC", "EL", "Hellas", "Ellada", "Hellenic Republic", "Ελλάδα", "Ελλάς"},
	"Italy":    {"IT", "ITA", "Italia", "Ιταλία"},
	"Spain":    {"ES", "ESP", "España", "Espana", "Ισπανία"},
	"Cyprus":   {"CY", "CYP", "Κύπρος"},
	"Bulgaria": {"BG", "BGR", "България"},
	"Portugal": {"PT", "PRT"},
	"Germany":  {"DE", "DEU", "Deutschland"},
}

// provinceAliases maps canonical English region names to native-script names,
// transliterations and older spellings. Greek periphery names are the core
// taxonomy; the other entries cover regions whose names carry accents.
var provinceAliases = map[string][]string{
	"Attica":                       {"Αττική", "Attiki", "Attika"},
	"Central Macedonia":            {"Κεντρική Μακεδονία", "Kentriki Makedonia"},
	"Eastern Macedonia and Thrace": {"Ανατολική Μακεδονία και Θράκη", "Anatoliki Makedonia kai Thraki", "East Macedonia and Thrace"},
	"Western Macedonia":            {"Δυτική Μακεδονία", "Dytiki Makedonia", "West Macedonia"},
	"Epirus":                       {"Ήπειρος", "Ipeiros", "Ipiros"},
	"Thessaly":                     {"Θεσσαλία", "Thessalia"},
	"Ionian Islands":               {"Ιόνια Νησιά", "Ionia Nisia"},
	"Western Greece":               {"Δυτική Ελλάδα", "Dytiki Ellada", "West Greece"},
	"Central Greece":               {"Στερεά Ελλάδα", "Sterea Ellada"},
	"Peloponnese":                  {"Πελοπόννησος", "Peloponnisos"},
	"North Aegean":                 {"Βόρειο Αιγαίο", "Voreio Aigaio"},
	"South Aegean":                 {"Νότιο Αιγαίο", "Notio Aigaio"},
	"Crete":                        {"Κρήτη", "Kriti"},
	"Île-de-France":                {"Paris Region"},
	"Provence-Alpes-Côte d'Azur":   {"PACA"},
	"Auvergne-Rhône-Alpes":         nil,
	"Bourgogne-Franche-Comté":      nil,
	"Lombardy":                     {"Lombardia"},
	"Piedmont":                     {"Piemonte"},
	"Tuscany":                      {"Toscana"},
	"Apulia":                       {"Puglia"},
	"Sicily":                       {"Sicilia"},
	"Andalusia":                    {"Andalucía"},
	"Catalonia":                    {"Cataluña", "Catalunya"},
	"Castile and León":             {"Castilla y León"},
	"Valencian Community":          {"Comunitat Valenciana", "Comunidad Valenciana"},
	"Community of Madrid":          {"Comunidad de Madrid", "Madrid"},
}

var (
	countryLookup  = buildLookup(countryAliases)
	provinceLookup = buildLookup(provinceAliases)

	// codePrefixRe matches a leading region code such as "EL30-" or "GR - ".
	// A bare hyphenated word ("ILE-DE-FRANCE") is not a code.
	codePrefixRe = regexp.MustCompile(`^(?:(?i:[a-z]{2}\d[a-z0-9]{0,3})\s*|[A-Z]{2,6}\s+)-\s*`)

	// mixedScriptRepl repairs the micro sign that some exports emit in place of
	// the Greek small letter mu.
	mixedScriptRepl = strings.NewReplacer("µ", "μ")
)

func buildLookup(aliases map[string][]string) map[string]string {
	lookup := make(map[string]string)
	for canonical, names := range aliases {
		lookup[foldKey(canonical)] = canonical
		for _, n := range names {
			lookup[foldKey(n)] = canonical
		}
	}
	return lookup
}

// NormalizeCountry resolves ISO codes, native names and display names to a
// canonical country name. Unknown values are returned trimmed but otherwise
// unchanged so they fail allow-list checks later instead of being dropped.
func NormalizeCountry(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if canonical, ok := countryLookup[foldKey(value)]; ok {
		return canonical
	}
	return value
}

// NormalizeProvince resolves a province value to its canonical display name.
// Unmatched values are returned title-cased, never discarded.
func NormalizeProvince(value string) string {
	value = mixedScriptRepl.Replace(strings.Join(strings.Fields(value), " "))
	if value == "" {
		return ""
	}
	if canonical, ok := provinceLookup[foldKey(value)]; ok {
		return canonical
	}
	value = codePrefixRe.ReplaceAllString(value, "")
	if value == "" {
		return ""
	}
	if canonical, ok := provinceLookup[foldKey(value)]; ok {
		return canonical
	}
	return cases.Title(language.Und).String(value)
}

// SplitRegion splits a combined "Province, Country" value on its last comma.
// A value without a comma is taken as a province.
func SplitRegion(value string) (province, country string) {
	i := strings.LastIndex(value, ",")
	if i < 0 {
		return strings.TrimSpace(value), ""
	}
	return strings.TrimSpace(value[:i]), strings.TrimSpace(value[i+1:])
}

// foldKey reduces a name to its matching key: mixed-script repair, accents
// removed, lower case, final sigma folded, letters and digits only.
func foldKey(s string) string {
	s = mixedScriptRepl.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case r == 'ς':
			b.WriteRune('σ')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CountrySet is an allow-list of canonical country names.
type CountrySet map[string]struct{}

// NewCountrySet normalizes each name before adding it.
func NewCountrySet(names ...string) CountrySet {
	s := make(CountrySet, len(names))
	for _, n := range names {
		if c := NormalizeCountry(n); c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

// Contains reports whether value resolves to an allowed country.
func (s CountrySet) Contains(value string) bool {
	_, ok := s[NormalizeCountry(value)]
	return ok
}
