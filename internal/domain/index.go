package domain

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CountryProvinces lists the provinces known for one country.
type CountryProvinces struct {
	Country   string   `json:"country"`
	Provinces []string `json:"provinces"`
}

// CountryProvinceIndex is the country → province catalog, both levels sorted.
type CountryProvinceIndex []CountryProvinces

// Provinces returns the provinces of country, or nil when it is not indexed.
func (idx CountryProvinceIndex) Provinces(country string) []string {
	country = NormalizeCountry(country)
	for _, cp := range idx {
		if cp.Country == country {
			return cp.Provinces
		}
	}
	return nil
}

// BuildIndex unions the provinces of every dataset per allowed country. A
// point contributes only if its country is allowed and its province is set;
// coordinates are not required.
func BuildIndex(datasets []Dataset, allowed CountrySet) CountryProvinceIndex {
	sets := make(map[string]map[string]struct{})
	for _, ds := range datasets {
		for _, p := range ds.Points {
			if p.Province == "" || !allowed.Contains(p.Country) {
				continue
			}
			country := NormalizeCountry(p.Country)
			if sets[country] == nil {
				sets[country] = make(map[string]struct{})
			}
			sets[country][p.Province] = struct{}{}
		}
	}

	col := collate.New(language.English, collate.IgnoreCase, collate.IgnoreDiacritics)
	countries := make([]string, 0, len(sets))
	for c := range sets {
		countries = append(countries, c)
	}
	sortCollated(col, countries)

	idx := make(CountryProvinceIndex, 0, len(countries))
	for _, c := range countries {
		provinces := make([]string, 0, len(sets[c]))
		for p := range sets[c] {
			provinces = append(provinces, p)
		}
		sortCollated(col, provinces)
		idx = append(idx, CountryProvinces{Country: c, Provinces: provinces})
	}
	return idx
}

// sortCollated orders by collation and breaks collation ties bytewise so map
// iteration order never leaks into the output.
func sortCollated(col *collate.Collator, values []string) {
	slices.SortFunc(values, func(a, b string) int {
		if c := col.CompareString(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}
