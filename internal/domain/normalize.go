package domain

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Column aliases per logical attribute, in priority order. Names are given in
// normalized header form (see NormalizeHeader).
var (
	latitudeColumns  = []string{"lat", "latitude", "lat_dd", "geo_lat", "y"}
	longitudeColumns = []string{"lon", "lng", "long", "longitude", "lon_dd", "geo_lon", "x"}
	coordsColumns    = []string{"coordinates", "coords", "lat_lon", "latlon", "latlng", "geo_point", "location"}
	countryColumns   = []string{"country", "country_code", "countrycode", "cntr_code", "nation"}
	provinceColumns  = []string{"province", "region", "periphery", "region_name", "nuts2_name", "state"}
	regionColumns    = []string{"region_country", "regioncountry", "province_country", "location_name"}
	quantityColumns  = []string{"kg_n_per_year", "n_kg_per_year", "n_kg_year", "nitrogen_kg", "total_n_kg", "quantity", "amount"}
	nameColumns      = []string{"name", "facility_name", "plant_name", "site_name", "uwwtp_name"}
)

var (
	headerSpaceRe  = regexp.MustCompile(`\s+`)
	headerStripRe  = regexp.MustCompile(`[^\w]`)
	errEmptyHeader = errors.New("missing header row")
)

// NormalizeHeader maps a column title to its lookup form: lower case,
// whitespace runs to underscores, non-word characters removed.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = headerSpaceRe.ReplaceAllString(h, "_")
	return headerStripRe.ReplaceAllString(h, "")
}

// ParseNumber parses a decimal accepting either '.' or ',' as the separator.
// When both appear, the later one is the decimal separator and the other
// groups thousands. It returns false for empty, unparseable or non-finite input.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// "1.234,5": the last separator is the decimal one.
		s = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseCoordinatePair parses a combined "lat, lon" value. A semicolon or
// whitespace between the numbers frees ',' to act as a decimal separator
// ("48,85; 2,35"). A swapped "lon, lat" pair is corrected when only the
// flipped order is in range. If neither order is valid the result is false.
func ParseCoordinatePair(s string) (lat, lon float64, ok bool) {
	parts := splitCoordinatePair(strings.Trim(strings.TrimSpace(s), "()[]"))
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, okA := ParseNumber(parts[0])
	b, okB := ParseNumber(parts[1])
	if !okA || !okB {
		return 0, 0, false
	}
	return orientCoordinates(a, b)
}

func splitCoordinatePair(s string) []string {
	var parts []string
	switch {
	case strings.Contains(s, ";"):
		parts = strings.Split(s, ";")
	case len(strings.Fields(s)) > 1:
		parts = strings.Fields(s)
	default:
		parts = strings.Split(s, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), ","); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// orientCoordinates applies the range test to (a, b) taken as (lat, lon),
// flipping them when only the swapped order is valid.
func orientCoordinates(a, b float64) (lat, lon float64, ok bool) {
	if validCoordinates(a, b) {
		return a, b, true
	}
	if validCoordinates(b, a) {
		return b, a, true
	}
	return 0, 0, false
}

// lookup returns the first non-empty value among the candidate columns.
func (r SourceRow) lookup(candidates []string) (string, bool) {
	for _, c := range candidates {
		if v := strings.TrimSpace(r[c]); v != "" {
			return v, true
		}
	}
	return "", false
}

func (r SourceRow) has(candidates []string) bool {
	for _, c := range candidates {
		if _, ok := r[c]; ok {
			return true
		}
	}
	return false
}

// NormalizeRow maps a source row to a LocationPoint for the given dataset.
// It returns false when the row carries no usable content at all. Rows with
// missing coordinates are kept: they still feed the location index.
func NormalizeRow(row SourceRow, datasetKey string) (LocationPoint, bool) {
	if row.blank() {
		return LocationPoint{}, false
	}

	p := LocationPoint{DatasetKey: datasetKey}
	p.Name, _ = row.lookup(nameColumns)
	p.Latitude, p.Longitude = resolveCoordinates(row)

	country, _ := row.lookup(countryColumns)
	province, _ := row.lookup(provinceColumns)
	if !row.has(countryColumns) && !row.has(provinceColumns) {
		if combined, ok := row.lookup(regionColumns); ok {
			province, country = SplitRegion(combined)
		}
	}
	p.Country = NormalizeCountry(country)
	p.Province = NormalizeProvince(province)

	if raw, ok := row.lookup(quantityColumns); ok {
		if q, ok := ParseNumber(raw); ok && q > 0 {
			p.Quantity = q
		}
	}
	return p, true
}

func resolveCoordinates(row SourceRow) (lat, lon float64) {
	latRaw, hasLat := row.lookup(latitudeColumns)
	lonRaw, hasLon := row.lookup(longitudeColumns)
	if hasLat && hasLon {
		a, okA := ParseNumber(latRaw)
		b, okB := ParseNumber(lonRaw)
		if okA && okB && validCoordinates(a, b) {
			return a, b
		}
	}
	if raw, ok := row.lookup(coordsColumns); ok {
		if lat, lon, ok := ParseCoordinatePair(raw); ok {
			return lat, lon
		}
	}
	return 0, 0
}

func (r SourceRow) blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseRecords reads delimited text with a header row into source rows. The
// delimiter is detected from the header line among ',', ';' and tab. Quoted
// fields may contain delimiters and doubled quotes. Blank rows are dropped.
func ParseRecords(r io.Reader) ([]SourceRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errEmptyHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = NormalizeHeader(h)
	}

	var rows []SourceRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return rows, fmt.Errorf("read record: %w", err)
		}
		row := make(SourceRow, len(columns))
		for i, col := range columns {
			if col == "" || i >= len(record) {
				continue
			}
			if _, seen := row[col]; seen {
				continue
			}
			row[col] = record[i]
		}
		if row.blank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
