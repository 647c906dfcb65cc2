package domain

// SourceRow is one parsed dataset record keyed by normalized column name.
type SourceRow map[string]string

// LocationPoint is the canonical supply facility record after normalization.
type LocationPoint struct {
	Name       string  `json:"name,omitempty"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	Country    string  `json:"country"`
	Province   string  `json:"province"`
	DatasetKey string  `json:"dataset"`
	Quantity   float64 `json:"quantity"` // kg N per year
}

// HasCoordinates reports whether the point can take part in spatial operations.
// (0, 0) is the unset sentinel, never a real location.
func (p LocationPoint) HasCoordinates() bool {
	return validCoordinates(p.Latitude, p.Longitude)
}

// Region addresses a province within a country by canonical display names.
type Region struct {
	Country  string `json:"country"`
	Province string `json:"province"`
}

// Matches compares the point's region to r ignoring case, accents and punctuation.
func (p LocationPoint) Matches(r Region) bool {
	return foldKey(NormalizeCountry(p.Country)) == foldKey(NormalizeCountry(r.Country)) &&
		foldKey(p.Province) == foldKey(NormalizeProvince(r.Province))
}

// Dataset is one loaded source catalog.
type Dataset struct {
	Key     string          `json:"key"`
	Primary bool            `json:"primary"`
	Points  []LocationPoint `json:"points"`
}

// FilterRegion returns the dataset's points located in r, in source order.
func (d Dataset) FilterRegion(r Region) []LocationPoint {
	var out []LocationPoint
	for _, p := range d.Points {
		if p.Matches(r) {
			out = append(out, p)
		}
	}
	return out
}

// TotalQuantity sums the quantity of points with valid coordinates. Points
// without coordinates never reach a catchment, so they contribute nothing.
func TotalQuantity(points []LocationPoint) float64 {
	var total float64
	for _, p := range points {
		if p.HasCoordinates() {
			total += p.Quantity
		}
	}
	return total
}

func validCoordinates(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
