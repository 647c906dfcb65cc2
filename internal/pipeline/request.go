package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
)

// DefaultSession is used when a request names no session.
const DefaultSession = "default"

// Request asks for one aggregation. Zero values select the defaults: the
// primary dataset, the configured radius and the configured land uses.
type Request struct {
	Session  string        `json:"session,omitempty"`
	Region   domain.Region `json:"region"`
	Dataset  string        `json:"dataset,omitempty"`
	RadiusKm float64       `json:"radius_km,omitempty"`
	LandUse  []string      `json:"land_use,omitempty"`
}

// RegionQuery selects the points of one dataset within a region.
type RegionQuery struct {
	Region  domain.Region
	Dataset string
}

// IndexResult is the location index together with the loaded dataset keys.
type IndexResult struct {
	Countries domain.CountryProvinceIndex `json:"countries"`
	Datasets  []string                    `json:"datasets"`
	Warnings  []string                    `json:"warnings,omitempty"`
}

// PointsResult lists the points of one dataset within a region.
type PointsResult struct {
	Region        domain.Region          `json:"region"`
	Dataset       string                 `json:"dataset"`
	Points        []domain.LocationPoint `json:"points"`
	TotalQuantity float64                `json:"total_quantity"`
	Warnings      []string               `json:"warnings,omitempty"`
}

func (a *Aggregator) normalizeRegion(r domain.Region) (domain.Region, error) {
	r = domain.Region{
		Country:  domain.NormalizeCountry(r.Country),
		Province: domain.NormalizeProvince(r.Province),
	}
	if r.Country == "" || r.Province == "" {
		return domain.Region{}, fmt.Errorf("%w: country and province are required", domain.ErrInvalidRequest)
	}
	if !a.opts.AllowedCountries.Contains(r.Country) {
		return domain.Region{}, fmt.Errorf("%w: country %q is not available", domain.ErrInvalidRequest, r.Country)
	}
	return r, nil
}

func (a *Aggregator) normalizeRequest(req Request) (Request, error) {
	region, err := a.normalizeRegion(req.Region)
	if err != nil {
		return Request{}, err
	}
	req.Region = region
	req.Session = strings.TrimSpace(req.Session)
	if req.Session == "" {
		req.Session = DefaultSession
	}
	req.Dataset = strings.TrimSpace(req.Dataset)

	if math.IsNaN(req.RadiusKm) || math.IsInf(req.RadiusKm, 0) {
		return Request{}, fmt.Errorf("%w: radius must be finite", domain.ErrInvalidRequest)
	}
	if req.RadiusKm == 0 {
		req.RadiusKm = a.opts.DefaultRadiusKm
	}

	landUse := req.LandUse
	if len(landUse) == 0 {
		landUse = a.opts.DefaultLandUse
	}
	req.LandUse, err = domain.NormalizeLandUses(landUse)
	if err != nil {
		return Request{}, err
	}
	if len(req.LandUse) == 0 {
		return Request{}, fmt.Errorf("%w: at least one land use is required", domain.ErrInvalidRequest)
	}
	return req, nil
}

// selectDataset returns the named dataset, or the primary one when key is empty.
func selectDataset(catalog domain.Catalog, key string) (domain.Dataset, error) {
	if key == "" {
		ds, ok := catalog.Primary()
		if !ok {
			return domain.Dataset{}, domain.ErrPrimaryDataset
		}
		return ds, nil
	}
	ds, ok := catalog.Dataset(key)
	if !ok {
		return domain.Dataset{}, fmt.Errorf("%w: dataset %q is not available", domain.ErrInvalidRequest, key)
	}
	return ds, nil
}
