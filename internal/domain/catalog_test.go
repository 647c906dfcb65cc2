package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	catalog := Catalog{Datasets: []Dataset{
		{Key: "digesters"},
		{Key: "uwwtp", Primary: true},
	}}

	primary, ok := catalog.Primary()
	require.True(t, ok)
	assert.Equal(t, "uwwtp", primary.Key)

	ds, ok := catalog.Dataset("digesters")
	require.True(t, ok)
	assert.False(t, ds.Primary)

	_, ok = catalog.Dataset("farms")
	assert.False(t, ok)

	_, ok = Catalog{}.Primary()
	assert.False(t, ok)
}

func TestAggregationState_Terminal(t *testing.T) {
	assert.False(t, StateLoading.Terminal())
	assert.True(t, StateData.Terminal())
	assert.True(t, StateError.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestParcelFeatures(t *testing.T) {
	parcels := []LandParcel{
		{ID: "way/7", LandUse: LandUseVineyard, Geometry: square(paris.Latitude, paris.Longitude, 0.01), AreaSquareMeters: 2500, FertilizerShare: 42},
	}

	data, err := json.Marshal(ParcelFeatures(parcels))
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 1)
	f := decoded.Features[0]
	assert.Equal(t, "way/7", f.ID)
	assert.Equal(t, "Polygon", f.Geometry.Type)
	assert.Equal(t, "vineyard", f.Properties["land_use"])
	assert.InDelta(t, 42.0, f.Properties["fertilizer_share"], 1e-9)
}

func TestParcelFeatures_Empty(t *testing.T) {
	data, err := json.Marshal(ParcelFeatures(nil))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"features":[]`)
}
