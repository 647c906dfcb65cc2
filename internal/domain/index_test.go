package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexFixture() []Dataset {
	return []Dataset{
		{
			Key:     "primary",
			Primary: true,
			Points: []LocationPoint{
				{Country: "Greece", Province: "Crete", Latitude: 35.33, Longitude: 25.14},
				{Country: "Greece", Province: "Attica", Latitude: 37.94, Longitude: 23.59},
				{Country: "France", Province: "Provence-Alpes-Côte d'Azur"},
				{Country: "France", Province: "Île-de-France", Latitude: 48.85, Longitude: 2.35},
				{Country: "Germany", Province: "Bavaria", Latitude: 48.1, Longitude: 11.6},
				{Country: "Greece", Province: ""},
			},
		},
		{
			Key: "digesters",
			Points: []LocationPoint{
				{Country: "Greece", Province: "Epirus"},
				{Country: "Greece", Province: "Attica"},
				{Country: "France", Province: "Bourgogne-Franche-Comté"},
				{Country: "France", Province: "Auvergne-Rhône-Alpes"},
			},
		},
	}
}

func TestBuildIndex(t *testing.T) {
	allowed := NewCountrySet("France", "Greece", "Italy", "Spain")

	idx := BuildIndex(indexFixture(), allowed)

	require.Len(t, idx, 2)
	assert.Equal(t, "France", idx[0].Country)
	assert.Equal(t, []string{
		"Auvergne-Rhône-Alpes",
		"Bourgogne-Franche-Comté",
		"Île-de-France",
		"Provence-Alpes-Côte d'Azur",
	}, idx[0].Provinces)
	assert.Equal(t, "Greece", idx[1].Country)
	assert.Equal(t, []string{"Attica", "Crete", "Epirus"}, idx[1].Provinces)
}

func TestBuildIndex_UnionOfDatasets(t *testing.T) {
	allowed := NewCountrySet("France", "Greece", "Italy", "Spain")
	datasets := indexFixture()

	union := BuildIndex(datasets, allowed)
	for _, ds := range datasets {
		single := BuildIndex([]Dataset{ds}, allowed)
		for _, cp := range single {
			assert.Subset(t, union.Provinces(cp.Country), cp.Provinces, "dataset %s country %s", ds.Key, cp.Country)
		}
	}
}

func TestBuildIndex_ExcludesDisallowedCountries(t *testing.T) {
	idx := BuildIndex(indexFixture(), NewCountrySet("Greece"))

	require.Len(t, idx, 1)
	assert.Equal(t, "Greece", idx[0].Country)
	assert.Nil(t, idx.Provinces("France"))
	assert.Nil(t, idx.Provinces("Germany"))
}

func TestBuildIndex_Deterministic(t *testing.T) {
	allowed := NewCountrySet("France", "Greece")
	first := BuildIndex(indexFixture(), allowed)
	for range 20 {
		assert.Equal(t, first, BuildIndex(indexFixture(), allowed))
	}
}

func TestBuildIndex_Empty(t *testing.T) {
	idx := BuildIndex(nil, NewCountrySet("Greece"))
	assert.Empty(t, idx)
	assert.Nil(t, idx.Provinces("Greece"))
}

func TestCountryProvinceIndex_ProvincesByAlias(t *testing.T) {
	idx := BuildIndex(indexFixture(), NewCountrySet("Greece"))
	assert.Equal(t, []string{"Attica", "Crete", "Epirus"}, idx.Provinces("EL"))
}
