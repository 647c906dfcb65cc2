package domain

// Catalog is the set of datasets loaded for one request. Warnings describe
// auxiliary datasets that could not be loaded.
type Catalog struct {
	Datasets []Dataset
	Warnings []string
}

// Primary returns the primary dataset.
func (c Catalog) Primary() (Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.Primary {
			return ds, true
		}
	}
	return Dataset{}, false
}

// Dataset returns the dataset with the given key.
func (c Catalog) Dataset(key string) (Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.Key == key {
			return ds, true
		}
	}
	return Dataset{}, false
}
