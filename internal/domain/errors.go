package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPrimaryDataset means the primary dataset could not be loaded; the
	// request fails as a whole.
	ErrPrimaryDataset = errors.New("primary dataset unavailable")

	// ErrGeodataUnavailable means every geodata attempt failed.
	ErrGeodataUnavailable = errors.New("geodata service unavailable")

	// ErrInvalidRequest marks caller input errors.
	ErrInvalidRequest = errors.New("invalid request")
)

// DatasetError records a failed dataset load.
type DatasetError struct {
	Key string
	URL string
	Err error
}

func (e *DatasetError) Error() string {
	return fmt.Sprintf("dataset %s (%s): %v", e.Key, e.URL, e.Err)
}

func (e *DatasetError) Unwrap() error { return e.Err }
