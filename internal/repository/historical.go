package repository

import (
	"context"

	"historicalmap/internal/model"
)

// HistoricalRepository defines data access for the yearly atlas using SQL queries only.
// No business logic here beyond the de-duplication rules of the schema.
type HistoricalRepository interface {
	// Load returns everything stored for year. A year with no rows yields an empty Data.
	Load(ctx context.Context, year int) (*model.Data, error)

	// Upsert merges data into the store. Countries and cities not mentioned are left untouched.
	Upsert(ctx context.Context, data *model.Data) error

	// Remove deletes the given items of data.Year and prunes rows nothing references anymore.
	Remove(ctx context.Context, data *model.Data) error

	// ListYears returns every stored year in ascending order.
	ListYears(ctx context.Context) ([]int, error)

	LoadCountryList(ctx context.Context, year int) ([]string, error)
	LoadCityList(ctx context.Context, year int) ([]string, error)

	// LoadAllCityNames returns city names across all years.
	LoadAllCityNames(ctx context.Context) ([]string, error)

	LoadCountry(ctx context.Context, year int, name string) (*model.Country, error)
	LoadCity(ctx context.Context, year int, name string) (*model.City, error)

	// FindCity looks a city up regardless of year.
	FindCity(ctx context.Context, name string) (*model.City, error)

	LoadNote(ctx context.Context, year int) (*model.Note, error)
}
