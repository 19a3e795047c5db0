package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"historicalmap/internal/config"
	"historicalmap/internal/database"
	"historicalmap/internal/database/migration"
	"historicalmap/internal/model"
	"historicalmap/internal/repository"
)

func newStore(t *testing.T) (*HistoricalSQL, *sql.DB) {
	t.Helper()
	db, err := database.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "atlas.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.EnsureMigrated(context.Background(), db, database.DialectSQLite, "test"))
	return NewHistoricalSQL(db, database.DialectSQLite), db
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func c(lat, lon float32) model.Coordinate { return model.Coordinate{Latitude: lat, Longitude: lon} }

func country(name string, contour ...model.Coordinate) model.Country {
	return model.Country{Name: name, Contour: contour}
}

func city(name string, lat, lon float32) model.City {
	return model.City{Name: name, Coordinate: c(lat, lon)}
}

func note(text string) *model.Note { return &model.Note{Text: text} }

func assertLoad(t *testing.T, store *HistoricalSQL, want *model.Data) {
	t.Helper()
	got, err := store.Load(context.Background(), want.Year)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Load(%d) mismatch (-want +got):\n%s", want.Year, diff)
	}
}

var (
	one = country("One", c(1, 2), c(3, 4))
	two = country("Two", c(5, 6), c(7, 8))
)

func TestHistoricalSQL_EmptyAndMissing(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	t.Run("load year that does not exist", func(t *testing.T) {
		assertLoad(t, store, &model.Data{Year: 2000})
	})

	t.Run("insert and remove empty data", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900}))
		assertLoad(t, store, &model.Data{Year: 1900})
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 1900}))
		assertLoad(t, store, &model.Data{Year: 1900})
	})

	t.Run("remove from unknown year is a no-op", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 42, Countries: []model.Country{one}}))
	})
}

func TestHistoricalSQL_Countries(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate countries share one border", func(t *testing.T) {
		store, db := newStore(t)
		data := &model.Data{Year: 1900, Countries: []model.Country{one}}
		require.NoError(t, store.Upsert(ctx, data))
		require.NoError(t, store.Upsert(ctx, data))

		assertLoad(t, store, data)
		assert.Equal(t, 1, count(t, db, "borders"))
	})

	t.Run("same year inserted separately", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{two}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one, two}})
	})

	t.Run("update one of the countries drops the unused border", func(t *testing.T) {
		store, db := newStore(t)
		updated := country("Two", c(9, 10), c(11, 12))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one, two}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{updated}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one, updated}})
		assert.Equal(t, 2, count(t, db, "borders"))
	})

	t.Run("same contour across years is stored once", func(t *testing.T) {
		store, db := newStore(t)
		renamed := country("Two", c(1, 2), c(3, 4))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 2000, Countries: []model.Country{renamed}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one}})
		assertLoad(t, store, &model.Data{Year: 2000, Countries: []model.Country{renamed}})
		assert.Equal(t, 1, count(t, db, "borders"))
	})

	t.Run("different contour per year", func(t *testing.T) {
		store, _ := newStore(t)
		later := country("One", c(5, 6), c(7, 8))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 2000, Countries: []model.Country{later}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one}})
		assertLoad(t, store, &model.Data{Year: 2000, Countries: []model.Country{later}})
	})

	t.Run("update border used by multiple years", func(t *testing.T) {
		store, _ := newStore(t)
		update := country("One", c(1, 2), c(3, 4), c(5, 6))
		for _, y := range []int{1900, 1901, 1902, 1903} {
			require.NoError(t, store.Upsert(ctx, &model.Data{Year: y, Countries: []model.Country{one}}))
		}
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{update}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1901, Countries: []model.Country{update}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{update}})
		assertLoad(t, store, &model.Data{Year: 1901, Countries: []model.Country{update}})
		assertLoad(t, store, &model.Data{Year: 1902, Countries: []model.Country{one}})
		assertLoad(t, store, &model.Data{Year: 1903, Countries: []model.Country{one}})

		// and back again
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1901, Countries: []model.Country{one}}))
		for _, y := range []int{1900, 1901, 1902, 1903} {
			assertLoad(t, store, &model.Data{Year: y, Countries: []model.Country{one}})
		}
	})

	t.Run("update border used by multiple countries", func(t *testing.T) {
		store, _ := newStore(t)
		twin := country("Two", c(1, 2), c(3, 4))
		update := country("Two", c(1, 2), c(3, 4), c(5, 6))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one, twin}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{update}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one, update}})
	})
}

func TestHistoricalSQL_RemoveCountries(t *testing.T) {
	ctx := context.Background()

	t.Run("different border", func(t *testing.T) {
		store, db := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one, two}}))
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 1900, Countries: []model.Country{two}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one}})
		assert.Equal(t, 1, count(t, db, "borders"))
		assert.Equal(t, 1, count(t, db, "countries"))
	})

	t.Run("shared border keeps the other country", func(t *testing.T) {
		store, db := newStore(t)
		twin := country("Two", c(1, 2), c(3, 4))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one, twin}}))
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 1900, Countries: []model.Country{twin}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one}})
		assert.Equal(t, 1, count(t, db, "borders"))
	})

	t.Run("wrong year leaves both years alone", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1901, Countries: []model.Country{two}}))
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 1900, Countries: []model.Country{two}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one}})
		assertLoad(t, store, &model.Data{Year: 1901, Countries: []model.Country{two}})
	})

	t.Run("remove all prunes borders and the year", func(t *testing.T) {
		store, db := newStore(t)
		data := &model.Data{Year: 1900, Countries: []model.Country{one, two}}
		require.NoError(t, store.Upsert(ctx, data))
		require.NoError(t, store.Remove(ctx, data))

		assertLoad(t, store, &model.Data{Year: 1900})
		assert.Equal(t, 0, count(t, db, "borders"))
		assert.Equal(t, 0, count(t, db, "years"))
	})
}

func TestHistoricalSQL_Cities(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate cities", func(t *testing.T) {
		store, db := newStore(t)
		data := &model.Data{Year: 1900, Cities: []model.City{city("One", 1, 2)}}
		require.NoError(t, store.Upsert(ctx, data))
		require.NoError(t, store.Upsert(ctx, data))

		assertLoad(t, store, data)
		assert.Equal(t, 1, count(t, db, "year_cities"))
	})

	t.Run("coordinate update applies to every year", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Cities: []model.City{city("One", 1, 2)}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 2000, Cities: []model.City{city("One", 3, 4)}}))

		assertLoad(t, store, &model.Data{Year: 1900, Cities: []model.City{city("One", 3, 4)}})
		assertLoad(t, store, &model.Data{Year: 2000, Cities: []model.City{city("One", 3, 4)}})
	})

	t.Run("update one of the cities", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Cities: []model.City{city("One", 1, 2), city("Two", 3, 4)}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Cities: []model.City{city("Two", 5, 6)}}))

		assertLoad(t, store, &model.Data{Year: 1900, Cities: []model.City{city("One", 1, 2), city("Two", 5, 6)}})
	})

	t.Run("remove one city", func(t *testing.T) {
		store, db := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Cities: []model.City{city("One", 1, 2), city("Two", 3, 4)}}))
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 1900, Cities: []model.City{city("Two", 3, 4)}}))

		assertLoad(t, store, &model.Data{Year: 1900, Cities: []model.City{city("One", 1, 2)}})
		assert.Equal(t, 1, count(t, db, "cities"))
	})

	t.Run("city shared with another year survives removal", func(t *testing.T) {
		store, db := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Cities: []model.City{city("One", 1, 2)}}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1901, Cities: []model.City{city("One", 1, 2)}}))
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 1900, Cities: []model.City{city("One", 1, 2)}}))

		assertLoad(t, store, &model.Data{Year: 1901, Cities: []model.City{city("One", 1, 2)}})
		assert.Equal(t, 1, count(t, db, "cities"))
	})
}

func TestHistoricalSQL_Notes(t *testing.T) {
	ctx := context.Background()

	t.Run("insert and update", func(t *testing.T) {
		store, db := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Note: note("Test")}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Note: note("Updated")}))

		assertLoad(t, store, &model.Data{Year: 1900, Note: note("Updated")})
		assert.Equal(t, 1, count(t, db, "notes"))
	})

	t.Run("update note shared by two years", func(t *testing.T) {
		store, db := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Note: note("Test")}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1901, Note: note("Test")}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Note: note("Changed")}))

		assertLoad(t, store, &model.Data{Year: 1900, Note: note("Changed")})
		assertLoad(t, store, &model.Data{Year: 1901, Note: note("Test")})
		assert.Equal(t, 2, count(t, db, "notes"))
	})

	t.Run("remove note shared by two years", func(t *testing.T) {
		store, db := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Note: note("Test")}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1901, Note: note("Test")}))
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 1900, Note: note("Test")}))

		assertLoad(t, store, &model.Data{Year: 1900})
		assertLoad(t, store, &model.Data{Year: 1901, Note: note("Test")})
		assert.Equal(t, 1, count(t, db, "notes"))
	})

	t.Run("remove with non matching text keeps everything", func(t *testing.T) {
		store, _ := newStore(t)
		data := &model.Data{
			Year:      1900,
			Countries: []model.Country{one, two},
			Cities:    []model.City{city("One", 1, 2), city("Two", 3, 4)},
			Note:      note("Test"),
		}
		require.NoError(t, store.Upsert(ctx, data))
		require.NoError(t, store.Remove(ctx, &model.Data{Year: 1900, Note: note("")}))

		assertLoad(t, store, data)
	})

	t.Run("absent note leaves the stored one", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Note: note("Test")}))
		require.NoError(t, store.Upsert(ctx, &model.Data{Year: 1900, Countries: []model.Country{one}}))

		assertLoad(t, store, &model.Data{Year: 1900, Countries: []model.Country{one}, Note: note("Test")})
	})
}

func TestHistoricalSQL_Lookups(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &model.Data{
		Year:      1900,
		Countries: []model.Country{two, one},
		Cities:    []model.City{city("Two", 3, 4), city("One", 1, 2)},
		Note:      note("Test"),
	}))
	require.NoError(t, store.Upsert(ctx, &model.Data{Year: -221, Cities: []model.City{city("Three", 5, 6)}}))

	countries, err := store.LoadCountryList(ctx, 1900)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, countries)

	cities, err := store.LoadCityList(ctx, 1900)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, cities)

	all, err := store.LoadAllCityNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Three", "Two"}, all)

	years, err := store.ListYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{-221, 1900}, years)

	got, err := store.LoadCountry(ctx, 1900, "Two")
	require.NoError(t, err)
	assert.Equal(t, two, *got)

	_, err = store.LoadCountry(ctx, 1901, "Two")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	gotCity, err := store.LoadCity(ctx, 1900, "Two")
	require.NoError(t, err)
	assert.Equal(t, city("Two", 3, 4), *gotCity)

	_, err = store.LoadCity(ctx, 1900, "Three")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	found, err := store.FindCity(ctx, "Three")
	require.NoError(t, err)
	assert.Equal(t, city("Three", 5, 6), *found)

	_, err = store.FindCity(ctx, "Four")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := store.LoadNote(ctx, 1900)
	require.NoError(t, err)
	assert.Equal(t, "Test", n.Text)

	_, err = store.LoadNote(ctx, -221)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHistoricalSQL_QueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewHistoricalSQL(db, database.DialectPostgres)
	ctx := context.Background()

	t.Run("load propagates query errors", func(t *testing.T) {
		mock.ExpectQuery("SELECT c.name, b.contour").WithArgs(1900).WillReturnError(errors.New("boom"))

		_, err := store.Load(ctx, 1900)
		assert.EqualError(t, err, "boom")
	})

	t.Run("upsert rolls back on failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO years \(year\) VALUES \(\$1\)`).WithArgs(1900).WillReturnError(errors.New("locked"))
		mock.ExpectRollback()

		err := store.Upsert(ctx, &model.Data{Year: 1900})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upsert year 1900: locked")
	})

	t.Run("begin failure", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("no conn"))

		err := store.Remove(ctx, &model.Data{Year: 1900})
		assert.EqualError(t, err, "begin tx: no conn")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
