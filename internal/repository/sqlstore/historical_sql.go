package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"historicalmap/internal/database"
	"historicalmap/internal/model"
	"historicalmap/internal/repository"
)

// HistoricalSQL is a database/sql implementation of repository.HistoricalRepository.
// Queries are written with '?' placeholders and rebound for the dialect.
type HistoricalSQL struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewHistoricalSQL creates a new HistoricalSQL repository.
func NewHistoricalSQL(db *sql.DB, dialect database.Dialect) *HistoricalSQL {
	return &HistoricalSQL{db: db, dialect: dialect}
}

var _ repository.HistoricalRepository = (*HistoricalSQL)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *HistoricalSQL) q(query string) string {
	return r.dialect.Rebind(query)
}

func (r *HistoricalSQL) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load returns the countries, cities and note stored for year.
func (r *HistoricalSQL) Load(ctx context.Context, year int) (*model.Data, error) {
	data := model.NewData(year)

	const qCountries = `
		SELECT c.name, b.contour
		FROM year_countries yc
		JOIN years y     ON y.id = yc.year_id
		JOIN countries c ON c.id = yc.country_id
		JOIN borders b   ON b.id = yc.border_id
		WHERE y.year = ?
		ORDER BY c.name
	`
	rows, err := r.db.QueryContext(ctx, r.q(qCountries), year)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			name string
			blob []byte
		)
		if err := rows.Scan(&name, &blob); err != nil {
			rows.Close()
			return nil, err
		}
		contour, err := DecodeContour(blob)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("country %s: %w", name, err)
		}
		data.Countries = append(data.Countries, model.Country{Name: name, Contour: contour})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	const qCities = `
		SELECT c.name, c.latitude, c.longitude
		FROM year_cities yc
		JOIN years y  ON y.id = yc.year_id
		JOIN cities c ON c.id = yc.city_id
		WHERE y.year = ?
		ORDER BY c.name
	`
	rows, err = r.db.QueryContext(ctx, r.q(qCities), year)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		data.Cities = append(data.Cities, *city)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	note, err := r.LoadNote(ctx, year)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		data.Note = note
	}

	return data, nil
}

// Upsert merges data into the store inside a single transaction.
func (r *HistoricalSQL) Upsert(ctx context.Context, data *model.Data) error {
	if data == nil {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		yearID, err := r.ensureYear(ctx, tx, data.Year)
		if err != nil {
			return fmt.Errorf("upsert year %d: %w", data.Year, err)
		}
		for _, country := range data.Countries {
			if err := r.upsertCountry(ctx, tx, yearID, country); err != nil {
				return fmt.Errorf("upsert country %s: %w", country.Name, err)
			}
		}
		for _, city := range data.Cities {
			if err := r.upsertCity(ctx, tx, yearID, city); err != nil {
				return fmt.Errorf("upsert city %s: %w", city.Name, err)
			}
		}
		if data.Note != nil {
			if err := r.upsertNote(ctx, tx, yearID, *data.Note); err != nil {
				return fmt.Errorf("upsert note: %w", err)
			}
		}
		return nil
	})
}

func (r *HistoricalSQL) ensureYear(ctx context.Context, tx queryer, year int) (int64, error) {
	const q = `INSERT INTO years (year) VALUES (?) ON CONFLICT (year) DO UPDATE SET year = excluded.year RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, r.q(q), year).Scan(&id)
	return id, err
}

func (r *HistoricalSQL) ensureBorder(ctx context.Context, tx queryer, hash int64, blob []byte) (int64, error) {
	const q = `INSERT INTO borders (hash, contour) VALUES (?, ?) ON CONFLICT (hash) DO UPDATE SET contour = excluded.contour RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, r.q(q), hash, blob).Scan(&id)
	return id, err
}

func (r *HistoricalSQL) upsertCountry(ctx context.Context, tx queryer, yearID int64, country model.Country) error {
	blob := EncodeContour(country.Contour)
	hash := ContentHash(blob)

	const qCountry = `INSERT INTO countries (name) VALUES (?) ON CONFLICT (name) DO UPDATE SET name = excluded.name RETURNING id`
	var countryID int64
	if err := tx.QueryRowContext(ctx, r.q(qCountry), country.Name).Scan(&countryID); err != nil {
		return err
	}

	const qRelation = `SELECT id, border_id FROM year_countries WHERE year_id = ? AND country_id = ?`
	var relationID, borderID int64
	err := tx.QueryRowContext(ctx, r.q(qRelation), yearID, countryID).Scan(&relationID, &borderID)
	if errors.Is(err, sql.ErrNoRows) {
		newBorderID, err := r.ensureBorder(ctx, tx, hash, blob)
		if err != nil {
			return err
		}
		return r.insertRelation(ctx, tx, yearID, countryID, newBorderID)
	}
	if err != nil {
		return err
	}

	const qHash = `SELECT hash FROM borders WHERE id = ?`
	var storedHash int64
	if err := tx.QueryRowContext(ctx, r.q(qHash), borderID).Scan(&storedHash); err != nil {
		return err
	}
	if storedHash == hash {
		return nil
	}

	const qShared = `SELECT COUNT(*) FROM year_countries WHERE border_id = ? AND id <> ?`
	var others int
	if err := tx.QueryRowContext(ctx, r.q(qShared), borderID, relationID).Scan(&others); err != nil {
		return err
	}

	if others == 0 {
		// The old border only served this relation: drop both and start over.
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM year_countries WHERE id = ?`), relationID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM borders WHERE id = ?`), borderID); err != nil {
			return err
		}
		newBorderID, err := r.ensureBorder(ctx, tx, hash, blob)
		if err != nil {
			return err
		}
		return r.insertRelation(ctx, tx, yearID, countryID, newBorderID)
	}

	newBorderID, err := r.ensureBorder(ctx, tx, hash, blob)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, r.q(`UPDATE year_countries SET border_id = ? WHERE id = ?`), newBorderID, relationID)
	return err
}

func (r *HistoricalSQL) insertRelation(ctx context.Context, tx queryer, yearID, countryID, borderID int64) error {
	const q = `INSERT INTO year_countries (year_id, country_id, border_id) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, r.q(q), yearID, countryID, borderID)
	return err
}

func (r *HistoricalSQL) upsertCity(ctx context.Context, tx queryer, yearID int64, city model.City) error {
	const qCity = `
		INSERT INTO cities (name, latitude, longitude) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET latitude = excluded.latitude, longitude = excluded.longitude
		RETURNING id
	`
	var cityID int64
	if err := tx.QueryRowContext(ctx, r.q(qCity),
		city.Name,
		float64(city.Coordinate.Latitude),
		float64(city.Coordinate.Longitude),
	).Scan(&cityID); err != nil {
		return err
	}

	const qRelation = `INSERT INTO year_cities (year_id, city_id) VALUES (?, ?) ON CONFLICT (year_id, city_id) DO NOTHING`
	_, err := tx.ExecContext(ctx, r.q(qRelation), yearID, cityID)
	return err
}

func (r *HistoricalSQL) upsertNote(ctx context.Context, tx queryer, yearID int64, note model.Note) error {
	const qNote = `INSERT INTO notes (hash, text) VALUES (?, ?) ON CONFLICT (hash) DO UPDATE SET text = excluded.text RETURNING id`
	var noteID int64
	if err := tx.QueryRowContext(ctx, r.q(qNote), TextHash(note.Text), note.Text).Scan(&noteID); err != nil {
		return err
	}

	var current int64
	err := tx.QueryRowContext(ctx, r.q(`SELECT note_id FROM year_notes WHERE year_id = ?`), yearID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		_, err := tx.ExecContext(ctx, r.q(`INSERT INTO year_notes (year_id, note_id) VALUES (?, ?)`), yearID, noteID)
		return err
	}
	if err != nil {
		return err
	}
	if current == noteID {
		return nil
	}

	if _, err := tx.ExecContext(ctx, r.q(`UPDATE year_notes SET note_id = ? WHERE year_id = ?`), noteID, yearID); err != nil {
		return err
	}
	return r.pruneNote(ctx, tx, current)
}

// Remove deletes the listed items of data.Year. Unknown years are a no-op.
func (r *HistoricalSQL) Remove(ctx context.Context, data *model.Data) error {
	if data == nil {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		yearID, err := lookupID(ctx, tx, r.q(`SELECT id FROM years WHERE year = ?`), data.Year)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		for _, country := range data.Countries {
			if err := r.removeCountry(ctx, tx, yearID, country); err != nil {
				return fmt.Errorf("remove country %s: %w", country.Name, err)
			}
		}
		for _, city := range data.Cities {
			if err := r.removeCity(ctx, tx, yearID, city.Name); err != nil {
				return fmt.Errorf("remove city %s: %w", city.Name, err)
			}
		}
		if data.Note != nil {
			if err := r.removeNote(ctx, tx, yearID, data.Note.Text); err != nil {
				return fmt.Errorf("remove note: %w", err)
			}
		}
		return r.pruneYear(ctx, tx, yearID)
	})
}

func (r *HistoricalSQL) removeCountry(ctx context.Context, tx queryer, yearID int64, country model.Country) error {
	countryID, err := lookupID(ctx, tx, r.q(`SELECT id FROM countries WHERE name = ?`), country.Name)
	hasCountry := err == nil
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	borderID, err := lookupID(ctx, tx, r.q(`SELECT id FROM borders WHERE hash = ?`), ContentHash(EncodeContour(country.Contour)))
	hasBorder := err == nil
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if hasCountry && hasBorder {
		const q = `DELETE FROM year_countries WHERE year_id = ? AND country_id = ? AND border_id = ?`
		if _, err := tx.ExecContext(ctx, r.q(q), yearID, countryID, borderID); err != nil {
			return err
		}
	}
	if hasCountry {
		if err := r.deleteIfUnused(ctx, tx, "countries", "year_countries", "country_id", countryID); err != nil {
			return err
		}
	}
	if hasBorder {
		if err := r.deleteIfUnused(ctx, tx, "borders", "year_countries", "border_id", borderID); err != nil {
			return err
		}
	}
	return nil
}

func (r *HistoricalSQL) removeCity(ctx context.Context, tx queryer, yearID int64, name string) error {
	cityID, err := lookupID(ctx, tx, r.q(`SELECT id FROM cities WHERE name = ?`), name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM year_cities WHERE city_id = ? AND year_id = ?`), cityID, yearID); err != nil {
		return err
	}
	return r.deleteIfUnused(ctx, tx, "cities", "year_cities", "city_id", cityID)
}

func (r *HistoricalSQL) removeNote(ctx context.Context, tx queryer, yearID int64, text string) error {
	noteID, err := lookupID(ctx, tx, r.q(`SELECT id FROM notes WHERE hash = ?`), TextHash(text))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM year_notes WHERE note_id = ? AND year_id = ?`), noteID, yearID); err != nil {
		return err
	}
	return r.pruneNote(ctx, tx, noteID)
}

func (r *HistoricalSQL) pruneNote(ctx context.Context, tx queryer, noteID int64) error {
	return r.deleteIfUnused(ctx, tx, "notes", "year_notes", "note_id", noteID)
}

// pruneYear drops a year row once no country, city or note refers to it.
func (r *HistoricalSQL) pruneYear(ctx context.Context, tx queryer, yearID int64) error {
	const q = `
		DELETE FROM years WHERE id = ?
		AND NOT EXISTS (SELECT 1 FROM year_countries WHERE year_id = ?)
		AND NOT EXISTS (SELECT 1 FROM year_cities WHERE year_id = ?)
		AND NOT EXISTS (SELECT 1 FROM year_notes WHERE year_id = ?)
	`
	_, err := tx.ExecContext(ctx, r.q(q), yearID, yearID, yearID, yearID)
	return err
}

// deleteIfUnused removes row id from table when no row of refTable points at it through refColumn.
// Table and column names are package constants, never user input.
func (r *HistoricalSQL) deleteIfUnused(ctx context.Context, tx queryer, table, refTable, refColumn string, id int64) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND NOT EXISTS (SELECT 1 FROM %s WHERE %s = ?)`, table, refTable, refColumn)
	_, err := tx.ExecContext(ctx, r.q(q), id, id)
	return err
}

// ListYears returns every stored year in ascending order.
func (r *HistoricalSQL) ListYears(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT year FROM years ORDER BY year`)
	if err != nil {
		return nil, err
	}
	years := make([]int, 0)
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			rows.Close()
			return nil, err
		}
		years = append(years, y)
	}
	return years, closeRows(rows)
}

// LoadCountryList returns the country names of year, sorted.
func (r *HistoricalSQL) LoadCountryList(ctx context.Context, year int) ([]string, error) {
	const q = `
		SELECT c.name
		FROM year_countries yc
		JOIN years y     ON y.id = yc.year_id
		JOIN countries c ON c.id = yc.country_id
		WHERE y.year = ?
		ORDER BY c.name
	`
	return r.names(ctx, r.q(q), year)
}

// LoadCityList returns the city names of year, sorted.
func (r *HistoricalSQL) LoadCityList(ctx context.Context, year int) ([]string, error) {
	const q = `
		SELECT c.name
		FROM year_cities yc
		JOIN years y  ON y.id = yc.year_id
		JOIN cities c ON c.id = yc.city_id
		WHERE y.year = ?
		ORDER BY c.name
	`
	return r.names(ctx, r.q(q), year)
}

// LoadAllCityNames returns every stored city name, sorted.
func (r *HistoricalSQL) LoadAllCityNames(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT name FROM cities ORDER BY name`)
}

func (r *HistoricalSQL) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, name)
	}
	return out, closeRows(rows)
}

// LoadCountry fetches a single country as it was in year.
func (r *HistoricalSQL) LoadCountry(ctx context.Context, year int, name string) (*model.Country, error) {
	const q = `
		SELECT b.contour
		FROM year_countries yc
		JOIN years y     ON y.id = yc.year_id
		JOIN countries c ON c.id = yc.country_id
		JOIN borders b   ON b.id = yc.border_id
		WHERE y.year = ? AND c.name = ?
	`
	var blob []byte
	if err := r.db.QueryRowContext(ctx, r.q(q), year, name).Scan(&blob); err != nil {
		return nil, notFound(err)
	}
	contour, err := DecodeContour(blob)
	if err != nil {
		return nil, err
	}
	return &model.Country{Name: name, Contour: contour}, nil
}

// LoadCity fetches a city only if it is recorded for year.
func (r *HistoricalSQL) LoadCity(ctx context.Context, year int, name string) (*model.City, error) {
	const q = `
		SELECT c.name, c.latitude, c.longitude
		FROM year_cities yc
		JOIN years y  ON y.id = yc.year_id
		JOIN cities c ON c.id = yc.city_id
		WHERE y.year = ? AND c.name = ?
	`
	city, err := scanCity(r.db.QueryRowContext(ctx, r.q(q), year, name))
	if err != nil {
		return nil, notFound(err)
	}
	return city, nil
}

// FindCity fetches a city by name regardless of year.
func (r *HistoricalSQL) FindCity(ctx context.Context, name string) (*model.City, error) {
	const q = `SELECT name, latitude, longitude FROM cities WHERE name = ?`
	city, err := scanCity(r.db.QueryRowContext(ctx, r.q(q), name))
	if err != nil {
		return nil, notFound(err)
	}
	return city, nil
}

// LoadNote fetches the note of year.
func (r *HistoricalSQL) LoadNote(ctx context.Context, year int) (*model.Note, error) {
	const q = `
		SELECT n.text
		FROM year_notes yn
		JOIN years y ON y.id = yn.year_id
		JOIN notes n ON n.id = yn.note_id
		WHERE y.year = ?
	`
	var note model.Note
	if err := r.db.QueryRowContext(ctx, r.q(q), year).Scan(&note.Text); err != nil {
		return nil, notFound(err)
	}
	return &note, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCity(s scanner) (*model.City, error) {
	var (
		name     string
		lat, lon float64
	)
	if err := s.Scan(&name, &lat, &lon); err != nil {
		return nil, err
	}
	return &model.City{
		Name:       name,
		Coordinate: model.Coordinate{Latitude: float32(lat), Longitude: float32(lon)},
	}, nil
}

func lookupID(ctx context.Context, tx queryer, query string, arg any) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, query, arg).Scan(&id); err != nil {
		return 0, notFound(err)
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
