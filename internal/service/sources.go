package service

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	hlog "historicalmap/internal/log"
	"historicalmap/internal/model"
)

// PermanentSource mirrors the store and always exists.
const PermanentSource = "Database"

// SourceService keeps named, editable in-memory copies of atlas years.
// Edit methods return false when the source, year or item does not exist.
type SourceService interface {
	AddSource(name string) bool
	RemoveSource(name string) error
	HasSource(name string) bool
	Sources() []string
	Years(source string) ([]int, error)
	RemoveYear(source string, year int) bool
	// Put replaces the year with data, marking it unmodified.
	Put(source string, data *model.Data) error

	ContainsYear(source string, year int) bool
	ContainsCountry(source string, year int, name string) bool
	ContainsCity(source string, year int, name string) bool
	ContainsNote(source string, year int) bool
	Country(source string, year int, name string) (*model.Country, bool)
	City(source string, year int, name string) (*model.City, bool)
	Note(source string, year int) (string, bool)
	Countries(source string, year int) []string
	Cities(source string, year int) []string
	Contour(source string, year int, name string) []model.Coordinate
	CityCoordinate(source string, year int, name string) (model.Coordinate, bool)
	Data(source string, year int) (*model.Data, bool)
	Removed(source string, year int) (*model.Data, bool)
	IsModified(source string, year int) bool
	ModifiedYears(source string) []int

	ExtendContour(source string, year int, name string, c model.Coordinate) bool
	DeleteFromContour(source string, year int, name string, idx int) bool
	UpdateContour(source string, year int, name string, idx int, c model.Coordinate) bool
	UpdateCityCoordinate(source string, year int, name string, c model.Coordinate) bool
	AddCountry(source string, year int, country model.Country) bool
	AddCity(source string, year int, city model.City) bool
	AddNote(source string, year int, text string) bool
	RemoveCountry(source string, year int, name string) bool
	RemoveCity(source string, year int, name string) bool
	RemoveNote(source string, year int) bool
	ClearRemoved(source string, year int) bool
	// SavePoint copies the year and its removals for a save.
	SavePoint(source string, year int) (SavePoint, bool)
	// MarkSaved records that sp reached the store. The modified flag is only reset when
	// the year did not change after sp was taken.
	MarkSaved(source string, year int, sp SavePoint) bool

	HoveredCoordinate() (model.Coordinate, bool)
	SetHoveredCoordinate(c model.Coordinate)
	ClearHoveredCoordinate()

	Subscribe(buffer int) (<-chan Event, func())
}

// SavePoint is a consistent copy of one source year taken for a save.
type SavePoint struct {
	Data     *model.Data
	Removed  *model.Data
	Revision uint64

	cache *yearCache
}

type sourceEntry struct {
	years map[int]*yearCache
	// city name -> years of this source containing it
	cityYears map[string]map[int]struct{}
}

func newSourceEntry() *sourceEntry {
	return &sourceEntry{years: map[int]*yearCache{}, cityYears: map[string]map[int]struct{}{}}
}

func (e *sourceEntry) indexCity(name string, year int) {
	years, ok := e.cityYears[name]
	if !ok {
		years = map[int]struct{}{}
		e.cityYears[name] = years
	}
	years[year] = struct{}{}
}

func (e *sourceEntry) unindexCity(name string, year int) {
	if years, ok := e.cityYears[name]; ok {
		delete(years, year)
		if len(years) == 0 {
			delete(e.cityYears, name)
		}
	}
}

type sourceService struct {
	mu       sync.RWMutex
	sources  map[string]*sourceEntry
	revision uint64
	bus     Broadcaster[Event]
	logger  zerolog.Logger

	hoverMu sync.Mutex
	hovered *model.Coordinate
}

// NewSourceService starts with the permanent Database source.
func NewSourceService() SourceService {
	s := &sourceService{
		sources: map[string]*sourceEntry{},
		logger:  hlog.WithComponent("sources"),
	}
	s.sources[PermanentSource] = newSourceEntry()
	return s
}

func (s *sourceService) Subscribe(buffer int) (<-chan Event, func()) {
	return s.bus.Subscribe(buffer)
}

func (s *sourceService) publish(source string, year int, kinds ...EventKind) {
	for _, k := range kinds {
		s.bus.Publish(Event{Kind: k, Source: source, Year: year})
	}
}

func (s *sourceService) publishModified(source string, year int, modified bool) {
	s.bus.Publish(Event{Kind: EventModified, Source: source, Year: year, Modified: modified})
}

func (s *sourceService) AddSource(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[name]; ok || name == "" {
		return false
	}
	s.logger.Debug().Str("source", name).Msg("add source")
	s.sources[name] = newSourceEntry()
	return true
}

func (s *sourceService) RemoveSource(name string) error {
	if name == PermanentSource {
		return ErrPermanentSource
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[name]; !ok {
		return ErrSourceNotFound
	}
	s.logger.Debug().Str("source", name).Msg("remove source")
	delete(s.sources, name)
	return nil
}

func (s *sourceService) HasSource(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sources[name]
	return ok
}

func (s *sourceService) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sources))
	for name := range s.sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *sourceService) Years(source string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sources[source]
	if !ok {
		return nil, ErrSourceNotFound
	}
	out := make([]int, 0, len(e.years))
	for y := range e.years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out, nil
}

func (s *sourceService) RemoveYear(source string, year int) bool {
	s.mu.Lock()
	e, ok := s.sources[source]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if c, ok := e.years[year]; ok {
		for _, city := range c.data.Cities {
			e.unindexCity(city.Name, year)
		}
	}
	delete(e.years, year)
	s.mu.Unlock()

	s.publishModified(source, year, false)
	s.publish(source, year, EventCountry, EventCity, EventNote)
	return true
}

func (s *sourceService) Put(source string, data *model.Data) error {
	if data == nil {
		return nil
	}
	s.mu.Lock()
	e, ok := s.sources[source]
	if !ok {
		s.mu.Unlock()
		s.logger.Error().Str("source", source).Int("year", data.Year).Msg("put into unknown source")
		return ErrSourceNotFound
	}
	if old, ok := e.years[data.Year]; ok {
		for _, city := range old.data.Cities {
			e.unindexCity(city.Name, data.Year)
		}
	}
	c := newYearCache(data)
	c.revision = s.nextRevision()
	for _, city := range c.data.Cities {
		e.indexCity(city.Name, data.Year)
	}
	e.years[data.Year] = c
	s.mu.Unlock()

	s.publish(source, data.Year, EventCountry, EventCity, EventNote)
	s.publishModified(source, data.Year, false)
	return nil
}

// nextRevision hands out revisions unique across the service. Callers hold s.mu.
func (s *sourceService) nextRevision() uint64 {
	s.revision++
	return s.revision
}

// touch marks c modified. Callers hold s.mu.
func (s *sourceService) touch(c *yearCache) {
	c.modified = true
	c.revision = s.nextRevision()
}

// year returns the cache of (source, year). Callers hold s.mu.
func (s *sourceService) year(source string, year int) *yearCache {
	e, ok := s.sources[source]
	if !ok {
		return nil
	}
	return e.years[year]
}

func (s *sourceService) ContainsYear(source string, year int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.year(source, year) != nil
}

func (s *sourceService) ContainsCountry(source string, year int, name string) bool {
	_, ok := s.Country(source, year, name)
	return ok
}

func (s *sourceService) ContainsCity(source string, year int, name string) bool {
	_, ok := s.City(source, year, name)
	return ok
}

func (s *sourceService) ContainsNote(source string, year int) bool {
	_, ok := s.Note(source, year)
	return ok
}

func (s *sourceService) Country(source string, year int, name string) (*model.Country, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.year(source, year)
	if c == nil {
		return nil, false
	}
	country := c.country(name)
	if country == nil {
		return nil, false
	}
	return &model.Country{Name: country.Name, Contour: append([]model.Coordinate{}, country.Contour...)}, true
}

func (s *sourceService) City(source string, year int, name string) (*model.City, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.year(source, year)
	if c == nil {
		return nil, false
	}
	city := c.city(name)
	if city == nil {
		return nil, false
	}
	out := *city
	return &out, true
}

func (s *sourceService) Note(source string, year int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.year(source, year)
	if c == nil || c.data.Note == nil {
		return "", false
	}
	return c.data.Note.Text, true
}

func (s *sourceService) Countries(source string, year int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.year(source, year); c != nil {
		return c.countryNames()
	}
	return []string{}
}

func (s *sourceService) Cities(source string, year int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.year(source, year); c != nil {
		return c.cityNames()
	}
	return []string{}
}

func (s *sourceService) Contour(source string, year int, name string) []model.Coordinate {
	if country, ok := s.Country(source, year, name); ok {
		return country.Contour
	}
	return []model.Coordinate{}
}

func (s *sourceService) CityCoordinate(source string, year int, name string) (model.Coordinate, bool) {
	if city, ok := s.City(source, year, name); ok {
		return city.Coordinate, true
	}
	return model.Coordinate{}, false
}

func (s *sourceService) Data(source string, year int) (*model.Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.year(source, year); c != nil {
		return c.data.Clone(), true
	}
	return nil, false
}

func (s *sourceService) Removed(source string, year int) (*model.Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.year(source, year); c != nil {
		return c.removed.Clone(), true
	}
	return nil, false
}

func (s *sourceService) IsModified(source string, year int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.year(source, year)
	return c != nil && c.modified
}

func (s *sourceService) ModifiedYears(source string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []int{}
	if e, ok := s.sources[source]; ok {
		for y, c := range e.years {
			if c.modified {
				out = append(out, y)
			}
		}
	}
	sort.Ints(out)
	return out
}

// edit runs fn on (source, year) under the write lock. fn reports whether it changed
// anything; a change marks the year modified and publishes kind.
func (s *sourceService) edit(source string, year int, kind EventKind, fn func(e *sourceEntry, c *yearCache) bool) bool {
	s.mu.Lock()
	e, ok := s.sources[source]
	if !ok {
		s.mu.Unlock()
		return false
	}
	c, ok := e.years[year]
	if !ok || !fn(e, c) {
		s.mu.Unlock()
		return false
	}
	s.touch(c)
	s.mu.Unlock()

	s.publishModified(source, year, true)
	s.publish(source, year, kind)
	return true
}

func (s *sourceService) ExtendContour(source string, year int, name string, coord model.Coordinate) bool {
	return s.edit(source, year, EventCountry, func(_ *sourceEntry, c *yearCache) bool {
		country := c.country(name)
		if country == nil {
			return false
		}
		country.Contour = append(country.Contour, coord)
		return true
	})
}

func (s *sourceService) DeleteFromContour(source string, year int, name string, idx int) bool {
	return s.edit(source, year, EventCountry, func(_ *sourceEntry, c *yearCache) bool {
		country := c.country(name)
		if country == nil || idx < 0 || idx >= len(country.Contour) {
			return false
		}
		country.Contour = append(country.Contour[:idx], country.Contour[idx+1:]...)
		return true
	})
}

func (s *sourceService) UpdateContour(source string, year int, name string, idx int, coord model.Coordinate) bool {
	return s.edit(source, year, EventCountry, func(_ *sourceEntry, c *yearCache) bool {
		country := c.country(name)
		if country == nil || idx < 0 || idx >= len(country.Contour) {
			return false
		}
		country.Contour[idx] = coord
		return true
	})
}

// UpdateCityCoordinate moves the city in every year of the source that contains it.
func (s *sourceService) UpdateCityCoordinate(source string, year int, name string, coord model.Coordinate) bool {
	s.mu.Lock()
	e, ok := s.sources[source]
	if !ok {
		s.mu.Unlock()
		return false
	}
	c, ok := e.years[year]
	if !ok || c.city(name) == nil {
		s.mu.Unlock()
		return false
	}
	var touched []int
	for y := range e.cityYears[name] {
		yc, ok := e.years[y]
		if !ok {
			s.logger.Error().Str("source", source).Int("year", y).Str("city", name).Msg("city index points at a missing year")
			continue
		}
		city := yc.city(name)
		if city == nil {
			continue
		}
		city.Coordinate = coord
		s.touch(yc)
		touched = append(touched, y)
	}
	s.mu.Unlock()

	sort.Ints(touched)
	for _, y := range touched {
		s.publishModified(source, y, true)
		s.publish(source, y, EventCity)
	}
	return true
}

func (s *sourceService) AddCountry(source string, year int, country model.Country) bool {
	return s.edit(source, year, EventCountry, func(_ *sourceEntry, c *yearCache) bool {
		return c.addCountry(country)
	})
}

func (s *sourceService) AddCity(source string, year int, city model.City) bool {
	return s.edit(source, year, EventCity, func(e *sourceEntry, c *yearCache) bool {
		if !c.addCity(city) {
			return false
		}
		e.indexCity(city.Name, year)
		return true
	})
}

func (s *sourceService) AddNote(source string, year int, text string) bool {
	return s.edit(source, year, EventNote, func(_ *sourceEntry, c *yearCache) bool {
		c.addNote(text)
		return true
	})
}

func (s *sourceService) RemoveCountry(source string, year int, name string) bool {
	return s.edit(source, year, EventCountry, func(_ *sourceEntry, c *yearCache) bool {
		if c.country(name) == nil {
			return false
		}
		c.removeCountry(name)
		return true
	})
}

func (s *sourceService) RemoveCity(source string, year int, name string) bool {
	return s.edit(source, year, EventCity, func(e *sourceEntry, c *yearCache) bool {
		if c.city(name) == nil {
			return false
		}
		c.removeCity(name)
		e.unindexCity(name, year)
		return true
	})
}

func (s *sourceService) RemoveNote(source string, year int) bool {
	return s.edit(source, year, EventNote, func(_ *sourceEntry, c *yearCache) bool {
		if c.data.Note == nil {
			return false
		}
		c.removeNote()
		return true
	})
}

func (s *sourceService) ClearRemoved(source string, year int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.year(source, year)
	if c == nil {
		return false
	}
	c.clearRemoved()
	c.revision = s.nextRevision()
	return true
}

func (s *sourceService) SavePoint(source string, year int) (SavePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.year(source, year)
	if c == nil {
		return SavePoint{}, false
	}
	return SavePoint{Data: c.data.Clone(), Removed: c.removed.Clone(), Revision: c.revision, cache: c}, true
}

func (s *sourceService) MarkSaved(source string, year int, sp SavePoint) bool {
	s.mu.Lock()
	c := s.year(source, year)
	// a Put or RemoveYear since sp replaced the cache
	if c == nil || c != sp.cache {
		s.mu.Unlock()
		return false
	}
	c.markSaved(sp)
	modified := c.modified
	s.mu.Unlock()
	s.publishModified(source, year, modified)
	return true
}

func (s *sourceService) HoveredCoordinate() (model.Coordinate, bool) {
	s.hoverMu.Lock()
	defer s.hoverMu.Unlock()
	if s.hovered == nil {
		return model.Coordinate{}, false
	}
	return *s.hovered, true
}

func (s *sourceService) SetHoveredCoordinate(c model.Coordinate) {
	s.hoverMu.Lock()
	defer s.hoverMu.Unlock()
	s.hovered = &c
}

func (s *sourceService) ClearHoveredCoordinate() {
	s.hoverMu.Lock()
	defer s.hoverMu.Unlock()
	s.hovered = nil
}
