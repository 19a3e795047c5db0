package service

import (
	"sort"
	"sync"
)

// Selection is what is selected in one year.
type Selection struct {
	Year      int      `json:"year"`
	Countries []string `json:"countries"`
	Cities    []string `json:"cities"`
	Note      bool     `json:"note"`
}

// Selector tracks items picked for export, per year.
type Selector interface {
	SelectCountry(year int, name string)
	SelectCity(year int, name string)
	SelectNote(year int)
	DeselectCountry(year int, name string)
	DeselectCity(year int, name string)
	DeselectNote(year int)
	IsCountrySelected(year int, name string) bool
	IsCitySelected(year int, name string) bool
	IsNoteSelected(year int) bool
	Clear(year int)
	ClearAll()
	// Quantity counts selected countries, cities and notes over all years.
	Quantity() int
	Years() []int
	Selection(year int) (Selection, bool)
	All() []Selection
}

type yearSelection struct {
	countries map[string]struct{}
	cities    map[string]struct{}
	note      bool
}

func (y *yearSelection) empty() bool {
	return len(y.countries) == 0 && len(y.cities) == 0 && !y.note
}

type selector struct {
	mu    sync.RWMutex
	years map[int]*yearSelection
}

func NewSelector() Selector {
	return &selector{years: make(map[int]*yearSelection)}
}

func (s *selector) get(year int) *yearSelection {
	y, ok := s.years[year]
	if !ok {
		y = &yearSelection{countries: map[string]struct{}{}, cities: map[string]struct{}{}}
		s.years[year] = y
	}
	return y
}

// prune drops a year once nothing in it is selected.
func (s *selector) prune(year int) {
	if y, ok := s.years[year]; ok && y.empty() {
		delete(s.years, year)
	}
}

func (s *selector) SelectCountry(year int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(year).countries[name] = struct{}{}
}

func (s *selector) SelectCity(year int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(year).cities[name] = struct{}{}
}

func (s *selector) SelectNote(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(year).note = true
}

func (s *selector) DeselectCountry(year int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if y, ok := s.years[year]; ok {
		delete(y.countries, name)
		s.prune(year)
	}
}

func (s *selector) DeselectCity(year int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if y, ok := s.years[year]; ok {
		delete(y.cities, name)
		s.prune(year)
	}
}

func (s *selector) DeselectNote(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if y, ok := s.years[year]; ok {
		y.note = false
		s.prune(year)
	}
}

func (s *selector) IsCountrySelected(year int, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.years[year]
	if !ok {
		return false
	}
	_, ok = y.countries[name]
	return ok
}

func (s *selector) IsCitySelected(year int, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.years[year]
	if !ok {
		return false
	}
	_, ok = y.cities[name]
	return ok
}

func (s *selector) IsNoteSelected(year int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.years[year]
	return ok && y.note
}

func (s *selector) Clear(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.years, year)
}

func (s *selector) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years = make(map[int]*yearSelection)
}

func (s *selector) Quantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, y := range s.years {
		n += len(y.countries) + len(y.cities)
		if y.note {
			n++
		}
	}
	return n
}

func (s *selector) Years() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.years))
	for y := range s.years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func (s *selector) Selection(year int) (Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.years[year]
	if !ok {
		return Selection{}, false
	}
	return y.export(year), true
}

func (s *selector) All() []Selection {
	years := s.Years()
	out := make([]Selection, 0, len(years))
	for _, y := range years {
		if sel, ok := s.Selection(y); ok {
			out = append(out, sel)
		}
	}
	return out
}

func (y *yearSelection) export(year int) Selection {
	return Selection{Year: year, Countries: keys(y.countries), Cities: keys(y.cities), Note: y.note}
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
