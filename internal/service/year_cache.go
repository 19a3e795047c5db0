package service

import (
	"slices"
	"sort"

	"historicalmap/internal/model"
)

// yearCache is the editable copy of one year in one source. Items removed since the
// last Put are kept in removed so a save can delete them from the store.
type yearCache struct {
	data     *model.Data
	removed  *model.Data
	modified bool
	// bumped on every change, see SavePoint
	revision uint64

	// stored versions, used when recording removals
	origin     map[string]model.Country
	originNote *model.Note
}

func newYearCache(d *model.Data) *yearCache {
	data := d.Clone()
	if data.Countries == nil {
		data.Countries = []model.Country{}
	}
	if data.Cities == nil {
		data.Cities = []model.City{}
	}
	c := &yearCache{data: data, removed: model.NewData(data.Year)}
	c.snapshot()
	return c
}

// snapshot remembers the current content as the stored one.
func (c *yearCache) snapshot() {
	c.snapshotFrom(c.data)
}

func (c *yearCache) snapshotFrom(stored *model.Data) {
	c.origin = make(map[string]model.Country, len(stored.Countries))
	for _, country := range stored.Countries {
		c.origin[country.Name] = model.Country{Name: country.Name, Contour: append([]model.Coordinate(nil), country.Contour...)}
	}
	c.originNote = nil
	if stored.Note != nil {
		n := *stored.Note
		c.originNote = &n
	}
}

// markSaved is called once the content of sp reached the store. Changes made after sp
// was taken stay pending: only the removals sp carried are dropped and the year stays
// modified.
func (c *yearCache) markSaved(sp SavePoint) {
	if sp.Revision == c.revision {
		c.snapshot()
		c.clearRemoved()
		c.modified = false
		return
	}
	c.snapshotFrom(sp.Data)
	c.dropRemoved(sp.Removed)
}

// dropRemoved forgets the removal records listed in saved.
func (c *yearCache) dropRemoved(saved *model.Data) {
	for _, done := range saved.Countries {
		if i := slices.IndexFunc(c.removed.Countries, func(r model.Country) bool {
			return r.Name == done.Name && slices.Equal(r.Contour, done.Contour)
		}); i >= 0 {
			c.removed.Countries = slices.Delete(c.removed.Countries, i, i+1)
		}
	}
	for _, done := range saved.Cities {
		if i := slices.Index(c.removed.Cities, done); i >= 0 {
			c.removed.Cities = slices.Delete(c.removed.Cities, i, i+1)
		}
	}
	if saved.Note != nil && c.removed.Note != nil && *saved.Note == *c.removed.Note {
		c.removed.Note = nil
	}
}

func (c *yearCache) countryIndex(name string) int {
	for i := range c.data.Countries {
		if c.data.Countries[i].Name == name {
			return i
		}
	}
	return -1
}

func (c *yearCache) cityIndex(name string) int {
	for i := range c.data.Cities {
		if c.data.Cities[i].Name == name {
			return i
		}
	}
	return -1
}

func (c *yearCache) country(name string) *model.Country {
	if i := c.countryIndex(name); i >= 0 {
		return &c.data.Countries[i]
	}
	return nil
}

func (c *yearCache) city(name string) *model.City {
	if i := c.cityIndex(name); i >= 0 {
		return &c.data.Cities[i]
	}
	return nil
}

func (c *yearCache) countryNames() []string {
	out := make([]string, 0, len(c.data.Countries))
	for _, country := range c.data.Countries {
		out = append(out, country.Name)
	}
	sort.Strings(out)
	return out
}

func (c *yearCache) cityNames() []string {
	out := make([]string, 0, len(c.data.Cities))
	for _, city := range c.data.Cities {
		out = append(out, city.Name)
	}
	sort.Strings(out)
	return out
}

// addCountry fails when the name is taken.
func (c *yearCache) addCountry(country model.Country) bool {
	if c.countryIndex(country.Name) >= 0 {
		return false
	}
	country.Contour = append([]model.Coordinate(nil), country.Contour...)
	c.data.Countries = append(c.data.Countries, country)
	return true
}

func (c *yearCache) addCity(city model.City) bool {
	if c.cityIndex(city.Name) >= 0 {
		return false
	}
	c.data.Cities = append(c.data.Cities, city)
	return true
}

// addNote sets or replaces the note text.
func (c *yearCache) addNote(text string) {
	if c.data.Note != nil {
		c.data.Note.Text = text
		return
	}
	c.data.Note = &model.Note{Text: text}
}

// removeCountry records the country as it is in the store, so the store can match it.
func (c *yearCache) removeCountry(name string) {
	i := c.countryIndex(name)
	if i < 0 {
		return
	}
	recorded := c.data.Countries[i]
	if o, ok := c.origin[name]; ok {
		recorded = o
	}
	c.removed.Countries = append(c.removed.Countries, recorded)
	c.data.Countries = append(c.data.Countries[:i], c.data.Countries[i+1:]...)
}

func (c *yearCache) removeCity(name string) {
	i := c.cityIndex(name)
	if i < 0 {
		return
	}
	c.removed.Cities = append(c.removed.Cities, c.data.Cities[i])
	c.data.Cities = append(c.data.Cities[:i], c.data.Cities[i+1:]...)
}

func (c *yearCache) removeNote() {
	if c.data.Note == nil {
		return
	}
	n := *c.data.Note
	if c.originNote != nil {
		n = *c.originNote
	}
	c.removed.Note = &n
	c.data.Note = nil
}

func (c *yearCache) clearRemoved() {
	c.removed = model.NewData(c.data.Year)
}
