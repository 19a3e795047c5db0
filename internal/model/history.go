package model

// Coordinate is a WGS84 point. Latitude first, matching the stored pair order.
type Coordinate struct {
	Latitude  float32 `json:"latitude" bson:"latitude"`
	Longitude float32 `json:"longitude" bson:"longitude"`
}

// Country is a named border contour valid for one year.
type Country struct {
	Name    string       `json:"name" bson:"name"`
	Contour []Coordinate `json:"contour" bson:"contour"`
}

// City is a named location. Its coordinate is shared by every year it appears in.
type City struct {
	Name       string     `json:"name" bson:"name"`
	Coordinate Coordinate `json:"coordinate" bson:"coordinate"`
}

// Note is the free text attached to a year.
type Note struct {
	Text string `json:"text" bson:"text"`
}

// Data is the atlas content of a single year.
type Data struct {
	Year      int       `json:"year" bson:"year"`
	Countries []Country `json:"countries" bson:"countries"`
	Cities    []City    `json:"cities" bson:"cities"`
	Note      *Note     `json:"note,omitempty" bson:"note,omitempty"`
}

// NewData returns an empty year with non-nil slices so it serializes as [] rather than null.
func NewData(year int) *Data {
	return &Data{Year: year, Countries: []Country{}, Cities: []City{}}
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	out := &Data{
		Year:      d.Year,
		Countries: make([]Country, len(d.Countries)),
		Cities:    make([]City, len(d.Cities)),
	}
	for i, c := range d.Countries {
		out.Countries[i] = Country{Name: c.Name, Contour: append([]Coordinate(nil), c.Contour...)}
	}
	copy(out.Cities, d.Cities)
	if d.Note != nil {
		n := *d.Note
		out.Note = &n
	}
	return out
}

// IsEmpty reports whether the year carries no countries, cities or note.
func (d *Data) IsEmpty() bool {
	return d == nil || (len(d.Countries) == 0 && len(d.Cities) == 0 && d.Note == nil)
}
