package model

// TileCoordinate addresses a slippy-map tile.
type TileCoordinate struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Zoom int `json:"z"`
}

// Tile is a decoded map tile. Pixels holds RGBA bytes, Raw the encoded source image.
type Tile struct {
	Coordinate TileCoordinate `json:"coordinate"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Pixels     []byte         `json:"-"`
	Raw        []byte         `json:"-"`
}

// BoundingBox follows the OpenStreetMap definition (west, south, east, north).
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Range is a closed interval on one plot axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Vec2 is a 2D vector, used for plot sizes and tile bounds.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlacedTile is a tile together with its bounds in zoom-0 plot space.
type PlacedTile struct {
	Coordinate TileCoordinate `json:"coordinate"`
	Min        Vec2           `json:"min"`
	Max        Vec2           `json:"max"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
}
