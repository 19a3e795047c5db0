// Package tile fetches, stores and decodes slippy-map tiles and holds the tile math.
// Tile indices follow https://wiki.openstreetmap.org/wiki/Slippy_map_tilenames.
package tile

import (
	"math"

	"historicalmap/internal/model"
)

const (
	Size    = 256
	MinZoom = 0
	MaxZoom = 18
)

func Deg2Rad(deg float64) float64 { return deg * math.Pi / 180 }
func Rad2Deg(rad float64) float64 { return rad * 180 / math.Pi }

func tiles(zoom int) float64 { return float64(int(1) << zoom) }

// LongitudeToXf is the fractional tile x of longitude at zoom.
func LongitudeToXf(lon float64, zoom int) float64 {
	return tiles(zoom) * (lon + 180) / 360
}

// LatitudeToYf is the fractional tile y of latitude at zoom.
func LatitudeToYf(lat float64, zoom int) float64 {
	return tiles(zoom) * (1 - math.Asinh(math.Tan(Deg2Rad(lat)))/math.Pi) / 2
}

func LongitudeToX(lon float64, zoom int) int { return int(math.Floor(LongitudeToXf(lon, zoom))) }
func LatitudeToY(lat float64, zoom int) int  { return int(math.Floor(LatitudeToYf(lat, zoom))) }

func XToLongitude(x float64, zoom int) float64 {
	return 360*x/tiles(zoom) - 180
}

func YToLatitude(y float64, zoom int) float64 {
	return Rad2Deg(math.Atan(math.Sinh(math.Pi * (1 - 2*y/tiles(zoom)))))
}

// TileBound maps a tile index to zoom-0 plot space.
func TileBound(coord, zoom int) float64 {
	return float64(coord) / tiles(zoom)
}

// BestZoomLevel picks the deepest zoom at which bbox still fits a width x height viewport.
// See https://learn.microsoft.com/en-us/azure/azure-maps/zoom-levels-and-tile-grid.
func BestZoomLevel(bbox model.BoundingBox, padding, width, height float64) int {
	lonDelta := bbox.East - bbox.West
	if bbox.East <= bbox.West {
		lonDelta = 360 - (bbox.West - bbox.East)
	}
	resH := lonDelta / (width - padding*2)

	ry1 := math.Log((math.Sin(Deg2Rad(bbox.South)) + 1) / math.Cos(Deg2Rad(bbox.South)))
	ry2 := math.Log((math.Sin(Deg2Rad(bbox.North)) + 1) / math.Cos(Deg2Rad(bbox.North)))
	centerLat := Rad2Deg(math.Atan(math.Sinh((ry1 + ry2) / 2)))
	vy0 := math.Log(math.Tan(math.Pi * (0.25 + centerLat/360)))
	vy1 := math.Log(math.Tan(math.Pi * (0.25 + bbox.North/360)))
	zoomFactor := (height*0.5 - padding) / (40.7436654315252 * (vy1 - vy0))
	resV := 360 / (zoomFactor * Size)

	res := math.Max(resV, resH)
	z := math.Log2(360 / (res * Size))
	switch {
	case math.IsNaN(z), math.IsInf(z, -1):
		return MinZoom
	case math.IsInf(z, 1):
		return MaxZoom
	}
	return int(z)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// MaxPlotSize bounds each axis of a viewport in pixels. A plot of w pixels spans at most
// w/Size+1 tiles per axis at the zoom BestZoomLevel picks, so a window never needs more
// than MaxWindowTiles tiles.
const (
	MaxPlotSize    = 8192
	MaxWindowTiles = (MaxPlotSize/Size + 2) * (MaxPlotSize/Size + 2)
)

// Window is the set of tiles covering a plot viewport.
type Window struct {
	BBox                   model.BoundingBox
	Zoom                   int
	XMin, XMax, YMin, YMax int
}

// Len is the number of tiles in w.
func (w Window) Len() int {
	return (w.XMax - w.XMin + 1) * (w.YMax - w.YMin + 1)
}

// Coordinates lists the tiles of w column by column.
func (w Window) Coordinates() []model.TileCoordinate {
	out := make([]model.TileCoordinate, 0, w.Len())
	for x := w.XMin; x <= w.XMax; x++ {
		for y := w.YMin; y <= w.YMax; y++ {
			out = append(out, model.TileCoordinate{X: x, Y: y, Zoom: w.Zoom})
		}
	}
	return out
}

// Place returns the zoom-0 plot bounds of c.
func Place(c model.TileCoordinate) (minB, maxB model.Vec2) {
	minB = model.Vec2{X: TileBound(c.X, c.Zoom), Y: TileBound(c.Y, c.Zoom)}
	maxB = model.Vec2{X: TileBound(c.X+1, c.Zoom), Y: TileBound(c.Y+1, c.Zoom)}
	return minB, maxB
}

// WindowFor computes the tiles covering the plot axes. Axis values are zoom-0 tile units.
func WindowFor(xAxis, yAxis model.Range, plotSize model.Vec2) Window {
	bbox := model.BoundingBox{
		West:  XToLongitude(xAxis.Min, 0),
		East:  XToLongitude(xAxis.Max, 0),
		North: YToLatitude(yAxis.Min, 0),
		South: YToLatitude(yAxis.Max, 0),
	}
	zoom := Clamp(BestZoomLevel(bbox, 0, plotSize.X, plotSize.Y), MinZoom, MaxZoom)
	limit := int(1)<<zoom - 1
	return Window{
		BBox: bbox,
		Zoom: zoom,
		XMin: Clamp(LongitudeToX(bbox.West, zoom), 0, limit),
		XMax: Clamp(LongitudeToX(bbox.East, zoom), 0, limit),
		YMin: Clamp(LatitudeToY(bbox.North, zoom), 0, limit),
		YMax: Clamp(LatitudeToY(bbox.South, zoom), 0, limit),
	}
}
