package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"historicalmap/internal/model"
	"historicalmap/internal/tile"
)

func newTileCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tile",
		Short: "Slippy map tile arithmetic",
		Example: "  histmapctl tile xy --lat 48.85 --lon 2.35 --zoom 10\n" +
			"  histmapctl tile zoom --west -10 --south 35 --east 30 --north 60 --width 800 --height 600",
	}
	cmd.AddCommand(newTileXYCommand(out), newTileLonLatCommand(out), newTileZoomCommand(out))
	return cmd
}

func newTileXYCommand(out io.Writer) *cobra.Command {
	var (
		lat, lon float64
		zoom     int
	)
	cmd := &cobra.Command{
		Use:   "xy",
		Short: "Tile containing a coordinate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if zoom < 0 || zoom > 18 {
				return usageErrorf("--zoom must be between 0 and 18")
			}
			_, err := fmt.Fprintf(out, "z=%d x=%d y=%d\n", zoom, tile.LongitudeToX(lon, zoom), tile.LatitudeToY(lat, zoom))
			return err
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().IntVar(&zoom, "zoom", 0, "Zoom level")
	return cmd
}

func newTileLonLatCommand(out io.Writer) *cobra.Command {
	var x, y float64
	var zoom int
	cmd := &cobra.Command{
		Use:   "lonlat",
		Short: "North-west corner of a tile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(out, "lon=%.6f lat=%.6f\n", tile.XToLongitude(x, zoom), tile.YToLatitude(y, zoom))
			return err
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "Tile x")
	cmd.Flags().Float64Var(&y, "y", 0, "Tile y")
	cmd.Flags().IntVar(&zoom, "zoom", 0, "Zoom level")
	return cmd
}

func newTileZoomCommand(out io.Writer) *cobra.Command {
	var (
		bbox          model.BoundingBox
		padding       float64
		width, height float64
	)
	cmd := &cobra.Command{
		Use:   "zoom",
		Short: "Best zoom level to show a bounding box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 || height <= 0 {
				return usageErrorf("--width and --height must be positive")
			}
			_, err := fmt.Fprintf(out, "zoom=%d\n", tile.BestZoomLevel(bbox, padding, width, height))
			return err
		},
	}
	cmd.Flags().Float64Var(&bbox.West, "west", -180, "West longitude")
	cmd.Flags().Float64Var(&bbox.South, "south", -85, "South latitude")
	cmd.Flags().Float64Var(&bbox.East, "east", 180, "East longitude")
	cmd.Flags().Float64Var(&bbox.North, "north", 85, "North latitude")
	cmd.Flags().Float64Var(&padding, "padding", 0, "Padding in pixels")
	cmd.Flags().Float64Var(&width, "width", 256, "Viewport width in pixels")
	cmd.Flags().Float64Var(&height, "height", 256, "Viewport height in pixels")
	return cmd
}
