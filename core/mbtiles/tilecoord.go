package mbtiles

import (
	"fmt"
	"strconv"
	"strings"
)

// TileCoord is a validated (z, x, y) tile address in TMS (bottom-origin) form,
// ready to be used directly against an MBTiles database.
type TileCoord struct {
	Z    uint8
	X, Y uint64
}

// ParseTileCoord parses z/x/y URL path segments (XYZ, top-origin scheme) into
// a TileCoord expressed in TMS (bottom-origin), flipping the Y axis as
// required by the MBTiles on-disk convention. An optional filename extension
// on y (e.g. "41.pbf") is stripped before parsing.
func ParseTileCoord(z, x, y string) (TileCoord, error) {
	var tc TileCoord

	z64, err := strconv.ParseUint(z, 10, 8)
	if err != nil {
		return tc, fmt.Errorf("%w: cannot parse zoom level: %v", ErrInvalidTileCoord, err)
	}
	tc.Z = uint8(z64)

	if tc.X, err = strconv.ParseUint(x, 10, 64); err != nil {
		return tc, fmt.Errorf("%w: cannot parse x coordinate: %v", ErrInvalidTileCoord, err)
	}
	if tc.X >= (1 << z64) {
		return tc, fmt.Errorf("%w: x coordinate (%d) out of bounds for zoom %d", ErrInvalidTileCoord, tc.X, tc.Z)
	}

	ys := y
	if i := strings.LastIndex(ys, "."); i >= 0 {
		ys = ys[:i]
	}

	if tc.Y, err = strconv.ParseUint(ys, 10, 64); err != nil {
		return tc, fmt.Errorf("%w: cannot parse y coordinate: %v", ErrInvalidTileCoord, err)
	}
	if tc.Y >= (1 << z64) {
		return tc, fmt.Errorf("%w: y coordinate (%d) out of bounds for zoom %d", ErrInvalidTileCoord, tc.Y, tc.Z)
	}

	// XYZ -> TMS: flip the Y axis.
	tc.Y = (1 << z64) - 1 - tc.Y

	return tc, nil
}
