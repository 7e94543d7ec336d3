package mbtiles

import "errors"

var (
	// ErrDBConnection wraps a low-level database/sql error encountered
	// while opening or querying a tileset.
	ErrDBConnection = errors.New("database connection error")

	// ErrPool is returned when the read-only connection pool for a
	// tileset could not be established.
	ErrPool = errors.New("connection pool error")

	// ErrMissingTable is returned when a candidate MBTiles file lacks the
	// required 'tiles' and/or 'metadata' tables or views.
	ErrMissingTable = errors.New("missing required table: tiles and/or metadata")

	// ErrUnknownTileFormat is returned when the sampled tile payload does
	// not match any recognized format signature.
	ErrUnknownTileFormat = errors.New("unknown tile format")

	// ErrInvalidTileCoord is returned by ParseTileCoord for malformed or
	// out-of-range z/x/y path segments.
	ErrInvalidTileCoord = errors.New("invalid tile coordinates")

	// ErrTileNotFound is returned when no row matches the requested
	// (z, x, y) in the tiles table.
	ErrTileNotFound = errors.New("tile not found")

	// ErrNoUTFGrid is returned by GetGrid when the tileset carries no
	// grid data at all.
	ErrNoUTFGrid = errors.New("tileset does not contain UTF-Grid data")

	// ErrGridNotFound is returned when no row matches the requested
	// (z, x, y) in the grids table.
	ErrGridNotFound = errors.New("grid not found")
)
