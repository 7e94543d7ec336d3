// Package mbtiles contains some code parts borrowed from
// github.com/consbio/mbtileserver which is released under ISC.
//
// It reads an MBTiles SQLite file into a TileMeta descriptor and serves
// tile and UTF-Grid payloads by (z, x, y) over a pooled read-only
// connection.
package mbtiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/logger"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/tarkov-database/mbtileserver/core/format"
)

// DefaultPoolSize is used when a caller does not specify a bound on the
// number of concurrently open read-only connections for a tileset.
const DefaultPoolSize = 8

// LayerData is the optional "json" metadata key, decoded for vector
// tilesets. It is merged verbatim into detail responses.
type LayerData struct {
	VectorLayers []VectorLayer `json:"vector_layers,omitempty"`
	TileStats    *TileStats    `json:"tilestats,omitempty"`
}

// VectorLayer describes one layer of a vector tileset.
type VectorLayer struct {
	ID          string                 `json:"id"`
	Fields      map[string]interface{} `json:"fields"`
	Description string                 `json:"description,omitempty"`
	MinZoom     int                    `json:"minzoom,omitempty"`
	MaxZoom     int                    `json:"maxzoom,omitempty"`
}

// TileStats summarizes the layers found across a vector tileset.
type TileStats struct {
	LayerCount int     `json:"layerCount"`
	Layers     []Layer `json:"layers"`
}

// Layer is one entry of TileStats.
type Layer struct {
	Name           string      `json:"layer"`
	Count          int64       `json:"count"`
	Geometry       string      `json:"geometry"`
	AttributeCount int         `json:"attributeCount"`
	Attributes     []Attribute `json:"attributes,omitempty"`
}

// Attribute is one field summary within a Layer.
type Attribute struct {
	Name   string        `json:"attribute"`
	Count  int           `json:"count"`
	Type   string        `json:"type"`
	Values []interface{} `json:"values"`
}

// TileMeta is the immutable, per-tileset descriptor produced by Open. It
// owns a bounded read-only connection pool and is safe for concurrent use
// by any number of request handlers.
type TileMeta struct {
	ID   string
	Path string

	TileFormat format.Format
	HasGrid    bool
	GridFormat format.Format

	Name        string
	Version     string
	TileJSON    string
	Scheme      string
	Bounds      [4]float64
	Center      [3]float64
	MinZoom     int
	MaxZoom     int
	Description string
	Attribution string
	Legend      string
	Template    string

	LayerType string
	JSON      *LayerData

	ModTime time.Time

	db *sql.DB
}

// Open validates path as an MBTiles file, classifies its tile and grid
// formats, reads its metadata table, and returns a ready-to-use TileMeta
// bound to id. poolSize bounds the number of concurrently open read-only
// connections (clamped to DefaultPoolSize if out of [4, 16]).
func Open(ctx context.Context, path, id string, poolSize int) (*TileMeta, error) {
	if poolSize < 4 || poolSize > 16 {
		poolSize = DefaultPoolSize
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPool, err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_query_only=1")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPool, err)
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrPool, err)
	}

	tm := &TileMeta{
		ID:       id,
		Path:     path,
		TileJSON: "2.1.0",
		Scheme:   "xyz",
		ModTime:  stat.ModTime().Round(time.Second),
		db:       db,
	}

	if err := tm.validateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := tm.classifyTileFormat(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := tm.classifyGridFormat(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := tm.readMetadata(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return tm, nil
}

// Close releases the tileset's pooled connections. Called by the registry
// once no in-flight request still holds the snapshot containing tm.
func (tm *TileMeta) Close() error {
	return tm.db.Close()
}

func (tm *TileMeta) validateTables(ctx context.Context) error {
	var count int
	err := tm.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE name IN ('tiles', 'metadata')`,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	if count < 2 {
		return fmt.Errorf("%w: %s", ErrMissingTable, tm.ID)
	}
	return nil
}

func (tm *TileMeta) classifyTileFormat(ctx context.Context) error {
	var data []byte
	err := tm.db.QueryRowContext(ctx, `SELECT tile_data FROM tiles LIMIT 1`).Scan(&data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	f := format.Sniff(data)
	if f == format.Unknown {
		return fmt.Errorf("%w: %s", ErrUnknownTileFormat, tm.ID)
	}
	if f == format.GZIP {
		// vector tiles are always gzipped protobuf
		f = format.PBF
	}
	tm.TileFormat = f
	return nil
}

// classifyGridFormat checks for the five UTF-Grid tables/views by
// convention. Only grid_utfgrid is actually sampled: the "grids" view is
// a join against "map" that can be expensive to probe on large tilesets
// that happen to carry the view but no grid rows.
func (tm *TileMeta) classifyGridFormat(ctx context.Context) error {
	var count int
	err := tm.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE name IN ('grids', 'grid_data', 'grid_utfgrid', 'keymap', 'grid_key')`,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	if count != 5 {
		return nil
	}

	var data []byte
	err = tm.db.QueryRowContext(ctx, `SELECT grid_utfgrid FROM grid_utfgrid LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	tm.HasGrid = true
	tm.GridFormat = format.Sniff(data)
	return nil
}

func (tm *TileMeta) readMetadata(ctx context.Context) error {
	rows, err := tm.db.QueryContext(ctx, `SELECT name, value FROM metadata WHERE value IS NOT ''`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	defer rows.Close()

	var key, value string
	for rows.Next() {
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("%w: %v", ErrDBConnection, err)
		}

		var perr error
		switch key {
		case "name":
			tm.Name = value
		case "version":
			tm.Version = value
		case "description":
			tm.Description = value
		case "attribution":
			tm.Attribution = value
		case "legend":
			tm.Legend = value
		case "template":
			tm.Template = value
		case "type":
			tm.LayerType = value
		case "minzoom":
			tm.MinZoom, perr = strconv.Atoi(value)
		case "maxzoom":
			tm.MaxZoom, perr = strconv.Atoi(value)
		case "bounds":
			tm.Bounds, perr = parseBounds(value)
		case "center":
			tm.Center, perr = parseCenter(value)
		case "json":
			tm.JSON = &LayerData{}
			perr = json.Unmarshal([]byte(value), tm.JSON)
		default:
			// unknown keys are ignored
		}
		if perr != nil {
			return fmt.Errorf("cannot parse metadata key %q: %w", key, perr)
		}
	}
	return rows.Err()
}

// GetTile reads the tile payload for tc. A missing row is reported as
// ErrTileNotFound; callers decide whether to substitute a sentinel image.
// Note that on split-schema MBTiles files "tiles" is a view joining "map"
// and "images" on tile_id; this query resolves transparently either way.
func (tm *TileMeta) GetTile(ctx context.Context, tc TileCoord) ([]byte, error) {
	var data []byte
	err := tm.db.QueryRowContext(ctx,
		`SELECT tile_data FROM tiles WHERE zoom_level = ?1 AND tile_column = ?2 AND tile_row = ?3`,
		tc.Z, tc.X, tc.Y,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	return data, nil
}

// UTFGrid is the decoded interactivity payload for one tile.
type UTFGrid struct {
	Grid []string               `json:"grid"`
	Keys []string               `json:"keys"`
	Data map[string]interface{} `json:"data"`
}

type utfGridEnvelope struct {
	Grid []string `json:"grid"`
	Keys []string `json:"keys"`
}

// GetGrid reads and assembles the UTF-Grid payload for tc: the compressed
// grid blob from "grids", decoded via tm.GridFormat, then merged with any
// matching rows from "grid_data". A missing grid row is ErrGridNotFound; a
// tileset without grid support at all is ErrNoUTFGrid. Missing grid_data
// rows are not an error -- an empty Data map is valid.
func (tm *TileMeta) GetGrid(ctx context.Context, tc TileCoord) (*UTFGrid, error) {
	if !tm.HasGrid {
		return nil, ErrNoUTFGrid
	}

	var blob []byte
	err := tm.db.QueryRowContext(ctx,
		`SELECT grid FROM grids WHERE zoom_level = ?1 AND tile_column = ?2 AND tile_row = ?3`,
		tc.Z, tc.X, tc.Y,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGridNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	text, err := format.Decode(blob, tm.GridFormat)
	if err != nil {
		return nil, err
	}

	var envelope utfGridEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("cannot parse grid envelope: %w", err)
	}

	grid := &UTFGrid{
		Grid: envelope.Grid,
		Keys: envelope.Keys,
		Data: map[string]interface{}{},
	}

	rows, err := tm.db.QueryContext(ctx,
		`SELECT key_name, key_json FROM grid_data WHERE zoom_level = ?1 AND tile_column = ?2 AND tile_row = ?3`,
		tc.Z, tc.X, tc.Y,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch grid data: %w", err)
	}
	defer rows.Close()

	var keyName, keyJSON string
	for rows.Next() {
		if err := rows.Scan(&keyName, &keyJSON); err != nil {
			return nil, fmt.Errorf("cannot fetch grid data: %w", err)
		}
		var value interface{}
		if err := json.Unmarshal([]byte(keyJSON), &value); err != nil {
			logger.Warningf("tileset %s: cannot parse grid_data key %q: %v", tm.ID, keyName, err)
			continue
		}
		grid.Data[keyName] = value
	}

	return grid, rows.Err()
}

func parseFloatList(s string, out []float64) error {
	parts := strings.Split(s, ",")
	if len(parts) != len(out) {
		return fmt.Errorf("expected %d comma-separated values, got %d", len(out), len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

func parseBounds(s string) ([4]float64, error) {
	var b [4]float64
	err := parseFloatList(s, b[:])
	return b, err
}

func parseCenter(s string) ([3]float64, error) {
	var c [3]float64
	err := parseFloatList(s, c[:])
	return c, err
}
