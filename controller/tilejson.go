package controller

import (
	"fmt"

	"github.com/tarkov-database/mbtileserver/core/mbtiles"
)

// tileJSONVersion is the TileJSON spec version this descriptor targets.
const tileJSONVersion = "2.1.0"

// tileJSON is the TileJSON-like descriptor returned for GET /services/<id>.
type tileJSON struct {
	TileJSON    string     `json:"tilejson"`
	Name        string     `json:"name,omitempty"`
	Version     string     `json:"version,omitempty"`
	Scheme      string     `json:"scheme,omitempty"`
	Description string     `json:"description,omitempty"`
	Attribution string     `json:"attribution,omitempty"`
	Legend      string     `json:"legend,omitempty"`
	Template    string     `json:"template,omitempty"`
	Tiles       []string   `json:"tiles"`
	Grids       []string   `json:"grids,omitempty"`
	MinZoom     int        `json:"minzoom,omitempty"`
	MaxZoom     int        `json:"maxzoom,omitempty"`
	Bounds      [4]float64 `json:"bounds,omitempty"`
	Center      [3]float64 `json:"center,omitempty"`

	*mbtiles.LayerData `json:",omitempty"`
}

// tileSummary is one entry of the GET /services list response.
type tileSummary struct {
	ImageType string `json:"imageType"`
	URL       string `json:"url"`
}

// buildTileJSON assembles the detail response for tm, templating the
// tiles/grids URL using baseURL ("<scheme>://<host>/services") and
// preserving the original request's query string on the generated URLs.
func buildTileJSON(tm *mbtiles.TileMeta, baseURL, id, rawQuery string) *tileJSON {
	tsURL := fmt.Sprintf("%s/%s", baseURL, id)

	query := ""
	if rawQuery != "" {
		query = "?" + rawQuery
	}

	tj := &tileJSON{
		TileJSON:    tileJSONVersion,
		Name:        tm.Name,
		Version:     tm.Version,
		Scheme:      tm.Scheme,
		Description: tm.Description,
		Attribution: tm.Attribution,
		Legend:      tm.Legend,
		Template:    tm.Template,
		MinZoom:     tm.MinZoom,
		MaxZoom:     tm.MaxZoom,
		Bounds:      tm.Bounds,
		Center:      tm.Center,
		Tiles: []string{
			fmt.Sprintf("%s/tiles/{z}/{x}/{y}.%s%s", tsURL, tm.TileFormat.ShortName(), query),
		},
		LayerData: tm.JSON,
	}

	if tm.HasGrid {
		tj.Grids = []string{fmt.Sprintf("%s/tiles/{z}/{x}/{y}.json%s", tsURL, query)}
	}

	return tj
}

// baseURL derives "<scheme>://<host>/services" from the request, per
// spec.md §3.
func baseURL(scheme, host string) string {
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/services", scheme, host)
}

func requestScheme(tls bool, forwardedProto string) string {
	if forwardedProto != "" {
		return forwardedProto
	}
	if tls {
		return "https"
	}
	return "http"
}

// escapedTilesetURL returns the un-templated tileset detail URL, used by
// the list endpoint. id may itself contain slashes (nested tileset paths),
// so it is joined verbatim rather than path-escaped as a single segment.
func escapedTilesetURL(base, id string) string {
	return fmt.Sprintf("%s/%s", base, id)
}
