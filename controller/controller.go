// Package controller implements the request handlers the router dispatches
// to: list, detail, map preview, tile/grid, and reload. It owns the
// spec's "path parse" sub-step for everything under /services, since
// tileset ids may themselves contain slashes and so cannot be expressed
// as simple httprouter params.
package controller

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/zeebo/blake3"

	"github.com/tarkov-database/mbtileserver/core/format"
	"github.com/tarkov-database/mbtileserver/core/mbtiles"
	"github.com/tarkov-database/mbtileserver/core/registry"
	"github.com/tarkov-database/mbtileserver/core/reload"
	"github.com/tarkov-database/mbtileserver/preview"
	"github.com/tarkov-database/mbtileserver/view"
)

// Controller holds the dependencies shared by every handler.
type Controller struct {
	Registry       *registry.Registry
	Reloader       *reload.Coordinator
	DisablePreview bool
	AllowReloadAPI bool
}

var blankPNG = mustDecodeBase64(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=",
)

func mustDecodeBase64(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// ServicesRoot handles GET /services: a JSON array of every known tileset.
func (c *Controller) ServicesRoot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	entries := c.Registry.List()
	base := baseURL(requestScheme(r.TLS != nil, r.Header.Get("X-Forwarded-Proto")), r.Host)

	summaries := make([]tileSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, tileSummary{
			ImageType: e.Tile.TileFormat.ShortName(),
			URL:       escapedTilesetURL(base, e.ID),
		})
	}

	view.RenderJSON(w, summaries, http.StatusOK)
}

// Services handles everything under /services/, dispatching to detail,
// map preview, or tile/grid handling based on the parsed path.
func (c *Controller) Services(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rest := strings.Trim(ps.ByName("rest"), "/")
	if rest == "" {
		c.ServicesRoot(w, r, ps)
		return
	}

	switch route := parseServicesPath(rest); route.kind {
	case routeTile:
		c.tile(w, r, route.id, route.z, route.x, route.yext)
	case routeMap:
		c.preview(w, r, route.id)
	default:
		c.detail(w, r, route.id)
	}
}

type routeKind int

const (
	routeDetail routeKind = iota
	routeMap
	routeTile
)

type servicesRoute struct {
	kind       routeKind
	id         string
	z, x, yext string
}

// parseServicesPath splits the "/services/" catch-all remainder into an id
// (which may itself contain slashes) plus the trailing operation, since
// "tiles/{z}/{x}/{y}.{ext}" and "map" are the only two reserved suffixes.
func parseServicesPath(rest string) servicesRoute {
	segments := strings.Split(rest, "/")

	if len(segments) >= 4 && segments[len(segments)-4] == "tiles" {
		return servicesRoute{
			kind: routeTile,
			id:   strings.Join(segments[:len(segments)-4], "/"),
			z:    segments[len(segments)-3],
			x:    segments[len(segments)-2],
			yext: segments[len(segments)-1],
		}
	}

	if segments[len(segments)-1] == "map" {
		return servicesRoute{
			kind: routeMap,
			id:   strings.Join(segments[:len(segments)-1], "/"),
		}
	}

	return servicesRoute{kind: routeDetail, id: strings.Join(segments, "/")}
}

func (c *Controller) detail(w http.ResponseWriter, r *http.Request, id string) {
	tm, ok := c.Registry.Get(id)
	if !ok {
		view.Error(w, "Tileset does not exist: "+id, http.StatusNotFound)
		return
	}

	base := baseURL(requestScheme(r.TLS != nil, r.Header.Get("X-Forwarded-Proto")), r.Host)
	tj := buildTileJSON(tm, base, id, r.URL.RawQuery)
	view.RenderJSON(w, tj, http.StatusOK)
}

func (c *Controller) preview(w http.ResponseWriter, r *http.Request, id string) {
	if c.DisablePreview {
		view.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	tm, ok := c.Registry.Get(id)
	if !ok {
		view.Error(w, "Tileset does not exist: "+id, http.StatusNotFound)
		return
	}

	base := baseURL(requestScheme(r.TLS != nil, r.Header.Get("X-Forwarded-Proto")), r.Host)
	tileURL := ""
	if j := buildTileJSON(tm, base, id, ""); len(j.Tiles) > 0 {
		tileURL = j.Tiles[0]
	}

	if err := preview.Render(w, tm, tileURL); err != nil {
		view.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (c *Controller) tile(w http.ResponseWriter, r *http.Request, id, z, x, yext string) {
	tm, ok := c.Registry.Get(id)
	if !ok {
		view.Error(w, "Tileset does not exist: "+id, http.StatusNotFound)
		return
	}

	ext := extensionOf(yext)
	isGrid := ext == "json"

	tc, err := mbtiles.ParseTileCoord(z, x, yext)
	if err != nil {
		view.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if isGrid {
		c.serveGrid(ctx, w, tm, tc)
		return
	}
	c.serveTile(ctx, w, r, tm, tc)
}

func (c *Controller) serveTile(ctx context.Context, w http.ResponseWriter, r *http.Request, tm *mbtiles.TileMeta, tc mbtiles.TileCoord) {
	data, err := tm.GetTile(ctx, tc)
	if err != nil {
		switch {
		case errors.Is(err, mbtiles.ErrTileNotFound):
			c.serveMissingTile(w, tm)
		default:
			view.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	hash := etagOf(data)
	if notModified(r, tm.ModTime, hash) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Last-Modified", tm.ModTime.UTC().Format(http.TimeFormat))
	w.Header().Set("ETag", hash)
	view.Tile(w, data, tm.TileFormat, http.StatusOK)
}

// notModified reports whether the request's conditional headers indicate
// the client's cached copy is still current, mirroring the teacher's
// If-Modified-Since-then-If-None-Match precedence.
func notModified(r *http.Request, modTime time.Time, hash string) bool {
	if header := r.Header.Get("If-Modified-Since"); header != "" {
		since, err := time.Parse(http.TimeFormat, header)
		if err == nil && !modTime.After(since) {
			return true
		}
	}
	return r.Header.Get("If-None-Match") == hash
}

// serveMissingTile implements the fixed missing-tile policy: 404 for
// vector (PBF/JSON) tiles, a blank transparent PNG sentinel for raster
// (PNG/JPG/WEBP) tiles.
func (c *Controller) serveMissingTile(w http.ResponseWriter, tm *mbtiles.TileMeta) {
	switch tm.TileFormat {
	case format.PNG, format.JPG, format.WEBP:
		view.Tile(w, blankPNG, format.PNG, http.StatusOK)
	default:
		view.Error(w, "Tile not found", http.StatusNotFound)
	}
}

func (c *Controller) serveGrid(ctx context.Context, w http.ResponseWriter, tm *mbtiles.TileMeta, tc mbtiles.TileCoord) {
	grid, err := tm.GetGrid(ctx, tc)
	if err != nil {
		switch {
		case errors.Is(err, mbtiles.ErrNoUTFGrid), errors.Is(err, mbtiles.ErrGridNotFound):
			view.Error(w, "Grid not found", http.StatusNotFound)
		default:
			view.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	view.Grid(w, grid, http.StatusOK)
}

// Reload handles POST /reload: it enqueues a reload and returns
// immediately without waiting for the walk to complete.
func (c *Controller) Reload(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if !c.AllowReloadAPI {
		view.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	c.Reloader.TriggerReload()
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("reload scheduled"))
}

func etagOf(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

func extensionOf(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return ""
}
