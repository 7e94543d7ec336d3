// Package preview renders the /services/<id>/map HTML preview and serves
// the static asset tree that page depends on. The preview's HTML/JS asset
// content is an external collaborator of the core server (spec.md §1); this
// package only implements the *selection and serving* logic spec.md §4.6
// assigns to the router: vector tilesets get the vector template, raster
// tilesets get the raster template, and /static/<path> serves whatever the
// operator has deployed into the embedded asset tree.
package preview

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/tarkov-database/mbtileserver/core/mbtiles"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var (
	rasterTmpl = template.Must(template.ParseFS(templateFS, "templates/raster.html.tmpl"))
	vectorTmpl = template.Must(template.ParseFS(templateFS, "templates/vector.html.tmpl"))
)

// StaticHandler returns an http.Handler serving the embedded static asset
// tree, rooted so that a request for /static/foo.js serves static/foo.js.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

type templateData struct {
	Name        string
	TileURL     string
	Attribution string
	MinZoom     int
	MaxZoom     int
	CenterLat   float64
	CenterLon   float64
	CenterZoom  float64
}

// Render writes the preview page for tm to w, selecting the vector
// template when tm carries vector-layer metadata and the raster template
// otherwise.
func Render(w http.ResponseWriter, tm *mbtiles.TileMeta, tileURL string) error {
	data := templateData{
		Name:        tm.Name,
		TileURL:     tileURL,
		Attribution: tm.Attribution,
		MinZoom:     tm.MinZoom,
		MaxZoom:     tm.MaxZoom,
		CenterZoom:  float64(tm.MinZoom),
	}
	if tm.Center != [3]float64{} {
		data.CenterLon, data.CenterLat, data.CenterZoom = tm.Center[0], tm.Center[1], tm.Center[2]
	}

	tmpl := rasterTmpl
	if isVector(tm) {
		tmpl = vectorTmpl
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.Execute(w, data)
}

func isVector(tm *mbtiles.TileMeta) bool {
	return tm.JSON != nil && len(tm.JSON.VectorLayers) > 0
}
