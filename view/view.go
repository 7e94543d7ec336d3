// Package view assembles HTTP responses: JSON encoding, raw tile bytes
// with the right Content-Type/Content-Encoding, and gzip-wrapped UTF-Grid
// JSON, mirroring the teacher's render-at-the-edge style.
package view

import (
	"encoding/json"
	"net/http"

	"github.com/google/logger"

	"github.com/tarkov-database/mbtileserver/core/format"
)

const contentTypeJSON = "application/json"

// RenderJSON encodes data as JSON and writes it with status.
func RenderJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(err)
	}
}

// Error writes a short plain-text error body. User-visible bodies never
// leak internal error detail or stack information.
func Error(w http.ResponseWriter, message string, status int) {
	http.Error(w, message, status)
}

// Tile writes a raw tile payload with the content-type derived from f. PBF
// tiles are always gzip-compressed on disk, so Content-Encoding: gzip is
// set alongside them.
func Tile(w http.ResponseWriter, data []byte, f format.Format, status int) {
	w.Header().Set("Content-Type", f.ContentType())
	if f == format.PBF {
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.WriteHeader(status)
	w.Write(data)
}

// Grid gzip-encodes a UTF-Grid JSON document and writes it with
// Content-Type: application/json, Content-Encoding: gzip.
func Grid(w http.ResponseWriter, grid interface{}, status int) {
	body, err := json.Marshal(grid)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gz, err := format.EncodeGzip(body)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Content-Encoding", "gzip")
	w.WriteHeader(status)
	w.Write(gz)
}
