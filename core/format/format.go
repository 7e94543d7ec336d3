// Package format implements content-sniffing and (de)compression for the
// tile and UTF-Grid payloads stored inside an MBTiles database.
package format

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// Format is a tagged variant over the payload kinds a tileset can store.
type Format int

const (
	Unknown Format = iota
	PNG
	JPG
	WEBP
	JSON
	PBF
	GZIP
	ZLIB
)

var shortNames = [...]string{
	"",
	"png",
	"jpg",
	"webp",
	"json",
	"pbf",
	"gzip",
	"zlib",
}

// ShortName returns the lowercase extension-style name of the format, e.g. "png".
func (f Format) ShortName() string {
	if int(f) < 0 || int(f) >= len(shortNames) {
		return ""
	}
	return shortNames[f]
}

// ContentType returns the MIME type associated with the format.
func (f Format) ContentType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPG:
		return "image/jpeg"
	case WEBP:
		return "image/webp"
	case JSON:
		return "application/json"
	case PBF:
		return "application/x-protobuf"
	default:
		return "application/octet-stream"
	}
}

// IsCompressedContainer reports whether the format is itself a compression
// wrapper (GZIP, ZLIB) rather than terminal tile content.
func (f Format) IsCompressedContainer() bool {
	return f == GZIP || f == ZLIB
}

func (f Format) String() string {
	if name := f.ShortName(); name != "" {
		return name
	}
	return "unknown"
}

// FromShortName resolves a short name (as used in URL extensions or the
// "format" metadata key) back to a Format. Unrecognized names return Unknown.
func FromShortName(s string) Format {
	for i, name := range shortNames {
		if name != "" && name == s {
			return Format(i)
		}
	}
	return Unknown
}

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpgMagic  = []byte{0xFF, 0xD8, 0xFF}
	gzipMagic = []byte{0x1F, 0x8B}
	zlibMagic = []byte{0x78, 0x9C}
)

// Sniff examines the leading bytes of data and classifies its format.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return GZIP
	case bytes.HasPrefix(data, zlibMagic):
		return ZLIB
	case bytes.HasPrefix(data, pngMagic):
		return PNG
	case bytes.HasPrefix(data, jpgMagic):
		return JPG
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return WEBP
	default:
		return Unknown
	}
}

// ErrInvalidDataFormat is returned by Decode when asked to inflate a format
// that is not a compression container.
var ErrInvalidDataFormat = errors.New("invalid data format for decode")

// Decode inflates a GZIP or ZLIB payload to its underlying UTF-8 text.
func Decode(data []byte, f Format) (string, error) {
	var r io.ReadCloser
	var err error

	switch f {
	case GZIP:
		r, err = gzip.NewReader(bytes.NewReader(data))
	case ZLIB:
		r, err = zlib.NewReader(bytes.NewReader(data))
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidDataFormat, f)
	}
	if err != nil {
		return "", err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeGzip compresses data at the default compression level.
func EncodeGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
