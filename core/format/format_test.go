package format

import (
	"encoding/hex"
	"testing"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"png", "89504e470d0a1a0a0000000d4948445200000100", PNG},
		{"jpg", "ffd8ffe000104a46494600010100000100010000", JPG},
		{"webp lossy", "52494646e22800005745425056503820d628000092b3009d012a4001", WEBP},
		{"gzip (pbf container)", "1f8b0800000000000203", GZIP},
		{"zlib", "789c0b492d2e01000457", ZLIB},
		{"too short", "89", Unknown},
		{"empty", "", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := hex.DecodeString(tt.data)
			if err != nil {
				t.Fatalf("decoding hex: %v", err)
			}
			if got := Sniff(data); got != tt.want {
				t.Errorf("Sniff(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestFormatShortName(t *testing.T) {
	tests := []struct {
		f    Format
		want string
	}{
		{PNG, "png"},
		{JPG, "jpg"},
		{WEBP, "webp"},
		{PBF, "pbf"},
		{Unknown, ""},
	}

	for _, tt := range tests {
		if got := tt.f.ShortName(); got != tt.want {
			t.Errorf("%v.ShortName() = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestFromShortName(t *testing.T) {
	if got := FromShortName("pbf"); got != PBF {
		t.Errorf(`FromShortName("pbf") = %v, want PBF`, got)
	}
	if got := FromShortName("nope"); got != Unknown {
		t.Errorf(`FromShortName("nope") = %v, want Unknown`, got)
	}
}

func TestContentType(t *testing.T) {
	if ct := PNG.ContentType(); ct != "image/png" {
		t.Errorf("PNG.ContentType() = %q, want image/png", ct)
	}
	if ct := PBF.ContentType(); ct != "application/x-protobuf" {
		t.Errorf("PBF.ContentType() = %q, want application/x-protobuf", ct)
	}
}

func TestEncodeGzipRoundTrip(t *testing.T) {
	in := []byte(`{"hello":"world"}`)
	gz, err := EncodeGzip(in)
	if err != nil {
		t.Fatalf("EncodeGzip: %v", err)
	}
	if Sniff(gz) != GZIP {
		t.Errorf("Sniff(EncodeGzip(...)) = %v, want GZIP", Sniff(gz))
	}

	out, err := Decode(gz, GZIP)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != string(in) {
		t.Errorf("Decode(EncodeGzip(x)) = %q, want %q", out, string(in))
	}
}
