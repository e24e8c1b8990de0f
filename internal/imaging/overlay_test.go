package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"#00FF00", color.RGBA{0, 255, 0, 255}, false},
		{"#ff0000", color.RGBA{255, 0, 0, 255}, false},
		{"#123456", color.RGBA{0x12, 0x34, 0x56, 255}, false},
		{"green", color.RGBA{}, true},
		{"", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawContours(t *testing.T) {
	r := decodeRaster(t, createInMemoryImage(100, 100, color.Black))

	square := []image.Point{{20, 20}, {80, 20}, {80, 80}, {20, 80}}
	green := color.RGBA{0, 255, 0, 255}

	out, err := DrawContours(r.Mat, [][]image.Point{square}, green, 2)
	if err != nil {
		t.Fatalf("DrawContours failed: %v", err)
	}

	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// A point on the top edge of the square is green.
	cr, cg, cb, _ := out.At(50, 20).RGBA()
	if cr>>8 != 0 || cg>>8 != 255 || cb>>8 != 0 {
		t.Errorf("edge pixel: got (%d,%d,%d), want (0,255,0)", cr>>8, cg>>8, cb>>8)
	}

	// The interior stays black.
	cr, cg, cb, _ = out.At(50, 50).RGBA()
	if cr != 0 || cg != 0 || cb != 0 {
		t.Errorf("interior pixel should be untouched, got (%d,%d,%d)", cr>>8, cg>>8, cb>>8)
	}

	// The source matrix is not modified.
	if v := r.Mat.GetVecbAt(20, 50); v[1] != 0 {
		t.Errorf("source matrix was modified: %v", v)
	}
}

func TestDrawContours_Empty(t *testing.T) {
	r := decodeRaster(t, createInMemoryImage(10, 10, color.White))

	out, err := DrawContours(r.Mat, nil, color.RGBA{0, 255, 0, 255}, 2)
	if err != nil {
		t.Fatalf("DrawContours failed: %v", err)
	}
	cr, cg, cb, _ := out.At(5, 5).RGBA()
	if cr>>8 != 255 || cg>>8 != 255 || cb>>8 != 255 {
		t.Errorf("pixel: got (%d,%d,%d), want white", cr>>8, cg>>8, cb>>8)
	}
}

func TestEncodeBase64PNG(t *testing.T) {
	img := createInMemoryImage(12, 7, color.White)

	s, err := EncodeBase64PNG(img)
	if err != nil {
		t.Fatalf("EncodeBase64PNG failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 12 || decoded.Bounds().Dy() != 7 {
		t.Errorf("dimensions: got %dx%d, want 12x7", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}
