package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestService_Prepare_NoScalingNeeded(t *testing.T) {
	svc := NewService()

	data, w, h, err := svc.Prepare(pngBytes(t, 100, 150), 2400)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if w != 100 || h != 150 {
		t.Errorf("dimensions = %dx%d, want 100x150", w, h)
	}

	// Result must decode as JPEG.
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if img.Bounds().Dx() != 100 {
		t.Errorf("decoded width = %d, want 100", img.Bounds().Dx())
	}
}

func TestService_Prepare_DownscalesLongSide(t *testing.T) {
	svc := NewService()

	_, w, h, err := svc.Prepare(pngBytes(t, 400, 200), 100)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if w != 100 || h != 50 {
		t.Errorf("dimensions = %dx%d, want 100x50", w, h)
	}

	_, w, h, err = svc.Prepare(pngBytes(t, 200, 400), 100)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if w != 50 || h != 100 {
		t.Errorf("dimensions = %dx%d, want 50x100", w, h)
	}
}

func TestService_Prepare_RejectsGarbage(t *testing.T) {
	svc := NewService()
	if _, _, _, err := svc.Prepare([]byte("not an image"), 0); err == nil {
		t.Error("expected decode error")
	}
}
