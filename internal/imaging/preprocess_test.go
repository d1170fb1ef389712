package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestWorkingSize(t *testing.T) {
	tests := []struct {
		w, h, limit   int
		wantW, wantH  int
	}{
		{1024, 768, 256, 256, 192},
		{200, 100, 256, 200, 100},
		{256, 100, 256, 256, 100},
		{1000, 1, 256, 256, 1},
		{1024, 768, 0, 1024, 768},
		{513, 300, 256, 256, 150},
	}
	for _, tt := range tests {
		w, h := WorkingSize(tt.w, tt.h, tt.limit)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("WorkingSize(%d, %d, %d) = %dx%d, want %dx%d",
				tt.w, tt.h, tt.limit, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestPrepare_ResizesWideImages(t *testing.T) {
	img := createEdgeTestImage(512, 384)
	p, err := Prepare(img, DefaultPrepareOptions())
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if p.Working.Bounds() != image.Rect(0, 0, 256, 192) {
		t.Errorf("working bounds: got %v", p.Working.Bounds())
	}
	if p.Blurred.Bounds() != p.Working.Bounds() || p.Edges.Bounds() != p.Working.Bounds() {
		t.Errorf("raster bounds differ: blurred %v edges %v", p.Blurred.Bounds(), p.Edges.Bounds())
	}
	if p.Scale != 2 {
		t.Errorf("Scale: got %v, want 2", p.Scale)
	}
	if countEdges(p.Edges) == 0 {
		t.Error("expected a non-empty edge map")
	}
}

func TestPrepare_KeepsNarrowImagesAndRebasesOrigin(t *testing.T) {
	base := createEdgeTestImage(120, 120)
	sub := base.SubImage(image.Rect(10, 10, 110, 90))

	opts := DefaultPrepareOptions()
	opts.BlurRadius = 0
	p, err := Prepare(sub, opts)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if p.Working.Bounds() != image.Rect(0, 0, 100, 80) {
		t.Errorf("working bounds: got %v, want (0,0)-(100,80)", p.Working.Bounds())
	}
	if p.Scale != 1 {
		t.Errorf("Scale: got %v, want 1", p.Scale)
	}
	// Without blur the copy matches the source pixel for pixel.
	want := color.RGBAModel.Convert(sub.At(40, 40)).(color.RGBA)
	if got := p.Blurred.RGBAAt(30, 30); got != want {
		t.Errorf("unblurred pixel: got %v, want %v", got, want)
	}
}

func TestPrepare_ZeroBlurCopiesWorkingImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 6), uint8(y * 8), 90, 255})
		}
	}

	opts := DefaultPrepareOptions()
	opts.BlurRadius = 0
	p, err := Prepare(img, opts)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if p.Blurred.Bounds() != p.Working.Bounds() {
		t.Fatalf("bounds: got %v, want %v", p.Blurred.Bounds(), p.Working.Bounds())
	}
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			want := color.RGBAModel.Convert(p.Working.At(x, y)).(color.RGBA)
			if got := p.Blurred.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestPrepare_BlurSmoothsStep(t *testing.T) {
	img := createEdgeTestImage(100, 100)
	opts := DefaultPrepareOptions()
	p, err := Prepare(img, opts)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	// Right at the square border the box blur mixes black and white.
	v := p.Blurred.RGBAAt(25, 50).R
	if v == 0 || v == 255 {
		t.Errorf("border pixel should be mixed after blur, got %d", v)
	}
	if p.Blurred.RGBAAt(50, 50).R != 0 {
		t.Errorf("square centre should stay black, got %d", p.Blurred.RGBAAt(50, 50).R)
	}
}

func TestPrepare_Errors(t *testing.T) {
	if _, err := Prepare(image.NewRGBA(image.Rect(0, 0, 0, 10)), DefaultPrepareOptions()); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty image: got %v, want ErrEmptyImage", err)
	}

	bad := []PrepareOptions{
		{WorkingWidth: -1, EdgeLow: 50, EdgeHigh: 150},
		{BlurRadius: -1, EdgeLow: 50, EdgeHigh: 150},
		{EdgeBlurRadius: -2, EdgeLow: 50, EdgeHigh: 150},
		{EdgeLow: 200, EdgeHigh: 100},
		{EdgeLow: 0, EdgeHigh: 300},
	}
	img := createEdgeTestImage(10, 10)
	for i, o := range bad {
		if _, err := Prepare(img, o); !errors.Is(err, ErrInvalidPrepareOptions) {
			t.Errorf("case %d: got %v, want ErrInvalidPrepareOptions", i, err)
		}
	}
}
