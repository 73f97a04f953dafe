package optimize

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"gifopt/config"
)

func testFrame(w, h, seed int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x*7 + seed*31) % 256),
				G: uint8((y*11 + seed*17) % 256),
				B: uint8((x*y + seed) % 256),
				A: 0xff,
			})
		}
	}
	return m
}

func testPlan(n, w, h int) SelectionPlan {
	plan := SelectionPlan{Duration: 83}
	for i := 0; i < n; i++ {
		plan.Frames = append(plan.Frames, Selection{Image: testFrame(w, h, i), Index: i * 2})
	}
	return plan
}

func TestPipeline_Run(t *testing.T) {
	p := &Pipeline{Size: Dimensions{12, 6}, Colors: 16, Workers: 4, Palette: config.PaletteLocal}
	out, err := p.Run(context.Background(), testPlan(5, 24, 12))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("got %d frames, want 5", len(out))
	}
	for i, f := range out {
		if f.Image.Bounds() != image.Rect(0, 0, 12, 6) {
			t.Errorf("frame %d bounds = %v, want 12x6", i, f.Image.Bounds())
		}
		if f.Duration != 83 {
			t.Errorf("frame %d duration = %d, want 83", i, f.Duration)
		}
		if len(f.Image.Palette) > 16 {
			t.Errorf("frame %d palette has %d entries, want <= 16", i, len(f.Image.Palette))
		}
	}
}

func TestPipeline_OrderIndependentOfWorkers(t *testing.T) {
	plan := testPlan(9, 20, 20)
	sequential := &Pipeline{Size: Dimensions{10, 10}, Colors: 8, Workers: 1}
	parallel := &Pipeline{Size: Dimensions{10, 10}, Colors: 8, Workers: 8}

	a, err := sequential.Run(context.Background(), plan)
	if err != nil {
		t.Fatal(err)
	}
	b, err := parallel.Run(context.Background(), plan)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if !bytes.Equal(a[i].Image.Pix, b[i].Image.Pix) {
			t.Errorf("frame %d differs between sequential and parallel runs", i)
		}
		if paletteString(a[i].Image.Palette) != paletteString(b[i].Image.Palette) {
			t.Errorf("frame %d palette differs between sequential and parallel runs", i)
		}
	}
}

func TestPipeline_TwoColors(t *testing.T) {
	for _, mode := range []config.PaletteMode{config.PaletteLocal, config.PaletteShared} {
		t.Run(string(mode), func(t *testing.T) {
			p := &Pipeline{Size: Dimensions{8, 8}, Colors: 2, Workers: 2, Palette: mode}
			out, err := p.Run(context.Background(), testPlan(4, 16, 16))
			if err != nil {
				t.Fatal(err)
			}
			for i, f := range out {
				if len(f.Image.Palette) > 2 {
					t.Errorf("frame %d palette has %d entries, want <= 2", i, len(f.Image.Palette))
				}
			}
		})
	}
}

func TestPipeline_SharedPalette(t *testing.T) {
	p := &Pipeline{Size: Dimensions{8, 8}, Colors: 32, Workers: 3, Palette: config.PaletteShared}
	out, err := p.Run(context.Background(), testPlan(4, 16, 16))
	if err != nil {
		t.Fatal(err)
	}
	want := paletteString(out[0].Image.Palette)
	for i, f := range out[1:] {
		if paletteString(f.Image.Palette) != want {
			t.Errorf("frame %d does not use the shared palette", i+1)
		}
	}
}

func TestPipeline_FrameFailureAborts(t *testing.T) {
	plan := testPlan(4, 8, 8)
	plan.Frames[2].Image = image.NewNRGBA(image.Rectangle{})

	p := &Pipeline{Size: Dimensions{4, 4}, Colors: 8, Workers: 2}
	out, err := p.Run(context.Background(), plan)
	if err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if out != nil {
		t.Error("partial output returned on failure")
	}
	if !errors.Is(err, ErrTransform) {
		t.Errorf("error = %v, want ErrTransform", err)
	}
	var oe *Error
	if !errors.As(err, &oe) || oe.Frame != 2 {
		t.Errorf("error = %#v, want frame 2", err)
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Pipeline{Size: Dimensions{4, 4}, Colors: 8, Workers: 2}
	if _, err := p.Run(ctx, testPlan(3, 8, 8)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestForEach_Limit(t *testing.T) {
	p := &Pipeline{Workers: 2}
	var running, peak atomic.Int32
	done := make([]bool, 8)
	err := p.forEach(context.Background(), len(done), func(i int) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		done[i] = true
		return nil
	})
	if err != nil {
		t.Fatalf("forEach() error = %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", got)
	}
	for i, ok := range done {
		if !ok {
			t.Errorf("index %d never ran", i)
		}
	}
}

func TestForEach_LowestIndexError(t *testing.T) {
	p := &Pipeline{Workers: 4}
	errLow := errors.New("low")
	errHigh := errors.New("high")
	entered, release := make(chan struct{}), make(chan struct{})
	err := p.forEach(context.Background(), 4, func(i int) error {
		switch i {
		case 1:
			close(entered)
			<-release
			return errLow
		case 3:
			<-entered
			close(release)
			return errHigh
		}
		return nil
	})
	if !errors.Is(err, errLow) {
		t.Errorf("forEach() error = %v, want the index 1 error", err)
	}
}

func paletteString(pal color.Palette) string {
	var b []byte
	for _, c := range pal {
		r, g, bl, a := c.RGBA()
		b = append(b, byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8))
	}
	return string(b)
}
