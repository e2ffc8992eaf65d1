package overlay

import (
	"image"
	"testing"

	"github.com/ayusman/bebas/internal/pipeline"
	"github.com/ayusman/bebas/internal/skeleton"
	"gocv.io/x/gocv"
)

func TestProjector_ToImage(t *testing.T) {
	pr := Projector{
		Display:        pipeline.DisplayMetrics{Width: 390, Height: 844},
		VerticalOffset: 10,
	}
	size := image.Pt(640, 480)

	tests := []struct {
		name   string
		p      skeleton.Point
		want   image.Point
		wantOK bool
	}{
		{"origin", skeleton.Pt(0, 10), image.Pt(0, 0), true},
		{"far corner", skeleton.Pt(390, 854), image.Pt(640, 480), true},
		{"center", skeleton.Pt(195, 432), image.Pt(320, 240), true},
		{"absent", skeleton.Point{}, image.Point{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pr.ToImage(tt.p, size)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ToImage(%v) = %v, %v; want %v, %v", tt.p, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	t.Run("zero display", func(t *testing.T) {
		if _, ok := (Projector{}).ToImage(skeleton.Pt(1, 1), size); ok {
			t.Error("zero display metrics should not project")
		}
	})
}

func TestRender(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	var slots [skeleton.NumSlots]skeleton.Slot
	slots[1] = skeleton.AbsentSlot()
	for j := range slots[0] {
		slots[0][j] = skeleton.Pt(100+float64(j)*5, 300+float64(j)*5)
	}

	res := pipeline.FrameResult{
		Display:  skeleton.Join(slots),
		Label:    "Saya",
		HasLabel: true,
	}
	pr := Projector{Display: pipeline.DisplayMetrics{Width: 390, Height: 844}}

	Render(frame, &dst, res, pr)

	if dst.Cols() != 640 || dst.Rows() != 480 {
		t.Fatalf("dst size = %dx%d", dst.Cols(), dst.Rows())
	}
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(dst, &gray, gocv.ColorBGRToGray)
	if gocv.CountNonZero(gray) == 0 {
		t.Error("nothing was drawn")
	}
}
