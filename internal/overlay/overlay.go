// Package overlay draws hand skeletons over camera frames.
package overlay

import (
	"image"
	"image/color"

	"github.com/ayusman/bebas/internal/pipeline"
	"github.com/ayusman/bebas/internal/skeleton"
	"gocv.io/x/gocv"
)

var (
	// slotColors holds the bone color per hand slot.
	slotColors = [skeleton.NumSlots]color.RGBA{
		{R: 0, G: 200, B: 255, A: 0},
		{R: 255, G: 120, B: 0, A: 0},
	}
	jointColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	labelColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// Style sets line and marker sizes in pixels.
type Style struct {
	LineThickness int
	JointRadius   int
}

// DefaultStyle is used when Draw receives a zero Style.
var DefaultStyle = Style{LineThickness: 2, JointRadius: 3}

// Projector maps display points back onto a mirrored camera image.
type Projector struct {
	Display        pipeline.DisplayMetrics
	VerticalOffset float64
}

// ToImage returns the pixel of p on an image of the given size. ok is false for
// Absent points.
func (pr Projector) ToImage(p skeleton.Point, size image.Point) (image.Point, bool) {
	if !p.Valid || pr.Display.Width <= 0 || pr.Display.Height <= 0 {
		return image.Point{}, false
	}
	x := p.X / pr.Display.Width * float64(size.X)
	y := (p.Y - pr.VerticalOffset) / pr.Display.Height * float64(size.Y)
	return image.Pt(int(x+0.5), int(y+0.5)), true
}

// Mirror flips src horizontally into dst so it matches the display orientation.
func Mirror(src gocv.Mat, dst *gocv.Mat) {
	gocv.Flip(src, dst, 1)
}

// Draw renders bones and joints of every hand slot onto img, which must already be
// mirrored. Bones with an Absent end are skipped.
func Draw(img *gocv.Mat, pts skeleton.Points, pr Projector, style Style) {
	if style.LineThickness <= 0 {
		style = DefaultStyle
	}
	size := image.Pt(img.Cols(), img.Rows())

	for s := 0; s < skeleton.NumSlots; s++ {
		for _, b := range skeleton.Bones() {
			from, ok1 := pr.ToImage(pts.At(s, b.From), size)
			to, ok2 := pr.ToImage(pts.At(s, b.To), size)
			if ok1 && ok2 {
				gocv.Line(img, from, to, slotColors[s], style.LineThickness)
			}
		}
		for _, j := range skeleton.Catalog() {
			if p, ok := pr.ToImage(pts.At(s, j), size); ok {
				gocv.Circle(img, p, style.JointRadius, jointColor, -1)
			}
		}
	}
}

// Label writes text in the top left corner.
func Label(img *gocv.Mat, text string) {
	if text == "" {
		return
	}
	gocv.PutText(img, text, image.Pt(10, 30), gocv.FontHersheySimplex, 1.0, labelColor, 2)
}

// Render mirrors frame into dst and draws the result over it.
func Render(frame gocv.Mat, dst *gocv.Mat, res pipeline.FrameResult, pr Projector) {
	Mirror(frame, dst)
	Draw(dst, res.Display, pr, Style{})
	if res.HasLabel {
		Label(dst, res.Label)
	}
}
