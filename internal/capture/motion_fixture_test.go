package capture_test

import (
	"testing"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/testdata"
)

func TestMotionDetector_MovingSquare(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frames := testdata.MovingSquare(4, 320, 240)
	defer testdata.CloseAll(frames)

	md := capture.NewMotionDetector(1.0)
	defer md.Close()

	md.Detect(frames[0])
	for i, f := range frames[1:] {
		if moved, pct := md.Detect(f); !moved {
			t.Errorf("frame %d: no motion detected (%.2f%%)", i+1, pct)
		}
	}
}

func TestMockCamera_PlaysMovingSquare(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frames := testdata.MovingSquare(3, 160, 120)
	defer testdata.CloseAll(frames)

	cam := capture.NewMockCamera(frames, false)
	if err := cam.Open(); err != nil {
		t.Fatal(err)
	}
	defer cam.Close()

	for i := range frames {
		mat, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		if mat.Cols() != 160 || mat.Rows() != 120 {
			t.Errorf("frame %d size = %dx%d", i, mat.Cols(), mat.Rows())
		}
		mat.Close()
	}
	if _, err := cam.ReadFrame(); err != capture.ErrNoMoreFrames {
		t.Errorf("ReadFrame() past the end = %v, want ErrNoMoreFrames", err)
	}
}
