package detector

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/skeleton"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxHands != 2 {
		t.Errorf("MaxHands = %d, want 2", cfg.MaxHands)
	}
	if cfg.MinConfidence != 0.5 {
		t.Errorf("MinConfidence = %f, want 0.5", cfg.MinConfidence)
	}
	if cfg.IdleTimeout <= 0 {
		t.Errorf("IdleTimeout = %v, want positive", cfg.IdleTimeout)
	}
}

func TestMockDetector(t *testing.T) {
	var _ Detector = (*MockDetector)(nil)
	var _ Detector = (*MediaPipeDetector)(nil)

	ctx := context.Background()
	mock := NewMockDetector()

	t.Run("no hands by default", func(t *testing.T) {
		hands, err := mock.Detect(ctx, capture.Frame{Seq: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected 0 hands, got %d", len(hands))
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock.SetHands([]skeleton.Hand{ThumbsUpHand(), OpenPalmHand()})
		hands, err := mock.Detect(ctx, capture.Frame{Seq: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Fatalf("expected 2 hands, got %d", len(hands))
		}
		if hands[0].Handedness != "Right" {
			t.Errorf("expected Right, got %s", hands[0].Handedness)
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock.SetError(ErrExtraction)
		defer mock.SetError(nil)

		_, err := mock.Detect(ctx, capture.Frame{Seq: 3})
		if !errors.Is(err, ErrExtraction) {
			t.Errorf("expected ErrExtraction, got %v", err)
		}
	})

	t.Run("records frame sequence", func(t *testing.T) {
		seen := mock.Seen()
		want := []uint64{1, 2, 3}
		if len(seen) != len(want) {
			t.Fatalf("Seen() = %v, want %v", seen, want)
		}
		for i := range want {
			if seen[i] != want[i] {
				t.Errorf("Seen()[%d] = %d, want %d", i, seen[i], want[i])
			}
		}
	})
}

func TestMockDetector_DelayHonorsContext(t *testing.T) {
	mock := NewMockDetector()
	mock.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := mock.Detect(ctx, capture.Frame{})
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("expected ErrExtraction, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Detect did not return when the context ended")
	}
}

func TestHandAt(t *testing.T) {
	h := HandAt(0.6, 0.3, 0.8)

	if w := h.Landmarks[skeleton.Wrist]; w.X != 0.6 || w.Y != 0.3 {
		t.Errorf("wrist = %+v, want (0.6, 0.3)", w)
	}
	for j, lm := range h.Landmarks {
		if lm.Confidence != 0.8 {
			t.Errorf("joint %s confidence = %f, want 0.8", skeleton.Joint(j), lm.Confidence)
		}
	}
}

func TestJSONHand_ToHand(t *testing.T) {
	raw := `{"handedness":"Left","score":0.9,"points":[` +
		`{"x":0.1,"y":0.2,"z":0},` + // wrist
		`{"x":0.3,"y":0.4,"z":0,"visibility":0.25}` + // thumb CMC
		`]}`

	var jh jsonHand
	if err := json.Unmarshal([]byte(raw), &jh); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	hand := jh.toHand()

	t.Run("wrist moves to the end of the catalog", func(t *testing.T) {
		w := hand.Landmarks[skeleton.Wrist]
		if w.X != 0.2 || w.Y != 0.1 {
			t.Errorf("wrist = %+v, want axes swapped (0.2, 0.1)", w)
		}
		if w.Confidence != 0.9 {
			t.Errorf("wrist confidence = %f, want hand score 0.9", w.Confidence)
		}
	})

	t.Run("per-point visibility wins over hand score", func(t *testing.T) {
		if c := hand.Landmarks[skeleton.ThumbCMC].Confidence; c != 0.25 {
			t.Errorf("thumb CMC confidence = %f, want 0.25", c)
		}
	})

	t.Run("missing points have zero confidence", func(t *testing.T) {
		if c := hand.Landmarks[skeleton.LittleTip].Confidence; c != 0 {
			t.Errorf("little tip confidence = %f, want 0", c)
		}
	})
}

func TestMediaPipeOrder_IsPermutation(t *testing.T) {
	seen := make(map[skeleton.Joint]bool)
	for _, j := range mediaPipeOrder {
		if seen[j] {
			t.Fatalf("joint %s mapped twice", j)
		}
		seen[j] = true
	}
	if len(seen) != skeleton.NumJoints {
		t.Errorf("mapped %d joints, want %d", len(seen), skeleton.NumJoints)
	}
}

func TestNewMediaPipeDetector(t *testing.T) {
	t.Run("missing script", func(t *testing.T) {
		_, err := NewMediaPipeDetector(Config{ScriptPath: filepath.Join(t.TempDir(), "nope.py")})
		if err == nil {
			t.Error("expected error for missing script")
		}
	})

	t.Run("clamps max hands", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), scriptName)
		if err := os.WriteFile(script, []byte("# stub\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		d, err := NewMediaPipeDetector(Config{ScriptPath: script, MaxHands: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.config.MaxHands != 2 {
			t.Errorf("MaxHands = %d, want 2", d.config.MaxHands)
		}
	})

	t.Run("frame without image is an extraction failure", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), scriptName)
		os.WriteFile(script, []byte("# stub\n"), 0o644)

		d, err := NewMediaPipeDetector(Config{ScriptPath: script})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer d.Close()

		if _, err := d.Detect(context.Background(), capture.Frame{Seq: 9}); !errors.Is(err, ErrExtraction) {
			t.Errorf("expected ErrExtraction, got %v", err)
		}
	})
}
