package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayusman/bebas/internal/app"
	"github.com/ayusman/bebas/internal/config"
	"github.com/ayusman/bebas/internal/detector"
	"github.com/ayusman/bebas/internal/pipeline"
	"github.com/ayusman/bebas/internal/server"
	"github.com/ayusman/bebas/internal/skeleton"
	"github.com/ayusman/bebas/internal/store"
	"github.com/ayusman/bebas/testdata"
	"github.com/go-resty/resty/v2"
)

type gestureResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Samples int    `json:"samples"`
	Trained bool   `json:"trained"`
}

type practiceStatus struct {
	Target    string `json:"target"`
	LastLabel string `json:"last_label"`
	Matched   int    `json:"matched"`
}

func featuresOf(cfg *config.Config, hand skeleton.Hand) []float64 {
	display := pipeline.DisplayMetrics{Width: cfg.Display.Width, Height: cfg.Display.Height}
	mapper := pipeline.NewMapper(display, cfg.Pipeline.ConfidenceThreshold, cfg.Display.VerticalOffset)
	pts := skeleton.Join(pipeline.AssignSlots([]skeleton.Slot{mapper.MapHand(hand)}))
	if cfg.Pipeline.Normalize {
		pts = pipeline.Normalize(pts)
	}
	return pipeline.BuildFeatures(pts[:])
}

func TestE2E_TrainAndPractice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	cfg := config.Default()
	cfg.Camera.Mock = true
	cfg.Camera.FPS = 60
	cfg.Detector.Backend = "mock"
	cfg.Practice.Streak = 3

	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	hand := detector.ThumbsUpHand()
	det := detector.NewMockDetector()
	det.SetHands([]skeleton.Hand{hand})

	a, err := app.New(app.Options{Config: cfg, Store: s, Detector: det})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer a.Close()

	ts := httptest.NewServer(server.New(a.ServerConfig()))
	defer ts.Close()

	client := resty.New().SetHostURL(ts.URL)

	t.Run("Vocabulary", func(t *testing.T) {
		var res struct {
			Words []string `json:"words"`
		}
		resp, err := client.R().SetResult(&res).Get("/api/vocabulary")
		if err != nil || resp.StatusCode() != http.StatusOK {
			t.Fatalf("vocabulary: %v %d", err, resp.StatusCode())
		}
		found := false
		for _, w := range res.Words {
			found = found || w == "Saya"
		}
		if !found {
			t.Errorf("vocabulary %v lacks Saya", res.Words)
		}
	})

	var created gestureResponse
	t.Run("CreateGesture", func(t *testing.T) {
		resp, err := client.R().
			SetBody(map[string]any{"name": "Saya"}).
			SetResult(&created).
			Post("/api/gestures")
		if err != nil {
			t.Fatalf("create gesture error = %v", err)
		}
		if resp.StatusCode() != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode(), http.StatusCreated)
		}
		if created.ID == "" || created.Trained {
			t.Errorf("created = %+v", created)
		}
	})

	t.Run("TrainGesture", func(t *testing.T) {
		var res struct {
			Samples int  `json:"samples"`
			Trained bool `json:"trained"`
		}
		resp, err := client.R().
			SetBody(map[string][]json.RawMessage{"samples": testdata.Samples(featuresOf(cfg, hand), 3)}).
			SetResult(&res).
			Post("/api/gestures/" + created.ID + "/samples")
		if err != nil {
			t.Fatalf("post samples error = %v", err)
		}
		if resp.StatusCode() != http.StatusCreated {
			t.Fatalf("status = %d, body %s", resp.StatusCode(), resp.Body())
		}
		if res.Samples != 3 || !res.Trained {
			t.Errorf("samples response = %+v", res)
		}
	})

	t.Run("RejectUnknownTarget", func(t *testing.T) {
		resp, err := client.R().SetBody(map[string]string{"target": "Xyzzy"}).Put("/api/practice")
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode() != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode(), http.StatusBadRequest)
		}
	})

	t.Run("SetTarget", func(t *testing.T) {
		var st practiceStatus
		resp, err := client.R().
			SetBody(map[string]string{"target": "Saya"}).
			SetResult(&st).
			Put("/api/practice")
		if err != nil || resp.StatusCode() != http.StatusOK {
			t.Fatalf("set target: %v %d", err, resp.StatusCode())
		}
		if st.Target != "Saya" {
			t.Errorf("target = %q", st.Target)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	t.Run("AttemptRecorded", func(t *testing.T) {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			var res struct {
				Attempts []store.Attempt `json:"attempts"`
			}
			resp, err := client.R().SetResult(&res).Get("/api/attempts?target=Saya")
			if err == nil && resp.StatusCode() == http.StatusOK && len(res.Attempts) > 0 {
				if !res.Attempts[0].Matched {
					t.Errorf("attempt = %+v, want matched", res.Attempts[0])
				}
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatal("no attempt recorded")
	})

	t.Run("Progress", func(t *testing.T) {
		var res struct {
			Progress []store.Progress `json:"progress"`
		}
		resp, err := client.R().SetResult(&res).Get("/api/attempts/progress")
		if err != nil || resp.StatusCode() != http.StatusOK {
			t.Fatalf("progress: %v %d", err, resp.StatusCode())
		}
		if len(res.Progress) != 1 || res.Progress[0].Target != "Saya" || res.Progress[0].Matched == 0 {
			t.Errorf("progress = %+v", res.Progress)
		}
	})

	t.Run("PracticeStatus", func(t *testing.T) {
		var st practiceStatus
		if _, err := client.R().SetResult(&st).Get("/api/practice"); err != nil {
			t.Fatal(err)
		}
		if st.LastLabel != "Saya" || st.Matched == 0 {
			t.Errorf("status = %+v", st)
		}
	})

	t.Run("Health", func(t *testing.T) {
		var res struct {
			Status   string          `json:"status"`
			Pipeline *pipeline.Stats `json:"pipeline"`
		}
		resp, err := client.R().SetResult(&res).Get("/api/health")
		if err != nil || resp.StatusCode() != http.StatusOK {
			t.Fatalf("health: %v %d", err, resp.StatusCode())
		}
		if res.Pipeline == nil || res.Pipeline.Delivered == 0 {
			t.Errorf("pipeline stats = %+v", res.Pipeline)
		}
	})
}

func TestE2E_DeleteGestureStopsRecognition(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	cfg := config.Default()
	cfg.Detector.Backend = "mock"
	cfg.Camera.Mock = true

	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	a, err := app.New(app.Options{Config: cfg, Store: s, Detector: detector.NewMockDetector()})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ts := httptest.NewServer(server.New(a.ServerConfig()))
	defer ts.Close()
	client := resty.New().SetHostURL(ts.URL)

	var g gestureResponse
	if _, err := client.R().SetBody(map[string]any{"name": "Makan"}).SetResult(&g).Post("/api/gestures"); err != nil {
		t.Fatal(err)
	}
	samples := testdata.Samples(featuresOf(cfg, detector.OpenPalmHand()), 2)
	if _, err := client.R().SetBody(map[string]any{"samples": samples}).Post("/api/gestures/" + g.ID + "/samples"); err != nil {
		t.Fatal(err)
	}

	resp, err := client.R().Delete("/api/gestures/" + g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode() != http.StatusNoContent && resp.StatusCode() != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode())
	}

	var list struct {
		Gestures []gestureResponse `json:"gestures"`
	}
	if _, err := client.R().SetResult(&list).Get("/api/gestures"); err != nil {
		t.Fatal(err)
	}
	if len(list.Gestures) != 0 {
		t.Errorf("gestures = %+v, want none", list.Gestures)
	}
}
