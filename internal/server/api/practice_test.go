package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/practice"
	"github.com/ayusman/bebas/internal/store"
)

func TestPracticeHandler(t *testing.T) {
	session := practice.NewSession(practice.Options{Streak: 2})
	handler := NewPracticeHandler(session)

	rec := serve(handler, http.MethodPut, "/api/practice", setTargetRequest{Target: "Makan"})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}

	session.OnLabel("Makan")

	rec = serve(handler, http.MethodGet, "/api/practice", nil)
	var st practice.Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Target != "Makan" || st.Streak != 1 {
		t.Errorf("status = %+v", st)
	}

	if rec := serve(handler, http.MethodPut, "/api/practice", setTargetRequest{Target: "Halo"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown word status = %d", rec.Code)
	}
	if rec := serve(handler, http.MethodPost, "/api/practice", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d", rec.Code)
	}
}

func TestVocabulary(t *testing.T) {
	rec := serve(http.HandlerFunc(Vocabulary), http.MethodGet, "/api/vocabulary", nil)

	var got vocabularyResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Words) != len(gesture.Vocabulary) {
		t.Errorf("got %d words, want %d", len(got.Words), len(gesture.Vocabulary))
	}
}

func TestAttemptsHandler(t *testing.T) {
	s := newTestStore(t)
	handler := NewAttemptsHandler(s)

	base := time.Now()
	for i, target := range []string{"Saya", "Saya", "Pagi"} {
		a := &store.Attempt{ID: target + string(rune('a'+i)), SessionID: "s", Target: target, Label: target, Matched: i != 1, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.Attempts().Create(a); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("list by target", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/attempts?target=Saya", nil)
		var got listAttemptsResponse
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if len(got.Attempts) != 2 {
			t.Errorf("got %d attempts, want 2", len(got.Attempts))
		}
	})

	t.Run("progress", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/attempts/progress", nil)
		var got progressResponse
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if len(got.Progress) != 2 || got.Progress[1].Target != "Saya" || got.Progress[1].Matched != 1 {
			t.Errorf("progress = %+v", got.Progress)
		}
	})

	t.Run("errors", func(t *testing.T) {
		if rec := serve(handler, http.MethodGet, "/api/attempts?limit=x", nil); rec.Code != http.StatusBadRequest {
			t.Errorf("bad limit status = %d", rec.Code)
		}
		if rec := serve(handler, http.MethodPost, "/api/attempts", nil); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST status = %d", rec.Code)
		}
		if rec := serve(handler, http.MethodGet, "/api/attempts/other", nil); rec.Code != http.StatusNotFound {
			t.Errorf("unknown path status = %d", rec.Code)
		}
	})
}
