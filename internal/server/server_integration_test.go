package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/bebas/internal/practice"
	"github.com/ayusman/bebas/internal/skeleton"
	"github.com/ayusman/bebas/internal/store"
)

func TestAPI_GestureWorkflow(t *testing.T) {
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	reloads := 0
	ts := httptest.NewServer(New(Config{
		Store:              s,
		Practice:           practice.NewSession(practice.Options{Streak: 2}),
		OnTemplatesChanged: func() { reloads++ },
	}))
	defer ts.Close()

	do := func(method, path string, body any) *http.Response {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatal(err)
			}
		}
		req, err := http.NewRequest(method, ts.URL+path, &buf)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		return resp
	}

	resp := do(http.MethodPost, "/api/gestures", map[string]any{"name": "Saya"})
	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.Name != "Saya" {
		t.Fatalf("create = %d %+v", resp.StatusCode, created)
	}

	sample, _ := json.Marshal(map[string]any{"features": make([]float64, skeleton.FeatureLen), "timestamp": 1})
	samples := map[string]any{"samples": []json.RawMessage{sample, sample}}

	steps := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"duplicate name", http.MethodPost, "/api/gestures", map[string]any{"name": "Saya"}, http.StatusConflict},
		{"list", http.MethodGet, "/api/gestures", nil, http.StatusOK},
		{"get", http.MethodGet, "/api/gestures/" + created.ID, nil, http.StatusOK},
		{"train", http.MethodPost, "/api/gestures/" + created.ID + "/samples", samples, http.StatusCreated},
		{"list samples", http.MethodGet, "/api/gestures/" + created.ID + "/samples", nil, http.StatusOK},
		{"practice trained word", http.MethodPut, "/api/practice", map[string]string{"target": "Saya"}, http.StatusOK},
		{"delete", http.MethodDelete, "/api/gestures/" + created.ID, nil, http.StatusNoContent},
		{"gone", http.MethodGet, "/api/gestures/" + created.ID, nil, http.StatusNotFound},
	}

	for _, st := range steps {
		resp := do(st.method, st.path, st.body)
		resp.Body.Close()
		if resp.StatusCode != st.want {
			t.Fatalf("%s: %s %s = %d, want %d", st.name, st.method, st.path, resp.StatusCode, st.want)
		}
		if st.name == "train" {
			g, err := s.Gestures().GetByID(created.ID)
			if err != nil || !g.Trained() || g.Samples != 2 {
				t.Fatalf("gesture after training = %+v, %v", g, err)
			}
		}
	}

	if reloads != 2 {
		t.Errorf("templates reloaded %d times, want 2", reloads)
	}
}
