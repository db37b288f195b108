package dataset

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Aaryan09-coder/final-major-project-final/internal/landmarks"
)

func handPairs(offset float64) [][]float64 {
	pairs := make([][]float64, landmarks.NumLandmarks)
	for i := range pairs {
		pairs[i] = []float64{offset + 0.01*float64(i), offset}
	}
	return pairs
}

func writeSource(t *testing.T, samples map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(samples)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fist.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoad_ValidSource(t *testing.T) {
	src := writeSource(t, map[string]any{
		"sample_001": map[string]any{"landmarks": [][][]float64{handPairs(0.1)}},
		"sample_002": map[string]any{"landmarks": [][][]float64{handPairs(0.2), handPairs(0.9)}}, // two hands: first wins
	})

	res, err := NewLoader(time.Second).Load(src, 0)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(res.Hands) != 2 || len(res.Labels) != 2 {
		t.Fatalf("expected 2 samples, got %d hands / %d labels", len(res.Hands), len(res.Labels))
	}
	for _, l := range res.Labels {
		if l != 0 {
			t.Errorf("expected label 0, got %d", l)
		}
	}
	if res.Skipped != 0 {
		t.Errorf("expected 0 skipped, got %d", res.Skipped)
	}

	// Sorted ID order: sample_001 first, and the multi-hand record is
	// truncated to its first hand.
	if res.Hands[0][0].X != 0.1 {
		t.Errorf("sample order not sorted by ID: first wrist x = %f", res.Hands[0][0].X)
	}
	if res.Hands[1][0].X != 0.2 {
		t.Errorf("expected first detected hand, got wrist x = %f", res.Hands[1][0].X)
	}
}

func TestLoad_SkipsMalformedRecords(t *testing.T) {
	short := handPairs(0.3)[:20]
	res, err := NewLoader(time.Second).Load(writeSource(t, map[string]any{
		"good":     map[string]any{"landmarks": [][][]float64{handPairs(0.1)}},
		"no_hands": map[string]any{"landmarks": [][][]float64{}},
		"short":    map[string]any{"landmarks": [][][]float64{short}},
	}), 1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// Each malformed record bumps the skip count by exactly one.
	if res.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", res.Skipped)
	}
	if len(res.Hands) != 1 {
		t.Errorf("expected 1 valid hand, got %d", len(res.Hands))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(time.Second).Load(filepath.Join(t.TempDir(), "absent.json"), 0)
	if !errors.Is(err, ErrDataNotFound) {
		t.Fatalf("expected ErrDataNotFound, got %v", err)
	}
}

func TestLoad_HTTPSource(t *testing.T) {
	payload, _ := json.Marshal(map[string]any{
		"s1": map[string]any{"landmarks": [][][]float64{handPairs(0.4)}},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/palm.json" {
			w.Write(payload)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	loader := NewLoader(time.Second)
	res, err := loader.Load(srv.URL+"/palm.json", 1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(res.Hands) != 1 || res.Labels[0] != 1 {
		t.Fatalf("unexpected result: %d hands, labels %v", len(res.Hands), res.Labels)
	}

	if _, err := loader.Load(srv.URL+"/missing.json", 1); !errors.Is(err, ErrDataNotFound) {
		t.Fatalf("expected ErrDataNotFound for 404, got %v", err)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := NewLoader(time.Second).Load(path, 0); err == nil {
		t.Error("expected parse error")
	}
}
