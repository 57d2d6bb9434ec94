package sentiment

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeInferenceServer mimics the model server: /config exposes the label
// mapping, /predict returns one probability row per text.
func fakeInferenceServer(t *testing.T, id2label map[string]string, probs map[string][]float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id2label": id2label})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows := make([][]float64, len(req.Texts))
		for i, text := range req.Texts {
			rows[i] = probs[text]
		}
		json.NewEncoder(w).Encode(map[string]any{"probabilities": rows})
	})
	return httptest.NewServer(mux)
}

func TestRemoteClassifierResolvesLabels(t *testing.T) {
	// Model orders its classes neutral, positive, negative.
	server := fakeInferenceServer(t,
		map[string]string{"0": "neutral", "1": "positive", "2": "negative"},
		map[string][]float64{
			"good news": {0.1, 0.8, 0.1},
			"bad news":  {0.2, 0.1, 0.7},
		})
	defer server.Close()

	c, err := NewRemoteClassifier(context.Background(), server.URL, 128)
	if err != nil {
		t.Fatalf("NewRemoteClassifier() error: %v", err)
	}

	probs, err := c.Score(context.Background(), []string{"good news", "bad news"})
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if math.Abs(probs[0].Pos-0.8) > 1e-9 || math.Abs(probs[0].Neu-0.1) > 1e-9 {
		t.Errorf("label indices not resolved from id2label: %+v", probs[0])
	}
	if math.Abs(probs[1].Neg-0.7) > 1e-9 {
		t.Errorf("negative index wrong: %+v", probs[1])
	}
	if LabelFor(probs[1].Score()) != "negative" {
		t.Errorf("label = %q, want negative", LabelFor(probs[1].Score()))
	}
}

func TestRemoteClassifierRejectsIncompleteLabels(t *testing.T) {
	server := fakeInferenceServer(t,
		map[string]string{"0": "up", "1": "down", "2": "flat"}, nil)
	defer server.Close()

	if _, err := NewRemoteClassifier(context.Background(), server.URL, 128); err == nil {
		t.Fatal("expected error for labels that do not cover positive/negative/neutral")
	}
}

func TestRemoteClassifierLengthMismatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id2label": map[string]string{"0": "positive", "1": "negative", "2": "neutral"},
		})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"probabilities": [][]float64{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := NewRemoteClassifier(context.Background(), server.URL, 128)
	if err != nil {
		t.Fatalf("NewRemoteClassifier() error: %v", err)
	}
	if _, err := c.Score(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error for row count mismatch")
	}
}
