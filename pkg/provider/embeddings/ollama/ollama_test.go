package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vicoder007/Vekta/pkg/provider/embeddings/ollama"
)

// embedServer serves canned vectors from /api/embed, truncated to the number
// of inputs in the request.
func embedServer(t *testing.T, wantModel string, vecs [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Model != wantModel {
			t.Errorf("model: got %q, want %q", req.Model, wantModel)
		}
		out := vecs
		if len(out) > len(req.Input) {
			out = out[:len(req.Input)]
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      wantModel,
			"embeddings": out,
		})
	}))
}

func TestNewEmptyModel(t *testing.T) {
	t.Parallel()
	if _, err := ollama.New("", ""); err == nil {
		t.Fatal("expected error for empty model")
	}
}

func TestEmbed(t *testing.T) {
	t.Parallel()
	want := []float32{0.1, 0.2, 0.3, 0.4}
	srv := embedServer(t, "nomic-embed-text", [][]float32{want})
	defer srv.Close()

	p, err := ollama.New(srv.URL, "nomic-embed-text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := p.Embed(context.Background(), "10 minutes tempo")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vec[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEmbedBatchOrdering(t *testing.T) {
	t.Parallel()
	vecs := [][]float32{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}}
	srv := embedServer(t, "all-minilm", vecs)
	defer srv.Close()

	p, err := ollama.New(srv.URL, "all-minilm")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("length: got %d, want 3", len(got))
	}
	for i := range vecs {
		for j := range vecs[i] {
			if got[i][j] != vecs[i][j] {
				t.Errorf("vec[%d][%d]: got %v, want %v", i, j, got[i][j], vecs[i][j])
			}
		}
	}
}

func TestEmbedBatchEmpty(t *testing.T) {
	t.Parallel()
	p, err := ollama.New("http://127.0.0.1:19999", "nomic-embed-text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := p.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch(nil): %v", err)
	}
	if got != nil {
		t.Errorf("EmbedBatch(nil): expected nil, got %v", got)
	}
}

func TestDimensionsKnownModels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		model string
		want  int
	}{
		{"nomic-embed-text", 768},
		{"nomic-embed-text:latest", 768},
		{"mxbai-embed-large", 1024},
		{"all-minilm", 384},
	}
	for _, tt := range tests {
		// Unreachable server: no request should be needed.
		p, err := ollama.New("http://127.0.0.1:19999", tt.model)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.model, err)
		}
		if got := p.Dimensions(); got != tt.want {
			t.Errorf("Dimensions(%q): got %d, want %d", tt.model, got, tt.want)
		}
	}
}

func TestDimensionsAutoDetect(t *testing.T) {
	t.Parallel()
	const dim = 512
	vec := make([]float32, dim)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      "custom-embed",
			"embeddings": [][]float32{vec},
		})
	}))
	defer srv.Close()

	p, err := ollama.New(srv.URL, "custom-embed")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := p.Dimensions(); got != dim {
			t.Errorf("call %d: Dimensions() = %d, want %d", i, got, dim)
		}
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 detection request, got %d", calls)
	}
}

func TestDimensionsOption(t *testing.T) {
	t.Parallel()
	p, err := ollama.New("http://127.0.0.1:19999", "custom-model", ollama.WithDimensions(256))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.Dimensions(); got != 256 {
		t.Errorf("Dimensions() = %d, want 256", got)
	}
}

func TestEmbedServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := ollama.New(srv.URL, "nomic-embed-text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestEmbedContextCancelled(t *testing.T) {
	t.Parallel()
	stopCh := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-stopCh:
		}
	}))
	defer srv.Close()
	defer close(stopCh)

	p, err := ollama.New(srv.URL, "nomic-embed-text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := p.Embed(ctx, "hello"); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
