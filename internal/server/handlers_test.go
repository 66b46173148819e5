package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/skyops/airman/internal/config"
	"github.com/skyops/airman/internal/embedding"
	"github.com/skyops/airman/internal/llm"
	"github.com/skyops/airman/internal/models"
	"github.com/skyops/airman/internal/retrieval"
	"github.com/skyops/airman/internal/store"
)

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Retrieval.DefaultTopK = 3
	cfg.Retrieval.MaxTopK = 10
	return cfg
}

func newTestServer(t *testing.T, seed bool, client llm.Client) *Server {
	t.Helper()
	emb := embedding.NewMockEmbedder(128)
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if seed {
		ctx := context.Background()
		chunks := []models.Chunk{
			{ID: "manual.md#0000", Source: "manual.md", Index: 0, Text: "Battery charge must be above 20 percent before takeoff."},
		}
		for i := range chunks {
			vec, err := emb.Embed(ctx, chunks[i].Text)
			if err != nil {
				t.Fatal(err)
			}
			chunks[i].Embedding = vec
		}
		if err := s.Rebuild(ctx, emb.ModelID(), emb.Dimensions(), chunks); err != nil {
			t.Fatal(err)
		}
	}

	answerer := retrieval.NewAnswerer(retrieval.NewRetriever(emb, s, nil), client, 400, nil)
	return NewServer(answerer, s, testConfig(), zap.NewNop())
}

func postAsk(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestAskEndpoint(t *testing.T) {
	srv := newTestServer(t, true, &llm.MockClient{Response: "Above 20 percent."})
	rec := postAsk(t, srv, `{"query":"minimum battery charge","top_k":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res models.AnswerResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Answer != "Above 20 percent." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(res.Sources) != 1 || res.Sources[0].Source != "manual.md" {
		t.Errorf("sources = %+v", res.Sources)
	}
}

func TestAskValidation(t *testing.T) {
	srv := newTestServer(t, true, &llm.MockClient{Response: "x"})
	cases := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":"  "}`},
		{"bad json", `{`},
		{"negative top_k", `{"query":"q","top_k":-1}`},
		{"top_k above max", `{"query":"q","top_k":99}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postAsk(t, srv, tc.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAskDefaultsTopK(t *testing.T) {
	srv := newTestServer(t, true, &llm.MockClient{Response: "ok"})
	if rec := postAsk(t, srv, `{"query":"battery"}`); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAskBeforeIngest(t *testing.T) {
	srv := newTestServer(t, false, &llm.MockClient{Response: "x"})
	rec := postAsk(t, srv, `{"query":"battery"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestAskGenerationFailure(t *testing.T) {
	srv := newTestServer(t, true, &llm.MockClient{Err: context.DeadlineExceeded})
	rec := postAsk(t, srv, `{"query":"battery"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, true, &llm.MockClient{Response: "x"})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res["ingested"] != true {
		t.Errorf("ingested = %v", res["ingested"])
	}
	if res["chunk_count"] != float64(1) {
		t.Errorf("chunk_count = %v", res["chunk_count"])
	}
}

func TestStatusBeforeIngest(t *testing.T) {
	srv := newTestServer(t, false, &llm.MockClient{Response: "x"})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res["ingested"] != false {
		t.Errorf("ingested = %v", res["ingested"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, false, &llm.MockClient{Response: "x"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
