package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MukeshR-prog/distributer/internal/engine"
	"github.com/MukeshR-prog/distributer/internal/storage"
	"github.com/MukeshR-prog/distributer/internal/types"
)

type testServer struct {
	router chi.Router
	store  storage.Store
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithCap(t, 1000)
}

func newTestServerWithCap(t *testing.T, maxRecords int) *testServer {
	t.Helper()
	store := storage.NewMemoryStore(zerolog.Nop())
	eng := engine.New(zerolog.Nop())

	r := chi.NewRouter()
	r.Mount("/api", NewRouter(store, eng, maxRecords, zerolog.Nop()))

	return &testServer{router: r, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data := []byte(nil)
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response %q: %v", rec.Body.String(), err)
	}
}

// seedAgents registers n active agents a1..an directly in the store.
func (ts *testServer) seedAgents(t *testing.T, n int) {
	t.Helper()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		err := ts.store.CreateAgent(types.Agent{
			ID:        fmt.Sprintf("a%d", i+1),
			Name:      fmt.Sprintf("Agent %d", i+1),
			Email:     fmt.Sprintf("agent%d@example.com", i+1),
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to seed agent: %v", err)
		}
	}
}

func recordInputs(n int) []map[string]string {
	out := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]string{
			"firstName": fmt.Sprintf("Contact%d", i+1),
			"phone":     fmt.Sprintf("49157512345%02d", i),
		})
	}
	return out
}

func createPayload(strategy string, records []map[string]string) map[string]interface{} {
	return map[string]interface{}{
		"fileName":   "contacts.csv",
		"strategy":   strategy,
		"uploadedBy": "admin",
		"records":    records,
	}
}
