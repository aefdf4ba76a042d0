package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/msomdec/userdata-api/internal/domain"
	"github.com/msomdec/userdata-api/internal/handler"
	"github.com/msomdec/userdata-api/internal/repository/sqlite"
	"github.com/msomdec/userdata-api/internal/service"
)

func newTestRecordService(t *testing.T) *service.RecordService {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return service.NewRecordService(db.Records(), service.NewCredentialCodec(4))
}

func newTestServer(t *testing.T, records *service.RecordService) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, records)
	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv
}

// do sends a JSON request and decodes the JSON response into out when out
// is non-nil. It returns the status code.
func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

type failingStore struct{ err error }

func (f failingStore) FindByEmail(context.Context, string) (*domain.Record, error) { return nil, f.err }
func (f failingStore) Add(context.Context, *domain.Record) error                   { return f.err }
func (f failingStore) GetByID(context.Context, string) (*domain.Record, error)     { return nil, f.err }
func (f failingStore) Merge(context.Context, string, domain.RecordPatch) error     { return f.err }
func (f failingStore) Delete(context.Context, string) error                        { return f.err }
func (f failingStore) List(context.Context) ([]domain.Record, error)               { return nil, f.err }
func (f failingStore) Count(context.Context) (int, error)                          { return 0, f.err }
