package handler_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/msomdec/userdata-api/internal/service"
)

type createResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

type recordResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
	Error    string `json:"error"`
}

func createRecord(t *testing.T, baseURL, name, email, password, mobile string) string {
	t.Helper()
	var out createResponse
	status := do(t, http.MethodPost, baseURL+"/api/data", map[string]string{
		"name": name, "email": email, "password": password, "mobile": mobile,
	}, &out)
	if status != http.StatusCreated {
		t.Fatalf("create %s: expected 201, got %d (%s)", email, status, out.Error)
	}
	if out.ID == "" {
		t.Fatal("create: expected an id")
	}
	return out.ID
}

func TestIntegration_CreateConflictRetrieveUpdate(t *testing.T) {
	srv := newTestServer(t, newTestRecordService(t))

	// 1. Create.
	id := createRecord(t, srv.URL, "A", "a@x.com", "p1", "1")

	// 2. Same email again.
	var conflict createResponse
	status := do(t, http.MethodPost, srv.URL+"/api/data", map[string]string{
		"name": "B", "email": "a@x.com", "password": "p2", "mobile": "9",
	}, &conflict)
	if status != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", status)
	}
	if conflict.Error == "" {
		t.Fatal("duplicate create: expected error message")
	}

	// 3. Retrieve with the right credentials.
	var got recordResponse
	status = do(t, http.MethodPost, srv.URL+"/api/data/retrieve", map[string]string{
		"email": "a@x.com", "password": "p1",
	}, &got)
	if status != http.StatusOK {
		t.Fatalf("retrieve: expected 200, got %d", status)
	}
	if got.Name != "A" || got.Mobile != "1" || got.ID != id {
		t.Fatalf("retrieve: unexpected record %+v", got)
	}
	if got.Password == "" || got.Password == "p1" {
		t.Fatalf("retrieve: expected hashed password, got %q", got.Password)
	}

	// 4. Update the mobile and read back.
	var msg createResponse
	status = do(t, http.MethodPut, srv.URL+"/api/data/"+id, map[string]string{"mobile": "2"}, &msg)
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", status)
	}
	if msg.Message == "" {
		t.Fatal("update: expected message")
	}

	got = recordResponse{}
	status = do(t, http.MethodGet, srv.URL+"/api/data/"+id, nil, &got)
	if status != http.StatusOK {
		t.Fatalf("read: expected 200, got %d", status)
	}
	if got.Mobile != "2" || got.Name != "A" || got.Email != "a@x.com" {
		t.Fatalf("read: unexpected record %+v", got)
	}
	if got.Password != "" {
		t.Fatal("read: password hash must not be returned")
	}
}

func TestRetrieve_Failures(t *testing.T) {
	srv := newTestServer(t, newTestRecordService(t))
	createRecord(t, srv.URL, "A", "a@x.com", "p1", "1")

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"wrong password", map[string]string{"email": "a@x.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "b@x.com", "password": "p1"}, http.StatusNotFound},
		{"malformed body", "{not json", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out recordResponse
			status := do(t, http.MethodPost, srv.URL+"/api/data/retrieve", tc.body, &out)
			if status != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, status)
			}
			if out.Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestList(t *testing.T) {
	srv := newTestServer(t, newTestRecordService(t))

	var empty []recordResponse
	if status := do(t, http.MethodGet, srv.URL+"/api/data/", nil, &empty); status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %d", len(empty))
	}

	createRecord(t, srv.URL, "A", "a@x.com", "p1", "1")
	createRecord(t, srv.URL, "B", "b@x.com", "p2", "2")

	for _, path := range []string{"/api/data/", "/api/data"} {
		var records []recordResponse
		if status := do(t, http.MethodGet, srv.URL+path, nil, &records); status != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, status)
		}
		if len(records) != 2 {
			t.Fatalf("GET %s: expected 2 records, got %d", path, len(records))
		}
		for _, r := range records {
			if r.Password != "" {
				t.Fatalf("GET %s: password hash must not be listed", path)
			}
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	srv := newTestServer(t, newTestRecordService(t))

	var out recordResponse
	if status := do(t, http.MethodGet, srv.URL+"/api/data/missing", nil, &out); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if out.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestDelete_Idempotent(t *testing.T) {
	srv := newTestServer(t, newTestRecordService(t))
	id := createRecord(t, srv.URL, "A", "a@x.com", "p1", "1")

	for i := 0; i < 2; i++ {
		var msg createResponse
		if status := do(t, http.MethodDelete, srv.URL+"/api/data/"+id, nil, &msg); status != http.StatusOK {
			t.Fatalf("delete #%d: expected 200, got %d", i+1, status)
		}
	}

	if status := do(t, http.MethodGet, srv.URL+"/api/data/"+id, nil, nil); status != http.StatusNotFound {
		t.Fatalf("read after delete: expected 404, got %d", status)
	}
	if status := do(t, http.MethodDelete, srv.URL+"/api/data/never-existed", nil, nil); status != http.StatusOK {
		t.Fatalf("delete unknown id: expected 200, got %d", status)
	}
}

func TestUpdate(t *testing.T) {
	srv := newTestServer(t, newTestRecordService(t))
	id := createRecord(t, srv.URL, "A", "a@x.com", "p1", "1")
	createRecord(t, srv.URL, "B", "b@x.com", "p2", "2")

	t.Run("password is rehashed", func(t *testing.T) {
		if status := do(t, http.MethodPut, srv.URL+"/api/data/"+id, map[string]string{"password": "p9"}, nil); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if status := do(t, http.MethodPost, srv.URL+"/api/data/retrieve", map[string]string{"email": "a@x.com", "password": "p9"}, nil); status != http.StatusOK {
			t.Fatalf("retrieve with new password: expected 200, got %d", status)
		}
	})

	t.Run("email taken", func(t *testing.T) {
		if status := do(t, http.MethodPut, srv.URL+"/api/data/"+id, map[string]string{"email": "b@x.com"}, nil); status != http.StatusConflict {
			t.Fatalf("expected 409, got %d", status)
		}
	})

	t.Run("unknown id is created", func(t *testing.T) {
		if status := do(t, http.MethodPut, srv.URL+"/api/data/new-id", map[string]string{"name": "N"}, nil); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		var got recordResponse
		if status := do(t, http.MethodGet, srv.URL+"/api/data/new-id", nil, &got); status != http.StatusOK {
			t.Fatalf("read: expected 200, got %d", status)
		}
		if got.Name != "N" {
			t.Fatalf("expected name N, got %q", got.Name)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		if status := do(t, http.MethodPut, srv.URL+"/api/data/"+id, "[]", nil); status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
	})
}

func TestLongPassword(t *testing.T) {
	srv := newTestServer(t, newTestRecordService(t))
	long := strings.Repeat("x", 80)

	id := createRecord(t, srv.URL, "A", "a@x.com", long, "1")
	if status := do(t, http.MethodPost, srv.URL+"/api/data/retrieve", map[string]string{"email": "a@x.com", "password": long}, nil); status != http.StatusOK {
		t.Fatalf("retrieve after create: expected 200, got %d", status)
	}

	longer := strings.Repeat("y", 80)
	if status := do(t, http.MethodPut, srv.URL+"/api/data/"+id, map[string]string{"password": longer}, nil); status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", status)
	}
	if status := do(t, http.MethodPost, srv.URL+"/api/data/retrieve", map[string]string{"email": "a@x.com", "password": longer}, nil); status != http.StatusOK {
		t.Fatalf("retrieve after update: expected 200, got %d", status)
	}
	if status := do(t, http.MethodPost, srv.URL+"/api/data/retrieve", map[string]string{"email": "a@x.com", "password": long}, nil); status != http.StatusUnauthorized {
		t.Fatalf("retrieve with old password: expected 401, got %d", status)
	}
}

func TestStoreFailure_Returns500WithoutDetail(t *testing.T) {
	records := service.NewRecordService(failingStore{err: errors.New("secret backend detail")}, service.NewCredentialCodec(4))
	srv := newTestServer(t, records)

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/data", map[string]string{"email": "a@x.com", "password": "p"}},
		{http.MethodGet, "/api/data/", nil},
		{http.MethodGet, "/api/data/id", nil},
		{http.MethodPut, "/api/data/id", map[string]string{"name": "n"}},
		{http.MethodDelete, "/api/data/id", nil},
		{http.MethodPost, "/api/data/retrieve", map[string]string{"email": "a@x.com", "password": "p"}},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var out recordResponse
			status := do(t, tc.method, srv.URL+tc.path, tc.body, &out)
			if status != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", status)
			}
			if out.Error == "" || strings.Contains(out.Error, "secret backend detail") {
				t.Fatalf("expected generic error message, got %q", out.Error)
			}
		})
	}
}
