package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/userdata-api/internal/domain"
	"github.com/msomdec/userdata-api/internal/service"
)

// RecordHandler serves the /api/data endpoints.
type RecordHandler struct {
	records *service.RecordService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(records *service.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// HandleCreate stores a new record.
// POST /api/data
// Request:  {"name":"...","email":"...","password":"...","mobile":"..."}
// Response: 201 {"message":"...","id":"..."}
func (h *RecordHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Mobile   string `json:"mobile"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.records.Create(r.Context(), service.CreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Mobile:   req.Mobile,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
		slog.Error("create record", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create data")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Data created successfully",
		"id":      id,
	})
}

// HandleList returns every record.
// GET /api/data/
func (h *RecordHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.List(r.Context())
	if err != nil {
		slog.Error("list records", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch data")
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// HandleGet returns one record.
// GET /api/data/{id}
func (h *RecordHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.records.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Data not found")
			return
		}
		slog.Error("get record", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch data")
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

// HandleUpdate merges the supplied fields into a record.
// PUT /api/data/{id}
// Request:  any subset of {"name","email","password","mobile"}
// Response: 200 {"message":"..."}
func (h *RecordHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Mobile   *string `json:"mobile"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.records.Update(r.Context(), r.PathValue("id"), service.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Mobile:   req.Mobile,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "Invalid id")
			return
		}
		slog.Error("update record", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update data")
		return
	}

	writeMessage(w, http.StatusOK, "Data updated successfully")
}

// HandleDelete removes a record. Unknown ids succeed.
// DELETE /api/data/{id}
func (h *RecordHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Delete(r.Context(), r.PathValue("id")); err != nil {
		slog.Error("delete record", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete data")
		return
	}

	writeMessage(w, http.StatusOK, "Data deleted successfully")
}

// HandleRetrieve returns the record matching an email and password.
// POST /api/data/retrieve
// Request:  {"email":"...","password":"..."}
// Response: 200 record, 404 unknown email, 401 wrong password
func (h *RecordHandler) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.records.Retrieve(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			slog.Error("retrieve record", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to retrieve data")
		}
		return
	}

	dto := toRecordDTO(record)
	dto.Password = record.PasswordHash
	writeJSON(w, http.StatusOK, dto)
}
