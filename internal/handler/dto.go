package handler

import (
	"time"

	"github.com/msomdec/userdata-api/internal/domain"
)

// RecordDTO is the JSON representation of a record. Password carries the
// stored hash and is only filled in for credential retrieval.
type RecordDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	Mobile    string `json:"mobile"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toRecordDTO(r *domain.Record) RecordDTO {
	return RecordDTO{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Mobile:    r.Mobile,
		CreatedAt: formatTime(r.CreatedAt),
		UpdatedAt: formatTime(r.UpdatedAt),
	}
}

func toRecordDTOs(records []domain.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i := range records {
		dtos[i] = toRecordDTO(&records[i])
	}
	return dtos
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
