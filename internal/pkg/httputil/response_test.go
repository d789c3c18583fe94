package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type equipmentRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	Group        string `json:"group" validate:"required,oneof=Software Hardware"`
}

func TestValidationError_FieldDetails(t *testing.T) {
	err := validator.New().Struct(equipmentRequest{Group: "Redes"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	ValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Message string       `json:"message"`
			Details []FieldError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation error", body.Error.Message)
	assert.ElementsMatch(t, []FieldError{
		{Field: "SerialNumber", Message: "is required"},
		{Field: "Group", Message: "must be one of: Software, Hardware"},
	}, body.Error.Details)
}

func TestValidationError_PlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, errors.New("limit must be positive"))

	assert.JSONEq(t,
		`{"error":{"message":"validation error","details":"limit must be positive"}}`,
		rec.Body.String())
}

func TestHandleError(t *testing.T) {
	errMissing := errors.New("equipment not found")
	errBusy := errors.New("source not ready")
	mappings := []ErrorMapping{
		{Error: errMissing, Status: http.StatusNotFound},
		{Error: errBusy, Status: http.StatusServiceUnavailable, Message: "incident data is still loading"},
	}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "mapped error keeps its text",
			err:         errors.Join(errMissing),
			wantStatus:  http.StatusNotFound,
			wantMessage: "equipment not found",
		},
		{
			name:        "mapped error with fixed message",
			err:         errBusy,
			wantStatus:  http.StatusServiceUnavailable,
			wantMessage: "incident data is still loading",
		},
		{
			name:        "unmapped error is hidden",
			err:         errors.New("connection reset by peer"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(t.Context(), rec, tt.err, mappings)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body.Error.Message)
		})
	}
}

func TestSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]string{"id": "e1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"e1"}}`, rec.Body.String())
}
