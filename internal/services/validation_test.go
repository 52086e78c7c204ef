package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edulink/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purchaseForm struct {
	PackageID      string `json:"packageId" validate:"required"`
	IdempotencyKey string `json:"idempotencyKey" validate:"required,max=128"`
	Note           string `validate:"omitempty,min=2"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid struct", func(t *testing.T) {
		err := vh.ValidateStruct(&purchaseForm{PackageID: "starter", IdempotencyKey: "k"})
		assert.NoError(t, err)
	})

	t.Run("field names follow json tags", func(t *testing.T) {
		err := vh.ValidateStruct(&purchaseForm{Note: "x"})

		var validationErrors validator.ValidationErrors
		require.True(t, errors.As(err, &validationErrors))
		require.Len(t, validationErrors, 3)
		assert.Equal(t, "packageId", validationErrors[0].Field())
		assert.Equal(t, "idempotencyKey", validationErrors[1].Field())
		assert.Equal(t, "Note", validationErrors[2].Field())
	})
}

func TestValidationHelper_MissingFields(t *testing.T) {
	vh := NewValidationHelper()

	missing, err := vh.MissingFields(models.TeacherProfile{FullName: "Ada", Subject: "Maths", Qualification: "B.Ed"})
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "phone", "email"}, missing)

	missing, err = vh.MissingFields(completeProfile())
	require.NoError(t, err)
	assert.Empty(t, missing)

	p := completeProfile()
	p.ExperienceYears = -2
	_, err = vh.MissingFields(p)
	assert.Error(t, err)
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Something went wrong", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("error response with validation errors", func(t *testing.T) {
		vh := NewValidationHelper()
		validationErr := vh.ValidateStruct(&purchaseForm{})
		assert.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Validation failed", response.Error)
		assert.Equal(t, "validation_failed", response.Code)
		assert.Contains(t, response.Details, "packageId")
		assert.Contains(t, response.Details, "idempotencyKey")
	})

	t.Run("non-validation error is not dereferenced", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, errors.New("bad json"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Invalid request", response.Error)
		assert.Nil(t, response.Details)
	})
}

func TestSendDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient credits", fmt.Errorf("balance 0: %w", ErrInsufficientCredits), http.StatusPaymentRequired, "insufficient_credits"},
		{"invalid package", ErrInvalidPackage, http.StatusBadRequest, "invalid_package"},
		{"not in review", ErrNotInReview, http.StatusConflict, "not_in_review"},
		{"already refunded", ErrAlreadyRefunded, http.StatusConflict, "already_refunded"},
		{"transaction not found", ErrTransactionNotFound, http.StatusNotFound, "transaction_not_found"},
		{"store unavailable", ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SendDomainError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.code, response.Code)
		})
	}

	t.Run("incomplete profile lists fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendDomainError(w, &IncompleteProfileError{Missing: []string{"subject"}})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "incomplete_profile", response.Code)
		assert.Equal(t, []string{"subject"}, response.MissingFields)
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendDomainError(w, errors.New("pq: relation does not exist"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Internal server error", response.Error)
	})
}
