package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error         string            `json:"error"`                   // Error message
	Code          string            `json:"code,omitempty"`          // Stable error code
	Details       map[string]string `json:"details,omitempty"`       // Validation details
	MissingFields []string          `json:"missingFields,omitempty"` // Empty required profile fields
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper. Field names in
// errors are the json names callers send.
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &ValidationHelper{
		validator: v,
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// MissingFields returns the fields that failed the required tag, in
// declaration order.
func (vh *ValidationHelper) MissingFields(s any) ([]string, error) {
	err := vh.validator.Struct(s)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	var missing []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) == 0 {
		return nil, err
	}
	return missing, nil
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	var verrs validator.ValidationErrors
	if errors.As(validationErr, &verrs) {
		errorResp.Code = "validation_failed"
		errorResp.Details = make(map[string]string)
		for _, err := range verrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendDomainError writes err with the status its kind maps to.
func SendDomainError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := ErrorResponse{Error: message, Code: ErrorCode(err)}
	var incomplete *IncompleteProfileError
	if errors.As(err, &incomplete) {
		errorResp.MissingFields = incomplete.Missing
	}

	json.NewEncoder(w).Encode(errorResp)
}

// StatusCode maps a domain error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrInvalidPackage),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidTarget),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrIncompleteProfile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotInReview),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyRefunded):
		return http.StatusConflict
	case errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrApplicationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotUnlocked):
		return http.StatusForbidden
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
