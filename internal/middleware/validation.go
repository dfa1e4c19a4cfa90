package middleware

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/minhvu/attendly/internal/app/models/dto"
)

// BindError turns a gin binding failure into an error detail,
// flattening field-level validator messages when present
func BindError(err error) *dto.ErrorDetail {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, formatValidationError(verrs[0]))
		return detail.WithField(verrs[0].Field())
	}

	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format")
	return detail.WithDetails(err.Error())
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}
