package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minhvu/attendly/internal/app/models/dto"
	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/minhvu/attendly/internal/pkg/logger"
)

// HandleAPIError maps application errors onto HTTP responses. Anything
// it does not recognize is a 500 and gets logged with its cause.
func HandleAPIError(c *gin.Context, err error) {
	status, code, message := classify(err)

	// surface the specific message when the service attached one
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		message = custom.Message
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
	}

	c.JSON(status, dto.ErrorResponse{
		Success:   false,
		Error:     dto.NewErrorDetail(code, message),
		Timestamp: time.Now(),
	})
}

func classify(err error) (int, dto.ErrorCode, string) {
	switch {
	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrUserNotFound, apperrors.ErrClassNotFound,
		apperrors.ErrStudentNotFound, apperrors.ErrSubjectNotFound,
		apperrors.ErrSessionNotFound, apperrors.ErrRequestNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"
	case apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrBadRequest, apperrors.ErrInvalidRequestType):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"
	case errors.Is(err, apperrors.ErrAlreadyCheckedIn):
		return http.StatusConflict, dto.ErrorCodeAlreadyCheckedIn, "Already checked in for this session"
	case errors.Is(err, apperrors.ErrRequestNotPending):
		return http.StatusConflict, dto.ErrorCodeRequestNotPending, "Request is no longer pending"
	case apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeConflict, "Conflict"
	case errors.Is(err, apperrors.ErrNotEnrolled):
		return http.StatusForbidden, dto.ErrorCodeNotEnrolled, "Student not enrolled in this class"
	case errors.Is(err, apperrors.ErrNoScheduledSession):
		return http.StatusUnprocessableEntity, dto.ErrorCodeNoScheduledSession, "No class scheduled at this time"
	case errors.Is(err, apperrors.ErrRecognizerTimeout):
		return http.StatusGatewayTimeout, dto.ErrorCodeRecognizerTimeout, "Face recognition timed out"
	case errors.Is(err, apperrors.ErrNoMatch):
		return http.StatusUnprocessableEntity, dto.ErrorCodeNoMatch, "Face not recognized"
	case errors.Is(err, apperrors.ErrIdentityMismatch):
		return http.StatusUnprocessableEntity, dto.ErrorCodeIdentityMismatch, "Recognized identity does not match the acting user"
	case errors.Is(err, apperrors.ErrRecognizerFailed):
		return http.StatusServiceUnavailable, dto.ErrorCodeRecognizerFailed, "Face recognition failed"
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
	}
}
