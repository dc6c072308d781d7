package responses

import (
	"errors"
	"net/http"

	"jan-server/services/upload-api/internal/utils/platformerrors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the wire shape for every failed upload operation. Type
// carries the error taxonomy (validation_error, storage_error,
// partial_failure) so clients can tell a bad manifest from a store
// rejection from an orphaned session needing operator attention.
type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Type          string `json:"type,omitempty"`
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError maps a typed upload error onto its HTTP representation.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errorMessage := domainErr.Message
		if errorMessage == "" {
			errorMessage = message
		}

		errResp := ErrorResponse{
			Code:          domainErr.GetUUID(),
			Type:          errorTypeToString(domainErr.GetErrorType()),
			Error:         errorMessage,
			Message:       errorMessage,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		}

		reqCtx.AbortWithStatusJSON(statusCode, errResp)
		return
	}
	// Non-platform errors
	errResp := ErrorResponse{
		Type:          errorTypeToString(platformerrors.ErrorTypeInternal),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)

	statusCode := platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType())

	errResp := ErrorResponse{
		Code:          err.GetUUID(),
		Type:          errorTypeToString(errorType),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	}

	reqCtx.AbortWithStatusJSON(statusCode, errResp)
}

// errorTypeToString converts an ErrorType to a snake_case string for API responses.
func errorTypeToString(t platformerrors.ErrorType) string {
	switch t {
	case platformerrors.ErrorTypeNotFound:
		return "not_found_error"
	case platformerrors.ErrorTypeValidation:
		return "validation_error"
	case platformerrors.ErrorTypeStorageError:
		return "storage_error"
	case platformerrors.ErrorTypePartialFailure:
		return "partial_failure"
	case platformerrors.ErrorTypeInternal:
		fallthrough
	default:
		return "internal_error"
	}
}
